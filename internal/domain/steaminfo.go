package domain

import "encoding/json"

// SteamInfo is the profile snapshot fetched from the Steam Web API.
// It is always replaced as a whole.
type SteamInfo struct {
	AccountName       string            `json:"name"`
	ProfileURL        string            `json:"profileUrl"`
	PfpURL            string            `json:"pfp"`
	PfpHash           string            `json:"pfpHash"`
	ProfileVisibility ProfileVisibility `json:"profileVisibility"`
	TimeCreated       *int64            `json:"timeCreated"`
	CountryCode       *string           `json:"countryCode"`

	VACBans          int64  `json:"vacBans"`
	GameBans         int64  `json:"gameBans"`
	DaysSinceLastBan *int64 `json:"daysSinceLastBan"`
}

type ProfileVisibility int32

const (
	VisibilityPrivate     ProfileVisibility = 1
	VisibilityFriendsOnly ProfileVisibility = 2
	VisibilityPublic      ProfileVisibility = 3
)

// ProfileVisibilityFromInt never fails: unknown values are treated as private.
func ProfileVisibilityFromInt(v int32) ProfileVisibility {
	switch ProfileVisibility(v) {
	case VisibilityPrivate, VisibilityFriendsOnly, VisibilityPublic:
		return ProfileVisibility(v)
	default:
		return VisibilityPrivate
	}
}

func (v ProfileVisibility) String() string {
	switch v {
	case VisibilityFriendsOnly:
		return "FriendsOnly"
	case VisibilityPublic:
		return "Public"
	default:
		return "Private"
	}
}

func (v *ProfileVisibility) UnmarshalJSON(data []byte) error {
	var n int32
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = ProfileVisibilityFromInt(n)
	return nil
}
