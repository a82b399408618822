package domain

import (
	"encoding/json"

	"github.com/totegamma/lobbywatch"
)

// PlayerRecord is the persisted moderation data of a player.
type PlayerRecord struct {
	SteamID       lobbywatch.SteamID `json:"steamID64"`
	CustomData    json.RawMessage    `json:"customData"`
	Verdict       Verdict            `json:"verdict"`
	PreviousNames []string           `json:"previousNames"`
}

func NewPlayerRecord(steamID lobbywatch.SteamID) PlayerRecord {
	return PlayerRecord{
		SteamID:       steamID,
		CustomData:    EmptyCustomData(),
		Verdict:       VerdictPlayer,
		PreviousNames: []string{},
	}
}

// EmptyCustomData is the initial value of a player's custom data.
func EmptyCustomData() json.RawMessage {
	return json.RawMessage(`{}`)
}

func cloneCustomData(data json.RawMessage) json.RawMessage {
	if data == nil {
		return EmptyCustomData()
	}
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}

func cloneStrings(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
