package domain

import (
	"encoding/json"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/totegamma/lobbywatch"
)

// Player is the canonical view of one SteamID in the current session.
type Player struct {
	Name          string             `json:"name"`
	SteamID       lobbywatch.SteamID `json:"steamID64"`
	IsSelf        bool               `json:"isSelf"`
	GameInfo      GameInfo           `json:"gameInfo"`
	SteamInfo     *SteamInfo         `json:"steamInfo"`
	CustomData    json.RawMessage    `json:"customData"`
	Tags          []string           `json:"tags"`
	LocalVerdict  Verdict            `json:"localVerdict"`
	Convicted     bool               `json:"convicted"`
	PreviousNames []string           `json:"previousNames"`
}

func NewPlayerFromStatus(status StatusLine, user *lobbywatch.SteamID) *Player {
	return newPlayer(status.SteamID, status.Name, user, NewGameInfoFromStatus(status))
}

// NewPlayerFromG15 returns false when the dump lacks the SteamID, the name
// or the user id of the slot.
func NewPlayerFromG15(g15 G15Player, user *lobbywatch.SteamID) (*Player, bool) {
	if g15.SteamID == nil || g15.Name == nil {
		return nil, false
	}
	gameInfo, ok := NewGameInfoFromG15(g15)
	if !ok {
		return nil, false
	}
	return newPlayer(*g15.SteamID, *g15.Name, user, gameInfo), true
}

func newPlayer(steamID lobbywatch.SteamID, name string, user *lobbywatch.SteamID, gameInfo GameInfo) *Player {
	return &Player{
		Name:          name,
		SteamID:       steamID,
		IsSelf:        user != nil && *user == steamID,
		GameInfo:      gameInfo,
		CustomData:    EmptyCustomData(),
		Tags:          []string{},
		LocalVerdict:  VerdictPlayer,
		PreviousNames: []string{},
	}
}

// UpdateFromRecord overlays the persisted moderation data onto the player.
// A record for a different SteamID is rejected and the player is left as is.
func (p *Player) UpdateFromRecord(record PlayerRecord) error {
	if record.SteamID != p.SteamID {
		err := &IdentityMismatchError{Record: record.SteamID, Player: p.SteamID}
		log.Error().
			Str("module", "player").
			Stringer("record", record.SteamID).
			Stringer("player", p.SteamID).
			Msg("Updating player with wrong record")
		return err
	}

	p.CustomData = cloneCustomData(record.CustomData)
	p.LocalVerdict = record.Verdict
	p.PreviousNames = cloneStrings(record.PreviousNames)
	return nil
}

// Record returns the persistable part of the player.
func (p *Player) Record() PlayerRecord {
	return PlayerRecord{
		SteamID:       p.SteamID,
		CustomData:    cloneCustomData(p.CustomData),
		Verdict:       p.LocalVerdict,
		PreviousNames: cloneStrings(p.PreviousNames),
	}
}

// SetSteamInfo replaces the profile snapshot. nil clears it.
func (p *Player) SetSteamInfo(info *SteamInfo) {
	if info == nil {
		p.SteamInfo = nil
		return
	}
	snapshot := *info
	p.SteamInfo = &snapshot
}

// AddTag appends a tag unless it is already present.
func (p *Player) AddTag(tag string) bool {
	if tag == "" || slices.Contains(p.Tags, tag) {
		return false
	}
	p.Tags = append(p.Tags, tag)
	return true
}

// Rename applies a newly observed name and remembers the old one.
func (p *Player) Rename(name string) bool {
	if name == "" || name == p.Name {
		return false
	}
	if p.Name != "" && !slices.Contains(p.PreviousNames, p.Name) {
		p.PreviousNames = append(p.PreviousNames, p.Name)
	}
	p.Name = name
	return true
}

// Clone returns a deep copy safe to hand to another goroutine.
func (p *Player) Clone() Player {
	c := *p
	c.CustomData = cloneCustomData(p.CustomData)
	c.Tags = cloneStrings(p.Tags)
	c.PreviousNames = cloneStrings(p.PreviousNames)
	if p.SteamInfo != nil {
		info := *p.SteamInfo
		c.SteamInfo = &info
	}
	return c
}
