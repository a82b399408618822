package lobbywatch

import (
	"encoding/json"
	"time"
)

// PlayerChannel is the pub/sub channel registry events are published on.
const PlayerChannel = "lobbywatch.players"

const (
	EventPlayerJoined  = "player.joined"
	EventPlayerUpdated = "player.updated"
	EventPlayerLeft    = "player.left"
)

// SteamID is the 64-bit identity of a Steam account.
// Externally it is always represented as a decimal string.
type SteamID uint64

func (id SteamID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *SteamID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// some producers still send the raw number
		var n uint64
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return err
		}
		*id = SteamID(n)
		return nil
	}
	parsed, err := ParseSteamID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id SteamID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *SteamID) UnmarshalText(text []byte) error {
	parsed, err := ParseSteamID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Event is published whenever the registry gains, changes or loses a player.
type Event struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	SteamID SteamID         `json:"steamID64"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Time    time.Time       `json:"time"`
}
