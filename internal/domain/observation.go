package domain

import "github.com/totegamma/lobbywatch"

// StatusLine is one parsed row of the console `status` command.
type StatusLine struct {
	SteamID lobbywatch.SteamID `json:"steamID64"`
	Name    string             `json:"name"`
	UserID  string             `json:"userid"`
	Time    uint32             `json:"time"`
	Ping    uint32             `json:"ping"`
	Loss    uint32             `json:"loss"`
	State   PlayerState        `json:"state"`
}

// G15Player is one player slot of the G15 dump. Every field may be missing.
type G15Player struct {
	SteamID *lobbywatch.SteamID `json:"steamID64,omitempty"`
	Name    *string             `json:"name,omitempty"`
	UserID  *string             `json:"userid,omitempty"`
	Team    *Team               `json:"team,omitempty"`
	Ping    *uint32             `json:"ping,omitempty"`
	Score   *uint32             `json:"score,omitempty"`
	Deaths  *uint32             `json:"deaths,omitempty"`
}
