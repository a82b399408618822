package domain

import (
	"encoding/json"
	"fmt"
)

// Team is the side a player is on as reported by the G15 dump.
type Team uint32

const (
	TeamUnassigned Team = 0
	TeamSpectators Team = 1
	TeamRed        Team = 2
	TeamBlu        Team = 3
)

// ParseTeam decodes the raw team value. Unknown values are an error.
func ParseTeam(v uint32) (Team, error) {
	switch Team(v) {
	case TeamUnassigned, TeamSpectators, TeamRed, TeamBlu:
		return Team(v), nil
	default:
		return TeamUnassigned, fmt.Errorf("%w: %d", ErrInvalidTeam, v)
	}
}

func (t Team) String() string {
	switch t {
	case TeamUnassigned:
		return "Unassigned"
	case TeamSpectators:
		return "Spectators"
	case TeamRed:
		return "Red"
	case TeamBlu:
		return "Blu"
	default:
		return fmt.Sprintf("Team(%d)", uint32(t))
	}
}

func (t Team) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint32(t))
}

func (t *Team) UnmarshalJSON(data []byte) error {
	var v uint32
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseTeam(v)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// PlayerState is the liveness of a player's session.
type PlayerState int

const (
	StateActive PlayerState = iota
	StateSpawning
	StateDisconnected
)

func (s PlayerState) String() string {
	switch s {
	case StateActive:
		return "Active"
	case StateSpawning:
		return "Spawning"
	case StateDisconnected:
		return "Disconnected"
	default:
		return fmt.Sprintf("PlayerState(%d)", int(s))
	}
}

// ParsePlayerState accepts the tag names as well as the console's own
// lowercase spelling ("active", "spawning").
func ParsePlayerState(s string) (PlayerState, error) {
	switch s {
	case "Active", "active":
		return StateActive, nil
	case "Spawning", "spawning":
		return StateSpawning, nil
	case "Disconnected", "disconnected":
		return StateDisconnected, nil
	default:
		return StateActive, fmt.Errorf("invalid player state %q", s)
	}
}

func (s PlayerState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *PlayerState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParsePlayerState(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Verdict is the local operator's judgement of a player.
type Verdict int

const (
	VerdictPlayer Verdict = iota
	VerdictBot
	VerdictSuspicious
	VerdictCheater
	VerdictTrusted
)

var verdictNames = map[Verdict]string{
	VerdictPlayer:     "Player",
	VerdictBot:        "Bot",
	VerdictSuspicious: "Suspicious",
	VerdictCheater:    "Cheater",
	VerdictTrusted:    "Trusted",
}

func (v Verdict) String() string {
	if name, ok := verdictNames[v]; ok {
		return name
	}
	return fmt.Sprintf("Verdict(%d)", int(v))
}

func ParseVerdict(s string) (Verdict, error) {
	for v, name := range verdictNames {
		if name == s {
			return v, nil
		}
	}
	return VerdictPlayer, fmt.Errorf("%w: %q", ErrInvalidVerdict, s)
}

func (v Verdict) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseVerdict(str)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
