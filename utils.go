package lobbywatch

import (
	"fmt"
	"strconv"
	"strings"
)

// individualBase is the SteamID64 of account 0 in the public universe.
const individualBase uint64 = 76561197960265728

func (id SteamID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// AccountID returns the low 32 bits of the id.
func (id SteamID) AccountID() uint32 {
	return uint32(uint64(id) & 0xFFFFFFFF)
}

// Steam3 renders the id in the [U:1:N] form used by the game console.
func (id SteamID) Steam3() string {
	return fmt.Sprintf("[U:1:%d]", id.AccountID())
}

// ParseSteamID accepts a decimal SteamID64, a Steam3 id ([U:1:N]) or a
// Steam2 id (STEAM_X:Y:Z).
func ParseSteamID(s string) (SteamID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty steamid")
	}

	switch {
	case strings.HasPrefix(s, "[U:"):
		return parseSteam3(s)
	case strings.HasPrefix(s, "STEAM_"):
		return parseSteam2(s)
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid steamid %q", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("invalid steamid %q", s)
	}
	return SteamID(n), nil
}

func parseSteam3(s string) (SteamID, error) {
	if !strings.HasSuffix(s, "]") {
		return 0, fmt.Errorf("invalid steam3 id %q", s)
	}
	parts := strings.Split(strings.TrimSuffix(strings.TrimPrefix(s, "[U:"), "]"), ":")
	if len(parts) != 2 || parts[0] != "1" {
		return 0, fmt.Errorf("invalid steam3 id %q", s)
	}
	account, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid steam3 id %q", s)
	}
	return SteamID(individualBase + account), nil
}

func parseSteam2(s string) (SteamID, error) {
	parts := strings.Split(strings.TrimPrefix(s, "STEAM_"), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid steam2 id %q", s)
	}
	y, err := strconv.ParseUint(parts[1], 10, 1)
	if err != nil {
		return 0, fmt.Errorf("invalid steam2 id %q", s)
	}
	z, err := strconv.ParseUint(parts[2], 10, 31)
	if err != nil {
		return 0, fmt.Errorf("invalid steam2 id %q", s)
	}
	return SteamID(individualBase + z*2 + y), nil
}
