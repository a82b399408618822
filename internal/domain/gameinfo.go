package domain

const (
	// DisconnectThreshold is the number of unobserved cycles tolerated
	// before a player is considered disconnected.
	DisconnectThreshold uint32 = 1
	// PruneThreshold is the number of unobserved cycles after which a
	// player may be removed from the registry.
	PruneThreshold uint32 = 5
)

// GameInfo is the live session data of a player.
type GameInfo struct {
	UserID string      `json:"userid"`
	Team   Team        `json:"team"`
	Time   uint32      `json:"time"`
	Ping   uint32      `json:"ping"`
	Loss   uint32      `json:"loss"`
	State  PlayerState `json:"state"`
	Kills  uint32      `json:"kills"`
	Deaths uint32      `json:"deaths"`

	// cycles since the player was last observed
	lastSeen uint32
}

func NewGameInfoFromStatus(status StatusLine) GameInfo {
	return GameInfo{
		UserID: status.UserID,
		Team:   TeamUnassigned,
		Time:   status.Time,
		Ping:   status.Ping,
		Loss:   status.Loss,
		State:  status.State,
	}
}

// NewGameInfoFromG15 returns false when the dump did not carry a user id.
func NewGameInfoFromG15(g15 G15Player) (GameInfo, bool) {
	if g15.UserID == nil {
		return GameInfo{}, false
	}
	return GameInfo{
		UserID: *g15.UserID,
		Team:   valueOr(g15.Team, TeamUnassigned),
		Ping:   valueOr(g15.Ping, 0),
		State:  StateActive,
		Kills:  valueOr(g15.Score, 0),
		Deaths: valueOr(g15.Deaths, 0),
	}, true
}

// UpdateFromStatus refreshes the fields the status line reports.
func (g *GameInfo) UpdateFromStatus(status StatusLine) {
	g.UserID = status.UserID
	g.Time = status.Time
	g.Ping = status.Ping
	g.Loss = status.Loss
	g.State = status.State
}

// UpdateFromG15 refreshes the fields present in the dump.
func (g *GameInfo) UpdateFromG15(g15 G15Player) {
	if g15.UserID != nil {
		g.UserID = *g15.UserID
	}
	g.Team = valueOr(g15.Team, g.Team)
	g.Ping = valueOr(g15.Ping, g.Ping)
	g.Kills = valueOr(g15.Score, g.Kills)
	g.Deaths = valueOr(g15.Deaths, g.Deaths)
}

// NextCycle ages the session by one polling cycle.
func (g *GameInfo) NextCycle() {
	g.lastSeen++
	if g.lastSeen > DisconnectThreshold {
		g.State = StateDisconnected
	}
}

// Acknowledge marks the player as observed in the current cycle.
// A disconnected player comes back as spawning, never straight to active.
func (g *GameInfo) Acknowledge() {
	g.lastSeen = 0
	if g.State == StateDisconnected {
		g.State = StateSpawning
	}
}

func (g *GameInfo) ShouldPrune() bool {
	return g.lastSeen > PruneThreshold
}

func valueOr[T any](v *T, fallback T) T {
	if v == nil {
		return fallback
	}
	return *v
}
