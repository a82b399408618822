package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextCycleDisconnectsOnSecondMiss(t *testing.T) {
	g := GameInfo{State: StateActive}

	g.NextCycle()
	assert.Equal(t, StateActive, g.State, "one missed cycle must not disconnect")

	g.NextCycle()
	assert.Equal(t, StateDisconnected, g.State)
}

func TestShouldPruneAfterSixCycles(t *testing.T) {
	g := GameInfo{State: StateActive}

	for i := 1; i <= 5; i++ {
		g.NextCycle()
		assert.Falsef(t, g.ShouldPrune(), "cycle %d", i)
	}
	g.NextCycle()
	assert.True(t, g.ShouldPrune())
	assert.True(t, g.ShouldPrune(), "predicate has no side effect")
	assert.Equal(t, StateDisconnected, g.State)
}

func TestAcknowledge(t *testing.T) {
	tests := []struct {
		name  string
		state PlayerState
		want  PlayerState
	}{
		{"active stays active", StateActive, StateActive},
		{"spawning stays spawning", StateSpawning, StateSpawning},
		{"disconnected comes back spawning", StateDisconnected, StateSpawning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GameInfo{State: tt.state, lastSeen: 4}
			g.Acknowledge()
			assert.Equal(t, tt.want, g.State)
			assert.Zero(t, g.lastSeen)
		})
	}
}

func TestAcknowledgeIsIdempotent(t *testing.T) {
	once := GameInfo{State: StateActive}
	twice := GameInfo{State: StateActive}
	for i := 0; i < 3; i++ {
		once.NextCycle()
		twice.NextCycle()
	}

	once.Acknowledge()
	twice.Acknowledge()
	twice.Acknowledge()

	assert.Equal(t, once, twice)
	assert.Equal(t, StateSpawning, twice.State)
}

func TestAcknowledgeResetsAging(t *testing.T) {
	g := GameInfo{State: StateActive}
	for i := 0; i < 5; i++ {
		g.NextCycle()
	}
	g.Acknowledge()
	g.NextCycle()
	assert.False(t, g.ShouldPrune())
	assert.Equal(t, StateSpawning, g.State)
}

func TestUpdateFromG15KeepsMissingFields(t *testing.T) {
	g := GameInfo{UserID: "7", Team: TeamRed, Ping: 40, Kills: 3, Deaths: 1, State: StateSpawning}
	ping := uint32(55)

	g.UpdateFromG15(G15Player{Ping: &ping})

	assert.Equal(t, GameInfo{UserID: "7", Team: TeamRed, Ping: 55, Kills: 3, Deaths: 1, State: StateSpawning}, g)
}

func TestUpdateFromStatus(t *testing.T) {
	g := GameInfo{UserID: "7", Team: TeamBlu, Kills: 9, lastSeen: 2}

	g.UpdateFromStatus(StatusLine{UserID: "8", Time: 120, Ping: 30, Loss: 1, State: StateActive})

	assert.Equal(t, "8", g.UserID)
	assert.Equal(t, TeamBlu, g.Team)
	assert.Equal(t, uint32(9), g.Kills)
	assert.Equal(t, uint32(120), g.Time)
	assert.Equal(t, uint32(2), g.lastSeen, "status updates do not acknowledge")
}
