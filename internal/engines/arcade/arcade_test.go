package arcade

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-hub/gamesession/internal/engine"
)

func newGame() *Engine {
	seats := []*engine.Seat{
		{PlayerID: "A", Role: "p1", Alive: true},
		{PlayerID: "B", Role: "p2", Alive: true},
	}
	return New(seats, nil).(*Engine)
}

func input(ax, ay float64, dash bool) json.RawMessage {
	raw, _ := json.Marshal(map[string]any{"accelX": ax, "accelY": ay, "dash": dash})
	return raw
}

func TestAccelerationMovesPlayer(t *testing.T) {
	g := newGame()
	require.NoError(t, g.ApplyMove("A", input(100, 0, false)))
	start := g.players["A"].Pos.X
	g.advanceBy(100 * time.Millisecond)
	assert.Greater(t, g.players["A"].Pos.X, start)
}

func TestDashClearsVelocityAndArmsCooldown(t *testing.T) {
	g := newGame()
	require.NoError(t, g.ApplyMove("A", input(100, 50, false)))
	require.NoError(t, g.ApplyMove("A", input(0, 0, true)))
	assert.Equal(t, vec{}, g.players["A"].Vel)
	assert.Equal(t, dashCooldown, g.players["A"].DashCooldown)
}

func TestCollisionRemovesLifeAndEliminatesAtZero(t *testing.T) {
	g := newGame()
	p := g.players["A"]
	g.hazards = []hazard{{Pos: p.Pos}}

	g.advanceBy(10 * time.Millisecond)
	assert.Equal(t, startingLives-1, p.Lives)

	g.advanceBy(10 * time.Millisecond)
	g.advanceBy(10 * time.Millisecond)
	assert.False(t, p.Alive)
}

func TestLastSurvivorEndsSession(t *testing.T) {
	g := newGame()
	a, b := g.players["A"], g.players["B"]
	g.hazards = []hazard{{Pos: b.Pos}}
	_ = a

	for i := 0; i < startingLives; i++ {
		g.advanceBy(10 * time.Millisecond)
	}

	assert.True(t, g.Terminal())
	assert.Equal(t, "elimination", g.Reason())
	assert.Equal(t, []string{"A", "B"}, g.Podium())
}

func TestEliminatedPlayerCannotMove(t *testing.T) {
	g := newGame()
	g.players["A"].Alive = false
	err := g.ApplyMove("A", input(1, 1, false))
	assert.ErrorIs(t, err, engine.ErrIllegalMove)
}

func TestUnknownPlayerRejected(t *testing.T) {
	g := newGame()
	err := g.ApplyMove("C", input(1, 1, false))
	assert.ErrorIs(t, err, engine.ErrUnknownPlayer)
}
