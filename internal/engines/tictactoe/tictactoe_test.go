package tictactoe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-hub/gamesession/internal/engine"
)

func newGame() *Engine {
	seats := []*engine.Seat{
		{PlayerID: "A", Role: "X", Alive: true},
		{PlayerID: "B", Role: "O", Alive: true},
	}
	return New(seats, nil).(*Engine)
}

func move(cell int) json.RawMessage {
	b, _ := json.Marshal(map[string]int{"cell": cell})
	return b
}

// Scenario 1 from spec §8: moves 0(A), 4(B), 1(A), 5(B), 2(A) -> A wins top row.
func TestTopRowWin(t *testing.T) {
	g := newGame()
	require.NoError(t, g.ApplyMove("A", move(0)))
	require.NoError(t, g.ApplyMove("B", move(4)))
	require.NoError(t, g.ApplyMove("A", move(1)))
	require.NoError(t, g.ApplyMove("B", move(5)))
	require.NoError(t, g.ApplyMove("A", move(2)))

	assert.True(t, g.Terminal())
	assert.Equal(t, []string{"A", "B"}, g.Podium())
}

func TestOutOfTurnRejected(t *testing.T) {
	g := newGame()
	err := g.ApplyMove("B", move(0))
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)
}

func TestOccupiedCellRejected(t *testing.T) {
	g := newGame()
	require.NoError(t, g.ApplyMove("A", move(0)))
	err := g.ApplyMove("B", move(0))
	assert.ErrorIs(t, err, engine.ErrIllegalMove)
}

func TestUnknownPlayerRejected(t *testing.T) {
	g := newGame()
	err := g.ApplyMove("C", move(0))
	assert.ErrorIs(t, err, engine.ErrUnknownPlayer)
}

func TestDrawProducesSeatOrderPodium(t *testing.T) {
	g := newGame()
	// X O X / X O O / O X X -> draw
	seq := []struct {
		player string
		cell   int
	}{
		{"A", 0}, {"B", 1}, {"A", 2},
		{"B", 4}, {"A", 3}, {"B", 5},
		{"A", 7}, {"B", 6}, {"A", 8},
	}
	for _, s := range seq {
		require.NoError(t, g.ApplyMove(s.player, move(s.cell)))
	}
	assert.True(t, g.Terminal())
	assert.Equal(t, "draw", g.Reason())
	assert.Equal(t, []string{"A", "B"}, g.Podium())
}
