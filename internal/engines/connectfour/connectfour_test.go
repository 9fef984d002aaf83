package connectfour

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-hub/gamesession/internal/engine"
)

func newGame() *Engine {
	seats := []*engine.Seat{
		{PlayerID: "A", Role: "red", Alive: true},
		{PlayerID: "B", Role: "yellow", Alive: true},
	}
	return New(seats, nil).(*Engine)
}

func drop(col int) json.RawMessage {
	b, _ := json.Marshal(map[string]int{"column": col})
	return b
}

// Scenario 2 from spec §8 (piece-count invariant): after the listed column
// sequence, A has dropped 5 discs and B has dropped 4.
func TestScenarioPieceCounts(t *testing.T) {
	g := newGame()
	seq := []struct {
		player string
		col    int
	}{
		{"A", 3}, {"B", 4}, {"A", 4}, {"B", 5}, {"A", 5},
		{"B", 0}, {"A", 5}, {"B", 1}, {"A", 5},
	}
	for _, s := range seq {
		require.NoError(t, g.ApplyMove(s.player, drop(s.col)))
	}
	assert.Equal(t, 5, g.PieceCount(colorRed))
	assert.Equal(t, 4, g.PieceCount(colorYellow))
}

func TestVerticalWin(t *testing.T) {
	g := newGame()
	require.NoError(t, g.ApplyMove("A", drop(0)))
	require.NoError(t, g.ApplyMove("B", drop(1)))
	require.NoError(t, g.ApplyMove("A", drop(0)))
	require.NoError(t, g.ApplyMove("B", drop(1)))
	require.NoError(t, g.ApplyMove("A", drop(0)))
	require.NoError(t, g.ApplyMove("B", drop(1)))
	require.NoError(t, g.ApplyMove("A", drop(0)))

	assert.True(t, g.Terminal())
	assert.Equal(t, []string{"A", "B"}, g.Podium())
}

func TestColumnFullRejected(t *testing.T) {
	g := newGame()
	for i := 0; i < rows; i++ {
		player := "A"
		if i%2 == 1 {
			player = "B"
		}
		require.NoError(t, g.ApplyMove(player, drop(0)))
	}
	err := g.ApplyMove("A", drop(0))
	assert.ErrorIs(t, err, engine.ErrIllegalMove)
}

func TestOutOfTurnRejected(t *testing.T) {
	g := newGame()
	err := g.ApplyMove("B", drop(0))
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)
}

func TestUnknownPlayerRejected(t *testing.T) {
	g := newGame()
	err := g.ApplyMove("C", drop(0))
	assert.ErrorIs(t, err, engine.ErrUnknownPlayer)
}
