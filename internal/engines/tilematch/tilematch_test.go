package tilematch

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

func pair(a, b int) json.RawMessage {
	raw, _ := json.Marshal(map[string]int{"tileA": a, "tileB": b})
	return raw
}

func TestMatchingPairScores(t *testing.T) {
	g := newGame()
	g.tiles[0] = tile{ID: 0, Color: "red"}
	g.tiles[1] = tile{ID: 1, Color: "red"}

	require.NoError(t, g.ApplyMove("A", pair(0, 1)))
	assert.True(t, g.tiles[0].Matched)
	assert.True(t, g.tiles[1].Matched)
	assert.Equal(t, 10, g.players["A"].Score)
	assert.Equal(t, 1, g.players["A"].Combo)
}

func TestMismatchResetsCombo(t *testing.T) {
	g := newGame()
	g.tiles[0] = tile{ID: 0, Color: "red"}
	g.tiles[1] = tile{ID: 1, Color: "blue"}

	require.NoError(t, g.ApplyMove("A", pair(0, 1)))
	assert.Equal(t, 0, g.players["A"].Combo)
	assert.Equal(t, 0, g.players["A"].Score)
}

func TestAlreadyMatchedTileRejected(t *testing.T) {
	g := newGame()
	g.tiles[0] = tile{ID: 0, Color: "red", Matched: true}
	g.tiles[1] = tile{ID: 1, Color: "red"}

	err := g.ApplyMove("A", pair(0, 1))
	assert.ErrorIs(t, err, engine.ErrIllegalMove)
}

func TestUnknownPlayerRejected(t *testing.T) {
	g := newGame()
	err := g.ApplyMove("C", pair(0, 1))
	assert.ErrorIs(t, err, engine.ErrUnknownPlayer)
}

func TestCountdownEndsSession(t *testing.T) {
	g := newGame()
	g.AdvanceBy(59 * time.Second)
	assert.False(t, g.Terminal())
	g.AdvanceBy(2 * time.Second)
	assert.True(t, g.Terminal())
	assert.Equal(t, "countdown_elapsed", g.Reason())
}

func TestPodiumRanksByScore(t *testing.T) {
	g := newGame()
	g.players["A"].Score = 20
	g.players["B"].Score = 50
	assert.Equal(t, []string{"B", "A"}, g.Podium())
}
