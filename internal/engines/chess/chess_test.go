package chess

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
		{PlayerID: "white-player", Role: "white", Alive: true},
		{PlayerID: "black-player", Role: "black", Alive: true},
	}
	return NewWithClock(seats, nil, 300*time.Second).(*Engine)
}

func mv(from, to, promo string) json.RawMessage {
	raw, _ := json.Marshal(moveRequest{From: from, To: to, Promotion: promo})
	return raw
}

// Scenario 3 from spec §8: f2f3, e7e5, g2g4, d8h4 -> fool's mate.
func TestFoolsMate(t *testing.T) {
	g := newGame()
	require.NoError(t, g.ApplyMove("white-player", mv("f2", "f3", "")))
	require.NoError(t, g.ApplyMove("black-player", mv("e7", "e5", "")))
	require.NoError(t, g.ApplyMove("white-player", mv("g2", "g4", "")))
	require.NoError(t, g.ApplyMove("black-player", mv("d8", "h4", "")))

	assert.True(t, g.Terminal())
	assert.Equal(t, "checkmate", g.Reason())
	assert.Equal(t, []string{"black-player", "white-player"}, g.Podium())
}

// Scenario 4 from spec §8: white's clock starts at 1s; after 1.2s wall time
// with no move, the next tick reports black wins on time.
func TestTimeout(t *testing.T) {
	g := newGame()
	g.whiteClock = 1 * time.Second
	g.lastMoveAt = time.Now().Add(-1200 * time.Millisecond)

	g.Tick(time.Now())

	assert.True(t, g.Terminal())
	assert.Equal(t, "timeout", g.Reason())
	assert.Equal(t, []string{"black-player", "white-player"}, g.Podium())
}

func TestOutOfTurnRejected(t *testing.T) {
	g := newGame()
	err := g.ApplyMove("black-player", mv("e7", "e5", ""))
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)
}

func TestIllegalMoveRejected(t *testing.T) {
	g := newGame()
	// The e2 pawn cannot jump three squares.
	err := g.ApplyMove("white-player", mv("e2", "e5", ""))
	assert.ErrorIs(t, err, engine.ErrIllegalMove)
}

func TestUnknownPlayerRejected(t *testing.T) {
	g := newGame()
	err := g.ApplyMove("spectator", mv("e2", "e4", ""))
	assert.ErrorIs(t, err, engine.ErrUnknownPlayer)
}

func TestCastlingKingside(t *testing.T) {
	g := newGame()
	require.NoError(t, g.ApplyMove("white-player", mv("g1", "f3", "")))
	require.NoError(t, g.ApplyMove("black-player", mv("g8", "f6", "")))
	require.NoError(t, g.ApplyMove("white-player", mv("g2", "g3", "")))
	require.NoError(t, g.ApplyMove("black-player", mv("g7", "g6", "")))
	require.NoError(t, g.ApplyMove("white-player", mv("f1", "g2", "")))
	require.NoError(t, g.ApplyMove("black-player", mv("f8", "g7", "")))
	require.NoError(t, g.ApplyMove("white-player", mv("e1", "g1", "")))

	kingSq, err := parseSquare("g1")
	require.NoError(t, err)
	rookSq, err := parseSquare("f1")
	require.NoError(t, err)
	assert.Equal(t, pieceKing, g.st.b[kingSq].Kind)
	assert.Equal(t, pieceRook, g.st.b[rookSq].Kind)
}

func TestPromotion(t *testing.T) {
	g := newGame()
	// Clear a path for a white pawn to promote on a7->a8 by hand-placing
	// the position rather than playing out dozens of moves.
	g.st.b = board{}
	whiteKing, _ := parseSquare("e1")
	blackKing, _ := parseSquare("e8")
	pawnSq, _ := parseSquare("a7")
	g.st.b[whiteKing] = piece{Kind: pieceKing, Color: colorWhite}
	g.st.b[blackKing] = piece{Kind: pieceKing, Color: colorBlack}
	g.st.b[pawnSq] = piece{Kind: piecePawn, Color: colorWhite}
	g.st.sideToMove = colorWhite

	require.NoError(t, g.ApplyMove("white-player", mv("a7", "a8", "Q")))
	targetSq, _ := parseSquare("a8")
	assert.Equal(t, pieceQueen, g.st.b[targetSq].Kind)
}
