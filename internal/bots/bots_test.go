package bots

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-hub/gamesession/internal/gamekind"
)

func TestTicTacToeBlocksImmediateLoss(t *testing.T) {
	view, _ := json.Marshal(tttView{
		Board:       [9]string{"X", "X", "", "", "O", "", "", "", ""},
		CurrentMark: "O",
	})
	cands, ok, err := Decide(gamekind.TicTacToe, view, "bot")
	require.NoError(t, err)
	require.True(t, ok)
	var mv tttMove
	require.NoError(t, json.Unmarshal(cands[0], &mv))
	assert.Equal(t, 2, mv.Cell)
}

func TestConnectFourTakesImmediateWin(t *testing.T) {
	var grid [c4Rows][c4Cols]string
	grid[0][0], grid[0][1], grid[0][2] = "red", "red", "red"
	view, _ := json.Marshal(c4View{Grid: grid, CurrentColor: "red"})
	cands, ok, err := Decide(gamekind.ConnectFour, view, "bot")
	require.NoError(t, err)
	require.True(t, ok)
	var mv c4Move
	require.NoError(t, json.Unmarshal(cands[0], &mv))
	assert.Equal(t, 3, mv.Column)
}

func TestTileMatchFindsMatchingPair(t *testing.T) {
	view, _ := json.Marshal(tileMatchView{Tiles: []tileMatchTile{
		{ID: 0, Color: "red"}, {ID: 1, Color: "blue"}, {ID: 2, Color: "red"},
	}})
	cands, ok, err := Decide(gamekind.TileMatch, view, "bot")
	require.NoError(t, err)
	require.True(t, ok)
	var mv tileMatchMove
	require.NoError(t, json.Unmarshal(cands[0], &mv))
	assert.ElementsMatch(t, []int{0, 2}, []int{mv.TileA, mv.TileB})
}

func TestTileMatchNoPairReturnsNotOK(t *testing.T) {
	view, _ := json.Marshal(tileMatchView{Tiles: []tileMatchTile{
		{ID: 0, Color: "red"}, {ID: 1, Color: "blue"},
	}})
	_, ok, err := Decide(gamekind.TileMatch, view, "bot")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestChessProducesRankedLegalLookingCandidates(t *testing.T) {
	var board [64]chessSquareView
	board[52] = chessSquareView{Kind: "P", Color: "white"} // e2
	board[60] = chessSquareView{Kind: "K", Color: "white"} // e1
	board[4] = chessSquareView{Kind: "K", Color: "black"}  // e8
	view, _ := json.Marshal(chessView{Board: board, SideToMove: "white"})
	cands, ok, err := Decide(gamekind.Chess, view, "bot")
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEmpty(t, cands)
}

func TestArcadeStepsAwayFromHazard(t *testing.T) {
	view, _ := json.Marshal(arcadeView{
		Players: map[string]arcadePlayer{"bot": {Pos: arcadeVec{X: 100, Y: 100}, Alive: true}},
		Hazards: []arcadeHazard{{Pos: arcadeVec{X: 110, Y: 100}}},
	})
	cands, ok, err := Decide(gamekind.Arcade, view, "bot")
	require.NoError(t, err)
	require.True(t, ok)
	var mv arcadeMove
	require.NoError(t, json.Unmarshal(cands[0], &mv))
	assert.Less(t, mv.AccelX, 0.0)
}

func TestArenaAimsAtClosestPellet(t *testing.T) {
	view, _ := json.Marshal(arenaView{
		Width: 800, Height: 800,
		Cells:   map[string]arenaCell{"bot": {Pos: arcadeVec{X: 0, Y: 0}, Radius: 20, Alive: true}},
		Pellets: []arenaPellet{{X: 500, Y: 500, R: 5}, {X: 10, Y: 10, R: 5}},
	})
	cands, ok, err := Decide(gamekind.Arena, view, "bot")
	require.NoError(t, err)
	require.True(t, ok)
	var mv arenaAim
	require.NoError(t, json.Unmarshal(cands[0], &mv))
	assert.InDelta(t, 10, mv.X, 0.01)
	assert.InDelta(t, 10, mv.Y, 0.01)
}
