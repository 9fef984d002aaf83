// Package tilematch implements session.Engine for the tile-matching puzzle
// (spec.md §4.4): an 8x8 grid of coloured tiles, a 60s countdown, and a
// per-player combo-scoring rule.
package tilematch

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"tournament-hub/gamesession/internal/engine"
)

const (
	gridWidth  = 8
	gridHeight = 8
	gridSize   = gridWidth * gridHeight
	countdown  = 60 * time.Second
	numColors  = 6
)

var colors = [numColors]string{"red", "blue", "green", "yellow", "purple", "orange"}

type tile struct {
	ID      int    `json:"id"`
	Color   string `json:"color"`
	Matched bool   `json:"matched"`
}

type playerState struct {
	Score        int `json:"score"`
	Combo        int `json:"combo"`
	TilesCleared int `json:"tilesCleared"`
}

type move struct {
	TileA int `json:"tileA"`
	TileB int `json:"tileB"`
}

type Engine struct {
	seats     []*engine.Seat
	tiles     [gridSize]tile
	players   map[string]*playerState
	remaining time.Duration
	terminal  bool
	reason    string
	onEvent   func(identifier string, data any)
}

func New(seats []*engine.Seat, onEvent func(identifier string, data any)) engine.Engine {
	return NewWithSeed(seats, onEvent, time.Now().UnixNano())
}

// NewWithSeed lets the registry thread a per-session seed through, the same
// determinism seam arena.NewWithParams provides.
func NewWithSeed(seats []*engine.Seat, onEvent func(identifier string, data any), seed int64) engine.Engine {
	rng := rand.New(rand.NewSource(seed))
	e := &Engine{
		seats:     seats,
		players:   make(map[string]*playerState, len(seats)),
		remaining: countdown,
		onEvent:   onEvent,
	}
	for _, s := range seats {
		e.players[s.PlayerID] = &playerState{}
	}
	for i := range e.tiles {
		e.tiles[i] = tile{ID: i, Color: colors[rng.Intn(numColors)]}
	}
	return e
}

func (e *Engine) seated(playerID string) bool {
	_, ok := e.players[playerID]
	return ok
}

func (e *Engine) ApplyMove(playerID string, raw json.RawMessage) error {
	if e.terminal {
		return fmt.Errorf("tilematch: session ended: %w", engine.ErrIllegalMove)
	}
	if !e.seated(playerID) {
		return fmt.Errorf("tilematch: %w", engine.ErrUnknownPlayer)
	}

	var mv move
	if err := json.Unmarshal(raw, &mv); err != nil {
		return fmt.Errorf("tilematch: malformed payload: %w: %w", engine.ErrMalformedPayload, err)
	}
	if mv.TileA < 0 || mv.TileA >= gridSize || mv.TileB < 0 || mv.TileB >= gridSize || mv.TileA == mv.TileB {
		return fmt.Errorf("tilematch: invalid tile pair: %w", engine.ErrIllegalMove)
	}

	a, b := &e.tiles[mv.TileA], &e.tiles[mv.TileB]
	if a.Matched || b.Matched {
		return fmt.Errorf("tilematch: tile already matched: %w", engine.ErrIllegalMove)
	}

	ps := e.players[playerID]
	if a.Color == b.Color {
		a.Matched = true
		b.Matched = true
		ps.Score += 10 * (ps.Combo + 1)
		ps.Combo++
		ps.TilesCleared += 2
	} else {
		ps.Combo = 0
	}

	if e.onEvent != nil {
		e.onEvent("move_applied", mv)
	}
	return nil
}

// Tick is a no-op: Tick only carries a dispatch timestamp, and the
// countdown needs an elapsed duration. The session calls AdvanceBy with the
// time elapsed since its previous tick instead.
func (e *Engine) Tick(_ time.Time) {}

// AdvanceBy counts the countdown down by d, the time elapsed since the
// previous tick.
func (e *Engine) AdvanceBy(d time.Duration) {
	if e.terminal {
		return
	}
	e.remaining -= d
	if e.remaining <= 0 {
		e.remaining = 0
		e.terminal = true
		e.reason = "countdown_elapsed"
	}
}

type view struct {
	Tiles     [gridSize]tile          `json:"tiles"`
	Players   map[string]*playerState `json:"players"`
	Remaining float64                 `json:"remainingSeconds"`
	GameOver  bool                    `json:"gameOver"`
}

func (e *Engine) View() any {
	return view{
		Tiles:     e.tiles,
		Players:   e.players,
		Remaining: e.remaining.Seconds(),
		GameOver:  e.terminal,
	}
}

func (e *Engine) Terminal() bool { return e.terminal }
func (e *Engine) Reason() string { return e.reason }

// Podium ranks players by score descending, ties broken by seat order.
func (e *Engine) Podium() []string {
	out := make([]string, len(e.seats))
	for i, s := range e.seats {
		out[i] = s.PlayerID
	}
	sortBySeatAndScore(out, e.players)
	return out
}

func sortBySeatAndScore(ids []string, players map[string]*playerState) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0; j-- {
			if players[ids[j]].Score > players[ids[j-1]].Score {
				ids[j], ids[j-1] = ids[j-1], ids[j]
			} else {
				break
			}
		}
	}
}
