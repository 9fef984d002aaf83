// Package connectfour implements session.Engine for the 6x7 gravity-drop
// game (spec.md §4.4).
package connectfour

import (
	"encoding/json"
	"fmt"
	"time"

	"tournament-hub/gamesession/internal/engine"
)

const (
	rows = 6
	cols = 7

	colorRed    = "red"
	colorYellow = "yellow"
)

type move struct {
	Column int `json:"column"`
}

// Engine tracks the grid as grid[row][col], row 0 = bottom.
type Engine struct {
	seats        []*engine.Seat
	grid         [rows][cols]string
	currentColor string
	lastMove     *move
	history      []int
	terminal     bool
	reason       string
	winnerSeat   int
	onEvent      func(identifier string, data any)
}

func New(seats []*engine.Seat, onEvent func(identifier string, data any)) engine.Engine {
	return &Engine{
		seats:        seats,
		currentColor: colorRed,
		winnerSeat:   -1,
		onEvent:      onEvent,
	}
}

func (e *Engine) seatColor(idx int) string {
	if idx == 0 {
		return colorRed
	}
	return colorYellow
}

func (e *Engine) seatIndex(playerID string) (int, bool) {
	for i, s := range e.seats {
		if s.PlayerID == playerID {
			return i, true
		}
	}
	return 0, false
}

func (e *Engine) ApplyMove(playerID string, raw json.RawMessage) error {
	if e.terminal {
		return fmt.Errorf("connectfour: session ended: %w", engine.ErrIllegalMove)
	}
	idx, ok := e.seatIndex(playerID)
	if !ok {
		return fmt.Errorf("connectfour: %w", engine.ErrUnknownPlayer)
	}
	if e.seatColor(idx) != e.currentColor {
		return fmt.Errorf("connectfour: %w", engine.ErrNotYourTurn)
	}

	var mv move
	if err := json.Unmarshal(raw, &mv); err != nil {
		return fmt.Errorf("connectfour: malformed payload: %w: %w", engine.ErrMalformedPayload, err)
	}
	if mv.Column < 0 || mv.Column >= cols {
		return fmt.Errorf("connectfour: column out of range: %w", engine.ErrIllegalMove)
	}

	row := e.lowestEmptyRow(mv.Column)
	if row < 0 {
		return fmt.Errorf("connectfour: column full: %w", engine.ErrIllegalMove)
	}

	e.grid[row][mv.Column] = e.currentColor
	e.lastMove = &mv
	e.history = append(e.history, mv.Column)

	if e.checkWinAt(row, mv.Column) {
		e.terminal = true
		e.reason = "four_in_a_row"
		e.winnerSeat = idx
	} else if e.boardFull() {
		e.terminal = true
		e.reason = "draw"
		e.winnerSeat = -1
	} else {
		e.currentColor = e.otherColor()
	}

	if e.onEvent != nil {
		e.onEvent("move_applied", mv)
	}
	return nil
}

func (e *Engine) otherColor() string {
	if e.currentColor == colorRed {
		return colorYellow
	}
	return colorRed
}

func (e *Engine) lowestEmptyRow(col int) int {
	for r := 0; r < rows; r++ {
		if e.grid[r][col] == "" {
			return r
		}
	}
	return -1
}

func (e *Engine) boardFull() bool {
	for c := 0; c < cols; c++ {
		if e.grid[rows-1][c] == "" {
			return false
		}
	}
	return true
}

var directions = [4][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

func (e *Engine) checkWinAt(row, col int) bool {
	color := e.grid[row][col]
	for _, d := range directions {
		count := 1
		count += e.countDirection(row, col, d[0], d[1], color)
		count += e.countDirection(row, col, -d[0], -d[1], color)
		if count >= 4 {
			return true
		}
	}
	return false
}

func (e *Engine) countDirection(row, col, dr, dc int, color string) int {
	count := 0
	r, c := row+dr, col+dc
	for r >= 0 && r < rows && c >= 0 && c < cols && e.grid[r][c] == color {
		count++
		r += dr
		c += dc
	}
	return count
}

// Tick is a no-op: Connect Four has no time-based state.
func (e *Engine) Tick(_ time.Time) {}

type view struct {
	Grid         [rows][cols]string `json:"grid"`
	CurrentColor string             `json:"currentColor"`
	History      []int              `json:"history"`
	GameOver     bool               `json:"gameOver"`
	Winner       string             `json:"winner,omitempty"`
}

func (e *Engine) View() any {
	v := view{
		Grid:         e.grid,
		CurrentColor: e.currentColor,
		History:      append([]int(nil), e.history...),
		GameOver:     e.terminal,
	}
	if e.terminal && e.winnerSeat >= 0 {
		v.Winner = e.seats[e.winnerSeat].PlayerID
	}
	return v
}

func (e *Engine) Terminal() bool { return e.terminal }
func (e *Engine) Reason() string { return e.reason }

func (e *Engine) Podium() []string {
	if e.winnerSeat < 0 {
		return []string{e.seats[0].PlayerID, e.seats[1].PlayerID}
	}
	loserSeat := 1 - e.winnerSeat
	return []string{e.seats[e.winnerSeat].PlayerID, e.seats[loserSeat].PlayerID}
}

func (e *Engine) NextActor() (string, bool) {
	if e.terminal {
		return "", false
	}
	for i, s := range e.seats {
		if e.seatColor(i) == e.currentColor {
			return s.PlayerID, true
		}
	}
	return "", false
}

// PieceCount returns the number of discs placed for the given color, used by
// tests to assert scenario 2's piece-count invariant.
func (e *Engine) PieceCount(color string) int {
	count := 0
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if e.grid[r][c] == color {
				count++
			}
		}
	}
	return count
}
