// Package tictactoe implements session.Engine for the 3x3 grid game
// (spec.md §4.4), structured like the teacher's small per-concern engine
// files: one state struct, one ApplyMove, small predicate helpers.
package tictactoe

import (
	"encoding/json"
	"fmt"
	"time"

	"tournament-hub/gamesession/internal/engine"
)

const boardSize = 9

// marks are seat roles, fixed at creation: seat 0 is "X", seat 1 is "O".
const (
	markX = "X"
	markO = "O"
)

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

type move struct {
	Cell int `json:"cell"`
}

// Engine is the tic-tac-toe state machine.
type Engine struct {
	seats       []*engine.Seat
	board       [boardSize]string // "" empty, else markX/markO
	currentMark string
	history     []int
	terminal    bool
	reason      string
	winnerSeat  int // -1 on draw
	onEvent     func(identifier string, data any)
}

func New(seats []*engine.Seat, onEvent func(identifier string, data any)) engine.Engine {
	return &Engine{
		seats:       seats,
		currentMark: markX,
		winnerSeat:  -1,
		onEvent:     onEvent,
	}
}

func (e *Engine) seatMark(idx int) string {
	if idx == 0 {
		return markX
	}
	return markO
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
		return fmt.Errorf("tictactoe: session ended: %w", engine.ErrIllegalMove)
	}
	idx, ok := e.seatIndex(playerID)
	if !ok {
		return fmt.Errorf("tictactoe: %w", engine.ErrUnknownPlayer)
	}
	if e.seatMark(idx) != e.currentMark {
		return fmt.Errorf("tictactoe: %w", engine.ErrNotYourTurn)
	}

	var mv move
	if err := json.Unmarshal(raw, &mv); err != nil {
		return fmt.Errorf("tictactoe: malformed payload: %w: %w", engine.ErrMalformedPayload, err)
	}
	if mv.Cell < 0 || mv.Cell >= boardSize {
		return fmt.Errorf("tictactoe: cell out of range: %w", engine.ErrIllegalMove)
	}
	if e.board[mv.Cell] != "" {
		return fmt.Errorf("tictactoe: cell occupied: %w", engine.ErrIllegalMove)
	}

	e.board[mv.Cell] = e.currentMark
	e.history = append(e.history, mv.Cell)

	if winner, ok := e.checkWin(); ok {
		e.terminal = true
		e.reason = "line"
		if winner == markX {
			e.winnerSeat = 0
		} else {
			e.winnerSeat = 1
		}
	} else if e.boardFull() {
		e.terminal = true
		e.reason = "draw"
		e.winnerSeat = -1
	} else {
		e.currentMark = e.otherMark()
	}

	if e.onEvent != nil {
		e.onEvent("move_applied", mv)
	}
	return nil
}

func (e *Engine) otherMark() string {
	if e.currentMark == markX {
		return markO
	}
	return markX
}

func (e *Engine) checkWin() (string, bool) {
	for _, line := range winLines {
		a, b, c := e.board[line[0]], e.board[line[1]], e.board[line[2]]
		if a != "" && a == b && b == c {
			return a, true
		}
	}
	return "", false
}

func (e *Engine) boardFull() bool {
	for _, cell := range e.board {
		if cell == "" {
			return false
		}
	}
	return true
}

// Tick is a no-op: tic-tac-toe has no time-based state.
func (e *Engine) Tick(_ time.Time) {}

// view is the read-only JSON projection returned by View().
type view struct {
	Board       [boardSize]string `json:"board"`
	CurrentMark string            `json:"currentMark"`
	History     []int             `json:"history"`
	GameOver    bool              `json:"gameOver"`
	Winner      string            `json:"winner,omitempty"`
}

func (e *Engine) View() any {
	v := view{
		Board:       e.board,
		CurrentMark: e.currentMark,
		History:     append([]int(nil), e.history...),
		GameOver:    e.terminal,
	}
	if e.terminal && e.winnerSeat >= 0 {
		v.Winner = e.seats[e.winnerSeat].PlayerID
	}
	return v
}

func (e *Engine) Terminal() bool { return e.terminal }
func (e *Engine) Reason() string { return e.reason }

// Podium returns [winner, loser] or seat order on a draw, per spec.md §9's
// resolved draw-ordering Open Question.
func (e *Engine) Podium() []string {
	if e.winnerSeat < 0 {
		return []string{e.seats[0].PlayerID, e.seats[1].PlayerID}
	}
	loserSeat := 1 - e.winnerSeat
	return []string{e.seats[e.winnerSeat].PlayerID, e.seats[loserSeat].PlayerID}
}

// NextActor implements engine.TurnNotifier.
func (e *Engine) NextActor() (string, bool) {
	if e.terminal {
		return "", false
	}
	for i, s := range e.seats {
		if e.seatMark(i) == e.currentMark {
			return s.PlayerID, true
		}
	}
	return "", false
}
