package bots

import "encoding/json"

type tttView struct {
	Board       [9]string `json:"board"`
	CurrentMark string    `json:"currentMark"`
	GameOver    bool      `json:"gameOver"`
}

type tttMove struct {
	Cell int `json:"cell"`
}

var tttLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// decideTicTacToe runs minimax to the terminal state (spec.md §4.5: "minimax
// to terminal for TicTacToe"); the board is small enough to search fully.
func decideTicTacToe(raw json.RawMessage) ([]json.RawMessage, bool, error) {
	var v tttView
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, err
	}
	if v.GameOver {
		return nil, false, nil
	}
	mine := v.CurrentMark
	opp := "O"
	if mine == "O" {
		opp = "X"
	}

	best, bestScore := -1, -2
	for _, cell := range emptyCells(v.Board) {
		b := v.Board
		b[cell] = mine
		score := -tttMinimax(b, opp, mine)
		if best == -1 || score > bestScore {
			best, bestScore = cell, score
		}
	}
	if best == -1 {
		return nil, false, nil
	}
	return []json.RawMessage{marshalOne(tttMove{Cell: best})}, true, nil
}

func emptyCells(b [9]string) []int {
	var out []int
	for i, c := range b {
		if c == "" {
			out = append(out, i)
		}
	}
	return out
}

func tttWinner(b [9]string) string {
	for _, l := range tttLines {
		a, bb, c := b[l[0]], b[l[1]], b[l[2]]
		if a != "" && a == bb && bb == c {
			return a
		}
	}
	return ""
}

// tttMinimax scores the position for "toMove", from toMove's perspective:
// +1 win, -1 loss, 0 draw/continuing. other is toMove's opponent's mark.
func tttMinimax(b [9]string, toMove, other string) int {
	if w := tttWinner(b); w != "" {
		if w == toMove {
			return 1
		}
		return -1
	}
	cells := emptyCells(b)
	if len(cells) == 0 {
		return 0
	}
	best := -2
	for _, cell := range cells {
		nb := b
		nb[cell] = toMove
		score := -tttMinimax(nb, other, toMove)
		if score > best {
			best = score
		}
	}
	return best
}
