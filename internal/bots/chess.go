package bots

import "encoding/json"

const chessSearchDepth = 2

type chessSquareView struct {
	Kind  string `json:"kind,omitempty"`
	Color string `json:"color,omitempty"`
}

type chessView struct {
	Board      [64]chessSquareView `json:"board"`
	SideToMove string              `json:"sideToMove"`
	GameOver   bool                `json:"gameOver"`
}

type chessMove struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

var chessPieceValue = map[string]int{
	"P": 100, "N": 320, "B": 330, "R": 500, "Q": 900, "K": 20000,
}

// central squares (files c-f, ranks 3-6 in 0..63 rank-major indexing) get a
// small bonus, used only to break material ties (spec.md §4.5).
func chessCentralBonus(sq int) int {
	file, rank := sq%8, sq/8
	if file >= 2 && file <= 5 && rank >= 2 && rank <= 5 {
		return 10
	}
	return 0
}

type chessCandidate struct {
	from, to int
	promote  string
}

// decideChess runs a fixed-depth (>=2) minimax over the bot's own pseudo-
// legal move generator (spec.md §4.5). The generator does not itself
// enforce "does this leave my king in check" — the authoritative engine
// does, via the normal ApplyMove path the caller retries candidates
// through, so an occasional pseudo-legal-but-actually-illegal top choice
// never lets the bot submit a move the engine wouldn't have accepted from a
// human.
func decideChess(raw json.RawMessage, _ string) ([]json.RawMessage, bool, error) {
	var v chessView
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, false, err
	}
	if v.GameOver {
		return nil, false, nil
	}
	mine := colorCode(v.SideToMove)
	board := chessBoardFromView(v.Board)

	moves := chessPseudoMoves(board, mine)
	if len(moves) == 0 {
		return nil, false, nil
	}

	type scored struct {
		mv    chessCandidate
		score int
	}
	ranked := make([]scored, 0, len(moves))
	for _, mv := range moves {
		nb := chessApply(board, mv)
		score := -chessMinimax(nb, opponentColor(mine), mine, chessSearchDepth-1)
		ranked = append(ranked, scored{mv, score})
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}

	out := make([]json.RawMessage, len(ranked))
	for i, r := range ranked {
		out[i] = marshalOne(chessMove{From: squareName(r.mv.from), To: squareName(r.mv.to), Promotion: r.mv.promote})
	}
	return out, true, nil
}

func colorCode(s string) byte {
	if s == "white" {
		return 'w'
	}
	return 'b'
}

func opponentColor(c byte) byte {
	if c == 'w' {
		return 'b'
	}
	return 'w'
}

func squareName(sq int) string {
	file := sq % 8
	rank := sq / 8
	return string(rune('a'+file)) + string(rune('8'-rank))
}

type chessPiece struct {
	kind  byte // P N B R Q K, 0 = empty
	color byte // 'w' / 'b'
}

type chessBoard [64]chessPiece

func chessBoardFromView(v [64]chessSquareView) chessBoard {
	var b chessBoard
	for i, sq := range v {
		if sq.Kind == "" {
			continue
		}
		b[i] = chessPiece{kind: sq.Kind[0], color: colorCode(sq.Color)}
	}
	return b
}

func chessApply(b chessBoard, mv chessCandidate) chessBoard {
	nb := b
	p := nb[mv.from]
	if mv.promote != "" {
		p.kind = mv.promote[0]
	}
	nb[mv.to] = p
	nb[mv.from] = chessPiece{}
	return nb
}

var knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// chessPseudoMoves generates candidate moves for color, ignoring castling,
// en passant and self-check filtering (left to the authoritative engine).
func chessPseudoMoves(b chessBoard, color byte) []chessCandidate {
	var out []chessCandidate
	for sq := 0; sq < 64; sq++ {
		p := b[sq]
		if p.kind == 0 || p.color != color {
			continue
		}
		file, rank := sq%8, sq/8
		switch p.kind {
		case 'P':
			out = append(out, chessPawnMoves(b, sq, file, rank, color)...)
		case 'N':
			out = append(out, chessOffsetMoves(b, sq, file, rank, color, knightOffsets[:])...)
		case 'K':
			out = append(out, chessOffsetMoves(b, sq, file, rank, color, kingOffsets[:])...)
		case 'B':
			out = append(out, chessSlideMoves(b, sq, file, rank, color, bishopDirs[:])...)
		case 'R':
			out = append(out, chessSlideMoves(b, sq, file, rank, color, rookDirs[:])...)
		case 'Q':
			out = append(out, chessSlideMoves(b, sq, file, rank, color, bishopDirs[:])...)
			out = append(out, chessSlideMoves(b, sq, file, rank, color, rookDirs[:])...)
		}
	}
	return out
}

func chessPawnMoves(b chessBoard, sq, file, rank int, color byte) []chessCandidate {
	var out []chessCandidate
	dir, startRank, promoteRank := 1, 1, 7
	if color == 'w' {
		dir, startRank, promoteRank = -1, 6, 0
	}
	oneRank := rank + dir
	if oneRank >= 0 && oneRank < 8 {
		oneSq := oneRank*8 + file
		if b[oneSq].kind == 0 {
			out = append(out, promoteIfNeeded(sq, oneSq, oneRank, promoteRank)...)
			if rank == startRank {
				twoSq := (rank + 2*dir) * 8 + file
				if b[twoSq].kind == 0 {
					out = append(out, chessCandidate{sq, twoSq, ""})
				}
			}
		}
		for _, df := range []int{-1, 1} {
			cf := file + df
			if cf < 0 || cf > 7 {
				continue
			}
			capSq := oneRank*8 + cf
			if b[capSq].kind != 0 && b[capSq].color != color {
				out = append(out, promoteIfNeeded(sq, capSq, oneRank, promoteRank)...)
			}
		}
	}
	return out
}

func promoteIfNeeded(from, to, toRank, promoteRank int) []chessCandidate {
	if toRank == promoteRank {
		return []chessCandidate{{from, to, "Q"}}
	}
	return []chessCandidate{{from, to, ""}}
}

func chessOffsetMoves(b chessBoard, sq, file, rank int, color byte, offsets [][2]int) []chessCandidate {
	var out []chessCandidate
	for _, o := range offsets {
		f, r := file+o[0], rank+o[1]
		if f < 0 || f > 7 || r < 0 || r > 7 {
			continue
		}
		target := r*8 + f
		if b[target].kind == 0 || b[target].color != color {
			out = append(out, chessCandidate{sq, target, ""})
		}
	}
	return out
}

func chessSlideMoves(b chessBoard, sq, file, rank int, color byte, dirs [][2]int) []chessCandidate {
	var out []chessCandidate
	for _, d := range dirs {
		f, r := file+d[0], rank+d[1]
		for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			target := r*8 + f
			if b[target].kind == 0 {
				out = append(out, chessCandidate{sq, target, ""})
			} else {
				if b[target].color != color {
					out = append(out, chessCandidate{sq, target, ""})
				}
				break
			}
			f += d[0]
			r += d[1]
		}
	}
	return out
}

// chessMinimax scores the position for toMove using material count plus
// central-control bonus as the tie-break (spec.md §4.5).
func chessMinimax(b chessBoard, toMove, other byte, depth int) int {
	moves := chessPseudoMoves(b, toMove)
	if depth == 0 || len(moves) == 0 {
		return chessEvaluate(b, toMove)
	}
	best := -1 << 30
	for _, mv := range moves {
		nb := chessApply(b, mv)
		score := -chessMinimax(nb, other, toMove, depth-1)
		if score > best {
			best = score
		}
	}
	return best
}

func chessEvaluate(b chessBoard, mine byte) int {
	score := 0
	for sq, p := range b {
		if p.kind == 0 {
			continue
		}
		v := chessPieceValue[string(rune(p.kind))] + chessCentralBonus(sq)
		if p.color == mine {
			score += v
		} else {
			score -= v
		}
	}
	return score
}
