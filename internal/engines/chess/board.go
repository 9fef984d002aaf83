// Package chess implements session.Engine for full legal chess (spec.md
// §4.3): piece movement, check/checkmate/stalemate, castling, en passant,
// promotion, threefold repetition, the 50-move rule, and per-side clocks.
package chess

// Piece is a single board occupant. Empty squares hold pieceNone.
type pieceKind byte

const (
	pieceNone pieceKind = iota
	piecePawn
	pieceKnight
	pieceBishop
	pieceRook
	pieceQueen
	pieceKing
)

type color byte

const (
	colorNone color = iota
	colorWhite
	colorBlack
)

func (c color) opponent() color {
	if c == colorWhite {
		return colorBlack
	}
	if c == colorBlack {
		return colorWhite
	}
	return colorNone
}

func (c color) String() string {
	if c == colorWhite {
		return "white"
	}
	return "black"
}

type piece struct {
	Kind      pieceKind
	Color     color
	HasMoved  bool
}

// square is a 0..63 board index, a8=0 .. h1=63 (rank-major, a-file first),
// the same indexing convention a from/to square pair naturally produces.
type square int

func newSquare(file, rank int) square { return square(rank*8 + file) }
func (s square) file() int            { return int(s) % 8 }
func (s square) rank() int            { return int(s) / 8 }
func (s square) valid() bool          { return s >= 0 && s < 64 }

type board [64]piece

func newBoard() board {
	var b board
	backRank := [8]pieceKind{pieceRook, pieceKnight, pieceBishop, pieceQueen, pieceKing, pieceBishop, pieceKnight, pieceRook}
	for file := 0; file < 8; file++ {
		b[newSquare(file, 0)] = piece{Kind: backRank[file], Color: colorBlack}
		b[newSquare(file, 1)] = piece{Kind: piecePawn, Color: colorBlack}
		b[newSquare(file, 6)] = piece{Kind: piecePawn, Color: colorWhite}
		b[newSquare(file, 7)] = piece{Kind: backRank[file], Color: colorWhite}
	}
	return b
}

func (b *board) kingSquare(c color) square {
	for i, p := range b {
		if p.Kind == pieceKing && p.Color == c {
			return square(i)
		}
	}
	return -1
}

func (b *board) clone() board {
	var out board
	copy(out[:], b[:])
	return out
}
