package chess

// pseudoMove is a candidate move before self-check legality filtering.
type pseudoMove struct {
	From, To  square
	Promotion pieceKind
	IsCastle  bool
	IsEnPas   bool
	CastleRookFrom, CastleRookTo square
}

var knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
var kingOffsets = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
var bishopDirs = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
var rookDirs = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// state carries what pure board data cannot: en-passant target and castling
// eligibility, both derived from history rather than stored per-piece
// beyond HasMoved.
type state struct {
	b              board
	sideToMove     color
	enPassantSq    square // -1 if none
}

// pseudoMovesFrom generates every geometrically legal candidate move from sq,
// ignoring whether it leaves the mover's own king in check.
func (s *state) pseudoMovesFrom(sq square) []pseudoMove {
	p := s.b[sq]
	if p.Kind == pieceNone || p.Color != s.sideToMove {
		return nil
	}
	switch p.Kind {
	case piecePawn:
		return s.pawnMoves(sq, p)
	case pieceKnight:
		return s.offsetMoves(sq, p, knightOffsets[:])
	case pieceBishop:
		return s.slidingMoves(sq, p, bishopDirs[:])
	case pieceRook:
		return s.slidingMoves(sq, p, rookDirs[:])
	case pieceQueen:
		moves := s.slidingMoves(sq, p, bishopDirs[:])
		return append(moves, s.slidingMoves(sq, p, rookDirs[:])...)
	case pieceKing:
		moves := s.offsetMoves(sq, p, kingOffsets[:])
		return append(moves, s.castleMoves(sq, p)...)
	}
	return nil
}

func (s *state) pawnMoves(sq square, p piece) []pseudoMove {
	var out []pseudoMove
	dir := -1
	startRank, promoRank := 6, 0
	if p.Color == colorBlack {
		dir = 1
		startRank, promoRank = 1, 7
	}

	forward := newSquare(sq.file(), sq.rank()+dir)
	if forward.valid() && s.b[forward].Kind == pieceNone {
		out = append(out, s.withPromotions(sq, forward, forward.rank() == promoRank)...)
		if sq.rank() == startRank {
			doubleStep := newSquare(sq.file(), sq.rank()+2*dir)
			if s.b[doubleStep].Kind == pieceNone {
				out = append(out, pseudoMove{From: sq, To: doubleStep})
			}
		}
	}

	for _, df := range [2]int{-1, 1} {
		file := sq.file() + df
		if file < 0 || file > 7 {
			continue
		}
		cap := newSquare(file, sq.rank()+dir)
		if !cap.valid() {
			continue
		}
		target := s.b[cap]
		if target.Kind != pieceNone && target.Color == p.Color.opponent() {
			out = append(out, s.withPromotions(sq, cap, cap.rank() == promoRank)...)
		} else if cap == s.enPassantSq && s.enPassantSq >= 0 {
			out = append(out, pseudoMove{From: sq, To: cap, IsEnPas: true})
		}
	}
	return out
}

func (s *state) withPromotions(from, to square, promotes bool) []pseudoMove {
	if !promotes {
		return []pseudoMove{{From: from, To: to}}
	}
	return []pseudoMove{
		{From: from, To: to, Promotion: pieceQueen},
		{From: from, To: to, Promotion: pieceRook},
		{From: from, To: to, Promotion: pieceBishop},
		{From: from, To: to, Promotion: pieceKnight},
	}
}

func (s *state) offsetMoves(sq square, p piece, offsets [][2]int) []pseudoMove {
	var out []pseudoMove
	for _, o := range offsets {
		file, rank := sq.file()+o[0], sq.rank()+o[1]
		if file < 0 || file > 7 || rank < 0 || rank > 7 {
			continue
		}
		to := newSquare(file, rank)
		target := s.b[to]
		if target.Kind == pieceNone || target.Color == p.Color.opponent() {
			out = append(out, pseudoMove{From: sq, To: to})
		}
	}
	return out
}

func (s *state) slidingMoves(sq square, p piece, dirs [][2]int) []pseudoMove {
	var out []pseudoMove
	for _, d := range dirs {
		file, rank := sq.file(), sq.rank()
		for {
			file += d[0]
			rank += d[1]
			if file < 0 || file > 7 || rank < 0 || rank > 7 {
				break
			}
			to := newSquare(file, rank)
			target := s.b[to]
			if target.Kind == pieceNone {
				out = append(out, pseudoMove{From: sq, To: to})
				continue
			}
			if target.Color == p.Color.opponent() {
				out = append(out, pseudoMove{From: sq, To: to})
			}
			break
		}
	}
	return out
}

func (s *state) castleMoves(sq square, p piece) []pseudoMove {
	if p.HasMoved {
		return nil
	}
	var out []pseudoMove
	rank := sq.rank()

	// Kingside.
	if rook := s.b[newSquare(7, rank)]; rook.Kind == pieceRook && !rook.HasMoved {
		f, g := newSquare(5, rank), newSquare(6, rank)
		if s.b[f].Kind == pieceNone && s.b[g].Kind == pieceNone &&
			!s.squareAttacked(sq, p.Color.opponent()) &&
			!s.squareAttacked(f, p.Color.opponent()) &&
			!s.squareAttacked(g, p.Color.opponent()) {
			out = append(out, pseudoMove{From: sq, To: g, IsCastle: true, CastleRookFrom: newSquare(7, rank), CastleRookTo: f})
		}
	}
	// Queenside.
	if rook := s.b[newSquare(0, rank)]; rook.Kind == pieceRook && !rook.HasMoved {
		d, c, bSq := newSquare(3, rank), newSquare(2, rank), newSquare(1, rank)
		if s.b[d].Kind == pieceNone && s.b[c].Kind == pieceNone && s.b[bSq].Kind == pieceNone &&
			!s.squareAttacked(sq, p.Color.opponent()) &&
			!s.squareAttacked(d, p.Color.opponent()) &&
			!s.squareAttacked(c, p.Color.opponent()) {
			out = append(out, pseudoMove{From: sq, To: c, IsCastle: true, CastleRookFrom: newSquare(0, rank), CastleRookTo: d})
		}
	}
	return out
}

// squareAttacked reports whether any piece of attacker color attacks sq.
func (s *state) squareAttacked(sq square, attacker color) bool {
	// Pawn attacks.
	dir := 1
	if attacker == colorWhite {
		dir = -1
	}
	for _, df := range [2]int{-1, 1} {
		file := sq.file() + df
		rank := sq.rank() + dir
		if file < 0 || file > 7 || rank < 0 || rank > 7 {
			continue
		}
		from := newSquare(file, rank)
		if p := s.b[from]; p.Kind == piecePawn && p.Color == attacker {
			return true
		}
	}
	for _, o := range knightOffsets {
		file, rank := sq.file()+o[0], sq.rank()+o[1]
		if file < 0 || file > 7 || rank < 0 || rank > 7 {
			continue
		}
		if p := s.b[newSquare(file, rank)]; p.Kind == pieceKnight && p.Color == attacker {
			return true
		}
	}
	for _, o := range kingOffsets {
		file, rank := sq.file()+o[0], sq.rank()+o[1]
		if file < 0 || file > 7 || rank < 0 || rank > 7 {
			continue
		}
		if p := s.b[newSquare(file, rank)]; p.Kind == pieceKing && p.Color == attacker {
			return true
		}
	}
	if s.slidingAttack(sq, attacker, bishopDirs[:], pieceBishop) {
		return true
	}
	if s.slidingAttack(sq, attacker, rookDirs[:], pieceRook) {
		return true
	}
	return false
}

func (s *state) slidingAttack(sq square, attacker color, dirs [][2]int, kind pieceKind) bool {
	for _, d := range dirs {
		file, rank := sq.file(), sq.rank()
		for {
			file += d[0]
			rank += d[1]
			if file < 0 || file > 7 || rank < 0 || rank > 7 {
				break
			}
			p := s.b[newSquare(file, rank)]
			if p.Kind == pieceNone {
				continue
			}
			if p.Color == attacker && (p.Kind == kind || p.Kind == pieceQueen) {
				return true
			}
			break
		}
	}
	return false
}

// apply mutates s to reflect mv, which must already be pseudo-legal.
func (s *state) apply(mv pseudoMove) {
	mover := s.b[mv.From]

	if mv.IsEnPas {
		capturedRank := mv.From.rank()
		s.b[newSquare(mv.To.file(), capturedRank)] = piece{}
	}

	s.b[mv.To] = mover
	s.b[mv.From] = piece{}
	s.b[mv.To].HasMoved = true

	if mv.Promotion != pieceNone {
		s.b[mv.To].Kind = mv.Promotion
	}
	if mv.IsCastle {
		rook := s.b[mv.CastleRookFrom]
		rook.HasMoved = true
		s.b[mv.CastleRookTo] = rook
		s.b[mv.CastleRookFrom] = piece{}
	}

	if mover.Kind == piecePawn && abs(mv.To.rank()-mv.From.rank()) == 2 {
		s.enPassantSq = newSquare(mv.From.file(), (mv.From.rank()+mv.To.rank())/2)
	} else {
		s.enPassantSq = -1
	}

	s.sideToMove = s.sideToMove.opponent()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// legalMovesFrom filters pseudoMovesFrom to moves that do not leave the
// mover's own king in check.
func (s *state) legalMovesFrom(sq square) []pseudoMove {
	candidates := s.pseudoMovesFrom(sq)
	out := make([]pseudoMove, 0, len(candidates))
	mover := s.b[sq].Color
	for _, mv := range candidates {
		clone := *s
		clone.b = s.b.clone()
		clone.apply(mv)
		if !clone.squareAttacked(clone.b.kingSquare(mover), mover.opponent()) {
			out = append(out, mv)
		}
	}
	return out
}

func (s *state) allLegalMoves(c color) []pseudoMove {
	var out []pseudoMove
	for i := 0; i < 64; i++ {
		if s.b[i].Kind != pieceNone && s.b[i].Color == c {
			out = append(out, s.legalMovesFrom(square(i))...)
		}
	}
	return out
}

func (s *state) inCheck(c color) bool {
	return s.squareAttacked(s.b.kingSquare(c), c.opponent())
}
