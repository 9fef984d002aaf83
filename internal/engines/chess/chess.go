package chess

import (
	"encoding/json"
	"fmt"
	"time"

	"tournament-hub/gamesession/internal/engine"
)

const (
	maxEmojiLog     = 50
	fiftyMoveLimit  = 100 // half-moves (plies) without a pawn move or capture
)

type moveRequest struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Promotion  string `json:"promotion,omitempty"`
}

type emojiEntry struct {
	PlayerID    string    `json:"playerId"`
	Text        string    `json:"text"`
	Spectator   bool      `json:"spectator"`
	Timestamp   time.Time `json:"ts"`
}

// Engine is the chess session state.
type Engine struct {
	seats   []*engine.Seat // seats[0] = white, seats[1] = black
	st      state
	history []string // algebraic square pairs, e.g. "e2e4"
	positionCounts map[string]int
	halfmoveClock  int

	whiteClock time.Duration
	blackClock time.Duration
	lastMoveAt time.Time

	emojis []emojiEntry

	terminal   bool
	reason     string
	winnerSeat int // -1 on draw

	onEvent func(identifier string, data any)
}

func New(seats []*engine.Seat, onEvent func(identifier string, data any)) engine.Engine {
	return NewWithClock(seats, onEvent, 300*time.Second)
}

// NewWithClock lets the registry pass CHESS_CLOCK_SECONDS instead of a
// hardcoded default.
func NewWithClock(seats []*engine.Seat, onEvent func(identifier string, data any), clock time.Duration) engine.Engine {
	e := &Engine{
		seats: seats,
		st: state{
			b:           newBoard(),
			sideToMove:  colorWhite,
			enPassantSq: -1,
		},
		positionCounts: make(map[string]int),
		whiteClock:     clock,
		blackClock:     clock,
		lastMoveAt:     time.Now(),
		winnerSeat:     -1,
		onEvent:        onEvent,
	}
	e.positionCounts[e.positionKey()] = 1
	return e
}

func (e *Engine) seatColor(playerID string) (color, bool) {
	if len(e.seats) > 0 && e.seats[0].PlayerID == playerID {
		return colorWhite, true
	}
	if len(e.seats) > 1 && e.seats[1].PlayerID == playerID {
		return colorBlack, true
	}
	return colorNone, false
}

func parseSquare(s string) (square, error) {
	if len(s) != 2 {
		return -1, fmt.Errorf("malformed square %q", s)
	}
	file := int(s[0] - 'a')
	rank := int('8' - s[1])
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return -1, fmt.Errorf("out-of-range square %q", s)
	}
	return newSquare(file, rank), nil
}

func promotionKind(s string) pieceKind {
	switch s {
	case "Q", "q":
		return pieceQueen
	case "R", "r":
		return pieceRook
	case "B", "b":
		return pieceBishop
	case "N", "n":
		return pieceKnight
	}
	return pieceNone
}

func (e *Engine) ApplyMove(playerID string, raw json.RawMessage) error {
	if e.terminal {
		return fmt.Errorf("chess: session ended: %w", engine.ErrIllegalMove)
	}
	mover, ok := e.seatColor(playerID)
	if !ok {
		return fmt.Errorf("chess: %w", engine.ErrUnknownPlayer)
	}
	if mover != e.st.sideToMove {
		return fmt.Errorf("chess: %w", engine.ErrNotYourTurn)
	}

	var req moveRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("chess: malformed payload: %w: %w", engine.ErrMalformedPayload, err)
	}
	from, err := parseSquare(req.From)
	if err != nil {
		return fmt.Errorf("chess: %s: %w", err, engine.ErrIllegalMove)
	}
	to, err := parseSquare(req.To)
	if err != nil {
		return fmt.Errorf("chess: %s: %w", err, engine.ErrIllegalMove)
	}

	legal := e.st.legalMovesFrom(from)
	var chosen *pseudoMove
	for i := range legal {
		if legal[i].To != to {
			continue
		}
		if legal[i].Promotion != pieceNone && legal[i].Promotion != promotionKind(req.Promotion) {
			continue
		}
		chosen = &legal[i]
		break
	}
	if chosen == nil {
		return fmt.Errorf("chess: no such legal move: %w", engine.ErrIllegalMove)
	}

	e.accountClock(mover)
	isCaptureOrPawn := e.st.b[to].Kind != pieceNone || e.st.b[from].Kind == piecePawn || chosen.IsEnPas
	e.st.apply(*chosen)
	e.history = append(e.history, req.From+req.To)

	if isCaptureOrPawn {
		e.halfmoveClock = 0
	} else {
		e.halfmoveClock++
	}
	key := e.positionKey()
	e.positionCounts[key]++

	e.evaluateTerminal(mover)

	if e.onEvent != nil {
		e.onEvent("move_applied", req)
	}
	return nil
}

// accountClock subtracts elapsed wall time since the last move from the
// mover's clock (spec.md §4.3).
func (e *Engine) accountClock(mover color) {
	now := time.Now()
	elapsed := now.Sub(e.lastMoveAt)
	e.lastMoveAt = now
	if mover == colorWhite {
		e.whiteClock -= elapsed
	} else {
		e.blackClock -= elapsed
	}
}

func (e *Engine) evaluateTerminal(justMoved color) {
	opponent := justMoved.opponent()
	hasMoves := len(e.st.allLegalMoves(opponent)) > 0
	inCheck := e.st.inCheck(opponent)

	switch {
	case !hasMoves && inCheck:
		e.terminal = true
		e.reason = "checkmate"
		e.winnerSeat = seatIndexForColor(justMoved)
	case !hasMoves:
		e.terminal = true
		e.reason = "stalemate"
		e.winnerSeat = -1
	case e.positionCounts[e.positionKey()] >= 3:
		e.terminal = true
		e.reason = "threefold_repetition"
		e.winnerSeat = -1
	case e.halfmoveClock >= fiftyMoveLimit:
		e.terminal = true
		e.reason = "fifty_move_rule"
		e.winnerSeat = -1
	case !sufficientMaterial(&e.st.b):
		e.terminal = true
		e.reason = "insufficient_material"
		e.winnerSeat = -1
	}
}

func seatIndexForColor(c color) int {
	if c == colorWhite {
		return 0
	}
	return 1
}

func sufficientMaterial(b *board) bool {
	minorCount := 0
	for _, p := range b {
		switch p.Kind {
		case piecePawn, pieceRook, pieceQueen:
			return true
		case pieceBishop, pieceKnight:
			minorCount++
		}
	}
	return minorCount >= 2
}

func (e *Engine) positionKey() string {
	// A coarse but adequate repetition key: board array plus side to move
	// plus en-passant square. Castling rights are folded in via the HasMoved
	// flag of each king and rook.
	buf := make([]byte, 0, 3*64+2)
	for _, p := range e.st.b {
		castleFlag := byte(0)
		if (p.Kind == pieceKing || p.Kind == pieceRook) && p.HasMoved {
			castleFlag = 1
		}
		buf = append(buf, byte(p.Kind), byte(p.Color), castleFlag)
	}
	buf = append(buf, byte(e.st.sideToMove), byte(e.st.enPassantSq+1))
	return string(buf)
}

// Tick handles clock timeout (spec.md §4.3: "if the opponent's clock would
// reach 0 during engine tick, the opponent loses on time").
func (e *Engine) Tick(now time.Time) {
	if e.terminal {
		return
	}
	elapsed := now.Sub(e.lastMoveAt)
	var remaining time.Duration
	var loser color
	if e.st.sideToMove == colorWhite {
		remaining = e.whiteClock - elapsed
		loser = colorWhite
	} else {
		remaining = e.blackClock - elapsed
		loser = colorBlack
	}
	if remaining <= 0 {
		e.terminal = true
		e.reason = "timeout"
		e.winnerSeat = seatIndexForColor(loser.opponent())
	}
}

func (e *Engine) SendEmoji(playerID, text string) error {
	_, participant := e.seatColor(playerID)
	e.emojis = append(e.emojis, emojiEntry{
		PlayerID:  playerID,
		Text:      text,
		Spectator: !participant,
		Timestamp: time.Now(),
	})
	if len(e.emojis) > maxEmojiLog {
		e.emojis = e.emojis[len(e.emojis)-maxEmojiLog:]
	}
	return nil
}

type squareView struct {
	Kind  string `json:"kind,omitempty"`
	Color string `json:"color,omitempty"`
}

type view struct {
	Board       [64]squareView `json:"board"`
	SideToMove  string         `json:"sideToMove"`
	WhiteClock  float64        `json:"whiteClockSeconds"`
	BlackClock  float64        `json:"blackClockSeconds"`
	History     []string       `json:"history"`
	Emojis      []emojiEntry   `json:"emojis"`
	GameOver    bool           `json:"gameOver"`
	Winner      string         `json:"winner,omitempty"`
}

var pieceLetters = map[pieceKind]string{
	piecePawn: "P", pieceKnight: "N", pieceBishop: "B",
	pieceRook: "R", pieceQueen: "Q", pieceKing: "K",
}

func (e *Engine) View() any {
	var out [64]squareView
	for i, p := range e.st.b {
		if p.Kind == pieceNone {
			continue
		}
		out[i] = squareView{Kind: pieceLetters[p.Kind], Color: p.Color.String()}
	}
	v := view{
		Board:      out,
		SideToMove: e.st.sideToMove.String(),
		WhiteClock: e.whiteClock.Seconds(),
		BlackClock: e.blackClock.Seconds(),
		History:    append([]string(nil), e.history...),
		Emojis:     append([]emojiEntry(nil), e.emojis...),
		GameOver:   e.terminal,
	}
	if e.terminal && e.winnerSeat >= 0 {
		v.Winner = e.seats[e.winnerSeat].PlayerID
	}
	return v
}

func (e *Engine) Terminal() bool { return e.terminal }
func (e *Engine) Reason() string { return e.reason }

// Podium: winner first. Draw -> seat order (white, then black), per
// spec.md's own draw tie-break hint.
func (e *Engine) Podium() []string {
	if e.winnerSeat < 0 {
		return []string{e.seats[0].PlayerID, e.seats[1].PlayerID}
	}
	loser := 1 - e.winnerSeat
	return []string{e.seats[e.winnerSeat].PlayerID, e.seats[loser].PlayerID}
}

func (e *Engine) NextActor() (string, bool) {
	if e.terminal {
		return "", false
	}
	return e.seats[seatIndexForColor(e.st.sideToMove)].PlayerID, true
}
