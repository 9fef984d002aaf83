package session

import (
	"encoding/json"
	"sync"
	"time"
)

// Session is the central aggregate (spec.md §3). Engines, bot drivers and
// the scheduler hold weak references keyed by id and re-acquire the session
// through the Registry on every operation; Session itself owns the mutex
// that serialises every state mutation.
type Session struct {
	ID           string
	TournamentID string
	GameKind     Kind
	Seats        []*Seat

	mu         sync.Mutex
	engine     Engine
	lifecycle  Lifecycle
	startedAt  *time.Time
	endsAt     *time.Time
	lastTickAt *time.Time
	result     *Result
	createdAt  time.Time
	lastReadAt time.Time
}

func newSession(id, tournamentID string, kind Kind, seats []*Seat, engine Engine) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		TournamentID: tournamentID,
		GameKind:     kind,
		Seats:        seats,
		engine:       engine,
		lifecycle:    Created,
		createdAt:    now,
		lastReadAt:   now,
	}
}

func (s *Session) Lifecycle() Lifecycle {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lifecycle
}

// touch records a read for GC retention purposes (§4.1).
func (s *Session) touch() {
	s.mu.Lock()
	s.lastReadAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastReadAt
}

// join replaces the first bot-held seat with a human player.
// Allowed only while Created (§4.1).
func (s *Session) join(playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != Created {
		return ErrSessionClosedToJoins
	}
	for _, seat := range s.Seats {
		if seat.IsBot() {
			seat.PlayerID = playerID
			return nil
		}
	}
	return ErrSessionClosedToJoins
}

// start flips Created -> Running and arms started_at (§4.1). The caller is
// responsible for arming scheduler hooks outside the lock.
func (s *Session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != Created {
		return ErrSessionClosedToJoins
	}
	now := time.Now()
	s.startedAt = &now
	s.lifecycle = Running
	return nil
}

// applyMove dispatches to the engine under the session lock and reports
// whether the engine became terminal as a result. A panic inside the engine
// is confined to this session and surfaced as an invariant violation.
func (s *Session) applyMove(playerID string, raw json.RawMessage) (becameTerminal bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle == Ended || s.lifecycle == Ending {
		return false, ErrSessionEnded
	}
	if s.lifecycle != Running {
		return false, ErrSessionClosedToJoins
	}

	defer func() {
		if r := recover(); r != nil {
			err = &ErrInvariantViolation{Detail: panicDetail(r)}
		}
	}()

	if aerr := s.engine.ApplyMove(playerID, raw); aerr != nil {
		return false, aerr
	}
	return s.engine.Terminal(), nil
}

// sendEmoji is the chess-only side channel (§4.3); not gated on lifecycle,
// so posts are accepted after the game ends, until GC.
func (s *Session) sendEmoji(playerID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sender, ok := s.engine.(EmojiSender)
	if !ok {
		return ErrIllegalMove
	}
	return sender.SendEmoji(playerID, text)
}

// tick advances the engine's time-based state and reports terminality.
func (s *Session) tick(now time.Time) (becameTerminal bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lifecycle != Running {
		return false, nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &ErrInvariantViolation{Detail: panicDetail(r)}
		}
	}()

	if dt, ok := s.engine.(DurationTicker); ok {
		if s.lastTickAt != nil {
			dt.AdvanceBy(now.Sub(*s.lastTickAt))
		}
	} else {
		s.engine.Tick(now)
	}
	s.lastTickAt = &now
	return s.engine.Terminal(), nil
}

// nextBotActor reports the next-to-act bot seat, if the engine is
// turn-based and it is currently a bot's turn.
func (s *Session) nextBotActor() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tn, ok := s.engine.(TurnNotifier)
	if !ok {
		return "", false
	}
	pid, ok := tn.NextActor()
	if !ok || !isBotID(pid) {
		return "", false
	}
	return pid, true
}

// aliveBotSeats returns the bot seats a real-time engine should drive every
// tick (arena, arcade, tile match).
func (s *Session) aliveBotSeats() []*Seat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Seat, 0, len(s.Seats))
	for _, seat := range s.Seats {
		if seat.IsBot() && seat.Alive {
			out = append(out, seat)
		}
	}
	return out
}

func (s *Session) view() any {
	s.touch()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.View()
}

func (s *Session) snapshotResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	cp := *s.result
	return &cp
}

// transitionEnding moves Running -> Ending (§4.1's "Running -> Ending ->
// Ended"). Returns false if the session wasn't Running (already ending, or
// never started), so the caller doesn't double-finalize a result.
func (s *Session) transitionEnding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lifecycle != Running {
		return false
	}
	s.lifecycle = Ending
	return true
}

// podiumSnapshot reads the engine's final ranking under the session lock,
// for the registry to hand to the Result Builder outside the lock.
func (s *Session) podiumSnapshot() (podium []string, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Podium(), s.engine.Reason()
}

// finalize records the computed result and flips Ending -> Ended.
func (s *Session) finalize(res *Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = res
	s.lifecycle = Ended
	now := time.Now()
	s.endsAt = &now
}

// endInvariantViolation finalizes a session with no result after an
// engine invariant failure (§7): fatal to the session, never the process.
func (s *Session) endInvariantViolation(diagnostic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lifecycle = Ended
	now := time.Now()
	s.endsAt = &now
	s.result = &Result{Diagnostic: diagnostic, ComputedAt: now}
}

func (s *Session) info() (kind Kind, seats []Seat, lifecycle Lifecycle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seats = make([]Seat, len(s.Seats))
	for i, seat := range s.Seats {
		seats[i] = *seat
	}
	return s.GameKind, seats, s.lifecycle
}

func panicDetail(r any) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return "panic: " + toString(r)
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, _ := json.Marshal(v)
	return string(b)
}
