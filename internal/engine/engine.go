// Package engine defines the uniform contract every game variant implements
// (spec.md §9: "one tagged session variant ... dispatch through the tag, not
// through structural typing"). It is intentionally a leaf package: the
// concrete engines (internal/engines/...) and the session registry
// (internal/session) both depend on it, but it depends on neither of them.
package engine

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"
)

// Client-facing move outcomes every engine's ApplyMove returns (wrapped with
// %w for context), so the HTTP boundary can map them with errors.Is instead
// of matching on message text (spec.md §6/§7).
var (
	ErrUnknownPlayer    = errors.New("unknown player for this session")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrIllegalMove      = errors.New("illegal move")
	ErrMalformedPayload = errors.New("malformed move payload")
)

// Seat is a role within a session, filled by a human player or a bot.
// Order is stable and assigned once at session creation (spec.md §3).
type Seat struct {
	PlayerID string `json:"playerId"`
	Role     string `json:"role"`
	Alive    bool   `json:"alive"`
}

func (s *Seat) IsBot() bool {
	return IsBotID(s.PlayerID)
}

func IsBotID(playerID string) bool {
	return len(playerID) >= 4 && playerID[:4] == "Bot_"
}

// BotID returns the deterministic synthetic id for the k-th padding bot
// (1-indexed, matching spec.md §3's "Bot_1…Bot_k").
func BotID(k int) string {
	return "Bot_" + strconv.Itoa(k)
}

// Event is emitted by an engine through its onEvent callback, the same
// shape as the teacher's Game.onEvent func(models.Event), generalized with
// an identifier instead of a free-form event name.
type Event struct {
	Identifier string
	Data       any
}

// Engine is the uniform lifecycle contract every game variant implements.
type Engine interface {
	// ApplyMove validates and applies a player's move. raw is the
	// engine-specific JSON payload from the move request.
	ApplyMove(playerID string, raw json.RawMessage) error

	// Tick advances time-based state (physics, clocks, countdowns). now is
	// the scheduler's monotonic dispatch time, not wall-clock time.
	Tick(now time.Time)

	// View returns a read-only JSON-serialisable projection of engine state.
	View() any

	// Terminal reports whether the engine has reached an end condition.
	Terminal() bool

	// Reason names the terminal condition once Terminal() is true (e.g.
	// "checkmate", "timeout", "elimination", "draw").
	Reason() string

	// Podium returns the final ranking, best first, length == seat count.
	// Only meaningful once Terminal() is true.
	Podium() []string
}

// TurnNotifier is implemented by turn-based engines so the registry can
// schedule a bot's think-delay without the engine knowing about bots.
type TurnNotifier interface {
	NextActor() (playerID string, ok bool)
}

// EmojiSender is implemented by engines with a side-channel chat log
// (chess only, per spec.md §4.3).
type EmojiSender interface {
	SendEmoji(playerID, text string) error
}

// DurationTicker is implemented by engines whose time-based state is
// naturally expressed as "advance by this much elapsed time" rather than
// "here is the new timestamp" (tile match's countdown). The scheduler
// still dispatches on a wall-clock/monotonic schedule; the registry
// converts that into an elapsed duration for these engines instead of
// calling Tick.
type DurationTicker interface {
	AdvanceBy(d time.Duration)
}

// Factory constructs a fresh Engine for a new session given its seats and
// an event sink.
type Factory func(seats []*Seat, onEvent func(identifier string, data any)) Engine
