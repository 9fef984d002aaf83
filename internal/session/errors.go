package session

import (
	"errors"

	"tournament-hub/gamesession/internal/engine"
)

// Client errors (§7): recoverable, map onto 4xx at the HTTP boundary.
// ErrUnknownPlayer/ErrNotYourTurn/ErrIllegalMove/ErrMalformedPayload are
// re-exported from internal/engine since every engine's ApplyMove produces
// them directly (wrapped with %w) — re-exporting keeps errors.Is working for
// callers that only import this package.
var (
	ErrUnknownSession       = errors.New("unknown session")
	ErrUnknownTournament    = errors.New("unknown tournament")
	ErrUnknownPlayer        = engine.ErrUnknownPlayer
	ErrNotYourTurn          = engine.ErrNotYourTurn
	ErrIllegalMove          = engine.ErrIllegalMove
	ErrMalformedPayload     = engine.ErrMalformedPayload
	ErrSessionClosedToJoins = errors.New("session closed to joins")
	ErrSessionEnded         = errors.New("session ended")
)

// ErrInvariantViolation wraps an engine invariant failure (§7): fatal to the
// session, never to the process. The session that produced it transitions to
// Ended with Result == nil and the message recorded as a diagnostic.
type ErrInvariantViolation struct {
	Detail string
}

func (e *ErrInvariantViolation) Error() string {
	return "engine invariant violation: " + e.Detail
}
