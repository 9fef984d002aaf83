package session

import (
	"time"

	engcore "tournament-hub/gamesession/internal/engine"
	"tournament-hub/gamesession/internal/gamekind"
)

type Lifecycle string

const (
	Created Lifecycle = "Created"
	Running Lifecycle = "Running"
	Ending  Lifecycle = "Ending"
	Ended   Lifecycle = "Ended"
)

// Re-exported so callers of this package rarely need the lower-level
// internal/engine and internal/gamekind packages directly.
type (
	Seat           = engcore.Seat
	Engine         = engcore.Engine
	TurnNotifier   = engcore.TurnNotifier
	EmojiSender    = engcore.EmojiSender
	EngineEvent    = engcore.Event
	EngineFactory  = engcore.Factory
	DurationTicker = engcore.DurationTicker
	Kind           = gamekind.Kind
)

var BotID = engcore.BotID

func isBotID(playerID string) bool { return engcore.IsBotID(playerID) }

// Event is a registry-level notifier record (spec.md §6), enriched with the
// tournament and session ids an engine's own Event doesn't know about.
type Event struct {
	Identifier   string
	TournamentID string
	SessionID    string
	Timestamp    time.Time
	Data         any
}

// Result is the final ranking computed once a session ends (spec.md §3).
type Result struct {
	Podium        []string  `json:"podium"`
	SignedPayload []byte    `json:"signedPayload,omitempty"`
	Submitted     bool      `json:"submitted"`
	Error         string    `json:"error,omitempty"`
	Diagnostic    string    `json:"diagnostic,omitempty"`
	ComputedAt    time.Time `json:"computedAt"`
}
