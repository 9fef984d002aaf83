// Package bots implements the AI policies spec.md §4.5 requires for each
// game kind. Every policy is a pure function over the engine's own View()
// JSON projection — the same bytes a human client would poll — so bots are
// provably unable to read privileged unexported engine state. Each Decide
// call returns ranked move candidates; the caller (internal/session's
// registry) submits them through the ordinary ApplyMove path in order
// until one is accepted, so bots never bypass engine validation even when
// their own local search is only an approximation of full legality (chess).
package bots

import (
	"encoding/json"
	"fmt"

	"tournament-hub/gamesession/internal/gamekind"
)

// Decide dispatches to the per-kind policy by tag, mirroring the tagged-
// variant dispatch style spec.md §9 asks the session registry to use for
// engines. ok is false when the bot has nothing legal to submit this turn
// (e.g. a tile-match board with no remaining matchable pair).
func Decide(kind gamekind.Kind, view json.RawMessage, seatID string) (candidates []json.RawMessage, ok bool, err error) {
	switch kind {
	case gamekind.TicTacToe:
		return decideTicTacToe(view)
	case gamekind.ConnectFour:
		return decideConnectFour(view)
	case gamekind.Chess:
		return decideChess(view, seatID)
	case gamekind.TileMatch:
		return decideTileMatch(view)
	case gamekind.Arcade:
		return decideArcade(view, seatID)
	case gamekind.Arena:
		return decideArena(view, seatID)
	}
	return nil, false, fmt.Errorf("bots: no policy for kind %q", kind)
}

func marshalOne(v any) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
