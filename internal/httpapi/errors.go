package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"tournament-hub/gamesession/internal/session"
)

// mapError implements spec.md §6/§7's error table: 400 for IllegalMove,
// NotYourTurn, SessionClosedToJoins, MalformedPayload; 404 for unknown
// session/tournament/player; 409 for SessionEnded; 500 otherwise
// (including invariant violations, per §7: "surfaced as 500 to the
// offending request").
func mapError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrUnknownSession),
		errors.Is(err, session.ErrUnknownTournament),
		errors.Is(err, session.ErrUnknownPlayer):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrIllegalMove),
		errors.Is(err, session.ErrNotYourTurn),
		errors.Is(err, session.ErrSessionClosedToJoins),
		errors.Is(err, session.ErrMalformedPayload):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrSessionEnded):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"detail": err.Error()})
}
