package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tournament-hub/gamesession/internal/gamekind"
)

type startSessionRequest struct {
	TournamentID    string   `json:"tournamentId"`
	GameType        string   `json:"game_type"`
	PlayerAddresses []string `json:"playerAddresses"`
}

func (s *Server) handleStartSession(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed payload"})
		return
	}
	kind, err := gamekind.Parse(req.GameType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	sessionID, err := s.registry.CreateOrGet(c.Request.Context(), req.TournamentID, kind, req.PlayerAddresses)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID})
}

func (s *Server) handleJoin(kind gamekind.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionId")
		player := c.Query("player")
		if err := s.registry.Join(sessionID, player); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"joined": true})
	}
}

func (s *Server) handleStartGame(kind gamekind.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SessionID string `json:"sessionId"`
		}
		if err := c.ShouldBindJSON(&req); err != nil || req.SessionID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed payload"})
			return
		}
		if err := s.registry.Start(req.SessionID); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"started": true})
	}
}

func (s *Server) handleGameState(kind gamekind.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionId")
		view, lifecycle, err := s.registry.Get(sessionID)
		if err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"lifecycle": lifecycle, "state": view})
	}
}

func (s *Server) handleMove(kind gamekind.Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Query("sessionId")
		player := c.Query("player")
		raw, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed payload"})
			return
		}
		if err := s.registry.ApplyMove(sessionID, player, json.RawMessage(raw)); err != nil {
			mapError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"applied": true})
	}
}

// handleSubmitTileMatchScore accepts the optional auxiliary score
// submission spec.md §6 names but never trusts client-reported scoring
// (design note: "authoritative logic lives only in the server core") —
// it simply echoes the engine's own current state back.
func (s *Server) handleSubmitTileMatchScore(c *gin.Context) {
	sessionID := c.Query("sessionId")
	view, lifecycle, err := s.registry.Get(sessionID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lifecycle": lifecycle, "state": view})
}

type chessEmojiRequest struct {
	SessionID string `json:"sessionId"`
	Player    string `json:"player"`
	Emoji     string `json:"emoji"`
}

func (s *Server) handleChessEmoji(c *gin.Context) {
	var req chessEmojiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "malformed payload"})
		return
	}
	if err := s.registry.SendEmoji(req.SessionID, req.Player, req.Emoji); err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

func (s *Server) handleGetTournamentSession(c *gin.Context) {
	tournamentID := c.Query("tournamentId")
	sessionID, err := s.registry.GetTournamentSession(tournamentID)
	if err != nil {
		mapError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID})
}

func (s *Server) handleGetSessionInfo(c *gin.Context) {
	sessionID := c.Query("session_id")
	kind, seats, lifecycle, err := s.registry.GetInfo(sessionID)
	if err != nil {
		mapError(c, err)
		return
	}
	players := make([]string, len(seats))
	for i, seat := range seats {
		players[i] = seat.PlayerID
	}
	c.JSON(http.StatusOK, gin.H{
		"game_type": kind,
		"players":   players,
		"lifecycle": lifecycle,
	})
}

func (s *Server) handleGetResult(c *gin.Context) {
	sessionID := c.Query("session_id")
	res, err := s.registry.GetResult(sessionID)
	if err != nil {
		mapError(c, err)
		return
	}
	if res == nil {
		c.JSON(http.StatusOK, gin.H{"result": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": res})
}

func (s *Server) handleEvents(c *gin.Context) {
	var since uint64
	if v := c.Query("since"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			since = n
		}
	}
	c.JSON(http.StatusOK, gin.H{"events": s.feed.Since(since)})
}
