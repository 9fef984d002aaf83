// Package httpapi is the session backend's only external boundary
// (spec.md §6: "HTTP is the only boundary"). Route table and dependency
// wiring follow the teacher's cmd/server/server.go setupRoutes: gin.Default,
// a single cors.Config, handlers taking their dependencies as explicit
// parameters (internal/server/handlers style) rather than package globals.
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tournament-hub/gamesession/internal/auth"
	"tournament-hub/gamesession/internal/events"
	"tournament-hub/gamesession/internal/gamekind"
	"tournament-hub/gamesession/internal/middleware"
	"tournament-hub/gamesession/internal/session"
)

// Server holds every dependency the handlers need.
type Server struct {
	registry *session.Registry
	feed     *events.Feed
	authSvc  *auth.Service

	readLimiter   *middleware.RateLimiter
	actionLimiter *middleware.RateLimiter
}

func NewServer(registry *session.Registry, feed *events.Feed, authSvc *auth.Service) *Server {
	return &Server{
		registry:      registry,
		feed:          feed,
		authSvc:       authSvc,
		readLimiter:   middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig),
		actionLimiter: middleware.NewRateLimiter(middleware.ActionRateLimiterConfig),
	}
}

// Router builds the full route table.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	corsConfig := cors.Config{
		AllowOriginFunc:  func(origin string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400 * time.Second,
	}
	r.Use(cors.New(corsConfig))

	r.POST("/start_session", s.readLimiter.Gin(), s.handleStartSession)
	r.POST("/chess_emoji", s.actionLimiter.Gin(), s.handleChessEmoji)
	r.POST("/submit_tile_match_score", s.actionLimiter.Gin(), s.handleSubmitTileMatchScore)
	r.GET("/get_tournament_session", s.readLimiter.Gin(), s.handleGetTournamentSession)
	r.GET("/get_session_info", s.readLimiter.Gin(), s.handleGetSessionInfo)
	r.GET("/get_result", s.readLimiter.Gin(), s.handleGetResult)
	r.GET("/events", s.readLimiter.Gin(), s.handleEvents)

	for _, kind := range gamekind.All {
		k := kind
		r.POST("/join_"+string(k)+"_session", s.actionLimiter.Gin(), s.handleJoin(k))
		r.POST("/start_"+string(k)+"_game", s.actionLimiter.Gin(), s.handleStartGame(k))
		r.GET("/"+string(k)+"_game_state", s.readLimiter.Gin(), s.handleGameState(k))
		r.POST("/"+string(k)+"_move", s.actionLimiter.Gin(), s.handleMove(k))
	}

	admin := r.Group("/admin")
	{
		admin.POST("/login", s.handleAdminLogin)
		protected := admin.Group("/")
		protected.Use(s.adminAuth())
		{
			protected.POST("/gc", s.handleAdminGC)
			protected.GET("/diagnostics", s.handleAdminDiagnostics)
		}
	}

	return r
}
