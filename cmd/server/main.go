// Command server is the process entrypoint, wiring config, the scheduler,
// the session registry, the signer client and the HTTP surface together the
// way the teacher's cmd/server/main.go + server.go wire the database,
// services and GameBridge before calling Run.
package main

import (
	"log"
	"net/http"
	"time"

	"tournament-hub/gamesession/internal/auth"
	"tournament-hub/gamesession/internal/clock"
	"tournament-hub/gamesession/internal/config"
	"tournament-hub/gamesession/internal/events"
	"tournament-hub/gamesession/internal/httpapi"
	"tournament-hub/gamesession/internal/locks"
	"tournament-hub/gamesession/internal/result"
	"tournament-hub/gamesession/internal/scheduler"
	"tournament-hub/gamesession/internal/session"
)

// adminJWTSecret is process-local and regenerated on every restart: admin
// tokens are short-lived (an hour) and re-issued via /admin/login, so there
// is no durable-storage requirement to keep it stable across restarts.
func adminJWTSecret() string {
	return "gamesession-admin-" + time.Now().String()
}

func main() {
	cfg := config.Load()

	feed := events.NewFeed(cfg.EventsRingCapacity)
	sched := scheduler.New(clock.Real)
	lockMgr := locks.NewManager(cfg.RedisURL)
	signer := result.NewSignerClient(cfg.SignerURL, cfg.RelayURL, cfg.SignerTimeout, cfg.SignerMaxRetries)

	registryCfg := session.DefaultConfig
	registryCfg.ArenaTick = cfg.ArenaTick
	registryCfg.ChessClock = cfg.ChessClock
	registryCfg.Retention = cfg.SessionRetention
	registryCfg.SignerTimeout = cfg.SignerTimeout
	registryCfg.SignerMaxRetries = cfg.SignerMaxRetries

	registry := session.NewRegistry(registryCfg, sched, feed, signer, lockMgr)
	stopGC := registry.StartGC(time.Minute)
	defer stopGC()
	defer sched.Close()

	authSvc, err := auth.NewService(adminJWTSecret(), cfg.AdminToken, time.Hour)
	if err != nil {
		log.Fatalf("[SERVER] failed to initialise admin auth: %v", err)
	}

	srv := httpapi.NewServer(registry, feed, authSvc)

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout,
	}

	log.Printf("[SERVER] listening on %s", cfg.ListenAddr)
	if err := httpSrv.ListenAndServe(); err != nil {
		log.Fatalf("[SERVER] exited: %v", err)
	}
}
