package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"tournament-hub/gamesession/internal/bots"
	"tournament-hub/gamesession/internal/engine"
	"tournament-hub/gamesession/internal/engines/arcade"
	"tournament-hub/gamesession/internal/engines/arena"
	"tournament-hub/gamesession/internal/engines/chess"
	"tournament-hub/gamesession/internal/engines/connectfour"
	"tournament-hub/gamesession/internal/engines/tictactoe"
	"tournament-hub/gamesession/internal/engines/tilematch"
	"tournament-hub/gamesession/internal/events"
	"tournament-hub/gamesession/internal/gamekind"
	"tournament-hub/gamesession/internal/locks"
	"tournament-hub/gamesession/internal/result"
	"tournament-hub/gamesession/internal/scheduler"
)

// Config holds the registry's tunables, sourced from internal/config
// (spec.md §6 environment variables plus SPEC_FULL.md's resolved Open
// Questions for per-engine numeric defaults).
type Config struct {
	ArenaTick          time.Duration
	RealtimeTickPeriod time.Duration // arcade, tile match
	TurnCheckPeriod    time.Duration // chess clock / draw checks
	ChessClock         time.Duration
	Retention          time.Duration
	BotThinkMin        time.Duration
	BotThinkMax        time.Duration
	SignerTimeout      time.Duration
	SignerMaxRetries   int
	ArenaParams        arena.Params
}

// DefaultConfig mirrors spec.md §6's documented defaults.
var DefaultConfig = Config{
	ArenaTick:          50 * time.Millisecond,
	RealtimeTickPeriod: 100 * time.Millisecond,
	TurnCheckPeriod:    500 * time.Millisecond,
	ChessClock:         300 * time.Second,
	Retention:          time.Hour,
	BotThinkMin:        200 * time.Millisecond,
	BotThinkMax:        1500 * time.Millisecond,
	SignerTimeout:      5 * time.Second,
	SignerMaxRetries:   3,
	ArenaParams:        arena.DefaultParams,
}

// Registry is the process-wide map from session id to session, and the
// auxiliary tournament id -> session id map (spec.md §2 point 2, §4.1),
// grounded on the teacher's engine.TableManager + server/game.GameBridge.
type Registry struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	byTournament map[string]string

	cfg     Config
	sched   *scheduler.Scheduler
	feed    *events.Feed
	signer  *result.SignerClient
	lockMgr *locks.Manager
	rng     *rand.Rand
	rngMu   sync.Mutex

	diagMu sync.Mutex
	diags  []string
}

const maxDiagnostics = 200

func NewRegistry(cfg Config, sched *scheduler.Scheduler, feed *events.Feed, signer *result.SignerClient, lockMgr *locks.Manager) *Registry {
	return &Registry{
		sessions:     make(map[string]*Session),
		byTournament: make(map[string]string),
		cfg:          cfg,
		sched:        sched,
		feed:         feed,
		signer:       signer,
		lockMgr:      lockMgr,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *Registry) nextSeed() int64 {
	r.rngMu.Lock()
	defer r.rngMu.Unlock()
	return r.rng.Int63()
}

func (r *Registry) recordDiagnostic(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.Printf("[SESSION] %s", msg)
	r.diagMu.Lock()
	r.diags = append(r.diags, msg)
	if len(r.diags) > maxDiagnostics {
		r.diags = r.diags[len(r.diags)-maxDiagnostics:]
	}
	r.diagMu.Unlock()
}

// Diagnostics returns the last n recorded invariant-violation and signer
// failure messages, most recent last (the admin surface in SPEC_FULL.md).
func (r *Registry) Diagnostics(n int) []string {
	r.diagMu.Lock()
	defer r.diagMu.Unlock()
	if n <= 0 || n > len(r.diags) {
		n = len(r.diags)
	}
	return append([]string(nil), r.diags[len(r.diags)-n:]...)
}

// CreateOrGet implements spec.md §4.1/§8: idempotent per tournament id
// while a session is Created or Running.
func (r *Registry) CreateOrGet(ctx context.Context, tournamentID string, kind gamekind.Kind, playerIDs []string) (string, error) {
	if lock, err := r.acquireTournamentSlot(ctx, tournamentID); err != nil {
		return "", err
	} else if lock != nil {
		defer lock.Release(ctx)
	}

	r.mu.Lock()
	if existingID, ok := r.byTournament[tournamentID]; ok {
		if s, ok := r.sessions[existingID]; ok {
			lc := s.Lifecycle()
			if lc == Created || lc == Running {
				r.mu.Unlock()
				return existingID, nil
			}
		}
	}
	r.mu.Unlock()

	seats := assignSeats(kind, playerIDs)
	onEvent := func(identifier string, data any) {
		// Engine-internal events (move_applied, cell_absorbed, ...) are
		// discarded here; the public notifier feed carries just the five
		// lifecycle identifiers spec.md §6 names.
	}
	eng := r.newEngine(kind, seats, onEvent)

	sessionID := uuid.New().String()
	sess := newSession(sessionID, tournamentID, kind, seats, eng)

	r.mu.Lock()
	r.sessions[sessionID] = sess
	r.byTournament[tournamentID] = sessionID
	r.mu.Unlock()

	r.feed.Publish(events.TournamentCreated, tournamentID, sessionID, nil)
	return sessionID, nil
}

func (r *Registry) acquireTournamentSlot(ctx context.Context, tournamentID string) (*locks.Lock, error) {
	if r.lockMgr == nil {
		return nil, nil
	}
	return r.lockMgr.AcquireTournamentSlot(ctx, tournamentID)
}

func (r *Registry) newEngine(kind gamekind.Kind, seats []*engine.Seat, onEvent func(string, any)) Engine {
	switch kind {
	case gamekind.Arena:
		return arena.NewWithParams(seats, onEvent, r.cfg.ArenaParams, r.nextSeed())
	case gamekind.Chess:
		return chess.NewWithClock(seats, onEvent, r.cfg.ChessClock)
	case gamekind.ConnectFour:
		return connectfour.New(seats, onEvent)
	case gamekind.TicTacToe:
		return tictactoe.New(seats, onEvent)
	case gamekind.TileMatch:
		return tilematch.NewWithSeed(seats, onEvent, r.nextSeed())
	case gamekind.Arcade:
		return arcade.NewWithSeed(seats, onEvent, r.nextSeed())
	}
	panic(fmt.Sprintf("session: no engine factory for kind %q", kind))
}

// assignSeats implements spec.md §3's seat assignment: humans in supplied
// order, then deterministic bots Bot_1..Bot_k padding to the kind's
// required seat count.
func assignSeats(kind gamekind.Kind, playerIDs []string) []*Seat {
	n := gamekind.SeatCount(kind, len(playerIDs))
	seats := make([]*Seat, n)
	botIndex := 1
	for i := 0; i < n; i++ {
		var playerID string
		if i < len(playerIDs) {
			playerID = playerIDs[i]
		} else {
			playerID = engine.BotID(botIndex)
			botIndex++
		}
		seats[i] = &Seat{PlayerID: playerID, Role: roleForSeat(kind, i), Alive: true}
	}
	return seats
}

func roleForSeat(kind gamekind.Kind, idx int) string {
	switch kind {
	case gamekind.Chess:
		if idx == 0 {
			return "white"
		}
		return "black"
	case gamekind.ConnectFour:
		if idx == 0 {
			return "red"
		}
		return "yellow"
	case gamekind.TicTacToe:
		if idx == 0 {
			return "X"
		}
		return "O"
	default:
		return fmt.Sprintf("p%d", idx+1)
	}
}

// Join implements spec.md §4.1: allowed only while Created, swapping a
// bot-held seat for a human.
func (r *Registry) Join(sessionID, playerID string) error {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := sess.join(playerID); err != nil {
		return err
	}
	r.feed.Publish(events.PlayerJoined, sess.TournamentID, sess.ID, map[string]string{"playerId": playerID})
	return nil
}

// Start flips Created -> Running and arms the engine's scheduler hooks
// (spec.md §4.1).
func (r *Registry) Start(sessionID string) error {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	if err := sess.start(); err != nil {
		return err
	}

	period := r.tickPeriod(sess.GameKind)
	r.sched.Every(sessionID, period, func(now time.Time) {
		r.onTick(sessionID, now)
	})
	r.maybeScheduleBotTurn(sessionID)

	r.feed.Publish(events.TournamentStarted, sess.TournamentID, sess.ID, nil)
	r.feed.Publish(events.GameStarted, sess.TournamentID, sess.ID, map[string]string{"gameType": string(sess.GameKind)})
	return nil
}

func (r *Registry) tickPeriod(kind gamekind.Kind) time.Duration {
	switch kind {
	case gamekind.Arena:
		return r.cfg.ArenaTick
	case gamekind.Arcade, gamekind.TileMatch:
		return r.cfg.RealtimeTickPeriod
	default:
		return r.cfg.TurnCheckPeriod
	}
}

// Get returns a read projection of the session's state (spec.md §4.1:
// "always permitted").
func (r *Registry) Get(sessionID string) (any, Lifecycle, error) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return nil, "", err
	}
	return sess.view(), sess.Lifecycle(), nil
}

// GetInfo returns {game_type, players, lifecycle} (spec.md §6
// GET /get_session_info).
func (r *Registry) GetInfo(sessionID string) (kind Kind, seats []Seat, lifecycle Lifecycle, err error) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return "", nil, "", err
	}
	kind, seats, lifecycle = sess.info()
	return
}

// GetTournamentSession implements GET /get_tournament_session.
func (r *Registry) GetTournamentSession(tournamentID string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byTournament[tournamentID]
	if !ok {
		return "", ErrUnknownTournament
	}
	return id, nil
}

// ApplyMove dispatches a move to the engine under the session's lock,
// ending the session if the engine became terminal, and arming the next
// bot turn for turn-based engines (spec.md §4.1/§4.5).
func (r *Registry) ApplyMove(sessionID, playerID string, raw json.RawMessage) error {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	becameTerminal, err := sess.applyMove(playerID, raw)
	if err != nil {
		if iv, ok := err.(*ErrInvariantViolation); ok {
			r.abortInvariantViolation(sess, iv)
		}
		return err
	}
	if becameTerminal {
		r.finishSession(sess)
		return nil
	}
	r.maybeScheduleBotTurn(sessionID)
	return nil
}

// SendEmoji implements chess's side-channel operation (spec.md §4.3).
func (r *Registry) SendEmoji(sessionID, playerID, text string) error {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	return sess.sendEmoji(playerID, text)
}

// End forces a session to Ending/Ended out of band (operator use; normal
// terminations are detected from ApplyMove/tick instead).
func (r *Registry) End(sessionID string) error {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	r.finishSession(sess)
	return nil
}

// GetResult implements GET-result polling (spec.md §4.7 point 4).
func (r *Registry) GetResult(sessionID string) (*Result, error) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.snapshotResult(), nil
}

func (r *Registry) lookup(sessionID string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

func (r *Registry) onTick(sessionID string, now time.Time) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return
	}
	becameTerminal, tickErr := sess.tick(now)
	if tickErr != nil {
		if iv, ok := tickErr.(*ErrInvariantViolation); ok {
			r.abortInvariantViolation(sess, iv)
		}
		return
	}
	if becameTerminal {
		r.finishSession(sess)
		return
	}
	r.sweepRealtimeBots(sess)
}

// sweepRealtimeBots drives bot seats in engines invoked every tick rather
// than on a turn change (spec.md §4.5: arena, arcade; tile match's pairing
// has no notion of turn either).
func (r *Registry) sweepRealtimeBots(sess *Session) {
	switch sess.GameKind {
	case gamekind.Arena, gamekind.Arcade, gamekind.TileMatch:
	default:
		return
	}
	for _, seat := range sess.aliveBotSeats() {
		r.submitBotMove(sess.ID, sess.GameKind, seat.PlayerID)
	}
}

// maybeScheduleBotTurn arms a randomised think-delay for a bot seat whose
// turn it now is, in turn-based engines (spec.md §4.5).
func (r *Registry) maybeScheduleBotTurn(sessionID string) {
	sess, err := r.lookup(sessionID)
	if err != nil {
		return
	}
	switch sess.GameKind {
	case gamekind.Chess, gamekind.ConnectFour, gamekind.TicTacToe:
	default:
		return
	}
	playerID, ok := sess.nextBotActor()
	if !ok {
		return
	}
	delay := r.randomThinkDelay()
	r.sched.After(sessionID, "bot-turn", delay, func(now time.Time) {
		r.submitBotMove(sessionID, sess.GameKind, playerID)
	})
}

func (r *Registry) randomThinkDelay() time.Duration {
	lo, hi := r.cfg.BotThinkMin, r.cfg.BotThinkMax
	if hi <= lo {
		return lo
	}
	r.rngMu.Lock()
	n := r.rng.Int63n(int64(hi - lo))
	r.rngMu.Unlock()
	return lo + time.Duration(n)
}

// submitBotMove computes the bot's candidates from the engine's own view
// and submits them through the ordinary ApplyMove path, trying candidates
// in ranked order until one is accepted (spec.md §4.5: "bots never bypass
// the engine's validation").
func (r *Registry) submitBotMove(sessionID string, kind gamekind.Kind, botID string) {
	sess, err := r.lookup(sessionID)
	if err != nil || sess.Lifecycle() != Running {
		return
	}
	viewJSON, err := json.Marshal(sess.view())
	if err != nil {
		r.recordDiagnostic("bot view marshal failed for session %s: %v", sessionID, err)
		return
	}
	candidates, ok, err := bots.Decide(kind, viewJSON, botID)
	if err != nil {
		r.recordDiagnostic("bot decide failed for session %s player %s: %v", sessionID, botID, err)
		return
	}
	if !ok {
		return
	}
	for _, cand := range candidates {
		if err := r.ApplyMove(sessionID, botID, cand); err == nil {
			return
		}
	}
	r.recordDiagnostic("bot %s in session %s exhausted every candidate move", botID, sessionID)
}

// abortInvariantViolation implements spec.md §7: an engine invariant
// failure is fatal to the session, never to the process.
func (r *Registry) abortInvariantViolation(sess *Session, iv *ErrInvariantViolation) {
	r.recordDiagnostic("invariant violation in session %s: %s", sess.ID, iv.Detail)
	r.sched.CancelSession(sess.ID)
	sess.endInvariantViolation(iv.Detail)
	r.mu.Lock()
	delete(r.byTournament, sess.TournamentID)
	r.mu.Unlock()
}

// finishSession implements spec.md §4.7: pack the podium, call the signer
// outside the session lock using a snapshot, and fire-and-forget the relay
// submission.
func (r *Registry) finishSession(sess *Session) {
	if !sess.transitionEnding() {
		return
	}
	r.sched.CancelSession(sess.ID)

	podium, reason := sess.podiumSnapshot()
	payload := result.Pack(result.Payload{
		TournamentID: sess.TournamentID,
		Podium:       podium,
		EngineKind:   string(sess.GameKind),
		SessionID:    sess.ID,
	})

	r.mu.Lock()
	delete(r.byTournament, sess.TournamentID)
	r.mu.Unlock()

	go func() {
		res := &Result{Podium: podium, ComputedAt: time.Now()}
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.SignerTimeout*time.Duration(r.cfg.SignerMaxRetries+1))
		defer cancel()

		signed, err := r.signer.Sign(ctx, payload)
		if err != nil {
			res.Error = err.Error()
			r.recordDiagnostic("signer failed for session %s: %v", sess.ID, err)
		} else {
			res.SignedPayload = signed
			if relayErr := r.signer.SubmitRelay(context.Background(), signed); relayErr != nil {
				r.recordDiagnostic("relay submission failed for session %s: %v", sess.ID, relayErr)
			} else {
				res.Submitted = true
				r.feed.Publish(events.ResultsSubmitted, sess.TournamentID, sess.ID, map[string]string{"reason": reason})
			}
		}
		sess.finalize(res)
	}()
}

// GC drops Ended sessions whose last read is older than the configured
// retention (spec.md §4.1).
func (r *Registry) GC(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for id, sess := range r.sessions {
		if sess.Lifecycle() != Ended {
			continue
		}
		if now.Sub(sess.idleSince()) > r.cfg.Retention {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}

// StartGC runs GC on a fixed interval until the returned func is called.
func (r *Registry) StartGC(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				if n := r.GC(time.Now()); n > 0 {
					log.Printf("[SESSION] GC dropped %d ended session(s)", n)
				}
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
