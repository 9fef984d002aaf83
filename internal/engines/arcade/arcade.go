// Package arcade implements session.Engine for the dodge-the-hazards game
// (spec.md §4.4, glossary "DodgeDash"): a 2D field of moving hazards, three
// lives per player, and a dash that clears the player's own velocity.
package arcade

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"tournament-hub/gamesession/internal/engine"
)

const (
	fieldWidth     = 800.0
	fieldHeight    = 600.0
	playerRadius   = 12.0
	hazardRadius   = 16.0
	maxSpeed       = 240.0 // units/sec
	dashCooldown   = 2 * time.Second
	hazardSpeed    = 90.0
	spawnPeriod    = 3 * time.Second
	startingLives  = 3
)

type vec struct {
	X, Y float64
}

type hazard struct {
	Pos vec `json:"pos"`
	Vel vec `json:"vel"`
}

type player struct {
	Pos          vec           `json:"pos"`
	Vel          vec           `json:"vel"`
	Lives        int           `json:"lives"`
	Alive        bool          `json:"alive"`
	DashCooldown time.Duration `json:"dashCooldownMs"`
	DiedAtTick   int           `json:"-"`
}

// MarshalJSON reports DashCooldown in whole milliseconds, as its
// dashCooldownMs field name says.
func (p player) MarshalJSON() ([]byte, error) {
	type plain player
	return json.Marshal(struct {
		plain
		DashCooldown int64 `json:"dashCooldownMs"`
	}{plain: plain(p), DashCooldown: p.DashCooldown.Milliseconds()})
}

type move struct {
	AccelX float64 `json:"accelX"`
	AccelY float64 `json:"accelY"`
	Dash   bool    `json:"dash"`
}

type Engine struct {
	seats         []*engine.Seat
	players       map[string]*player
	hazards       []hazard
	rng           *rand.Rand
	sinceSpawn    time.Duration
	tickCount     int
	lastTickAt    time.Time
	terminal      bool
	reason        string
	onEvent       func(identifier string, data any)
}

func New(seats []*engine.Seat, onEvent func(identifier string, data any)) engine.Engine {
	return NewWithSeed(seats, onEvent, time.Now().UnixNano())
}

// NewWithSeed lets the registry thread a per-session seed through, the same
// determinism seam arena.NewWithParams provides.
func NewWithSeed(seats []*engine.Seat, onEvent func(identifier string, data any), seed int64) engine.Engine {
	rng := rand.New(rand.NewSource(seed))
	e := &Engine{
		seats:   seats,
		players: make(map[string]*player, len(seats)),
		rng:     rng,
		onEvent: onEvent,
	}
	for i, s := range seats {
		e.players[s.PlayerID] = &player{
			Pos:   vec{X: fieldWidth * float64(i+1) / float64(len(seats)+1), Y: fieldHeight / 2},
			Lives: startingLives,
			Alive: true,
		}
	}
	return e
}

func (e *Engine) ApplyMove(playerID string, raw json.RawMessage) error {
	if e.terminal {
		return fmt.Errorf("arcade: session ended: %w", engine.ErrIllegalMove)
	}
	p, ok := e.players[playerID]
	if !ok {
		return fmt.Errorf("arcade: %w", engine.ErrUnknownPlayer)
	}
	if !p.Alive {
		return fmt.Errorf("arcade: player eliminated: %w", engine.ErrIllegalMove)
	}

	var mv move
	if err := json.Unmarshal(raw, &mv); err != nil {
		return fmt.Errorf("arcade: malformed payload: %w: %w", engine.ErrMalformedPayload, err)
	}

	p.Vel.X += mv.AccelX
	p.Vel.Y += mv.AccelY
	clampSpeed(&p.Vel, maxSpeed)

	if mv.Dash && p.DashCooldown <= 0 {
		p.Vel = vec{}
		p.DashCooldown = dashCooldown
	}

	if e.onEvent != nil {
		e.onEvent("move_applied", mv)
	}
	return nil
}

func clampSpeed(v *vec, max float64) {
	speed := math.Hypot(v.X, v.Y)
	if speed > max {
		scale := max / speed
		v.X *= scale
		v.Y *= scale
	}
}

// Tick integrates physics using the elapsed time since the previous
// dispatch, so it tracks whatever period the scheduler actually runs at
// rather than assuming a fixed step.
func (e *Engine) Tick(now time.Time) {
	if e.lastTickAt.IsZero() {
		e.lastTickAt = now
		return
	}
	dt := now.Sub(e.lastTickAt)
	e.lastTickAt = now
	e.advanceBy(dt)
}

func (e *Engine) advanceBy(dt time.Duration) {
	if e.terminal {
		return
	}
	e.tickCount++
	dtSeconds := dt.Seconds()

	for _, p := range e.players {
		if !p.Alive {
			continue
		}
		if p.DashCooldown > 0 {
			p.DashCooldown -= dt
			if p.DashCooldown < 0 {
				p.DashCooldown = 0
			}
		}
		p.Pos.X += p.Vel.X * dtSeconds
		p.Pos.Y += p.Vel.Y * dtSeconds
		p.Pos.X = clampF(p.Pos.X, playerRadius, fieldWidth-playerRadius)
		p.Pos.Y = clampF(p.Pos.Y, playerRadius, fieldHeight-playerRadius)
	}

	for i := range e.hazards {
		h := &e.hazards[i]
		h.Pos.X += h.Vel.X * dtSeconds
		h.Pos.Y += h.Vel.Y * dtSeconds
		if h.Pos.X < hazardRadius || h.Pos.X > fieldWidth-hazardRadius {
			h.Vel.X = -h.Vel.X
		}
		if h.Pos.Y < hazardRadius || h.Pos.Y > fieldHeight-hazardRadius {
			h.Vel.Y = -h.Vel.Y
		}
	}

	e.sinceSpawn += dt
	if e.sinceSpawn >= spawnPeriod {
		e.sinceSpawn = 0
		e.spawnHazard()
	}

	e.checkCollisions()
	e.checkTermination()
}

func (e *Engine) spawnHazard() {
	e.hazards = append(e.hazards, hazard{
		Pos: vec{X: e.rng.Float64() * fieldWidth, Y: e.rng.Float64() * fieldHeight},
		Vel: vec{X: (e.rng.Float64()*2 - 1) * hazardSpeed, Y: (e.rng.Float64()*2 - 1) * hazardSpeed},
	})
}

func (e *Engine) checkCollisions() {
	for _, p := range e.players {
		if !p.Alive {
			continue
		}
		for _, h := range e.hazards {
			if dist(p.Pos, h.Pos) <= playerRadius+hazardRadius {
				p.Lives--
				if p.Lives <= 0 {
					p.Alive = false
					p.DiedAtTick = e.tickCount
				}
				break
			}
		}
	}
}

func dist(a, b vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (e *Engine) checkTermination() {
	aliveCount := 0
	for _, p := range e.players {
		if p.Alive {
			aliveCount++
		}
	}
	if aliveCount <= 1 && len(e.players) > 1 {
		e.terminal = true
		e.reason = "elimination"
	}
}

type view struct {
	Players  map[string]*player `json:"players"`
	Hazards  []hazard           `json:"hazards"`
	GameOver bool               `json:"gameOver"`
}

func (e *Engine) View() any {
	return view{Players: e.players, Hazards: e.hazards, GameOver: e.terminal}
}

func (e *Engine) Terminal() bool { return e.terminal }
func (e *Engine) Reason() string { return e.reason }

// Podium ranks survivors first, then eliminated players by time-of-death
// descending (later deaths rank higher), per arena's analogous rule in
// spec.md §4.2 applied to arcade's elimination-style termination.
func (e *Engine) Podium() []string {
	out := make([]string, len(e.seats))
	for i, s := range e.seats {
		out[i] = s.PlayerID
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			if rank(e.players[out[j]]) > rank(e.players[out[j-1]]) {
				out[j], out[j-1] = out[j-1], out[j]
			} else {
				break
			}
		}
	}
	return out
}

// rank is a sortable score: alive players rank above eliminated ones;
// among eliminated players, a later death ranks higher.
func rank(p *player) int {
	if p.Alive {
		return 1 << 30
	}
	return p.DiedAtTick
}
