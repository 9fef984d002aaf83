// Package arena implements session.Engine for the real-time growth/
// absorption game (spec.md §4.2, glossary "CryptoBubbles"): cells chase
// pellets and each other on a 2D plane that expands when players push its
// edges.
package arena

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"tournament-hub/gamesession/internal/engine"
)

// Params carries the numeric defaults spec.md leaves as an Open Question.
// DefaultParams holds the authoritative values; internal/config supplies
// only the tick period (ARENA_TICK_MS).
type Params struct {
	StartWidth, StartHeight float64
	StartRadius             float64
	MaxSizeMultiple         float64 // max_arena_size as a multiple of the starting size
	MaxExpansionSteps       int
	PelletsPerExpansion     int
	InitialPellets          int
	PelletRadius            float64
	KPellet                 float64 // growth constant on pellet consumption
	Alpha                   float64 // absorption size ratio threshold
	Beta                    float64 // absorption distance slack
	EdgeExpansionAfter      time.Duration // T_edge
	MaxDuration             time.Duration
	BaseMaxSpeed            float64 // units/sec for a cell at StartRadius
	SteerRate               float64 // velocity-decay-toward-target rate, 1/sec
}

// DefaultParams matches SPEC_FULL.md's resolved Open Question values.
var DefaultParams = Params{
	StartWidth:          800,
	StartHeight:         800,
	StartRadius:         20,
	MaxSizeMultiple:     4,
	MaxExpansionSteps:   6,
	PelletsPerExpansion: 15,
	InitialPellets:      40,
	PelletRadius:        5,
	KPellet:             20,
	Alpha:                1.10,
	Beta:                 0.4,
	EdgeExpansionAfter:   2 * time.Second,
	MaxDuration:          10 * time.Minute,
	BaseMaxSpeed:         220,
	SteerRate:            6,
}

type vec struct {
	X, Y float64
}

type cell struct {
	Pos        vec     `json:"pos"`
	Vel        vec     `json:"vel"`
	Radius     float64 `json:"radius"`
	Alive      bool    `json:"alive"`
	AimX       float64 `json:"-"`
	AimY       float64 `json:"-"`
	HasAim     bool    `json:"-"`
	DiedAtTick int     `json:"-"`
	aimedThisTick bool
}

type pellet struct {
	X, Y, R float64
}

type expansionEvent struct {
	Step   int     `json:"step"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	At     time.Time `json:"at"`
}

type aimRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Engine is the arena session state.
type Engine struct {
	seats  []*engine.Seat
	params Params

	width, height float64
	edgeSince     time.Duration
	expansions    int
	history       []expansionEvent

	cells   map[string]*cell
	pellets []pellet

	rng       *rand.Rand
	startedAt time.Time
	elapsed   time.Duration

	terminal bool
	reason   string
	onEvent  func(identifier string, data any)
}

// New constructs an arena engine with DefaultParams; the registry uses
// NewWithParams to thread config-derived values instead.
func New(seats []*engine.Seat, onEvent func(identifier string, data any)) engine.Engine {
	return NewWithParams(seats, onEvent, DefaultParams, time.Now().UnixNano())
}

func NewWithParams(seats []*engine.Seat, onEvent func(identifier string, data any), p Params, seed int64) engine.Engine {
	e := &Engine{
		seats:   seats,
		params:  p,
		width:   p.StartWidth,
		height:  p.StartHeight,
		cells:   make(map[string]*cell, len(seats)),
		rng:     rand.New(rand.NewSource(seed)),
		onEvent: onEvent,
	}
	for i, s := range seats {
		angle := 2 * math.Pi * float64(i) / float64(len(seats))
		e.cells[s.PlayerID] = &cell{
			Pos:    vec{X: e.width/2 + math.Cos(angle)*e.width/4, Y: e.height/2 + math.Sin(angle)*e.height/4},
			Radius: p.StartRadius,
			Alive:  true,
		}
	}
	for i := 0; i < p.InitialPellets; i++ {
		e.pellets = append(e.pellets, e.randomPellet())
	}
	return e
}

func (e *Engine) randomPellet() pellet {
	return pellet{X: e.rng.Float64() * e.width, Y: e.rng.Float64() * e.height, R: e.params.PelletRadius}
}

// SubmitAim records the player's last cursor target (spec.md §4.2). Ignored
// for dead cells and rate-limited to one accepted aim per tick window.
func (e *Engine) SubmitAim(playerID string, x, y float64) error {
	c, ok := e.cells[playerID]
	if !ok {
		return fmt.Errorf("arena: %w", engine.ErrUnknownPlayer)
	}
	if !c.Alive {
		return nil
	}
	if c.aimedThisTick {
		return nil
	}
	c.AimX, c.AimY, c.HasAim = x, y, true
	c.aimedThisTick = true
	return nil
}

// ApplyMove is the uniform entry point; the payload carries an aim request.
func (e *Engine) ApplyMove(playerID string, raw json.RawMessage) error {
	if e.terminal {
		return fmt.Errorf("arena: session ended: %w", engine.ErrIllegalMove)
	}
	var req aimRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return fmt.Errorf("arena: malformed payload: %w: %w", engine.ErrMalformedPayload, err)
	}
	return e.SubmitAim(playerID, req.X, req.Y)
}

func maxSpeedForRadius(base, radius, startRadius float64) float64 {
	return base * startRadius / (startRadius + (radius - startRadius))
}

// Tick advances physics by the elapsed time since the previous dispatch.
func (e *Engine) Tick(now time.Time) {
	if e.startedAt.IsZero() {
		e.startedAt = now
		for _, c := range e.cells {
			c.aimedThisTick = false
		}
		return
	}
	dt := now.Sub(e.startedAt) - e.elapsed
	if dt <= 0 {
		return
	}
	e.elapsed += dt
	e.advanceBy(dt)
}

func (e *Engine) advanceBy(dt time.Duration) {
	if e.terminal {
		return
	}
	dtSeconds := dt.Seconds()

	anyAtEdge := false
	for _, c := range e.cells {
		if !c.Alive {
			continue
		}
		e.steer(c, dtSeconds)
		c.Pos.X += c.Vel.X * dtSeconds
		c.Pos.Y += c.Vel.Y * dtSeconds

		clamped := false
		if c.Pos.X < c.Radius {
			c.Pos.X = c.Radius
			clamped = true
		}
		if c.Pos.X > e.width-c.Radius {
			c.Pos.X = e.width - c.Radius
			clamped = true
		}
		if c.Pos.Y < c.Radius {
			c.Pos.Y = c.Radius
			clamped = true
		}
		if c.Pos.Y > e.height-c.Radius {
			c.Pos.Y = e.height - c.Radius
			clamped = true
		}
		if clamped {
			anyAtEdge = true
		}
		c.aimedThisTick = false
	}

	if anyAtEdge {
		e.edgeSince += dt
		if e.edgeSince >= e.params.EdgeExpansionAfter {
			e.edgeSince = 0
			e.expand()
		}
	} else {
		e.edgeSince = 0
	}

	e.consumePellets()
	e.resolveCollisions()
	e.checkTermination()
}

func (e *Engine) steer(c *cell, dtSeconds float64) {
	maxSpeed := maxSpeedForRadius(e.params.BaseMaxSpeed, c.Radius, e.params.StartRadius)
	var targetVX, targetVY float64
	if c.HasAim {
		dx, dy := c.AimX-c.Pos.X, c.AimY-c.Pos.Y
		dist := math.Hypot(dx, dy)
		if dist > 1e-6 {
			targetVX = dx / dist * maxSpeed
			targetVY = dy / dist * maxSpeed
		}
	}
	rate := e.params.SteerRate * dtSeconds
	if rate > 1 {
		rate = 1
	}
	c.Vel.X += (targetVX - c.Vel.X) * rate
	c.Vel.Y += (targetVY - c.Vel.Y) * rate
}

func (e *Engine) consumePellets() {
	kept := e.pellets[:0]
	for _, p := range e.pellets {
		consumed := false
		for _, c := range e.cells {
			if !c.Alive {
				continue
			}
			if dist(c.Pos, vec{X: p.X, Y: p.Y}) <= c.Radius {
				c.Radius = math.Sqrt(c.Radius*c.Radius + e.params.KPellet)
				consumed = true
				break
			}
		}
		if !consumed {
			kept = append(kept, p)
		}
	}
	e.pellets = kept
}

// resolveCollisions implements spec.md §4.2's absorption rule: the larger
// cell absorbs the smaller iff its radius >= alpha*smaller.radius and the
// center distance <= larger.radius - smaller.radius*beta.
func (e *Engine) resolveCollisions() {
	for idA, a := range e.cells {
		if !a.Alive {
			continue
		}
		for idB, b := range e.cells {
			if idA == idB || !b.Alive {
				continue
			}
			if a.Radius < b.Radius {
				continue // handled from the larger cell's side
			}
			if a.Radius < e.params.Alpha*b.Radius {
				continue
			}
			if dist(a.Pos, b.Pos) > a.Radius-b.Radius*e.params.Beta {
				continue
			}
			a.Radius = math.Sqrt(a.Radius*a.Radius + b.Radius*b.Radius)
			b.Alive = false
			b.DiedAtTick = e.tickIndex()
			if e.onEvent != nil {
				e.onEvent("cell_absorbed", map[string]string{"absorber": idA, "absorbed": idB})
			}
		}
	}
}

func (e *Engine) tickIndex() int {
	return int(e.elapsed / (50 * time.Millisecond))
}

func (e *Engine) expand() {
	if e.expansions >= e.params.MaxExpansionSteps {
		return
	}
	maxW := e.params.StartWidth * e.params.MaxSizeMultiple
	maxH := e.params.StartHeight * e.params.MaxSizeMultiple
	stepW := (maxW - e.params.StartWidth) / float64(e.params.MaxExpansionSteps)
	stepH := (maxH - e.params.StartHeight) / float64(e.params.MaxExpansionSteps)

	oldW, oldH := e.width, e.height
	e.width += stepW
	e.height += stepH
	if e.width > maxW {
		e.width = maxW
	}
	if e.height > maxH {
		e.height = maxH
	}
	e.expansions++

	for i := 0; i < e.params.PelletsPerExpansion; i++ {
		// sprinkle only in the newly added region, not the whole enlarged
		// rectangle, so existing pellet density elsewhere is unaffected.
		if e.rng.Float64() < 0.5 {
			e.pellets = append(e.pellets, pellet{
				X: oldW + e.rng.Float64()*(e.width-oldW),
				Y: e.rng.Float64() * e.height,
				R: e.params.PelletRadius,
			})
		} else {
			e.pellets = append(e.pellets, pellet{
				X: e.rng.Float64() * e.width,
				Y: oldH + e.rng.Float64()*(e.height-oldH),
				R: e.params.PelletRadius,
			})
		}
	}

	e.history = append(e.history, expansionEvent{Step: e.expansions, Width: e.width, Height: e.height, At: time.Now()})
	if e.onEvent != nil {
		e.onEvent("arena_expanded", e.history[len(e.history)-1])
	}
}

func dist(a, b vec) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func (e *Engine) checkTermination() {
	aliveCount := 0
	for _, c := range e.cells {
		if c.Alive {
			aliveCount++
		}
	}
	if aliveCount <= 1 && len(e.cells) > 1 {
		e.terminal = true
		e.reason = "elimination"
		return
	}
	if e.elapsed >= e.params.MaxDuration {
		e.terminal = true
		e.reason = "max_duration"
	}
}

type view struct {
	Width      float64            `json:"width"`
	Height     float64            `json:"height"`
	Cells      map[string]*cell   `json:"cells"`
	Pellets    []pellet           `json:"pellets"`
	Expansions []expansionEvent   `json:"expansionHistory"`
	GameOver   bool               `json:"gameOver"`
	Winner     string             `json:"winner,omitempty"`
}

func (e *Engine) View() any {
	v := view{
		Width:      e.width,
		Height:     e.height,
		Cells:      e.cells,
		Pellets:    append([]pellet(nil), e.pellets...),
		Expansions: append([]expansionEvent(nil), e.history...),
		GameOver:   e.terminal,
	}
	if e.terminal {
		if podium := e.Podium(); len(podium) > 0 {
			if c, ok := e.cells[podium[0]]; ok && c.Alive {
				v.Winner = podium[0]
			}
		}
	}
	return v
}

func (e *Engine) Terminal() bool { return e.terminal }
func (e *Engine) Reason() string { return e.reason }

// Podium ranks by final radius among survivors, then by time-of-death
// descending among the eliminated (spec.md §4.2).
func (e *Engine) Podium() []string {
	out := make([]string, len(e.seats))
	for i, s := range e.seats {
		out[i] = s.PlayerID
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0; j-- {
			if e.rankLess(out[j-1], out[j]) {
				out[j], out[j-1] = out[j-1], out[j]
			} else {
				break
			}
		}
	}
	return out
}

// rankLess reports whether a ranks strictly below b.
func (e *Engine) rankLess(a, b string) bool {
	ca, cb := e.cells[a], e.cells[b]
	if ca.Alive != cb.Alive {
		return cb.Alive
	}
	if ca.Alive {
		return ca.Radius < cb.Radius
	}
	return ca.DiedAtTick < cb.DiedAtTick
}
