package arena

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-hub/gamesession/internal/engine"
)

func newGame(seats []*engine.Seat) *Engine {
	return NewWithParams(seats, nil, DefaultParams, 1).(*Engine)
}

func twoSeats() []*engine.Seat {
	return []*engine.Seat{
		{PlayerID: "A", Role: "p1", Alive: true},
		{PlayerID: "B", Role: "p2", Alive: true},
	}
}

// TestAbsorption is scenario 5 from spec.md §8: two cells r=20 at (100,100)
// and r=10 at (115,100); after <=5 ticks the small cell is dead and the
// large cell's radius is sqrt(500)=22.36 +/- 0.1.
func TestAbsorption(t *testing.T) {
	g := newGame(twoSeats())
	g.cells["A"].Pos = vec{X: 100, Y: 100}
	g.cells["A"].Radius = 20
	g.cells["B"].Pos = vec{X: 115, Y: 100}
	g.cells["B"].Radius = 10

	require.NoError(t, g.SubmitAim("A", 115, 100))
	for i := 0; i < 5 && g.cells["B"].Alive; i++ {
		g.advanceBy(50 * time.Millisecond)
		g.cells["A"].aimedThisTick = false
	}

	assert.False(t, g.cells["B"].Alive)
	assert.InDelta(t, 22.36, g.cells["A"].Radius, 0.1)
}

func TestPelletConsumptionGrowsRadius(t *testing.T) {
	g := newGame(twoSeats())
	g.pellets = []pellet{{X: g.cells["A"].Pos.X, Y: g.cells["A"].Pos.Y, R: 5}}
	before := g.cells["A"].Radius

	g.advanceBy(10 * time.Millisecond)

	assert.InDelta(t, math.Sqrt(before*before+DefaultParams.KPellet), g.cells["A"].Radius, 1e-9)
	assert.Empty(t, g.pellets)
}

func TestDeadCellIgnoresAim(t *testing.T) {
	g := newGame(twoSeats())
	g.cells["B"].Alive = false
	require.NoError(t, g.SubmitAim("B", 1, 1))
	assert.False(t, g.cells["B"].HasAim)
}

func TestAimRateLimitedPerTick(t *testing.T) {
	g := newGame(twoSeats())
	require.NoError(t, g.SubmitAim("A", 10, 10))
	require.NoError(t, g.SubmitAim("A", 500, 500))
	assert.Equal(t, 10.0, g.cells["A"].AimX)
}

func TestLastSurvivorEndsSession(t *testing.T) {
	g := newGame(twoSeats())
	g.cells["B"].Alive = false
	g.checkTermination()
	assert.True(t, g.Terminal())
	assert.Equal(t, "elimination", g.Reason())
	assert.Equal(t, []string{"A", "B"}, g.Podium())
}

func TestUnknownPlayerRejected(t *testing.T) {
	g := newGame(twoSeats())
	err := g.SubmitAim("C", 1, 1)
	assert.ErrorIs(t, err, engine.ErrUnknownPlayer)
}
