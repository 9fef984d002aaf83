package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tournament-hub/gamesession/internal/clock"
	"tournament-hub/gamesession/internal/events"
	"tournament-hub/gamesession/internal/gamekind"
	"tournament-hub/gamesession/internal/result"
	"tournament-hub/gamesession/internal/scheduler"
)

func newTestRegistry(t *testing.T) (*Registry, *events.Feed) {
	t.Helper()

	signerSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]byte{"signed": []byte("signed-bytes")})
	}))
	t.Cleanup(signerSrv.Close)

	relaySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(relaySrv.Close)

	feed := events.NewFeed(64)
	sched := scheduler.New(clock.Real)
	t.Cleanup(sched.Close)
	signer := result.NewSignerClient(signerSrv.URL, relaySrv.URL, time.Second, 2)

	cfg := DefaultConfig
	cfg.BotThinkMin = 5 * time.Millisecond
	cfg.BotThinkMax = 15 * time.Millisecond

	return NewRegistry(cfg, sched, feed, signer, nil), feed
}

func TestCreateOrGetIsIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id1, err := reg.CreateOrGet(ctx, "tourney-7", gamekind.Chess, []string{"A"})
	require.NoError(t, err)

	id2, err := reg.CreateOrGet(ctx, "tourney-7", gamekind.Chess, []string{"A"})
	require.NoError(t, err)

	assert.Equal(t, id1, id2)

	kind, seats, _, err := reg.GetInfo(id1)
	require.NoError(t, err)
	assert.Equal(t, gamekind.Chess, kind)
	require.Len(t, seats, 2)
	assert.Equal(t, "A", seats[0].PlayerID)
	assert.Equal(t, "Bot_1", seats[1].PlayerID)
}

func TestJoinThenCloseToJoinsAfterStart(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id, err := reg.CreateOrGet(ctx, "tourney-join", gamekind.Chess, []string{"A"})
	require.NoError(t, err)

	require.NoError(t, reg.Join(id, "B"))
	assert.ErrorIs(t, reg.Join(id, "C"), ErrSessionClosedToJoins)

	require.NoError(t, reg.Start(id))
	assert.ErrorIs(t, reg.Join(id, "D"), ErrSessionClosedToJoins)
}

func TestTicTacToeEndToEndWin(t *testing.T) {
	reg, feed := newTestRegistry(t)
	ctx := context.Background()

	id, err := reg.CreateOrGet(ctx, "ttt-1", gamekind.TicTacToe, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, reg.Start(id))

	move := func(player string, cell int) error {
		raw, _ := json.Marshal(map[string]int{"cell": cell})
		return reg.ApplyMove(id, player, raw)
	}

	require.NoError(t, move("A", 0))
	require.NoError(t, move("B", 4))
	require.NoError(t, move("A", 1))
	require.NoError(t, move("B", 5))
	require.NoError(t, move("A", 2))

	require.Eventually(t, func() bool {
		sess, err := reg.lookup(id)
		return err == nil && sess.Lifecycle() == Ended
	}, time.Second, 5*time.Millisecond)

	res, err := reg.GetResult(id)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, []string{"A", "B"}, res.Podium)
	assert.True(t, res.Submitted)

	sinceEvents := feed.Since(0)
	var sawResults bool
	for _, ev := range sinceEvents {
		if ev.Identifier == events.ResultsSubmitted {
			sawResults = true
		}
	}
	assert.True(t, sawResults)
}

func TestUnknownSessionErrors(t *testing.T) {
	reg, _ := newTestRegistry(t)
	_, _, err := reg.Get("nope")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestGCDropsOnlyEndedAndStale(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	id, err := reg.CreateOrGet(ctx, "gc-1", gamekind.TicTacToe, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, reg.Start(id))

	removed := reg.GC(time.Now().Add(2 * time.Hour))
	assert.Equal(t, 0, removed, "Running sessions are never collected")

	endedID, err := reg.CreateOrGet(ctx, "gc-2", gamekind.TicTacToe, []string{"A", "B"})
	require.NoError(t, err)
	require.NoError(t, reg.Start(endedID))
	require.NoError(t, reg.End(endedID))
	require.Eventually(t, func() bool {
		sess, err := reg.lookup(endedID)
		return err == nil && sess.Lifecycle() == Ended
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, 0, reg.GC(time.Now()), "Ended sessions inside the retention window are kept")
	assert.Equal(t, 1, reg.GC(time.Now().Add(2*time.Hour)), "only the stale Ended session is collected")
}
