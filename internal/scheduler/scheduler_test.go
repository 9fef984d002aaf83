package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEveryTicksRepeatedly(t *testing.T) {
	s := New(nil)
	defer s.Close()

	var count int64
	s.Every("sess-1", 10*time.Millisecond, func(now time.Time) {
		atomic.AddInt64(&count, 1)
	})

	time.Sleep(55 * time.Millisecond)
	s.CancelSession("sess-1")

	assert.GreaterOrEqual(t, atomic.LoadInt64(&count), int64(3))
}

func TestEveryCoalescesSlowTicks(t *testing.T) {
	s := New(nil)
	defer s.Close()

	var concurrent int64
	var maxConcurrent int64
	s.Every("sess-2", 5*time.Millisecond, func(now time.Time) {
		n := atomic.AddInt64(&concurrent, 1)
		if n > atomic.LoadInt64(&maxConcurrent) {
			atomic.StoreInt64(&maxConcurrent, n)
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt64(&concurrent, -1)
	})

	time.Sleep(80 * time.Millisecond)
	s.CancelSession("sess-2")

	assert.Equal(t, int64(1), atomic.LoadInt64(&maxConcurrent))
}

func TestAfterFiresOnce(t *testing.T) {
	s := New(nil)
	defer s.Close()

	done := make(chan struct{}, 1)
	s.After("sess-3", "bot-think", 10*time.Millisecond, func(now time.Time) {
		done <- struct{}{}
	})

	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timer never fired")
	}
}

func TestAfterReplacesPriorTimerWithSameKey(t *testing.T) {
	s := New(nil)
	defer s.Close()

	var fired int64
	s.After("sess-4", "bot-think", 50*time.Millisecond, func(now time.Time) {
		atomic.AddInt64(&fired, 1)
	})
	s.After("sess-4", "bot-think", 10*time.Millisecond, func(now time.Time) {
		atomic.AddInt64(&fired, 1)
	})

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int64(1), atomic.LoadInt64(&fired))
}

func TestCancelSessionStopsTimers(t *testing.T) {
	s := New(nil)
	defer s.Close()

	var fired int64
	s.After("sess-5", "k", 10*time.Millisecond, func(now time.Time) {
		atomic.AddInt64(&fired, 1)
	})
	s.CancelSession("sess-5")

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&fired))
}

func TestCancelStopsOnlyThatTask(t *testing.T) {
	s := New(nil)
	defer s.Close()

	var fired, otherFired int64
	id := s.After("sess-8", "k1", 10*time.Millisecond, func(now time.Time) {
		atomic.AddInt64(&fired, 1)
	})
	s.After("sess-8", "k2", 10*time.Millisecond, func(now time.Time) {
		atomic.AddInt64(&otherFired, 1)
	})
	s.Cancel(id)

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, int64(0), atomic.LoadInt64(&fired))
	assert.Equal(t, int64(1), atomic.LoadInt64(&otherFired))
}

func TestPanicConfinedToSession(t *testing.T) {
	s := New(nil)
	defer s.Close()

	var afterCount int64
	s.Every("sess-6", 10*time.Millisecond, func(now time.Time) {
		panic("boom")
	})
	s.Every("sess-7", 10*time.Millisecond, func(now time.Time) {
		atomic.AddInt64(&afterCount, 1)
	})

	time.Sleep(55 * time.Millisecond)
	s.CancelSession("sess-6")
	s.CancelSession("sess-7")

	assert.Greater(t, atomic.LoadInt64(&afterCount), int64(0))
}
