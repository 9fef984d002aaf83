// Package locks adapts the teacher's Redis distributed lock
// (platform/backend/internal/locks/manager.go) into an optional
// cross-instance guard for the brief "does this tournament already have a
// session?" window in Registry.CreateOrGet. Mechanism (SET NX EX, Lua
// script release, exponential backoff) is unchanged; scope is narrowed from
// a general-purpose lock manager to the single key space this backend
// needs.
package locks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrLockTimeout = errors.New("timeout acquiring tournament slot lock")

const (
	defaultTTL             = 10 * time.Second
	defaultAcquireTimeout  = 3 * time.Second
	defaultRetryAttempts   = 3
)

// Manager guards tournament slots across multiple instances of this binary
// sharing one Redis. It stores no business data (spec.md Non-goals: no
// durable storage) — only a short-lived marker key per tournament id.
type Manager struct {
	redis      *redis.Client
	instanceID string
}

// NewManager returns nil if redisURL is empty: the caller falls back to its
// in-process mutex only, matching SPEC_FULL.md's "Redis is optional, never
// required to pass the round-trip law in the single-instance case".
func NewManager(redisURL string) *Manager {
	if redisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[LOCK] invalid REDIS_URL, falling back to in-process locking only: %v", err)
		return nil
	}
	return &Manager{
		redis:      redis.NewClient(opts),
		instanceID: uuid.New().String(),
	}
}

type Lock struct {
	key     string
	value   string
	manager *Manager
}

// AcquireTournamentSlot is the only operation this adapted manager exposes:
// guard "tournament-slot:<id>" for the window between "doesn't exist" and
// "inserted" (SPEC_FULL.md's Distributed tournament lock section).
func (m *Manager) AcquireTournamentSlot(ctx context.Context, tournamentID string) (*Lock, error) {
	key := fmt.Sprintf("tournament-slot:%s", tournamentID)
	value := fmt.Sprintf("%s:%s", m.instanceID, uuid.New().String())

	acquireCtx, cancel := context.WithTimeout(ctx, defaultAcquireTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < defaultRetryAttempts; attempt++ {
		acquired, err := m.redis.SetNX(acquireCtx, key, value, defaultTTL).Result()
		if err != nil {
			lastErr = fmt.Errorf("redis error: %w", err)
			log.Printf("[LOCK] redis error acquiring %s (attempt %d/%d): %v", key, attempt+1, defaultRetryAttempts, err)
		} else if acquired {
			return &Lock{key: key, value: value, manager: m}, nil
		} else {
			lastErr = ErrLockTimeout
		}

		backoff := time.Duration(100*(1<<attempt)) * time.Millisecond
		select {
		case <-acquireCtx.Done():
			return nil, ErrLockTimeout
		case <-time.After(backoff):
		}
	}
	if lastErr == nil {
		lastErr = ErrLockTimeout
	}
	return nil, lastErr
}

// Release deletes the key only if still owned by this lock instance, via
// the same compare-and-delete Lua script the teacher uses.
func (l *Lock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	script := redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		else
			return 0
		end
	`)
	if _, err := script.Run(ctx, l.manager.redis, []string{l.key}, l.value).Result(); err != nil {
		log.Printf("[LOCK] error releasing %s: %v", l.key, err)
		return err
	}
	return nil
}
