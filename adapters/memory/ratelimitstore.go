// Package memory provides in-memory implementations of the storage
// ports: the process-local rate-limit store used in production, and
// account/usage stores used in tests.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/artpar/cleanreader/domain/ratelimit"
	"github.com/artpar/cleanreader/ports"
)

// rateLimitShard holds the windows for a subset of accounts.
type rateLimitShard struct {
	mu      sync.Mutex
	windows map[int64]ratelimit.Window
}

// RateLimitStore is a sharded in-memory sliding-window store. Sharding
// reduces lock contention; admission for one account is always
// serialized on its shard lock, which makes Admit linearizable per
// account. State is volatile: restart empties every window.
type RateLimitStore struct {
	shards    []*rateLimitShard
	numShards int
	cleanup   *time.Ticker
	done      chan struct{}
	closeOnce sync.Once
}

// RateLimitConfig configures the store.
type RateLimitConfig struct {
	NumShards       int           // default 32
	CleanupInterval time.Duration // default 5m
}

var _ ports.RateLimitStore = (*RateLimitStore)(nil)

// NewRateLimitStore creates the store and starts its cleanup loop.
func NewRateLimitStore(cfg RateLimitConfig) *RateLimitStore {
	if cfg.NumShards <= 0 {
		cfg.NumShards = 32
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}

	s := &RateLimitStore{
		shards:    make([]*rateLimitShard, cfg.NumShards),
		numShards: cfg.NumShards,
		done:      make(chan struct{}),
	}
	for i := range s.shards {
		s.shards[i] = &rateLimitShard{windows: make(map[int64]ratelimit.Window)}
	}

	s.cleanup = time.NewTicker(cfg.CleanupInterval)
	go s.cleanupLoop()

	return s
}

func (s *RateLimitStore) getShard(accountID int64) *rateLimitShard {
	return s.shards[uint64(accountID)%uint64(s.numShards)]
}

// Admit checks and, on success, records one request for the account.
// Check-and-record happens under the shard lock.
func (s *RateLimitStore) Admit(ctx context.Context, accountID int64, cfg ratelimit.Config, now time.Time) (ratelimit.Result, error) {
	shard := s.getShard(accountID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	result, next := ratelimit.Check(shard.windows[accountID], cfg, now)
	shard.windows[accountID] = next
	return result, nil
}

// Status reports window usage without admitting anything. The pruned
// state is written back so idle windows shrink.
func (s *RateLimitStore) Status(ctx context.Context, accountID int64, cfg ratelimit.Config, now time.Time) (ratelimit.Status, error) {
	shard := s.getShard(accountID)
	shard.mu.Lock()
	defer shard.mu.Unlock()

	status, next := ratelimit.Inspect(shard.windows[accountID], cfg, now)
	shard.windows[accountID] = next
	return status, nil
}

func (s *RateLimitStore) cleanupLoop() {
	for {
		select {
		case <-s.cleanup.C:
			s.doCleanup(time.Now())
		case <-s.done:
			return
		}
	}
}

// doCleanup drops accounts whose day window has fully aged out.
func (s *RateLimitStore) doCleanup(now time.Time) {
	cutoff := now.Add(-ratelimit.DayWindow)
	for _, shard := range s.shards {
		shard.mu.Lock()
		for id, w := range shard.windows {
			if len(w.Day) == 0 || !w.Day[len(w.Day)-1].After(cutoff) {
				delete(shard.windows, id)
			}
		}
		shard.mu.Unlock()
	}
}

// Close stops the cleanup goroutine.
func (s *RateLimitStore) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cleanup.Stop()
	})
}

// Len returns the number of tracked accounts (for tests).
func (s *RateLimitStore) Len() int {
	total := 0
	for _, shard := range s.shards {
		shard.mu.Lock()
		total += len(shard.windows)
		shard.mu.Unlock()
	}
	return total
}
