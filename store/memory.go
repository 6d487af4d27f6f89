// Package store provides Window Store backends for the affilify-gate limiters.
//
// Currently supported backends:
//   - MemoryStore: in-memory store for single-instance and development deployments
//   - RedisStore: Redis-based store shared by every application instance
//
// Stores implement the ratelimiter.Store interface, providing atomic
// increment-with-expiry for the fixed window algorithm.
//
// Example usage:
//
//	ctx := context.Background()
//	store := store.NewMemory(ctx, time.Minute) // cleanup interval = 1 minute
//	registry, err := ratelimiter.NewRegistry(store)
package store

import (
	"context"
	"sync"
	"time"

	"github.com/jassus213/affilify-gate/ratelimiter"
)

// memoryEntry stores a window counter and the instant it may be evicted.
type memoryEntry struct {
	counter ratelimiter.WindowCounter
	evictAt time.Time
}

// MemoryStore is an in-memory implementation of ratelimiter.Store.
//
// Counters live in a mutex-guarded map and an optional background goroutine
// evicts stale entries.
//
// Note: MemoryStore is NOT shared between processes. Deployments running more
// than one instance must use RedisStore or quotas will drift per instance.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock replaces time.Now inside the store.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemory creates a new MemoryStore instance.
//
// ctx: a parent context used to manage the lifecycle of the background cleanup goroutine.
// cleanupInterval: interval at which expired entries are removed. Pass 0 to disable cleanup.
//
// Example:
//
//	ctx := context.Background()
//	store := store.NewMemory(ctx, time.Minute)
func NewMemory(ctx context.Context, cleanupInterval time.Duration, opts ...MemoryOption) *MemoryStore {
	store := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(store)
	}

	if cleanupInterval > 0 {
		go store.runCleanup(ctx, cleanupInterval)
	}

	return store
}

// Get returns the counter for key, treating entries past their reset
// time as absent even if cleanup has not run yet.
func (s *MemoryStore) Get(ctx context.Context, key string) (ratelimiter.WindowCounter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, found := s.entries[key]
	if !found || e.counter.Expired(s.now()) {
		return ratelimiter.WindowCounter{}, false, nil
	}
	return e.counter, true, nil
}

// Set upserts the counter for key. The entry is evicted once both its
// window and ttl have passed.
func (s *MemoryStore) Set(ctx context.Context, key string, counter ratelimiter.WindowCounter, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	evictAt := s.now().Add(ttl)
	if counter.ResetTime.After(evictAt) {
		evictAt = counter.ResetTime
	}
	s.entries[key] = memoryEntry{counter: counter, evictAt: evictAt}
	return nil
}

// Increment atomically increases the counter for key.
//
// Example:
//
//	counter, err := store.Increment(ctx, "user_limit:42:ai_request", 24*time.Hour)
func (s *MemoryStore) Increment(ctx context.Context, key string, window time.Duration) (ratelimiter.WindowCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, found := s.entries[key]
	if found && e.counter.Expired(now) {
		found = false
	}

	if !found {
		reset := now.Add(window)
		e = memoryEntry{
			counter: ratelimiter.WindowCounter{Count: 1, ResetTime: reset},
			evictAt: reset,
		}
	} else {
		e.counter.Count++
	}

	s.entries[key] = e
	return e.counter, nil
}

// Len returns the number of entries currently held, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// runCleanup periodically removes entries whose eviction time has passed.
func (s *MemoryStore) runCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-ctx.Done():
			return
		}
	}
}

func (s *MemoryStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if now.After(e.evictAt) {
			delete(s.entries, key)
		}
	}
}
