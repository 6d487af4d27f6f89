package ratelimiter_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jassus213/affilify-gate/ratelimiter"
	"github.com/jassus213/affilify-gate/store"
)

var errBackend = errors.New("connection refused")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newMemoryStore(t *testing.T, clock *fakeClock) *store.MemoryStore {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return store.NewMemory(ctx, 0, store.WithMemoryClock(clock.Now))
}

// flakyStore wraps a working store and fails selected operations.
type flakyStore struct {
	ratelimiter.Store
	failGet       bool
	failSet       bool
	failIncrement bool
	panicOnGet    bool
}

func (s *flakyStore) Get(ctx context.Context, key string) (ratelimiter.WindowCounter, bool, error) {
	if s.panicOnGet {
		panic("nil client")
	}
	if s.failGet {
		return ratelimiter.WindowCounter{}, false, errBackend
	}
	return s.Store.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key string, c ratelimiter.WindowCounter, ttl time.Duration) error {
	if s.failSet {
		return errBackend
	}
	return s.Store.Set(ctx, key, c, ttl)
}

func (s *flakyStore) Increment(ctx context.Context, key string, window time.Duration) (ratelimiter.WindowCounter, error) {
	if s.failIncrement {
		return ratelimiter.WindowCounter{}, errBackend
	}
	return s.Store.Increment(ctx, key, window)
}

type recordingObserver struct {
	mu        sync.Mutex
	decisions map[string][]ratelimiter.Decision
}

func (o *recordingObserver) ObserveDecision(policy string, d ratelimiter.Decision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.decisions == nil {
		o.decisions = make(map[string][]ratelimiter.Decision)
	}
	o.decisions[policy] = append(o.decisions[policy], d)
}

type recordingLogger struct {
	mu    sync.Mutex
	warns int
	errs  int
}

func (l *recordingLogger) Debugf(string, ...interface{}) {}

func (l *recordingLogger) Warnf(string, ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns++
}

func (l *recordingLogger) Errorf(string, ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs++
}
