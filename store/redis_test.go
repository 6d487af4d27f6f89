package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jassus213/affilify-gate/ratelimiter"
	"github.com/jassus213/affilify-gate/store"
)

func TestRedisStore_UnreachableWrapsStoreUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	s := store.NewRedis(client)
	defer s.Close()
	ctx := context.Background()

	_, _, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)

	err = s.Set(ctx, "k", ratelimiter.WindowCounter{Count: 1, ResetTime: time.Now().Add(time.Minute)}, time.Minute)
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)

	_, err = s.Increment(ctx, "k", time.Minute)
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)

	assert.ErrorIs(t, s.Ping(ctx), ratelimiter.ErrStoreUnavailable)
}

func TestRedisStore_LimiterFailsOpenWhenUnreachable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	s := store.NewRedis(client)
	defer s.Close()

	l, err := ratelimiter.NewFixedWindow(s, ratelimiter.Policy{Name: "auth", Window: 15 * time.Minute, MaxRequests: 5})
	require.NoError(t, err)

	d, err := l.Check(context.Background(), "rate_limit:auth:192.0.2.1")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.True(t, d.FailedOpen)
	assert.Equal(t, int64(4), d.Remaining)
}

// Runs against a live server when REDIS_ADDR is set, e.g. REDIS_ADDR=localhost:6379.
func TestRedisStore_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	prefix := "affilify-test:" + uuid.NewString() + ":"
	s := store.NewRedis(client, store.WithKeyPrefix(prefix))
	ctx := context.Background()
	require.NoError(t, s.Ping(ctx))
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = s.Close()
	})

	_, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	c, err := s.Increment(ctx, "k", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Count)
	assert.WithinDuration(t, time.Now().Add(2*time.Second), c.ResetTime, 500*time.Millisecond)

	c, err = s.Increment(ctx, "k", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Count)

	got, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(2), got.Count)

	ttl, err := client.PTTL(ctx, prefix+"k").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Set(ctx, "fresh", ratelimiter.WindowCounter{Count: 1, ResetTime: time.Now().Add(time.Minute)}, time.Minute))
	got, ok, err = s.Get(ctx, "fresh")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(1), got.Count)

	limiter, err := ratelimiter.NewFixedWindow(s, ratelimiter.Policy{Name: "it", Window: time.Second, MaxRequests: 2})
	require.NoError(t, err)
	for i, want := range []bool{true, true, false} {
		d, err := limiter.Check(ctx, "burst")
		require.NoError(t, err)
		assert.Equal(t, want, d.Allowed, "request %d", i+1)
	}
	time.Sleep(1100 * time.Millisecond)
	d, err := limiter.Check(ctx, "burst")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func newMiniRedis(t *testing.T, clock *testClock) (*miniredis.Miniredis, *store.RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := store.NewRedis(client, store.WithKeyPrefix("affilify:"), store.WithRedisClock(clock.Now))
	t.Cleanup(func() { _ = s.Close() })
	return mr, s
}

func TestRedisStore_FixedWindowScenario(t *testing.T) {
	clock := newClock()
	mr, s := newMiniRedis(t, clock)
	l, err := ratelimiter.NewFixedWindow(s, ratelimiter.Policy{Name: "api", Window: time.Second, MaxRequests: 2}, ratelimiter.WithClock(clock.Now))
	require.NoError(t, err)
	ctx := context.Background()

	d, err := l.Check(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Remaining)
	assert.Equal(t, time.Second, mr.TTL("affilify:k"))

	d, err = l.Check(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)

	d, err = l.Check(ctx, "k")
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, int64(0), d.Remaining)
	assert.Greater(t, d.RetryAfter, int64(0))
	assert.False(t, d.FailedOpen)

	mr.FastForward(1001 * time.Millisecond)
	clock.Advance(1001 * time.Millisecond)
	assert.False(t, mr.Exists("affilify:k"))

	d, err = l.Check(ctx, "k")
	require.NoError(t, err)
	assert.True(t, d.Allowed)
	assert.Equal(t, int64(1), d.Remaining)
}

func TestRedisStore_Get(t *testing.T) {
	clock := newClock()
	mr, s := newMiniRedis(t, clock)
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set("affilify:live", "3"))
	mr.SetTTL("affilify:live", 1500*time.Millisecond)
	got, ok, err := s.Get(ctx, "live")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(3), got.Count)
	assert.Equal(t, clock.Now().Add(1500*time.Millisecond), got.ResetTime)

	// A key without an expiry reads as an ended window.
	require.NoError(t, mr.Set("affilify:forever", "3"))
	_, ok, err = s.Get(ctx, "forever")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mr.Set("affilify:garbage", "not-a-number"))
	mr.SetTTL("affilify:garbage", time.Minute)
	_, _, err = s.Get(ctx, "garbage")
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}

func TestRedisStore_SetChoosesLaterExpiry(t *testing.T) {
	clock := newClock()
	mr, s := newMiniRedis(t, clock)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "reset-wins", ratelimiter.WindowCounter{Count: 1, ResetTime: clock.Now().Add(time.Minute)}, time.Second))
	assert.Equal(t, time.Minute, mr.TTL("affilify:reset-wins"))
	v, err := mr.Get("affilify:reset-wins")
	require.NoError(t, err)
	assert.Equal(t, "1", v)

	require.NoError(t, s.Set(ctx, "ttl-wins", ratelimiter.WindowCounter{Count: 2, ResetTime: clock.Now().Add(time.Second)}, time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("affilify:ttl-wins"))

	require.NoError(t, s.Set(ctx, "past", ratelimiter.WindowCounter{Count: 1, ResetTime: clock.Now().Add(-time.Minute)}, 0))
	assert.Equal(t, time.Millisecond, mr.TTL("affilify:past"))
}

func TestRedisStore_Increment(t *testing.T) {
	clock := newClock()
	mr, s := newMiniRedis(t, clock)
	ctx := context.Background()

	c, err := s.Increment(ctx, "k", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), c.Count)
	assert.Equal(t, clock.Now().Add(2*time.Second), c.ResetTime)

	mr.FastForward(500 * time.Millisecond)
	c, err = s.Increment(ctx, "k", 2*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(2), c.Count)
	assert.Equal(t, clock.Now().Add(1500*time.Millisecond), c.ResetTime)
	assert.Equal(t, 1500*time.Millisecond, mr.TTL("affilify:k"))
}

func TestRedisStore_IncrementRestoresMissingExpiry(t *testing.T) {
	clock := newClock()
	mr, s := newMiniRedis(t, clock)
	ctx := context.Background()

	require.NoError(t, mr.Set("affilify:stuck", "3"))
	require.Zero(t, mr.TTL("affilify:stuck"))

	c, err := s.Increment(ctx, "stuck", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.Count)
	assert.Equal(t, clock.Now().Add(time.Minute), c.ResetTime)
	assert.Equal(t, time.Minute, mr.TTL("affilify:stuck"))

	mr.FastForward(time.Minute + time.Millisecond)
	assert.False(t, mr.Exists("affilify:stuck"))
}

func TestRedisStore_IncrementNonIntegerValue(t *testing.T) {
	clock := newClock()
	mr, s := newMiniRedis(t, clock)

	require.NoError(t, mr.Set("affilify:garbage", "not-a-number"))
	_, err := s.Increment(context.Background(), "garbage", time.Minute)
	assert.ErrorIs(t, err, ratelimiter.ErrStoreUnavailable)
}

func TestRedisStore_Ping(t *testing.T) {
	mr, s := newMiniRedis(t, newClock())
	require.NoError(t, s.Ping(context.Background()))

	mr.Close()
	assert.ErrorIs(t, s.Ping(context.Background()), ratelimiter.ErrStoreUnavailable)
}
