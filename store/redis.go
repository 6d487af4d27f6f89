package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jassus213/affilify-gate/ratelimiter"
)

// RedisStore implements the ratelimiter.Store interface using Redis as the backend.
// It is suitable for distributed systems where multiple application instances need to share
// a common rate-limiting state. It uses a Lua script to make increment-with-expiry atomic.
//
// Every client error is wrapped with ratelimiter.ErrStoreUnavailable so the
// limiters can apply their failure mode.
type RedisStore struct {
	client          redis.UniversalClient
	incrementScript *redis.Script
	prefix          string
	now             func() time.Time
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithKeyPrefix namespaces every key written by the store.
func WithKeyPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithRedisClock replaces time.Now when converting TTLs to reset times.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(s *RedisStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewRedis creates a new instance of RedisStore.
// It pre-compiles the increment Lua script.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	// INCR then PEXPIRE on the first hit of a window. A key that somehow
	// lost its expiry gets a fresh one so it can never live forever.
	const incrementLua = `
		local current = redis.call("INCR", KEYS[1])
		if tonumber(current) == 1 then
			redis.call("PEXPIRE", KEYS[1], ARGV[1])
		end
		local ttl = redis.call("PTTL", KEYS[1])
		if tonumber(ttl) < 0 then
			redis.call("PEXPIRE", KEYS[1], ARGV[1])
			ttl = tonumber(ARGV[1])
		end
		return {current, ttl}
	`

	s := &RedisStore{
		client:          client,
		incrementScript: redis.NewScript(incrementLua),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get reads the count and remaining TTL of key in one round trip.
func (s *RedisStore) Get(ctx context.Context, key string) (ratelimiter.WindowCounter, bool, error) {
	key = s.prefix + key

	pipe := s.client.Pipeline()
	getCmd := pipe.Get(ctx, key)
	ttlCmd := pipe.PTTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return ratelimiter.WindowCounter{}, false, unavailable("get", err)
	}

	count, err := getCmd.Int64()
	if errors.Is(err, redis.Nil) {
		return ratelimiter.WindowCounter{}, false, nil
	}
	if err != nil {
		return ratelimiter.WindowCounter{}, false, unavailable("get", err)
	}

	ttl := ttlCmd.Val()
	if ttl <= 0 {
		// -2 (missing) or -1 (no expiry): treat as an ended window.
		return ratelimiter.WindowCounter{}, false, nil
	}
	return ratelimiter.WindowCounter{Count: count, ResetTime: s.now().Add(ttl)}, true, nil
}

// Set writes the counter with SET ... PX. The expiry is the later of ttl
// and the counter's reset time.
func (s *RedisStore) Set(ctx context.Context, key string, counter ratelimiter.WindowCounter, ttl time.Duration) error {
	expiry := ttl
	if until := counter.ResetTime.Sub(s.now()); until > expiry {
		expiry = until
	}
	if expiry < time.Millisecond {
		expiry = time.Millisecond
	}
	if err := s.client.Set(ctx, s.prefix+key, counter.Count, expiry).Err(); err != nil {
		return unavailable("set", err)
	}
	return nil
}

// Increment executes the pre-compiled Lua script for the fixed window algorithm.
func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (ratelimiter.WindowCounter, error) {
	res, err := s.incrementScript.Run(ctx, s.client, []string{s.prefix + key}, window.Milliseconds()).Result()
	if err != nil {
		return ratelimiter.WindowCounter{}, unavailable("increment", err)
	}

	arr, ok := res.([]interface{})
	if !ok || len(arr) < 2 {
		return ratelimiter.WindowCounter{}, unavailable("increment", fmt.Errorf("unexpected script reply %T", res))
	}
	count, ok1 := arr[0].(int64)
	ttlMs, ok2 := arr[1].(int64)
	if !ok1 || !ok2 {
		return ratelimiter.WindowCounter{}, unavailable("increment", fmt.Errorf("unexpected script reply %v", arr))
	}

	return ratelimiter.WindowCounter{
		Count:     count,
		ResetTime: s.now().Add(time.Duration(ttlMs) * time.Millisecond),
	}, nil
}

// Ping checks connectivity to Redis.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: redis %s: %w", ratelimiter.ErrStoreUnavailable, op, err)
}
