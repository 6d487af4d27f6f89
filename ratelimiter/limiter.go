// Package ratelimiter provides the fixed-window admission limiters used in
// front of every AFFILIFY route.
//
// The package defines three core abstractions:
//   - Limiter: checks a key against a Policy and returns a Decision
//   - Store: backend interface holding window counters (e.g., MemoryStore, RedisStore)
//   - Decision: the outcome of a check, including the data for X-RateLimit-* headers
//
// On top of these it provides a Registry of named traffic-class policies
// (authentication, API, AI generation, payment, password reset) keyed by
// client IP, and a UserLimiter enforcing subscription quotas keyed by
// (user, action).
package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrorExceeded is returned when a client exceeds the rate limit.
//
// Users can use errors.Is(err, ratelimiter.ErrorExceeded) to detect
// this specific condition.
var ErrorExceeded = errors.New("rate limit exceeded")

// ErrStoreUnavailable wraps every failure reported by a Store backend.
//
// Limiters never surface it to callers in FailOpen mode; it is returned
// only when a limiter is configured with FailClosed.
var ErrStoreUnavailable = errors.New("rate limit store unavailable")

// ErrInvalidPolicy is returned when a policy has a non-positive window or limit.
var ErrInvalidPolicy = errors.New("invalid rate limit policy")

// WindowCounter is the unit of state tracked by a Store for one key.
type WindowCounter struct {
	// Count is the number of requests observed in the current window.
	Count int64
	// ResetTime is the instant the window ends. After it the counter is
	// treated as absent even if the backend has not evicted it yet.
	ResetTime time.Time
}

// Expired reports whether the counter's window has ended at now.
func (c WindowCounter) Expired(now time.Time) bool {
	return now.After(c.ResetTime)
}

// Decision contains the outcome of a rate limit check.
//
// It provides the necessary data to populate the `X-RateLimit-Limit`,
// `X-RateLimit-Remaining`, `X-RateLimit-Reset` and `Retry-After` headers.
type Decision struct {
	// Allowed indicates whether the request is permitted.
	Allowed bool
	// Limit is the total number of requests allowed in the window.
	Limit int64
	// Remaining is the number of requests left in the window, never negative.
	Remaining int64
	// ResetTime is when the current window ends.
	ResetTime time.Time
	// RetryAfter is the number of whole seconds the client should wait.
	// It is only meaningful when Allowed is false.
	RetryAfter int64
	// FailedOpen is set when the store failed and the request was admitted
	// with an optimistic quota.
	FailedOpen bool
}

// Err returns nil for an admitted request and an error wrapping
// ErrorExceeded otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: limit %d, retry after %ds", ErrorExceeded, d.Limit, d.RetryAfter)
}

// Limiter defines the interface for fixed-window rate limiting.
//
// Middleware and users interact with Limiter to enforce limits on requests.
type Limiter interface {
	// Check counts one request for key and reports whether it is admitted.
	//
	// In FailOpen mode the returned error is always nil; store failures
	// are reported through Decision.FailedOpen instead.
	Check(ctx context.Context, key string) (Decision, error)
}

// Store defines the interface for storing window counters.
//
// This abstraction allows interchangeable backends such as the in-memory
// store or Redis for multi-instance deployments. Implementations must wrap
// backend failures with ErrStoreUnavailable.
type Store interface {
	// Get returns the counter for key. The boolean is false if the key was
	// never set or its window has ended.
	Get(ctx context.Context, key string) (WindowCounter, bool, error)

	// Set upserts the counter for key. The backend may evict it at or
	// after ttl.
	Set(ctx context.Context, key string, counter WindowCounter, ttl time.Duration) error

	// Increment atomically increments the counter for key and returns it.
	//
	// If the key does not exist, it is created with a count of 1 and a
	// reset time of now plus window.
	Increment(ctx context.Context, key string, window time.Duration) (WindowCounter, error)
}
