package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Policy is the static configuration of one fixed-window limiter.
type Policy struct {
	// Name identifies the policy in store keys, logs and metrics.
	Name string
	// Window is the length of each fixed window.
	Window time.Duration
	// MaxRequests is the number of requests admitted per window.
	MaxRequests int64
	// KeyFunc derives the client identity. Defaults to ClientIP.
	KeyFunc KeyFunc
	// Message is the user-facing text returned on denial.
	Message string
}

// Validate reports whether the policy can be enforced.
func (p Policy) Validate() error {
	if p.Window <= 0 {
		return fmt.Errorf("%w: %q window must be positive, got %s", ErrInvalidPolicy, p.Name, p.Window)
	}
	if p.MaxRequests <= 0 {
		return fmt.Errorf("%w: %q max requests must be positive, got %d", ErrInvalidPolicy, p.Name, p.MaxRequests)
	}
	return nil
}

// FixedWindowLimiter implements the "Fixed Window" rate-limiting algorithm.
//
// The Fixed Window algorithm limits the number of requests (MaxRequests)
// within a specific time frame (Window). Windows do not slide: a client may
// send MaxRequests at the end of one window and MaxRequests again right
// after it rolls over.
//
// Example usage:
//
//	store := store.NewMemory(ctx, time.Minute)
//	limiter, err := ratelimiter.NewFixedWindow(store, ratelimiter.Policy{
//	    Name: "api", Window: time.Minute, MaxRequests: 100,
//	})
//	decision, err := limiter.Check(ctx, "203.0.113.7")
type FixedWindowLimiter struct {
	store  Store
	policy Policy
	cfg    *limiterConfig
}

// NewFixedWindow creates a new FixedWindowLimiter instance.
//
// Parameters:
//   - store: a ratelimiter.Store implementation to persist request counts
//   - policy: the window, limit and key derivation to enforce
//
// It returns ErrInvalidPolicy if the window or limit are not positive.
func NewFixedWindow(store Store, policy Policy, opts ...Option) (*FixedWindowLimiter, error) {
	if store == nil {
		return nil, fmt.Errorf("ratelimiter: store is required")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if policy.KeyFunc == nil {
		policy.KeyFunc = ClientIP
	}
	if policy.Message == "" {
		policy.Message = "Too many requests, please try again later."
	}
	return &FixedWindowLimiter{
		store:  store,
		policy: policy,
		cfg:    newLimiterConfig(opts...),
	}, nil
}

// Policy returns the policy enforced by the limiter.
func (l *FixedWindowLimiter) Policy() Policy {
	return l.policy
}

// CheckRequest derives the client identity from r and checks it.
func (l *FixedWindowLimiter) CheckRequest(ctx context.Context, r *http.Request) (Decision, error) {
	identity := l.policy.KeyFunc(r)
	if identity == "" {
		identity = UnknownClient
	}
	return l.Check(ctx, RateLimitKey(l.policy.Name, identity))
}

// Check counts one request for key under the limiter's policy.
//
//   - absent or expired counter: a fresh window is started and the request admitted
//   - count already at the limit: denied with RetryAfter until the window ends
//   - otherwise: the counter is incremented and the request admitted
func (l *FixedWindowLimiter) Check(ctx context.Context, key string) (Decision, error) {
	d, err := checkWindow(ctx, l.store, key, l.policy.Window, l.policy.MaxRequests, l.cfg)
	if err != nil {
		return l.onStoreError(key, err)
	}
	l.cfg.observer.ObserveDecision(l.policy.Name, d)
	if !d.Allowed {
		l.cfg.logger.Debugf("Request denied for key '%s'. Limit: %d, retry after %ds", key, d.Limit, d.RetryAfter)
	}
	return d, nil
}

func (l *FixedWindowLimiter) onStoreError(key string, err error) (Decision, error) {
	d := failureDecision(l.cfg, l.policy.Window, l.policy.MaxRequests)
	l.cfg.observer.ObserveDecision(l.policy.Name, d)
	if l.cfg.failureMode == FailClosed {
		l.cfg.logger.Errorf("Store failed for key '%s', denying: %v", key, err)
		return d, err
	}
	l.cfg.logger.Warnf("Store failed for key '%s', failing open: %v", key, err)
	return d, nil
}

// checkWindow runs the fixed-window algorithm shared by FixedWindowLimiter
// and UserLimiter.
func checkWindow(ctx context.Context, store Store, key string, window time.Duration, limit int64, cfg *limiterConfig) (Decision, error) {
	now := cfg.clock()

	var (
		current WindowCounter
		found   bool
	)
	err := guard(func() error {
		var err error
		current, found, err = store.Get(ctx, key)
		return err
	})
	if err != nil {
		return Decision{}, err
	}
	if found && current.Expired(now) {
		found = false
	}

	if !found {
		fresh := WindowCounter{Count: 1, ResetTime: now.Add(window)}
		if err := guard(func() error { return store.Set(ctx, key, fresh, window) }); err != nil {
			return Decision{}, err
		}
		return Decision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - 1,
			ResetTime: fresh.ResetTime,
		}, nil
	}

	if current.Count >= limit {
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetTime:  current.ResetTime,
			RetryAfter: retryAfter(current.ResetTime, now),
		}, nil
	}

	var updated WindowCounter
	err = guard(func() error {
		var err error
		updated, err = store.Increment(ctx, key, window)
		return err
	})
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining(limit, updated.Count),
		ResetTime: updated.ResetTime,
	}, nil
}

// failureDecision is the decision returned when the store failed.
func failureDecision(cfg *limiterConfig, window time.Duration, limit int64) Decision {
	now := cfg.clock()
	if cfg.failureMode == FailClosed {
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetTime:  now.Add(window),
			RetryAfter: retryAfter(now.Add(window), now),
		}
	}
	return Decision{
		Allowed:    true,
		Limit:      limit,
		Remaining:  limit - 1,
		ResetTime:  now.Add(window),
		FailedOpen: true,
	}
}

// guard runs one store call and reports any failure, including a panic,
// as ErrStoreUnavailable.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrStoreUnavailable, r)
		}
	}()
	if err = fn(); err != nil && !errors.Is(err, ErrStoreUnavailable) {
		err = fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func remaining(limit, count int64) int64 {
	return int64(math.Max(0, float64(limit-count)))
}

func retryAfter(reset, now time.Time) int64 {
	wait := reset.Sub(now)
	if wait <= 0 {
		return 0
	}
	return int64(math.Ceil(wait.Seconds()))
}
