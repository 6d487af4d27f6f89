package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"
)

// ErrUnknownPolicy is returned when a traffic class has no registered policy.
var ErrUnknownPolicy = errors.New("unknown rate limit policy")

// Class names a traffic class with its own IP-keyed policy.
type Class string

// Traffic classes registered by DefaultPolicies.
const (
	ClassAuth          Class = "auth"
	ClassAPI           Class = "api"
	ClassAI            Class = "ai"
	ClassPayment       Class = "payment"
	ClassPasswordReset Class = "password_reset"
)

// DefaultPolicies returns the policy table for every traffic class.
func DefaultPolicies() map[Class]Policy {
	return map[Class]Policy{
		ClassAuth: {
			Name:        string(ClassAuth),
			Window:      15 * time.Minute,
			MaxRequests: 5,
			Message:     "Too many authentication attempts, please try again later.",
		},
		ClassAPI: {
			Name:        string(ClassAPI),
			Window:      time.Minute,
			MaxRequests: 100,
			Message:     "Too many requests, please try again later.",
		},
		ClassAI: {
			Name:        string(ClassAI),
			Window:      time.Minute,
			MaxRequests: 10,
			Message:     "Too many AI generation requests, please slow down.",
		},
		ClassPayment: {
			Name:        string(ClassPayment),
			Window:      time.Minute,
			MaxRequests: 3,
			Message:     "Too many payment attempts, please try again later.",
		},
		ClassPasswordReset: {
			Name:        string(ClassPasswordReset),
			Window:      time.Hour,
			MaxRequests: 3,
			Message:     "Too many password reset requests, please try again later.",
		},
	}
}

// Override replaces the limit or window of a class for one call site.
// Zero fields inherit the class values.
type Override struct {
	MaxRequests   int64
	WindowSeconds int64
}

// Custom returns an Override with both values set.
func Custom(maxRequests, windowSeconds int64) Override {
	return Override{MaxRequests: maxRequests, WindowSeconds: windowSeconds}
}

// Outcome is what Registry.RateLimit hands to route handlers.
type Outcome struct {
	// Success reports whether the request may proceed.
	Success bool
	// Headers always carries X-RateLimit-Limit, X-RateLimit-Remaining and
	// X-RateLimit-Reset, plus Retry-After on denial.
	Headers http.Header
	// Error is the policy message when Success is false.
	Error string
	// Decision is the underlying limiter decision.
	Decision Decision
}

// Registry holds one limiter per traffic class. It is immutable after
// construction and safe for concurrent use.
type Registry struct {
	store    Store
	opts     []Option
	limiters map[Class]*FixedWindowLimiter
}

// NewRegistry builds a Registry over store using DefaultPolicies.
func NewRegistry(store Store, opts ...Option) (*Registry, error) {
	return NewRegistryWith(store, DefaultPolicies(), opts...)
}

// NewRegistryWith builds a Registry from an explicit policy table.
func NewRegistryWith(store Store, policies map[Class]Policy, opts ...Option) (*Registry, error) {
	reg := &Registry{
		store:    store,
		opts:     opts,
		limiters: make(map[Class]*FixedWindowLimiter, len(policies)),
	}
	for class, policy := range policies {
		if policy.Name == "" {
			policy.Name = string(class)
		}
		limiter, err := NewFixedWindow(store, policy, opts...)
		if err != nil {
			return nil, fmt.Errorf("policy %q: %w", class, err)
		}
		reg.limiters[class] = limiter
	}
	return reg, nil
}

// Classes returns the registered traffic classes in lexical order.
func (r *Registry) Classes() []Class {
	classes := make([]Class, 0, len(r.limiters))
	for class := range r.limiters {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

// Limiter returns the limiter registered for class.
func (r *Registry) Limiter(class Class) (*FixedWindowLimiter, error) {
	limiter, ok := r.limiters[class]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, class)
	}
	return limiter, nil
}

// RateLimit checks req against the policy of class. An optional Override
// applies a one-off limit counted separately from the class counters.
//
// The only error returned is ErrUnknownPolicy (or ErrInvalidPolicy for a bad
// override); store failures are handled by the limiter's FailureMode.
func (r *Registry) RateLimit(ctx context.Context, req *http.Request, class Class, override ...Override) (Outcome, error) {
	limiter, err := r.Limiter(class)
	if err != nil {
		return Outcome{}, err
	}
	if len(override) > 0 {
		limiter, err = r.customLimiter(limiter.Policy(), override[0])
		if err != nil {
			return Outcome{}, err
		}
	}

	d, err := limiter.CheckRequest(ctx, req)
	out := Outcome{
		Success:  d.Allowed,
		Headers:  d.Headers(),
		Decision: d,
	}
	if !d.Allowed {
		out.Error = limiter.Policy().Message
	}
	if err != nil && !errors.Is(err, ErrStoreUnavailable) {
		return out, err
	}
	return out, nil
}

func (r *Registry) customLimiter(base Policy, o Override) (*FixedWindowLimiter, error) {
	policy := base
	if o.MaxRequests != 0 {
		policy.MaxRequests = o.MaxRequests
	}
	if o.WindowSeconds != 0 {
		policy.Window = time.Duration(o.WindowSeconds) * time.Second
	}
	policy.Name = fmt.Sprintf("%s:custom:%d:%d", base.Name, policy.MaxRequests, int64(policy.Window/time.Second))
	return NewFixedWindow(r.store, policy, r.opts...)
}
