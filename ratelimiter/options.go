package ratelimiter

import (
	"time"
)

// Logger is the interface used for logging inside the admission layer.
//
// Implement this interface to provide your own logging backend. The
// adapters packages wrap zap, zerolog, logrus and the standard log package.
//
// Example:
//
//	type MyLogger struct{}
//	func (l *MyLogger) Debugf(format string, args ...interface{}) { ... }
//	func (l *MyLogger) Warnf(format string, args ...interface{}) { ... }
//	func (l *MyLogger) Errorf(format string, args ...interface{}) { ... }
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Observer receives every decision taken by a limiter. The metrics package
// provides a Prometheus implementation.
type Observer interface {
	ObserveDecision(policy string, d Decision)
}

// FailureMode decides what a limiter does when its Store fails.
type FailureMode int

const (
	// FailOpen admits the request with an optimistic quota.
	FailOpen FailureMode = iota
	// FailClosed denies the request and returns the store error.
	FailClosed
)

// String implements fmt.Stringer.
func (m FailureMode) String() string {
	if m == FailClosed {
		return "fail-closed"
	}
	return "fail-open"
}

// Clock returns the current time. Tests replace it to move across windows.
type Clock func() time.Time

type limiterConfig struct {
	logger      Logger
	observer    Observer
	clock       Clock
	failureMode FailureMode
}

// Option defines a functional option type for configuring limiters.
//
// Example:
//
//	limiter, err := ratelimiter.NewFixedWindow(store, policy,
//	    ratelimiter.WithLogger(myLogger),
//	    ratelimiter.WithFailureMode(ratelimiter.FailOpen),
//	)
type Option func(*limiterConfig)

func newLimiterConfig(opts ...Option) *limiterConfig {
	cfg := &limiterConfig{
		logger:      noopLogger{},
		observer:    noopObserver{},
		clock:       time.Now,
		failureMode: FailOpen,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLogger returns an Option to set a custom Logger.
func WithLogger(l Logger) Option {
	return func(c *limiterConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver returns an Option to set a decision Observer.
func WithObserver(o Observer) Option {
	return func(c *limiterConfig) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithClock returns an Option to replace time.Now.
func WithClock(clock Clock) Option {
	return func(c *limiterConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithFailureMode returns an Option to choose between FailOpen and FailClosed.
func WithFailureMode(mode FailureMode) Option {
	return func(c *limiterConfig) {
		c.failureMode = mode
	}
}

// noopLogger is a private default logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Warnf(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

type noopObserver struct{}

func (noopObserver) ObserveDecision(string, Decision) {}
