package auth

import "time"

// DefaultCookieName is the session cookie set by the login route.
const DefaultCookieName = "auth-token"

// Logger is the logging interface of the gate. It matches ratelimiter.Logger
// so the same adapters serve both.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Observer is notified of each gate outcome. Reason is "" on success.
type Observer interface {
	ObserveAuth(reason Reason)
}

type config struct {
	cookieName string
	issuer     string
	skew       time.Duration
	clock      func() time.Time
	logger     Logger
	observer   Observer
}

// Option configures a Gate or an Issuer.
type Option func(*config)

func newConfig(opts ...Option) *config {
	cfg := &config{
		cookieName: DefaultCookieName,
		clock:      time.Now,
		logger:     noopLogger{},
		observer:   noopObserver{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithCookieName changes the cookie the credential is read from.
func WithCookieName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.cookieName = name
		}
	}
}

// WithIssuer sets the iss claim written by Issuer and required by Gate.
func WithIssuer(iss string) Option {
	return func(c *config) {
		c.issuer = iss
	}
}

// WithAcceptableSkew tolerates clock drift when checking exp and nbf.
func WithAcceptableSkew(d time.Duration) Option {
	return func(c *config) {
		c.skew = d
	}
}

// WithClock replaces time.Now for token validation and issuing.
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver sets the outcome observer.
func WithObserver(o Observer) Option {
	return func(c *config) {
		if o != nil {
			c.observer = o
		}
	}
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...interface{}) {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Errorf(string, ...interface{}) {}

type noopObserver struct{}

func (noopObserver) ObserveAuth(Reason) {}
