// Package gin wires the admission layer into gin handler chains.
//
// Handlers are meant to be stacked in order: RateLimiter for the route's
// traffic class, then Authenticate (or a tiered variant), then Quota for
// metered routes. Each stage aborts the chain on denial with the JSON
// envelope of the response package.
package gin

import (
	"github.com/gin-gonic/gin"

	"github.com/jassus213/affilify-gate/ratelimiter"
	"github.com/jassus213/affilify-gate/response"
)

type config struct {
	logger   ratelimiter.Logger
	override []ratelimiter.Override
}

// Option customises a middleware handler.
type Option func(*config)

// WithLogger sets the logger used for middleware-level failures.
func WithLogger(l ratelimiter.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithOverride applies a one-off limit to RateLimiter instead of the class
// defaults.
func WithOverride(o ratelimiter.Override) Option {
	return func(c *config) {
		c.override = []ratelimiter.Override{o}
	}
}

func newConfig(opts ...Option) *config {
	cfg := &config{logger: nopLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// RateLimiter creates a Gin middleware enforcing the policy of class.
//
// On every request it adds the standard `X-RateLimit-*` headers to the
// response, and `Retry-After` when the request is denied.
//
// Example:
//
//	registry, _ := ratelimiter.NewRegistry(store)
//	router := gin.Default()
//	router.POST("/api/auth/login", ginMiddleware.RateLimiter(registry, ratelimiter.ClassAuth), login)
func RateLimiter(registry *ratelimiter.Registry, class ratelimiter.Class, options ...Option) gin.HandlerFunc {
	cfg := newConfig(options...)

	return func(c *gin.Context) {
		out, err := registry.RateLimit(c.Request.Context(), c.Request, class, cfg.override...)
		if err != nil {
			cfg.logger.Errorf("Rate limit check failed for class '%s': %v", class, err)
			abort(c, response.Internal())
			return
		}

		for k, v := range out.Headers {
			c.Writer.Header()[k] = v
		}

		if !out.Success {
			_ = c.Error(out.Decision.Err())
			abort(c, response.RateLimited(out.Error, out.Decision))
			return
		}

		c.Next()
	}
}

func abort(c *gin.Context, e *response.Error) {
	c.AbortWithStatusJSON(e.Status, e)
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
