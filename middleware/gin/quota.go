package gin

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/ratelimiter"
	"github.com/jassus213/affilify-gate/response"
)

// Quota enforces the subscription quota of action for the authenticated
// principal. It must run after Authenticate or a tiered variant.
func Quota(limiter *ratelimiter.UserLimiter, action plan.Action, options ...Option) gin.HandlerFunc {
	cfg := newConfig(options...)

	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			abort(c, response.Unauthorized(response.MessageAuthRequired))
			return
		}

		// A fail-closed store outage arrives as a denial plus ErrStoreUnavailable.
		d, err := limiter.CheckPlanLimit(c.Request.Context(), p.ID, p.Plan, action)
		if err != nil && !errors.Is(err, ratelimiter.ErrStoreUnavailable) {
			cfg.logger.Errorf("Quota check failed for user '%s' action '%s': %v", p.ID, action, err)
			abort(c, response.Internal())
			return
		}

		d.WriteQuotaHeaders(c.Writer.Header())

		if !d.Allowed {
			_ = c.Error(d.Err())
			abort(c, response.QuotaExceeded(d))
			return
		}

		c.Next()
	}
}
