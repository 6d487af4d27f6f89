package gin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/response"
)

// PrincipalKey is the gin context key holding the *auth.Principal.
const PrincipalKey = "affilify.principal"

type gateFunc func(ctx context.Context, r *http.Request) (*auth.Principal, error)

// Authenticate requires a valid session for an existing account.
func Authenticate(g *auth.Gate) gin.HandlerFunc {
	return gateHandler(g.Authenticate)
}

// RequirePlan requires a session whose plan is at least required.
func RequirePlan(g *auth.Gate, required plan.Tier) gin.HandlerFunc {
	return gateHandler(func(ctx context.Context, r *http.Request) (*auth.Principal, error) {
		return g.RequirePlan(ctx, r, required)
	})
}

// RequirePremium requires any paid plan.
func RequirePremium(g *auth.Gate) gin.HandlerFunc {
	return gateHandler(g.RequirePremium)
}

// RequireEnterprise requires the enterprise plan.
func RequireEnterprise(g *auth.Gate) gin.HandlerFunc {
	return gateHandler(g.RequireEnterprise)
}

func gateHandler(check gateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := check(c.Request.Context(), c.Request)
		if err != nil {
			abort(c, response.FromAuth(err))
			return
		}
		c.Set(PrincipalKey, p)
		c.Request = c.Request.WithContext(auth.NewContext(c.Request.Context(), p))
		c.Next()
	}
}

// Principal returns the principal set by an authentication handler.
func Principal(c *gin.Context) (*auth.Principal, bool) {
	v, ok := c.Get(PrincipalKey)
	if !ok {
		return nil, false
	}
	p, ok := v.(*auth.Principal)
	return p, ok && p != nil
}
