// Package nethttp wires the admission layer into standard `net/http`
// handler chains (and routers built on it, such as chi).
package nethttp

import (
	"context"
	"errors"
	"net/http"

	"github.com/jassus213/affilify-gate/auth"
	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/ratelimiter"
	"github.com/jassus213/affilify-gate/response"
)

// Middleware creates a rate limiting middleware for the policy of class.
//
// It wraps an existing `http.Handler` and checks incoming requests against
// the registry. On every request, it adds the standard `X-RateLimit-*`
// headers to the response.
//
// Example:
//
//	registry, _ := ratelimiter.NewRegistry(store)
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", myHandler)
//
//	apiLimit := nethttp.Middleware(registry, ratelimiter.ClassAPI)
//	http.ListenAndServe(":8080", apiLimit(mux))
func Middleware(registry *ratelimiter.Registry, class ratelimiter.Class, override ...ratelimiter.Override) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			out, err := registry.RateLimit(r.Context(), r, class, override...)
			if err != nil {
				response.Write(w, response.Internal())
				return
			}

			out.Decision.WriteHeaders(w.Header())

			if !out.Success {
				response.Write(w, response.RateLimited(out.Error, out.Decision))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate requires a valid session and stores the principal in the
// request context (see auth.FromContext).
func Authenticate(g *auth.Gate) func(http.Handler) http.Handler {
	return gate(g.Authenticate)
}

// RequirePlan requires a session whose plan is at least required.
func RequirePlan(g *auth.Gate, required plan.Tier) func(http.Handler) http.Handler {
	return gate(func(ctx context.Context, r *http.Request) (*auth.Principal, error) {
		return g.RequirePlan(ctx, r, required)
	})
}

// RequirePremium requires any paid plan.
func RequirePremium(g *auth.Gate) func(http.Handler) http.Handler {
	return gate(g.RequirePremium)
}

// RequireEnterprise requires the enterprise plan.
func RequireEnterprise(g *auth.Gate) func(http.Handler) http.Handler {
	return gate(g.RequireEnterprise)
}

func gate(check func(ctx context.Context, r *http.Request) (*auth.Principal, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, err := check(r.Context(), r)
			if err != nil {
				response.Write(w, response.FromAuth(err))
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), p)))
		})
	}
}

// Quota enforces the subscription quota of action for the principal in the
// request context.
func Quota(limiter *ratelimiter.UserLimiter, action plan.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.FromContext(r.Context())
			if !ok {
				response.Write(w, response.Unauthorized(response.MessageAuthRequired))
				return
			}

			d, err := limiter.CheckPlanLimit(r.Context(), p.ID, p.Plan, action)
			if err != nil && !errors.Is(err, ratelimiter.ErrStoreUnavailable) {
				response.Write(w, response.Internal())
				return
			}

			d.WriteQuotaHeaders(w.Header())
			if !d.Allowed {
				response.Write(w, response.QuotaExceeded(d))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
