package auth

import (
	"context"

	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/users"
)

// Principal is the authenticated identity of one request.
type Principal struct {
	ID       string    `json:"id"`
	Email    string    `json:"email"`
	Plan     plan.Tier `json:"plan"`
	Verified bool      `json:"verified"`
}

func principalFrom(u *users.User) *Principal {
	return &Principal{
		ID:       u.ID,
		Email:    u.Email,
		Plan:     u.Plan,
		Verified: u.Verified,
	}
}

type contextKey string

const principalContextKey contextKey = "principal"

// NewContext returns a copy of ctx carrying p.
func NewContext(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// FromContext returns the principal stored by NewContext.
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(*Principal)
	return p, ok && p != nil
}
