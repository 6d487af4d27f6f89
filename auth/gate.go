// Package auth provides the authentication gate every protected AFFILIFY
// route passes through.
//
// The gate reads a session JWT from a cookie or bearer header, verifies it
// with the shared HS256 secret and then re-reads the referenced account from
// the user store. A token for a deleted account is denied even though it has
// not expired. Tiered variants additionally require a minimum plan.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/jassus213/affilify-gate/plan"
	"github.com/jassus213/affilify-gate/users"
)

// UserStore is the user-profile collaborator.
type UserStore interface {
	// LookupUser returns the profile for id, or an error wrapping
	// users.ErrNotFound if the account does not exist.
	LookupUser(ctx context.Context, id string) (*users.User, error)
}

// Gate authenticates requests. It is safe for concurrent use.
type Gate struct {
	secret []byte
	users  UserStore
	cfg    *config
}

// NewGate creates a gate verifying tokens signed with secret.
func NewGate(secret []byte, store UserStore, opts ...Option) (*Gate, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	if store == nil {
		return nil, errors.New("auth: user store is required")
	}
	return &Gate{secret: secret, users: store, cfg: newConfig(opts...)}, nil
}

// Credential returns the session token carried by r, preferring the cookie
// over the Authorization header. It returns "" if neither is present.
func (g *Gate) Credential(r *http.Request) string {
	if c, err := r.Cookie(g.cfg.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	header := r.Header.Get("Authorization")
	if len(header) > len("Bearer ") && strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(header[len("Bearer "):])
	}
	return ""
}

// Verify checks the signature, expiry and issuer of token and returns its subject.
func (g *Gate) Verify(token string) (string, error) {
	opts := []jwt.ParseOption{
		jwt.WithKey(jwa.HS256, g.secret),
		jwt.WithValidate(true),
		jwt.WithRequiredClaim(jwt.ExpirationKey),
		jwt.WithClock(jwt.ClockFunc(g.cfg.clock)),
		jwt.WithAcceptableSkew(g.cfg.skew),
	}
	if g.cfg.issuer != "" {
		opts = append(opts, jwt.WithIssuer(g.cfg.issuer))
	}

	parsed, err := jwt.Parse([]byte(token), opts...)
	if err != nil {
		return "", deny(ReasonInvalidCredential, err)
	}
	if parsed.Subject() == "" {
		return "", deny(ReasonInvalidCredential, errors.New("token has no subject"))
	}
	return parsed.Subject(), nil
}

// Authenticate resolves the principal of r or returns an *Error.
func (g *Gate) Authenticate(ctx context.Context, r *http.Request) (*Principal, error) {
	p, err := g.authenticate(ctx, r)
	g.cfg.observer.ObserveAuth(ReasonOf(err))
	return p, err
}

func (g *Gate) authenticate(ctx context.Context, r *http.Request) (*Principal, error) {
	token := g.Credential(r)
	if token == "" {
		return nil, deny(ReasonNoCredential, nil)
	}

	subject, err := g.Verify(token)
	if err != nil {
		g.cfg.logger.Debugf("Rejected credential: %v", err)
		return nil, err
	}

	u, err := g.users.LookupUser(ctx, subject)
	switch {
	case errors.Is(err, users.ErrNotFound) || (err == nil && u == nil):
		g.cfg.logger.Warnf("Valid token for missing user '%s'", subject)
		return nil, deny(ReasonPrincipalGone, fmt.Errorf("user %q no longer exists", subject))
	case err != nil:
		g.cfg.logger.Errorf("User lookup failed for '%s': %v", subject, err)
		return nil, deny(ReasonLookupFailed, err)
	}

	return principalFrom(u), nil
}

// RequirePlan authenticates r and denies with ReasonInsufficientPlan if the
// principal's tier is below required.
func (g *Gate) RequirePlan(ctx context.Context, r *http.Request, required plan.Tier) (*Principal, error) {
	p, err := g.authenticate(ctx, r)
	if err == nil && !p.Plan.AtLeast(required) {
		err = &Error{Reason: ReasonInsufficientPlan, Required: required}
		p = nil
	}
	g.cfg.observer.ObserveAuth(ReasonOf(err))
	return p, err
}

// RequirePremium admits any paid plan.
func (g *Gate) RequirePremium(ctx context.Context, r *http.Request) (*Principal, error) {
	return g.RequirePlan(ctx, r, plan.Basic)
}

// RequireEnterprise admits only the enterprise plan.
func (g *Gate) RequireEnterprise(ctx context.Context, r *http.Request) (*Principal, error) {
	return g.RequirePlan(ctx, r, plan.Enterprise)
}
