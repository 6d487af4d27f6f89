package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/jassus213/affilify-gate/users"
)

// DefaultTokenTTL is the lifetime of session tokens minted by Issuer.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Issuer mints HS256 session tokens verifiable by a Gate sharing its secret.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	cfg    *config
}

// NewIssuer creates an Issuer. A non-positive ttl selects DefaultTokenTTL.
func NewIssuer(secret []byte, ttl time.Duration, opts ...Option) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Issuer{secret: secret, ttl: ttl, cfg: newConfig(opts...)}, nil
}

// Issue returns a signed token for u. The plan claim is informational;
// the gate always reads the tier from the user store.
func (i *Issuer) Issue(u users.User) (string, error) {
	now := i.cfg.clock()
	b := jwt.NewBuilder().
		JwtID(uuid.NewString()).
		Subject(u.ID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(now.Add(i.ttl)).
		Claim("email", u.Email).
		Claim("plan", u.Plan.String())
	if i.cfg.issuer != "" {
		b = b.Issuer(i.cfg.issuer)
	}

	tok, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.secret))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}
