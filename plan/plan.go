// Package plan defines the AFFILIFY subscription tiers and the business
// quotas each tier grants.
package plan

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnknownTier is returned by Parse for unrecognised plan names.
var ErrUnknownTier = errors.New("unknown plan tier")

// ErrUnknownAction is returned by QuotaFor for unmetered actions.
var ErrUnknownAction = errors.New("unknown metered action")

// Tier is a subscription plan. Tiers are ordered: Free < Basic < Pro < Enterprise.
type Tier int

const (
	Free Tier = iota
	Basic
	Pro
	Enterprise
)

var tierNames = [...]string{"free", "basic", "pro", "enterprise"}

// String returns the lowercase plan name.
func (t Tier) String() string {
	if t < Free || t > Enterprise {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// AtLeast reports whether t grants everything required grants.
func (t Tier) AtLeast(required Tier) bool {
	return t >= required
}

// Paid reports whether t is any paid plan.
func (t Tier) Paid() bool {
	return t >= Basic
}

// Parse maps a stored plan name to a Tier. The empty string is Free.
func Parse(s string) (Tier, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return Free, nil
	}
	for i, n := range tierNames {
		if n == name {
			return Tier(i), nil
		}
	}
	return Free, fmt.Errorf("%w: %q", ErrUnknownTier, s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Action is a metered business resource.
type Action string

const (
	ActionAIRequest         Action = "ai_request"
	ActionWebsiteGeneration Action = "website_generation"
	ActionAPICall           Action = "api_call"
)

// Quota is the allowance for one action over one window.
type Quota struct {
	Window      time.Duration
	MaxRequests int64
}

// Quotas is the allowance of one tier for every metered action.
type Quotas struct {
	AIRequestsPerDay         int64
	WebsiteGenerationsPerDay int64
	APICallsPerHour          int64
}

var quotaTable = map[Tier]Quotas{
	Free:       {AIRequestsPerDay: 10, WebsiteGenerationsPerDay: 3, APICallsPerHour: 100},
	Basic:      {AIRequestsPerDay: 50, WebsiteGenerationsPerDay: 15, APICallsPerHour: 500},
	Pro:        {AIRequestsPerDay: 100, WebsiteGenerationsPerDay: 30, APICallsPerHour: 1000},
	Enterprise: {AIRequestsPerDay: 1000, WebsiteGenerationsPerDay: 300, APICallsPerHour: 10000},
}

// QuotasFor returns the allowances of tier. Unknown tiers get Free quotas.
func QuotasFor(t Tier) Quotas {
	if q, ok := quotaTable[t]; ok {
		return q
	}
	return quotaTable[Free]
}

// QuotaFor returns the window and ceiling for action under tier.
func QuotaFor(t Tier, action Action) (Quota, error) {
	q := QuotasFor(t)
	switch action {
	case ActionAIRequest:
		return Quota{Window: 24 * time.Hour, MaxRequests: q.AIRequestsPerDay}, nil
	case ActionWebsiteGeneration:
		return Quota{Window: 24 * time.Hour, MaxRequests: q.WebsiteGenerationsPerDay}, nil
	case ActionAPICall:
		return Quota{Window: time.Hour, MaxRequests: q.APICallsPerHour}, nil
	default:
		return Quota{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}
