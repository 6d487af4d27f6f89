package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/jassus213/affilify-gate/plan"
)

// Limits is an explicit fixed-window allowance for CheckUserLimit.
type Limits struct {
	Window      time.Duration
	MaxRequests int64
}

// UserLimiter enforces business quotas keyed by (user, action).
//
// Unlike the IP-keyed Registry, its counters follow the account across
// devices and are never shared between users behind one NAT.
type UserLimiter struct {
	store Store
	cfg   *limiterConfig
}

// NewUserLimiter creates a UserLimiter over store.
func NewUserLimiter(store Store, opts ...Option) *UserLimiter {
	return &UserLimiter{store: store, cfg: newLimiterConfig(opts...)}
}

// CheckUserLimit counts one use of action by userID against limits.
func (u *UserLimiter) CheckUserLimit(ctx context.Context, userID string, action plan.Action, limits Limits) (Decision, error) {
	policy := Policy{Name: string(action), Window: limits.Window, MaxRequests: limits.MaxRequests}
	if err := policy.Validate(); err != nil {
		return Decision{}, err
	}
	if userID == "" {
		return Decision{}, fmt.Errorf("ratelimiter: user id is required")
	}

	key := UserLimitKey(userID, string(action))
	d, err := checkWindow(ctx, u.store, key, limits.Window, limits.MaxRequests, u.cfg)
	if err != nil {
		d = failureDecision(u.cfg, limits.Window, limits.MaxRequests)
		u.cfg.observer.ObserveDecision("user:"+string(action), d)
		if u.cfg.failureMode == FailClosed {
			u.cfg.logger.Errorf("Store failed for user quota '%s', denying: %v", key, err)
			return d, err
		}
		u.cfg.logger.Warnf("Store failed for user quota '%s', failing open: %v", key, err)
		return d, nil
	}
	u.cfg.observer.ObserveDecision("user:"+string(action), d)
	if !d.Allowed {
		u.cfg.logger.Debugf("Quota exhausted for user '%s' action '%s'. Limit: %d", userID, action, d.Limit)
	}
	return d, nil
}

// CheckPlanLimit resolves the quota of tier for action and checks it.
func (u *UserLimiter) CheckPlanLimit(ctx context.Context, userID string, tier plan.Tier, action plan.Action) (Decision, error) {
	q, err := plan.QuotaFor(tier, action)
	if err != nil {
		return Decision{}, err
	}
	return u.CheckUserLimit(ctx, userID, action, Limits{Window: q.Window, MaxRequests: q.MaxRequests})
}
