package auth

import (
	"context"
	"sync"
	"time"

	"github.com/voucherpay/enterprise/pkg/observability"
)

// RateLimiter bounds how many requests an authenticated caller may make,
// keyed by subject and service tier. Implementations record rejections
// in the platform metrics so tier pressure is visible on the dashboard.
type RateLimiter interface {
	Allow(ctx context.Context, identity *Identity) error
}

// TierConfig holds the per-minute budget for one service tier. Tiers are
// assigned through API key configuration; bearer-token callers fall into
// the default tier.
type TierConfig struct {
	RequestsPerMinute int
}

// tierRPM resolves the per-minute budget for an identity's tier. A zero
// or negative budget disables limiting for that tier.
func tierRPM(tiers map[string]TierConfig, defaultRPM int, identity *Identity) (tier string, rpm int) {
	tier = identity.ServiceTier
	if tier == "" {
		tier = "default"
	}
	rpm = defaultRPM
	if tc, ok := tiers[tier]; ok {
		rpm = tc.RequestsPerMinute
	}
	return tier, rpm
}

// InProcessLimiter tracks per-caller request counts in fixed one-minute
// windows held in memory. Suitable for single-instance deployments; use
// RedisLimiter when running more than one API instance.
type InProcessLimiter struct {
	tiers      map[string]TierConfig
	defaultRPM int
	now        func() time.Time

	mu      sync.Mutex
	windows map[string]*requestWindow
}

// requestWindow counts requests for one subject+tier pair within the
// current minute.
type requestWindow struct {
	count   int
	startAt time.Time
}

// NewInProcessLimiter creates an in-memory rate limiter with per-tier
// budgets. Tiers absent from the map use defaultRPM.
func NewInProcessLimiter(tiers map[string]TierConfig, defaultRPM int) *InProcessLimiter {
	return &InProcessLimiter{
		tiers:      tiers,
		defaultRPM: defaultRPM,
		now:        time.Now,
		windows:    make(map[string]*requestWindow),
	}
}

// Allow admits the request if the caller is within its tier budget.
// Rejections increment the rate-limit metric labelled with the tier.
// Fails open: internal inconsistencies never reject a request.
func (l *InProcessLimiter) Allow(_ context.Context, identity *Identity) error {
	tier, rpm := tierRPM(l.tiers, l.defaultRPM, identity)
	if rpm <= 0 {
		return nil
	}

	key := identity.Subject + ":" + tier

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startAt) >= time.Minute {
		l.windows[key] = &requestWindow{count: 1, startAt: now}
		l.pruneLocked(now)
		return nil
	}

	w.count++
	if w.count > rpm {
		observability.RateLimitRejectedTotal.WithLabelValues(tier).Inc()
		return ErrTooManyRequests
	}
	return nil
}

// pruneLocked drops windows that ended more than a minute ago so the
// map does not grow with the number of distinct callers ever seen.
// Called with the mutex held, on window rollover only.
func (l *InProcessLimiter) pruneLocked(now time.Time) {
	for key, w := range l.windows {
		if now.Sub(w.startAt) >= 2*time.Minute {
			delete(l.windows, key)
		}
	}
}
