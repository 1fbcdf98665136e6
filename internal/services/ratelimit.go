package services

import (
	"context"
	"fmt"
	"time"

	"fundmatch/ai-fund-matcher/internal/cache"
	"fundmatch/ai-fund-matcher/internal/models"
)

// QuotaPlan is the tenant's subscription class. Authentication resolves it
// upstream; this engine only enforces the ceilings.
type QuotaPlan string

const (
	PlanFree QuotaPlan = "FREE"
	PlanPro  QuotaPlan = "PRO"
	PlanTeam QuotaPlan = "TEAM"
)

// ParseQuotaPlan maps a request header value onto a plan, defaulting to FREE.
func ParseQuotaPlan(raw string) QuotaPlan {
	switch QuotaPlan(raw) {
	case PlanPro:
		return PlanPro
	case PlanTeam:
		return PlanTeam
	default:
		return PlanFree
	}
}

// RateLimiter enforces per-identity daily quotas. Counters live in the shared
// cache so every engine instance sees the same spend. A denial costs nothing
// upstream: the orchestrator checks quota before touching the breaker.
type RateLimiter interface {
	Allow(ctx context.Context, identity string, plan QuotaPlan, kind models.AIRequestKind) error
}

type cacheRateLimiter struct {
	cache  cache.Cache
	limits map[QuotaPlan]int
	now    func() time.Time
}

// NewRateLimiter builds a limiter with per-plan daily ceilings. A negative
// limit means unlimited.
func NewRateLimiter(c cache.Cache, limits map[QuotaPlan]int) RateLimiter {
	return &cacheRateLimiter{
		cache:  c,
		limits: limits,
		now:    time.Now,
	}
}

// Allow implements RateLimiter. Increment-then-check: two racing requests at
// the quota boundary both bump the counter, so at most one can land on the
// final admitted slot.
func (l *cacheRateLimiter) Allow(ctx context.Context, identity string, plan QuotaPlan, kind models.AIRequestKind) error {
	limit, ok := l.limits[plan]
	if !ok {
		limit = l.limits[PlanFree]
	}
	if limit < 0 {
		return nil
	}

	day := l.now().UTC().Format("2006-01-02")
	key := fmt.Sprintf("rl:%s:%s:%s:%s", identity, plan, kind, day)

	// 48h TTL keeps yesterday's counters from lingering while never expiring
	// a counter mid-day.
	count, err := l.cache.Incr(ctx, key, 1, 48*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to check rate limit: %w", err)
	}

	if count > int64(limit) {
		return ErrRateLimited
	}
	return nil
}
