package auth

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voucherpay/enterprise/pkg/observability"
)

// RedisLimiter is a fixed-window rate limiter backed by Redis, for
// deployments with more than one API instance. Counters live under
// ratelimit:<subject>:<tier>:<window> and expire with the window.
type RedisLimiter struct {
	client     *redis.Client
	tiers      map[string]TierConfig
	defaultRPM int
	window     time.Duration
	logger     *slog.Logger
}

// NewRedisLimiter creates a Redis-backed rate limiter with per-tier
// configuration.
func NewRedisLimiter(client *redis.Client, tiers map[string]TierConfig, defaultRPM int, logger *slog.Logger) *RedisLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLimiter{
		client:     client,
		tiers:      tiers,
		defaultRPM: defaultRPM,
		window:     time.Minute,
		logger:     logger,
	}
}

// Allow admits the request if the caller is within its tier budget.
// Rejections increment the rate-limit metric labelled with the tier.
// Fails open: any Redis error allows the request.
func (l *RedisLimiter) Allow(ctx context.Context, identity *Identity) error {
	tier, rpm := tierRPM(l.tiers, l.defaultRPM, identity)
	if rpm <= 0 {
		return nil
	}

	window := time.Now().Unix() / int64(l.window.Seconds())
	key := "ratelimit:" + identity.Subject + ":" + tier + ":" + strconv.FormatInt(window, 10)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.logger.Warn("rate limit check failed, allowing request", "error", err)
		return nil
	}

	if incr.Val() > int64(rpm) {
		observability.RateLimitRejectedTotal.WithLabelValues(tier).Inc()
		return ErrTooManyRequests
	}
	return nil
}
