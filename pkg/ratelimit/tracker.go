package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for rate limit tracking.
var (
	remainingGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_rate_limit_remaining",
		Help: "Last RateLimit-Remaining value reported by the storefront API",
	})

	cooldownsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_rate_limit_cooldowns_total",
		Help: "Total number of Retry-After cooldowns recorded",
	})

	blocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "storefront_rate_limit_blocks_total",
		Help: "Total number of requests refused during a cooldown",
	})
)

// MaxCooldown caps a single Retry-After value.
const MaxCooldown = 5 * time.Minute

// Tracker records rate limit signals in Redis and gates requests.
type Tracker struct {
	redis  *redis.Client
	logger zerolog.Logger
	now    func() time.Time
}

// NewTracker creates a new rate limit tracker.
func NewTracker(redisClient *redis.Client, logger zerolog.Logger) *Tracker {
	return &Tracker{
		redis:  redisClient,
		logger: logger,
		now:    time.Now,
	}
}

// GetState retrieves the current state from Redis. Missing keys yield an
// unblocked state with an unknown budget.
func (t *Tracker) GetState(ctx context.Context) (*RateLimitState, error) {
	vals, err := t.redis.MGet(ctx, RedisKeyRemaining, RedisKeyResetAt, RedisKeyBlockedUntil, RedisKeyLastUpdate).Result()
	if err != nil {
		return nil, fmt.Errorf("get rate limit state: %w", err)
	}

	state := &RateLimitState{Remaining: UnknownRemaining}
	if v, ok := vals[0].(string); ok {
		if state.Remaining, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("parse remaining: %w", err)
		}
	}
	for i, dst := range []*time.Time{&state.ResetAt, &state.BlockedUntil, &state.LastUpdate} {
		v, ok := vals[i+1].(string)
		if !ok {
			continue
		}
		ms, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse timestamp: %w", err)
		}
		*dst = time.UnixMilli(ms)
	}

	return state, nil
}

// UpdateFromResponse records the rate limit headers of a response. Retry-After
// is honoured on 429 and 503 only.
func (t *Tracker) UpdateFromResponse(ctx context.Context, statusCode int, headers http.Header) error {
	now := t.now()
	pipe := t.redis.TxPipeline()
	updated := false

	if statusCode == http.StatusTooManyRequests || statusCode == http.StatusServiceUnavailable {
		if wait, ok := parseRetryAfter(headers.Get("Retry-After"), now); ok {
			until := now.Add(wait)
			pipe.Set(ctx, RedisKeyBlockedUntil, until.UnixMilli(), wait)
			cooldownsTotal.Inc()
			updated = true

			t.logger.Warn().
				Int("status", statusCode).
				Dur("retry_after", wait).
				Msg("Storefront API requested a cooldown")
		}
	}

	if remainStr := headers.Get("RateLimit-Remaining"); remainStr != "" {
		remain, err := strconv.Atoi(strings.TrimSpace(remainStr))
		if err != nil {
			return fmt.Errorf("parse RateLimit-Remaining header: %w", err)
		}
		window := time.Minute
		if resetStr := headers.Get("RateLimit-Reset"); resetStr != "" {
			seconds, err := strconv.Atoi(strings.TrimSpace(resetStr))
			if err != nil {
				return fmt.Errorf("parse RateLimit-Reset header: %w", err)
			}
			window = time.Duration(seconds) * time.Second
		}
		if window <= 0 {
			window = time.Second
		}

		pipe.Set(ctx, RedisKeyRemaining, remain, window)
		pipe.Set(ctx, RedisKeyResetAt, now.Add(window).UnixMilli(), window)
		remainingGauge.Set(float64(remain))
		updated = true

		t.logger.Debug().
			Int("remaining", remain).
			Dur("reset_in", window).
			Msg("Rate limit state updated")
	}

	if !updated {
		return nil
	}

	pipe.Set(ctx, RedisKeyLastUpdate, now.UnixMilli(), 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store rate limit state in redis: %w", err)
	}
	return nil
}

// ShouldAllowRequest reports whether a request may be sent now and, if not,
// how long the caller should wait.
func (t *Tracker) ShouldAllowRequest(ctx context.Context) (bool, time.Duration, error) {
	state, err := t.GetState(ctx)
	if err != nil {
		return false, 0, err
	}

	now := t.now()
	if !state.Blocked(now) {
		return true, 0, nil
	}

	wait := state.WaitDuration(now)
	blocksTotal.Inc()
	t.logger.Warn().
		Int("remaining", state.Remaining).
		Dur("wait", wait).
		Msg("Rate limited - refusing request")
	return false, wait, nil
}

// Reset clears all stored state.
func (t *Tracker) Reset(ctx context.Context) error {
	return t.redis.Del(ctx, RedisKeyRemaining, RedisKeyResetAt, RedisKeyBlockedUntil, RedisKeyLastUpdate).Err()
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}

	var wait time.Duration
	if seconds, err := strconv.Atoi(v); err == nil {
		if seconds < 0 {
			return 0, false
		}
		wait = time.Duration(seconds) * time.Second
	} else {
		at, err := http.ParseTime(v)
		if err != nil {
			return 0, false
		}
		wait = at.Sub(now)
	}

	if wait <= 0 {
		return 0, false
	}
	return min(wait, MaxCooldown), true
}
