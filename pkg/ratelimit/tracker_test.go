package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// setupTestRedis uses DB 14 so cooldowns set here never block the client
// tests running in parallel on DB 15.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   14,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		value  string
		want   time.Duration
		wantOK bool
	}{
		{name: "empty", value: "", wantOK: false},
		{name: "seconds", value: "30", want: 30 * time.Second, wantOK: true},
		{name: "padded seconds", value: " 5 ", want: 5 * time.Second, wantOK: true},
		{name: "zero", value: "0", wantOK: false},
		{name: "negative", value: "-5", wantOK: false},
		{name: "capped", value: "3600", want: MaxCooldown, wantOK: true},
		{
			name:   "http date",
			value:  now.Add(45 * time.Second).Format(http.TimeFormat),
			want:   45 * time.Second,
			wantOK: true,
		},
		{
			name:   "http date in the past",
			value:  now.Add(-time.Minute).Format(http.TimeFormat),
			wantOK: false,
		},
		{name: "garbage", value: "soon", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseRetryAfter(tt.value, now)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("wait = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTracker_CooldownFromRetryAfter(t *testing.T) {
	rdb := setupTestRedis(t)
	tracker := NewTracker(rdb, zerolog.Nop())
	ctx := context.Background()

	headers := http.Header{}
	headers.Set("Retry-After", "30")

	if err := tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, headers); err != nil {
		t.Fatalf("UpdateFromResponse() error = %v", err)
	}

	allowed, wait, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if allowed {
		t.Fatal("expected request to be refused during cooldown")
	}
	if wait <= 25*time.Second || wait > 30*time.Second {
		t.Errorf("wait = %v, want about 30s", wait)
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if state.Remaining != UnknownRemaining {
		t.Errorf("Remaining = %d, want unknown", state.Remaining)
	}
	if state.IsStale(time.Minute) {
		t.Error("state should be fresh")
	}

	if err := tracker.Reset(ctx); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	allowed, _, err = tracker.ShouldAllowRequest(ctx)
	if err != nil || !allowed {
		t.Errorf("after Reset allowed = %v, err = %v", allowed, err)
	}
}

func TestTracker_RetryAfterIgnoredOnOtherStatuses(t *testing.T) {
	rdb := setupTestRedis(t)
	tracker := NewTracker(rdb, zerolog.Nop())
	ctx := context.Background()

	headers := http.Header{}
	headers.Set("Retry-After", "30")

	for _, status := range []int{http.StatusOK, http.StatusInternalServerError} {
		if err := tracker.UpdateFromResponse(ctx, status, headers); err != nil {
			t.Fatalf("UpdateFromResponse(%d) error = %v", status, err)
		}
	}

	allowed, _, err := tracker.ShouldAllowRequest(ctx)
	if err != nil {
		t.Fatalf("ShouldAllowRequest() error = %v", err)
	}
	if !allowed {
		t.Error("Retry-After outside 429/503 must not block")
	}

	n, err := rdb.Exists(ctx, RedisKeyLastUpdate).Result()
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if n != 0 {
		t.Error("nothing should be stored without rate limit signals")
	}
}

func TestTracker_RemainingBudget(t *testing.T) {
	rdb := setupTestRedis(t)
	tracker := NewTracker(rdb, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name      string
		remaining string
		reset     string
		allowed   bool
	}{
		{name: "budget left", remaining: "12", reset: "60", allowed: true},
		{name: "budget exhausted", remaining: "0", reset: "60", allowed: false},
		{name: "budget restored", remaining: "100", reset: "60", allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set("RateLimit-Remaining", tt.remaining)
			headers.Set("RateLimit-Reset", tt.reset)

			if err := tracker.UpdateFromResponse(ctx, http.StatusOK, headers); err != nil {
				t.Fatalf("UpdateFromResponse() error = %v", err)
			}

			allowed, _, err := tracker.ShouldAllowRequest(ctx)
			if err != nil {
				t.Fatalf("ShouldAllowRequest() error = %v", err)
			}
			if allowed != tt.allowed {
				t.Errorf("allowed = %v, want %v", allowed, tt.allowed)
			}
		})
	}
}

func TestTracker_InvalidHeaders(t *testing.T) {
	rdb := setupTestRedis(t)
	tracker := NewTracker(rdb, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		name      string
		remaining string
		reset     string
	}{
		{name: "invalid remaining", remaining: "lots", reset: "60"},
		{name: "invalid reset", remaining: "10", reset: "later"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			headers := http.Header{}
			headers.Set("RateLimit-Remaining", tt.remaining)
			headers.Set("RateLimit-Reset", tt.reset)

			if err := tracker.UpdateFromResponse(ctx, http.StatusOK, headers); err == nil {
				t.Error("expected parse error")
			}
		})
	}
}
