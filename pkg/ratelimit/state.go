// Package ratelimit tracks the storefront API's rate limit signals and gates
// requests while the API has asked clients to back off.
//
// It reads Retry-After on 429 and 503 responses and the RateLimit-Remaining
// and RateLimit-Reset headers when present. State lives in Redis so every
// process sharing the cache also shares the cooldown.
package ratelimit

import (
	"time"
)

// Redis keys for rate limit state storage.
const (
	RedisKeyRemaining    = "storefront:rate_limit:remaining"
	RedisKeyResetAt      = "storefront:rate_limit:reset_at"
	RedisKeyBlockedUntil = "storefront:rate_limit:blocked_until"
	RedisKeyLastUpdate   = "storefront:rate_limit:last_update"
)

// UnknownRemaining marks a state without a RateLimit-Remaining reading.
const UnknownRemaining = -1

// RateLimitState represents the last rate limit signals seen from the API.
// This state is shared across all client instances via Redis.
type RateLimitState struct {
	// Remaining is the request budget left in the current window, or
	// UnknownRemaining.
	Remaining int

	// ResetAt is when the current window ends.
	ResetAt time.Time

	// BlockedUntil is the end of a Retry-After cooldown.
	BlockedUntil time.Time

	// LastUpdate is when this state was last updated.
	LastUpdate time.Time
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// Blocked reports whether requests must wait at now.
func (s *RateLimitState) Blocked(now time.Time) bool {
	if now.Before(s.BlockedUntil) {
		return true
	}
	return s.Remaining == 0 && now.Before(s.ResetAt)
}

// WaitDuration returns how long requests are blocked from now. It is 0 when
// requests are allowed.
func (s *RateLimitState) WaitDuration(now time.Time) time.Duration {
	if !s.Blocked(now) {
		return 0
	}
	until := s.BlockedUntil
	if s.Remaining == 0 && s.ResetAt.After(until) {
		until = s.ResetAt
	}
	return until.Sub(now)
}
