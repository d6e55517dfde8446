package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/hackfolio/hackfolio/internal/config"
)

// Lockout policy for failed admin logins.
const (
	MaxFailedAttempts = 5
	LockoutDuration   = 15 * time.Minute
)

// Decision is the outcome of a rate-limit check.
type Decision struct {
	Allowed           bool
	RetryAfterMinutes int
}

// RateLimiter tracks failed logins per client address in the store. The
// counter is never decayed by time; only a successful login clears it.
type RateLimiter struct {
	store *config.Store
	now   func() time.Time
}

// NewRateLimiter creates a limiter. A nil clock uses time.Now.
func NewRateLimiter(store *config.Store, now func() time.Time) *RateLimiter {
	if now == nil {
		now = time.Now
	}
	return &RateLimiter{store: store, now: now}
}

// Check reports whether addr may attempt a login.
func (l *RateLimiter) Check(ctx context.Context, addr string) (Decision, error) {
	entry, err := l.store.GetRateLimit(ctx, addr)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return Decision{Allowed: true}, nil
		}
		return Decision{}, err
	}

	now := l.now()
	if entry.LockedAt(now) {
		remaining := entry.LockedUntil.Sub(now)
		return Decision{
			Allowed:           false,
			RetryAfterMinutes: int(math.Ceil(remaining.Minutes())),
		}, nil
	}
	return Decision{Allowed: true}, nil
}

// RecordFailure counts a failed login for addr and returns the new count.
// Reaching MaxFailedAttempts locks the address for LockoutDuration.
func (l *RateLimiter) RecordFailure(ctx context.Context, addr string) (int, error) {
	now := l.now()
	return l.store.RecordFailedLogin(ctx, addr, now, MaxFailedAttempts, now.Add(LockoutDuration))
}

// Reset forgets every failure recorded for addr.
func (l *RateLimiter) Reset(ctx context.Context, addr string) error {
	return l.store.DeleteRateLimit(ctx, addr)
}

// ClientAddress identifies the caller for rate limiting and auditing:
// X-Forwarded-For as supplied, then X-Real-IP, then "unknown". The headers
// are trusted as-is, so deployments must sit behind a proxy that sets them.
func ClientAddress(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return "unknown"
}
