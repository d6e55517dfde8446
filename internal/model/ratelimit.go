package model

import "time"

// RateLimitEntry counts failed admin logins from one client address.
type RateLimitEntry struct {
	IPAddress      string     `json:"ip_address" db:"ip_address"`
	FailedAttempts int        `json:"failed_attempts" db:"failed_attempts"`
	LockedUntil    *time.Time `json:"locked_until,omitempty" db:"locked_until"`
	LastAttempt    time.Time  `json:"last_attempt" db:"last_attempt"`
}

// LockedAt reports whether the entry blocks logins at now.
func (e *RateLimitEntry) LockedAt(now time.Time) bool {
	return e.LockedUntil != nil && now.Before(*e.LockedUntil)
}
