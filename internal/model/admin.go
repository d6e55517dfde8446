package model

import "time"

// AdminUser is the single-operator identity record. The password hash and
// salt are hex strings and never leave the auth service.
type AdminUser struct {
	ID           int64      `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Salt         string     `json:"-" db:"salt"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`
	IsActive     bool       `json:"is_active" db:"is_active"`
}

// AdminSummary is the public view of an admin returned after login.
type AdminSummary struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	LastLogin *time.Time `json:"last_login"`
}

// Summary returns the public view of u.
func (u *AdminUser) Summary() AdminSummary {
	return AdminSummary{
		ID:        u.ID,
		Username:  u.Username,
		LastLogin: u.LastLogin,
	}
}

// AdminSession is the server-side record backing an issued session cookie.
// Only the SHA-256 of the token is persisted.
type AdminSession struct {
	TokenHash string    `json:"-" db:"token_hash"`
	UserID    int64     `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	IPAddress string    `json:"ip_address" db:"ip_address"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
}

// Expired reports whether the session is no longer valid at now.
func (s *AdminSession) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
