package service

import (
	"errors"
	"fmt"
)

// Validation failures.
var (
	ErrMissingCredentials = errors.New("username and password are required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters long")
	ErrInvalidInput       = errors.New("invalid input")
)

// Authentication failures.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSetupKey    = errors.New("invalid setup key")
)

var (
	// ErrAdminExists is returned by setup when the username is taken.
	ErrAdminExists = errors.New("admin user already exists")
	// ErrSetupDisabled is returned when no setup key is configured.
	ErrSetupDisabled = errors.New("admin setup is disabled")
	// ErrStoreUnavailable is returned when the database cannot be reached.
	ErrStoreUnavailable = errors.New("database not available")
)

// RateLimitedError is returned by Login while the client address is locked.
type RateLimitedError struct {
	RetryAfterMinutes int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %d minutes", e.RetryAfterMinutes)
}
