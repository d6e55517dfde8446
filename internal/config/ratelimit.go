package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hackfolio/hackfolio/internal/model"
)

// ---------------------------------------------------------------------------
// Login rate limiting
// ---------------------------------------------------------------------------

// GetRateLimit returns the failed-login entry for an address.
func (s *Store) GetRateLimit(ctx context.Context, ip string) (*model.RateLimitEntry, error) {
	var entry model.RateLimitEntry
	err := s.db.GetContext(ctx, &entry, s.q(`SELECT ip_address, failed_attempts, locked_until, last_attempt
		FROM admin_rate_limit WHERE ip_address = ?`), ip)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get rate limit: %w", err)
	}
	return &entry, nil
}

// RecordFailedLogin increments the failure counter for ip in one upsert and,
// when the new count reaches threshold, locks the address until lockUntil.
// Any previous lock is cleared by the increment. The new count is returned.
func (s *Store) RecordFailedLogin(ctx context.Context, ip string, now time.Time, threshold int, lockUntil time.Time) (int, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const upsert = `INSERT INTO admin_rate_limit (ip_address, failed_attempts, locked_until, last_attempt)
		VALUES (?, 1, NULL, ?)
		ON CONFLICT (ip_address) DO UPDATE SET
			failed_attempts = admin_rate_limit.failed_attempts + 1,
			locked_until = NULL,
			last_attempt = excluded.last_attempt
		RETURNING failed_attempts`

	var count int
	if err := tx.GetContext(ctx, &count, s.q(upsert), ip, now.UTC()); err != nil {
		return 0, fmt.Errorf("record failed login: %w", err)
	}

	if count >= threshold {
		if _, err := tx.ExecContext(ctx,
			s.q("UPDATE admin_rate_limit SET locked_until = ? WHERE ip_address = ?"), lockUntil.UTC(), ip); err != nil {
			return 0, fmt.Errorf("lock address: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit failed login: %w", err)
	}
	return count, nil
}

// DeleteRateLimit removes the entry for ip. Missing entries are not an error.
func (s *Store) DeleteRateLimit(ctx context.Context, ip string) error {
	if _, err := s.db.ExecContext(ctx, s.q("DELETE FROM admin_rate_limit WHERE ip_address = ?"), ip); err != nil {
		return fmt.Errorf("delete rate limit: %w", err)
	}
	return nil
}

// ListRateLimits returns every tracked address, most recent attempt first.
func (s *Store) ListRateLimits(ctx context.Context) ([]model.RateLimitEntry, error) {
	var entries []model.RateLimitEntry
	if err := s.db.SelectContext(ctx, &entries, `SELECT ip_address, failed_attempts, locked_until, last_attempt
		FROM admin_rate_limit ORDER BY last_attempt DESC`); err != nil {
		return nil, fmt.Errorf("list rate limits: %w", err)
	}
	return entries, nil
}
