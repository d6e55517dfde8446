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
// Admin sessions
// ---------------------------------------------------------------------------

// CreateSession persists a session record keyed by the token's hash.
func (s *Store) CreateSession(ctx context.Context, sess *model.AdminSession) error {
	const q = `INSERT INTO admin_sessions (token_hash, user_id, created_at, expires_at, ip_address, user_agent)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, s.q(q), sess.TokenHash, sess.UserID,
		sess.CreatedAt.UTC(), sess.ExpiresAt.UTC(), sess.IPAddress, sess.UserAgent); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// GetSession returns the session with the given token hash.
func (s *Store) GetSession(ctx context.Context, tokenHash string) (*model.AdminSession, error) {
	var sess model.AdminSession
	err := s.db.GetContext(ctx, &sess, s.q(`SELECT token_hash, user_id, created_at, expires_at, ip_address, user_agent
		FROM admin_sessions WHERE token_hash = ?`), tokenHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &sess, nil
}

// DeleteSession removes a session. Missing sessions are not an error.
func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	if _, err := s.db.ExecContext(ctx, s.q("DELETE FROM admin_sessions WHERE token_hash = ?"), tokenHash); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// PurgeExpiredSessions deletes sessions that expired at or before now and
// returns how many were removed.
func (s *Store) PurgeExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, s.q("DELETE FROM admin_sessions WHERE expires_at <= ?"), now.UTC())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge sessions rows affected: %w", err)
	}
	return n, nil
}
