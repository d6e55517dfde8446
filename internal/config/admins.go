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
// Admin accounts
// ---------------------------------------------------------------------------

const adminColumns = `id, username, password_hash, salt, created_at, last_login, is_active`

// CreateAdmin inserts a new active admin. ID and CreatedAt are populated
// after a successful insert. A duplicate username yields ErrConflict.
func (s *Store) CreateAdmin(ctx context.Context, admin *model.AdminUser) error {
	admin.CreatedAt = time.Now().UTC()
	admin.IsActive = true

	const q = `INSERT INTO admin_users (username, password_hash, salt, created_at, is_active)
		VALUES (?, ?, ?, ?, ?) RETURNING id`

	var id int64
	err := s.db.GetContext(ctx, &id, s.q(q),
		admin.Username, admin.PasswordHash, admin.Salt, admin.CreatedAt, true)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return fmt.Errorf("insert admin: %w", err)
	}
	admin.ID = id
	return nil
}

// GetActiveAdminByUsername returns the active admin with the given username.
func (s *Store) GetActiveAdminByUsername(ctx context.Context, username string) (*model.AdminUser, error) {
	var admin model.AdminUser
	err := s.db.GetContext(ctx, &admin,
		s.q("SELECT "+adminColumns+" FROM admin_users WHERE username = ? AND is_active = ?"), username, true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin by username: %w", err)
	}
	return &admin, nil
}

// GetAdmin returns an admin by ID regardless of its active flag.
func (s *Store) GetAdmin(ctx context.Context, id int64) (*model.AdminUser, error) {
	var admin model.AdminUser
	err := s.db.GetContext(ctx, &admin, s.q("SELECT "+adminColumns+" FROM admin_users WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get admin: %w", err)
	}
	return &admin, nil
}

// AdminExists reports whether any admin, active or not, holds username.
func (s *Store) AdminExists(ctx context.Context, username string) (bool, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		s.q("SELECT COUNT(*) FROM admin_users WHERE username = ?"), username); err != nil {
		return false, fmt.Errorf("check admin exists: %w", err)
	}
	return count > 0, nil
}

// ListAdmins returns all admin accounts ordered by username.
func (s *Store) ListAdmins(ctx context.Context) ([]model.AdminUser, error) {
	var admins []model.AdminUser
	if err := s.db.SelectContext(ctx, &admins,
		"SELECT "+adminColumns+" FROM admin_users ORDER BY username"); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// CountActiveAdmins returns the number of active admin accounts.
func (s *Store) CountActiveAdmins(ctx context.Context) (int, error) {
	var count int
	if err := s.db.GetContext(ctx, &count,
		s.q("SELECT COUNT(*) FROM admin_users WHERE is_active = ?"), true); err != nil {
		return 0, fmt.Errorf("count admins: %w", err)
	}
	return count, nil
}

// UpdateAdminLastLogin records a successful login time for an admin.
func (s *Store) UpdateAdminLastLogin(ctx context.Context, id int64, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		s.q("UPDATE admin_users SET last_login = ? WHERE id = ?"), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}
	return requireAffected(result, "update admin last login")
}

// SetAdminActive activates or deactivates the admin with the given username.
// Deactivation also revokes the admin's sessions.
func (s *Store) SetAdminActive(ctx context.Context, username string, active bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	result, err := tx.ExecContext(ctx,
		s.q("UPDATE admin_users SET is_active = ? WHERE username = ?"), active, username)
	if err != nil {
		return fmt.Errorf("set admin active: %w", err)
	}
	if err := requireAffected(result, "set admin active"); err != nil {
		return err
	}

	if !active {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM admin_sessions
			WHERE user_id IN (SELECT id FROM admin_users WHERE username = ?)`), username); err != nil {
			return fmt.Errorf("revoke admin sessions: %w", err)
		}
	}
	return tx.Commit()
}

func requireAffected(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
