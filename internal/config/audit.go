package config

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hackfolio/hackfolio/internal/model"
)

// ---------------------------------------------------------------------------
// Audit log
// ---------------------------------------------------------------------------

type auditRow struct {
	ID        int64     `db:"id"`
	Action    string    `db:"action"`
	Data      string    `db:"data"`
	IPAddress string    `db:"ip_address"`
	UserAgent string    `db:"user_agent"`
	CreatedAt time.Time `db:"created_at"`
}

func (r auditRow) toModel() model.AuditLogEntry {
	data := json.RawMessage(r.Data)
	if !json.Valid(data) {
		data = json.RawMessage("{}")
	}
	return model.AuditLogEntry{
		ID:        r.ID,
		Action:    r.Action,
		Data:      data,
		IPAddress: r.IPAddress,
		UserAgent: r.UserAgent,
		CreatedAt: r.CreatedAt,
	}
}

// AuditFilter narrows ListAuditLogs. Zero Limit means no limit.
type AuditFilter struct {
	Action string
	Limit  int
	Offset int
}

// AppendAuditLog inserts an audit entry. ID and CreatedAt (when zero) are
// populated on success.
func (s *Store) AppendAuditLog(ctx context.Context, entry *model.AuditLogEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	data := string(entry.Data)
	if data == "" {
		data = "{}"
	}

	const q = `INSERT INTO admin_logs (action, data, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`

	var id int64
	if err := s.db.GetContext(ctx, &id, s.q(q),
		entry.Action, data, entry.IPAddress, entry.UserAgent, entry.CreatedAt.UTC()); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	entry.ID = id
	return nil
}

// ListAuditLogs returns audit entries newest first.
func (s *Store) ListAuditLogs(ctx context.Context, f AuditFilter) ([]model.AuditLogEntry, error) {
	where, args := auditWhere(f)
	q := "SELECT id, action, data, ip_address, user_agent, created_at FROM admin_logs" +
		where + " ORDER BY created_at DESC, id DESC"
	if f.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, f.Offset)
	}

	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, s.q(q), args...); err != nil {
		return nil, fmt.Errorf("list audit logs: %w", err)
	}

	entries := make([]model.AuditLogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toModel())
	}
	return entries, nil
}

// CountAuditLogs returns the number of entries matching the filter.
func (s *Store) CountAuditLogs(ctx context.Context, f AuditFilter) (int, error) {
	where, args := auditWhere(f)
	var count int
	if err := s.db.GetContext(ctx, &count, s.q("SELECT COUNT(*) FROM admin_logs"+where), args...); err != nil {
		return 0, fmt.Errorf("count audit logs: %w", err)
	}
	return count, nil
}

func auditWhere(f AuditFilter) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, f.Action)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
