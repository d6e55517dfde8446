package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
)

// AuditLogger appends security events to the audit trail. Recording is
// best-effort: failures are logged and never reach the caller.
type AuditLogger struct {
	store  *config.Store
	logger *slog.Logger
}

// NewAuditLogger creates an audit logger. A nil logger uses slog.Default.
func NewAuditLogger(store *config.Store, logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{store: store, logger: logger}
}

// Record appends an entry for action. data is marshalled to JSON; nil is
// stored as an empty object.
func (a *AuditLogger) Record(ctx context.Context, action string, data interface{}, ip, userAgent string) {
	raw := json.RawMessage("{}")
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			a.logger.Warn("audit payload not serializable", "action", action, "error", err)
		} else {
			raw = b
		}
	}

	entry := &model.AuditLogEntry{
		Action:    action,
		Data:      raw,
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if err := a.store.AppendAuditLog(ctx, entry); err != nil {
		a.logger.Warn("audit log write failed", "action", action, "error", err)
	}
}

// List returns audit entries newest first along with the total matching
// count.
func (a *AuditLogger) List(ctx context.Context, f config.AuditFilter) ([]model.AuditLogEntry, int, error) {
	entries, err := a.store.ListAuditLogs(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	total, err := a.store.CountAuditLogs(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
