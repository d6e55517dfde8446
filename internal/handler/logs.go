package handler

import (
	"log/slog"
	"net/http"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
	"github.com/hackfolio/hackfolio/internal/service"
)

// AuditHandler exposes the audit trail to the signed-in admin.
type AuditHandler struct {
	audit  *service.AuditLogger
	logger *slog.Logger
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit *service.AuditLogger, logger *slog.Logger) *AuditHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditHandler{audit: audit, logger: logger}
}

// ListLogs returns audit entries newest first.
// GET /api/admin/logs?limit=&offset=&action=
func (h *AuditHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	filter := config.AuditFilter{
		Action: queryString(r, "action"),
		Limit:  clampInt(queryInt(r, "limit", 50), 1, 500),
		Offset: clampInt(queryInt(r, "offset", 0), 0, 1<<31-1),
	}

	entries, total, err := h.audit.List(r.Context(), filter)
	if err != nil {
		if config.IsUnavailable(err) {
			writeError(w, http.StatusServiceUnavailable, "Database not available")
			return
		}
		h.logger.Error("list audit logs failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch logs")
		return
	}

	writeJSON(w, http.StatusOK, model.ListResponse{
		Resource: entries,
		Meta: &model.ResponseMeta{
			Count:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	})
}
