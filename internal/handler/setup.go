package handler

import (
	"net/http"

	"github.com/hackfolio/hackfolio/internal/service"
)

type setupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	SetupKey string `json:"setupKey"`
}

// Setup creates the first admin account when the caller presents the
// configured setup key.
// POST /api/admin/setup
func (h *AuthHandler) Setup(w http.ResponseWriter, r *http.Request) {
	var req setupRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	admin, err := h.auth.Setup(r.Context(), service.SetupRequest{
		SetupKey:  req.SetupKey,
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: service.ClientAddress(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		if code, _ := serviceErrorStatus(err, ""); code >= http.StatusInternalServerError {
			h.logger.Error("admin setup failed", "error", err)
		}
		writeServiceError(w, err, "Failed to create admin user")
		return
	}

	h.logger.Info("admin user created", "username", admin.Username)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Admin user created successfully",
		"user":    map[string]string{"username": admin.Username},
	})
}

// SetupStatus reports whether an active admin exists. Informational only.
// GET /api/admin/setup
func (h *AuthHandler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.auth.SetupStatus(r.Context())
	if err != nil {
		h.logger.Error("admin setup status failed", "error", err)
		writeServiceError(w, err, "Failed to check admin status")
		return
	}
	writeJSON(w, http.StatusOK, status)
}
