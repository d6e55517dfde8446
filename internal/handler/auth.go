package handler

import (
	"log/slog"
	"net/http"

	"github.com/hackfolio/hackfolio/internal/model"
	"github.com/hackfolio/hackfolio/internal/service"
)

// AuthHandler serves the admin login, session, logout, and setup endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool               `json:"success"`
	User    model.AdminSummary `json:"user"`
}

// Login verifies admin credentials and sets the session cookie.
// POST /api/admin/auth
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.auth.Login(r.Context(), service.LoginRequest{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: service.ClientAddress(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		if code, _ := serviceErrorStatus(err, ""); code >= http.StatusInternalServerError {
			h.logger.Error("admin login failed", "error", err)
		}
		writeServiceError(w, err, "Authentication failed")
		return
	}

	h.auth.Sessions().Attach(w, res.Token)
	writeJSON(w, http.StatusOK, loginResponse{Success: true, User: res.User})
}

// Session reports whether the request carries a live admin session. It
// always answers 200.
// GET /api/admin/auth
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	authenticated := h.auth.CheckSession(r.Context(), service.Token(r))
	writeJSON(w, http.StatusOK, map[string]bool{"authenticated": authenticated})
}

// Logout revokes the session and clears the cookie.
// DELETE /api/admin/auth
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.auth.Logout(r.Context(), service.Token(r), service.ClientAddress(r), r.UserAgent())
	h.auth.Sessions().Clear(w)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out successfully",
	})
}
