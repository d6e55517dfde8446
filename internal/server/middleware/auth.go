package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hackfolio/hackfolio/internal/model"
	"github.com/hackfolio/hackfolio/internal/service"
)

type contextKeyAuth string

// AdminKey is the context key for the admin behind the session cookie.
const AdminKey contextKeyAuth = "admin"

// SessionValidator resolves a session token to its admin.
type SessionValidator interface {
	Validate(ctx context.Context, token string) (*model.AdminUser, error)
}

// RequireAdminSession returns an HTTP middleware that admits only requests
// carrying a live admin session cookie. The admin is attached to the request
// context; every failure, including a store outage, answers 401.
func RequireAdminSession(sessions SessionValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := service.Token(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			admin, err := sessions.Validate(r.Context(), token)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			ctx := context.WithValue(r.Context(), AdminKey, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdmin extracts the authenticated admin from the context. Returns nil
// for requests that did not pass RequireAdminSession.
func GetAdmin(ctx context.Context) *model.AdminUser {
	if a, ok := ctx.Value(AdminKey).(*model.AdminUser); ok {
		return a
	}
	return nil
}

// writeAuthError writes the flat error envelope without importing the
// handler package.
func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{Error: message})
}
