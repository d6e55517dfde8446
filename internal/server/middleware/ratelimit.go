package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"

	"github.com/hackfolio/hackfolio/internal/service"
)

// Throttle returns an HTTP middleware that caps each client address at
// requestsPerMinute over a sliding window. It guards the login, setup and
// admin-only routes as a coarse flood guard; the per-IP login lockout is
// separate and persisted.
func Throttle(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(throttleKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeAuthError(w, http.StatusTooManyRequests, "Too many requests")
		}),
	)
}

// throttleKey resolves the client the same way the lockout does. Without
// proxy headers every caller would share the "unknown" bucket, so the peer
// address is used instead.
func throttleKey(r *http.Request) (string, error) {
	if addr := service.ClientAddress(r); addr != "unknown" {
		return addr, nil
	}
	return httprate.KeyByIP(r)
}
