package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
	"github.com/hackfolio/hackfolio/internal/service"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes the {"error": message} envelope.
func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, model.ErrorResponse{Error: message})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// serviceErrorStatus maps auth service errors onto the HTTP error taxonomy.
// Anything unrecognised becomes a 500 carrying fallback, never err's text.
func serviceErrorStatus(err error, fallback string) (int, string) {
	var rl *service.RateLimitedError
	switch {
	case errors.As(err, &rl):
		return http.StatusTooManyRequests,
			fmt.Sprintf("Too many failed attempts. Try again in %d minutes.", rl.RetryAfterMinutes)
	case errors.Is(err, service.ErrMissingCredentials):
		return http.StatusBadRequest, "Username and password are required"
	case errors.Is(err, service.ErrPasswordTooShort):
		return http.StatusBadRequest, "Password must be at least 8 characters long"
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid request body"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case errors.Is(err, service.ErrInvalidSetupKey):
		return http.StatusUnauthorized, "Invalid setup key"
	case errors.Is(err, service.ErrAdminExists):
		return http.StatusConflict, "Admin user already exists"
	case errors.Is(err, service.ErrSetupDisabled):
		return http.StatusServiceUnavailable, "Admin setup is disabled - no setup key configured"
	case errors.Is(err, service.ErrStoreUnavailable), config.IsUnavailable(err):
		return http.StatusServiceUnavailable, "Database not available"
	default:
		return http.StatusInternalServerError, fallback
	}
}

// writeServiceError writes the error response for err. Rate-limited
// responses also carry Retry-After in seconds.
func writeServiceError(w http.ResponseWriter, err error, fallback string) {
	var rl *service.RateLimitedError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterMinutes*60))
	}
	code, msg := serviceErrorStatus(err, fallback)
	writeError(w, code, msg)
}
