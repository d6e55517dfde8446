package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
	"github.com/hackfolio/hackfolio/internal/query"
	"github.com/hackfolio/hackfolio/internal/service"
)

// ContentHandler serves the public catalog (TryHackMe rooms, Hack The Box
// machines, platform stats) and its admin-only mutations.
type ContentHandler struct {
	store  *config.Store
	audit  *service.AuditLogger
	logger *slog.Logger
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(store *config.Store, audit *service.AuditLogger, logger *slog.Logger) *ContentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentHandler{store: store, audit: audit, logger: logger}
}

// storeError writes the response for a failed store call.
func (h *ContentHandler) storeError(w http.ResponseWriter, err error, notFound, fallback string) {
	switch {
	case errors.Is(err, config.ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	case config.IsUnavailable(err):
		writeError(w, http.StatusServiceUnavailable, "Database not available")
	default:
		h.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *ContentHandler) record(r *http.Request, action string, data interface{}) {
	h.audit.Record(r.Context(), action, data, service.ClientAddress(r), r.UserAgent())
}

func contentFilter(r *http.Request) (model.ContentFilter, error) {
	search, err := query.SanitizeSearch(queryString(r, "q"))
	if err != nil {
		return model.ContentFilter{}, err
	}
	return model.ContentFilter{
		Difficulty: queryString(r, "difficulty"),
		Status:     queryString(r, "status"),
		Search:     search,
	}, nil
}

// readUpdate reads a PUT body and resolves the target ID from ?id= or the
// body's "id" field. The raw body is returned for overlaying onto the stored
// record, so fields absent from the body keep their values.
func readUpdate(r *http.Request) (string, []byte, error) {
	defer r.Body.Close()
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", nil, err
	}
	var ref struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &ref); err != nil {
		return "", nil, err
	}
	if id := queryString(r, "id"); id != "" {
		return id, body, nil
	}
	return ref.ID, body, nil
}

// validateCommon checks the fields rooms and machines share and normalises
// an empty completion date to nil. It returns a client-facing message, or ""
// when the fields are valid.
func validateCommon(difficulty, status string, dateCompleted **string) string {
	if !model.ValidDifficulty(difficulty) {
		return "Difficulty must be one of " + strings.Join(model.Difficulties, ", ")
	}
	if !model.ValidStatus(status) {
		return "Status must be one of " + strings.Join(model.Statuses, ", ")
	}
	if d := *dateCompleted; d != nil {
		if strings.TrimSpace(*d) == "" {
			*dateCompleted = nil
		} else if _, err := time.Parse("2006-01-02", *d); err != nil {
			return "dateCompleted must be formatted YYYY-MM-DD"
		}
	}
	return ""
}

// slugify lowercases s and collapses every run of non-alphanumerics into a
// single hyphen.
func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
