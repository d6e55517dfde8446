package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
)

const (
	// SessionCookieName is the cookie carrying the admin session token.
	SessionCookieName = "admin_session"
	// DefaultSessionTTL is the lifetime of a session and its cookie.
	DefaultSessionTTL = 24 * time.Hour

	sessionTokenBytes = 32
)

// ErrInvalidSession is returned by Validate for any token that does not map
// to a live session of an active admin.
var ErrInvalidSession = errors.New("invalid session")

// SessionIssuer mints session tokens, persists their hashes, and manages the
// session cookie.
type SessionIssuer struct {
	store  *config.Store
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionIssuer creates an issuer. secure marks cookies Secure and should
// be set in production. A zero ttl uses DefaultSessionTTL; a nil clock uses
// time.Now.
func NewSessionIssuer(store *config.Store, secure bool, ttl time.Duration, now func() time.Time) *SessionIssuer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if now == nil {
		now = time.Now
	}
	return &SessionIssuer{store: store, secure: secure, ttl: ttl, now: now}
}

// Issue returns a fresh 64-character hex token.
func (s *SessionIssuer) Issue() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Persist records token as a live session for userID.
func (s *SessionIssuer) Persist(ctx context.Context, token string, userID int64, ip, userAgent string) error {
	now := s.now().UTC()
	return s.store.CreateSession(ctx, &model.AdminSession{
		TokenHash: HashToken(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
		IPAddress: ip,
		UserAgent: userAgent,
	})
}

// Validate resolves token to its active owner. Malformed, unknown, expired,
// and orphaned tokens all yield ErrInvalidSession; store failures are
// returned as-is.
func (s *SessionIssuer) Validate(ctx context.Context, token string) (*model.AdminUser, error) {
	if !ValidFormat(token) {
		return nil, ErrInvalidSession
	}
	sess, err := s.store.GetSession(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if sess.Expired(s.now()) {
		return nil, ErrInvalidSession
	}
	admin, err := s.store.GetAdmin(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if !admin.IsActive {
		return nil, ErrInvalidSession
	}
	return admin, nil
}

// Revoke deletes the session behind token, if any.
func (s *SessionIssuer) Revoke(ctx context.Context, token string) error {
	if !ValidFormat(token) {
		return nil
	}
	return s.store.DeleteSession(ctx, HashToken(token))
}

// Purge removes every expired session and returns how many were deleted.
func (s *SessionIssuer) Purge(ctx context.Context) (int64, error) {
	return s.store.PurgeExpiredSessions(ctx, s.now())
}

// Attach sets the session cookie on the response.
func (s *SessionIssuer) Attach(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.ttl / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear expires the session cookie on the client.
func (s *SessionIssuer) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Token returns the session token carried by r, or "".
func Token(r *http.Request) string {
	c, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// ValidFormat reports whether token is exactly 64 hex characters.
func ValidFormat(token string) bool {
	if len(token) != sessionTokenBytes*2 {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F') {
			return false
		}
	}
	return true
}

// HashToken returns the hex SHA-256 of a session token, the form stored in
// admin_sessions.
func HashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
