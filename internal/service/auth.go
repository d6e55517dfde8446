package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
)

// MinPasswordLength is the minimum admin password length in characters.
const MinPasswordLength = 8

// decoyDigest is verified against when the username is unknown so the
// response time matches a real verification.
var decoyDigest = strings.Repeat("5a", PBKDF2KeyLength)

// AuthConfig configures an AuthService.
type AuthConfig struct {
	// SetupKey gates first-run admin creation. Empty disables setup.
	SetupKey string
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
	// SessionTTL defaults to DefaultSessionTTL.
	SessionTTL time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// LoginRequest carries the inputs of a login attempt.
type LoginRequest struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// LoginResult is returned on a successful login. User.LastLogin holds the
// previous login time, before this one was recorded.
type LoginResult struct {
	Token string
	User  model.AdminSummary
}

// SetupRequest carries the inputs of first-run admin creation.
type SetupRequest struct {
	SetupKey  string
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// SetupStatus reports whether an active admin exists.
type SetupStatus struct {
	HasAdminUser bool `json:"hasAdminUser"`
	AdminCount   int  `json:"adminCount"`
}

// AuthService orchestrates admin login, session checks, logout, and setup
// over the rate limiter, password hasher, session issuer, and audit logger.
type AuthService struct {
	store    *config.Store
	limiter  *RateLimiter
	sessions *SessionIssuer
	audit    *AuditLogger
	logger   *slog.Logger
	setupKey string
	now      func() time.Time

	// verify is swapped in tests to observe the decoy path.
	verify func(password, digest, salt string) bool
}

// NewAuthService wires the admin auth components around store.
func NewAuthService(store *config.Store, cfg AuthConfig, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuthService{
		store:    store,
		limiter:  NewRateLimiter(store, now),
		sessions: NewSessionIssuer(store, cfg.SecureCookies, cfg.SessionTTL, now),
		audit:    NewAuditLogger(store, logger),
		logger:   logger,
		setupKey: cfg.SetupKey,
		now:      now,
		verify:   VerifyPassword,
	}
}

// Sessions returns the session issuer used for cookies.
func (s *AuthService) Sessions() *SessionIssuer { return s.sessions }

// Audit returns the audit logger.
func (s *AuthService) Audit() *AuditLogger { return s.audit }

// Limiter returns the login rate limiter.
func (s *AuthService) Limiter() *RateLimiter { return s.limiter }

// Login authenticates an admin and opens a session.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.Username == "" || req.Password == "" {
		return nil, ErrMissingCredentials
	}

	decision, err := s.limiter.Check(ctx, req.IPAddress)
	if err != nil {
		return nil, s.storeErr("check rate limit", err)
	}
	if !decision.Allowed {
		return nil, &RateLimitedError{RetryAfterMinutes: decision.RetryAfterMinutes}
	}

	admin, err := s.store.GetActiveAdminByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, config.ErrNotFound) {
		return nil, s.storeErr("load admin", err)
	}

	digest, salt := decoyDigest, ""
	if admin != nil {
		digest, salt = admin.PasswordHash, admin.Salt
	} else if salt, err = GenerateSalt(); err != nil {
		salt = decoyDigest[:SaltLength*2]
	}
	ok := s.verify(req.Password, digest, salt)

	if admin == nil {
		return nil, ErrInvalidCredentials
	}
	if !ok {
		count, err := s.limiter.RecordFailure(ctx, req.IPAddress)
		if err != nil {
			return nil, s.storeErr("record failed login", err)
		}
		if count >= MaxFailedAttempts {
			s.logger.Warn("admin login locked out", "ip", req.IPAddress, "failed_attempts", count)
		}
		return nil, ErrInvalidCredentials
	}

	if err := s.limiter.Reset(ctx, req.IPAddress); err != nil {
		return nil, s.storeErr("reset rate limit", err)
	}

	previous := admin.Summary()
	if err := s.store.UpdateAdminLastLogin(ctx, admin.ID, s.now().UTC()); err != nil {
		return nil, s.storeErr("update last login", err)
	}

	if n, err := s.sessions.Purge(ctx); err != nil {
		s.logger.Warn("purge expired sessions failed", "error", err)
	} else if n > 0 {
		s.logger.Debug("purged expired sessions", "count", n)
	}

	token, err := s.sessions.Issue()
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Persist(ctx, token, admin.ID, req.IPAddress, req.UserAgent); err != nil {
		return nil, s.storeErr("persist session", err)
	}

	s.audit.Record(ctx, model.ActionAdminLogin, map[string]string{"username": admin.Username},
		req.IPAddress, req.UserAgent)

	return &LoginResult{Token: token, User: previous}, nil
}

// Authenticate resolves a session token to its admin.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*model.AdminUser, error) {
	return s.sessions.Validate(ctx, token)
}

// CheckSession reports whether token belongs to a live session. Every
// failure, including store errors, reads as false.
func (s *AuthService) CheckSession(ctx context.Context, token string) bool {
	_, err := s.sessions.Validate(ctx, token)
	if err != nil && !errors.Is(err, ErrInvalidSession) {
		s.logger.Warn("session check failed", "error", err)
	}
	return err == nil
}

// Logout records the event and revokes the session. It never fails.
func (s *AuthService) Logout(ctx context.Context, token, ip, userAgent string) {
	s.audit.Record(ctx, model.ActionAdminLogout, nil, ip, userAgent)
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.logger.Warn("session revoke failed", "error", err)
	}
}

// Setup creates an admin when the caller presents the configured setup key.
func (s *AuthService) Setup(ctx context.Context, req SetupRequest) (*model.AdminUser, error) {
	if s.setupKey == "" {
		return nil, ErrSetupDisabled
	}
	if subtle.ConstantTimeCompare([]byte(req.SetupKey), []byte(s.setupKey)) != 1 {
		s.logger.Warn("admin setup rejected: invalid setup key", "ip", req.IPAddress)
		return nil, ErrInvalidSetupKey
	}

	admin, err := s.CreateAdmin(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, model.ActionAdminUserCreated, map[string]string{"username": admin.Username},
		req.IPAddress, req.UserAgent)
	return admin, nil
}

// CreateAdmin validates the credentials, hashes the password with a fresh
// salt, and stores a new active admin.
func (s *AuthService) CreateAdmin(ctx context.Context, username, password string) (*model.AdminUser, error) {
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	exists, err := s.store.AdminExists(ctx, username)
	if err != nil {
		return nil, s.storeErr("check admin exists", err)
	}
	if exists {
		return nil, ErrAdminExists
	}

	salt, err := GenerateSalt()
	if err != nil {
		return nil, err
	}
	admin := &model.AdminUser{
		Username:     username,
		PasswordHash: HashPassword(password, salt),
		Salt:         salt,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, config.ErrConflict) {
			return nil, ErrAdminExists
		}
		return nil, s.storeErr("create admin", err)
	}
	return admin, nil
}

// SetupStatus counts active admins.
func (s *AuthService) SetupStatus(ctx context.Context) (SetupStatus, error) {
	n, err := s.store.CountActiveAdmins(ctx)
	if err != nil {
		return SetupStatus{}, s.storeErr("count admins", err)
	}
	return SetupStatus{HasAdminUser: n > 0, AdminCount: n}, nil
}

func (s *AuthService) storeErr(op string, err error) error {
	if config.IsUnavailable(err) {
		return fmt.Errorf("%s: %w", op, ErrStoreUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}
