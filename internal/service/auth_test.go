package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/model"
)

func setupAdmin(t *testing.T, auth *AuthService, username, password string) *model.AdminUser {
	t.Helper()
	admin, err := auth.CreateAdmin(context.Background(), username, password)
	if err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

func login(auth *AuthService, ip, username, password string) (*LoginResult, error) {
	return auth.Login(context.Background(), LoginRequest{
		Username: username, Password: password, IPAddress: ip, UserAgent: "test-agent",
	})
}

func TestSetupLoginLogoutScenario(t *testing.T) {
	auth, store, _ := newTestAuth(t, "K1")
	ctx := context.Background()

	status, err := auth.SetupStatus(ctx)
	if err != nil {
		t.Fatalf("SetupStatus: %v", err)
	}
	if status.HasAdminUser || status.AdminCount != 0 {
		t.Errorf("fresh status = %+v", status)
	}

	admin, err := auth.Setup(ctx, SetupRequest{SetupKey: "K1", Username: "admin", Password: "Sup3rSecret!", IPAddress: "1.2.3.4"})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if admin.Username != "admin" {
		t.Errorf("username = %q", admin.Username)
	}

	status, _ = auth.SetupStatus(ctx)
	if !status.HasAdminUser || status.AdminCount != 1 {
		t.Errorf("status after setup = %+v", status)
	}

	res, err := login(auth, "1.2.3.4", "admin", "Sup3rSecret!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !ValidFormat(res.Token) {
		t.Errorf("token %q is not 64 hex", res.Token)
	}
	if res.User.Username != "admin" || res.User.ID != admin.ID {
		t.Errorf("unexpected user: %+v", res.User)
	}
	if res.User.LastLogin != nil {
		t.Errorf("first login should report no previous login, got %v", res.User.LastLogin)
	}

	if !auth.CheckSession(ctx, res.Token) {
		t.Error("issued session should be authenticated")
	}

	second, err := login(auth, "1.2.3.4", "admin", "Sup3rSecret!")
	if err != nil {
		t.Fatalf("second Login: %v", err)
	}
	if second.User.LastLogin == nil {
		t.Error("second login should report the previous login time")
	}

	auth.Logout(ctx, res.Token, "1.2.3.4", "test-agent")
	if auth.CheckSession(ctx, res.Token) {
		t.Error("session should be invalid after logout")
	}
	if !auth.CheckSession(ctx, second.Token) {
		t.Error("logout must only revoke its own session")
	}

	logs, err := store.ListAuditLogs(ctx, config.AuditFilter{})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	var actions []string
	for _, l := range logs {
		actions = append(actions, l.Action)
	}
	want := []string{model.ActionAdminLogout, model.ActionAdminLogin, model.ActionAdminLogin, model.ActionAdminUserCreated}
	if strings.Join(actions, ",") != strings.Join(want, ",") {
		t.Errorf("audit actions = %v, want %v", actions, want)
	}
	var data map[string]string
	if err := json.Unmarshal(logs[1].Data, &data); err != nil || data["username"] != "admin" {
		t.Errorf("login audit data = %s", logs[1].Data)
	}
	if logs[1].IPAddress != "1.2.3.4" || logs[1].UserAgent != "test-agent" {
		t.Errorf("login audit origin = %q %q", logs[1].IPAddress, logs[1].UserAgent)
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	auth, _, _ := newTestAuth(t, "")
	for _, tc := range [][2]string{{"", "pw"}, {"admin", ""}, {"", ""}} {
		if _, err := login(auth, "1.2.3.4", tc[0], tc[1]); !errors.Is(err, ErrMissingCredentials) {
			t.Errorf("Login(%q, %q) = %v, want ErrMissingCredentials", tc[0], tc[1], err)
		}
	}
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	auth, _, clock := newTestAuth(t, "")
	setupAdmin(t, auth, "admin", "Sup3rSecret!")

	for i := 0; i < MaxFailedAttempts; i++ {
		if _, err := login(auth, "1.2.3.4", "admin", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: got %v, want ErrInvalidCredentials", i+1, err)
		}
	}

	_, err := login(auth, "1.2.3.4", "admin", "Sup3rSecret!")
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("sixth attempt: got %v, want RateLimitedError", err)
	}
	if rl.RetryAfterMinutes != 15 {
		t.Errorf("RetryAfterMinutes = %d, want 15", rl.RetryAfterMinutes)
	}

	// A different address is unaffected.
	if _, err := login(auth, "5.6.7.8", "admin", "Sup3rSecret!"); err != nil {
		t.Errorf("login from 5.6.7.8: %v", err)
	}

	clock.Advance(LockoutDuration + time.Second)
	if _, err := login(auth, "1.2.3.4", "admin", "Sup3rSecret!"); err != nil {
		t.Fatalf("login after lockout expiry: %v", err)
	}
}

func TestLoginSuccessResetsCounter(t *testing.T) {
	auth, store, _ := newTestAuth(t, "")
	setupAdmin(t, auth, "admin", "Sup3rSecret!")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		login(auth, "1.2.3.4", "admin", "nope-nope")
	}
	if _, err := login(auth, "1.2.3.4", "admin", "Sup3rSecret!"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := store.GetRateLimit(ctx, "1.2.3.4"); !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("entry should be deleted after success, got %v", err)
	}

	login(auth, "1.2.3.4", "admin", "nope-nope")
	entry, err := store.GetRateLimit(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("GetRateLimit: %v", err)
	}
	if entry.FailedAttempts != 1 {
		t.Errorf("FailedAttempts = %d, want 1", entry.FailedAttempts)
	}
}

func TestLoginUnknownUserRunsDecoyHash(t *testing.T) {
	auth, store, _ := newTestAuth(t, "")
	setupAdmin(t, auth, "admin", "Sup3rSecret!")

	var calls int
	auth.verify = func(password, digest, salt string) bool {
		calls++
		return VerifyPassword(password, digest, salt)
	}

	if _, err := login(auth, "1.2.3.4", "ghost", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
	if calls != 1 {
		t.Errorf("verify called %d times for unknown user, want 1", calls)
	}
	if _, err := store.GetRateLimit(context.Background(), "1.2.3.4"); !errors.Is(err, config.ErrNotFound) {
		t.Errorf("unknown username should not count as a failure, got %v", err)
	}

	calls = 0
	login(auth, "1.2.3.4", "admin", "whatever1")
	if calls != 1 {
		t.Errorf("verify called %d times for known user, want 1", calls)
	}
}

func TestLoginDeactivatedAdmin(t *testing.T) {
	auth, store, _ := newTestAuth(t, "")
	setupAdmin(t, auth, "admin", "Sup3rSecret!")
	if err := store.SetAdminActive(context.Background(), "admin", false); err != nil {
		t.Fatal(err)
	}
	if _, err := login(auth, "1.2.3.4", "admin", "Sup3rSecret!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestSetupErrors(t *testing.T) {
	ctx := context.Background()

	disabled, _, _ := newTestAuth(t, "")
	if _, err := disabled.Setup(ctx, SetupRequest{SetupKey: "", Username: "admin", Password: "Sup3rSecret!"}); !errors.Is(err, ErrSetupDisabled) {
		t.Errorf("no key configured: got %v, want ErrSetupDisabled", err)
	}

	auth, _, _ := newTestAuth(t, "K1")
	tests := []struct {
		name string
		req  SetupRequest
		want error
	}{
		{"wrong key", SetupRequest{SetupKey: "K2", Username: "admin", Password: "Sup3rSecret!"}, ErrInvalidSetupKey},
		{"empty key", SetupRequest{Username: "admin", Password: "Sup3rSecret!"}, ErrInvalidSetupKey},
		{"missing username", SetupRequest{SetupKey: "K1", Password: "Sup3rSecret!"}, ErrMissingCredentials},
		{"missing password", SetupRequest{SetupKey: "K1", Username: "admin"}, ErrMissingCredentials},
		{"seven characters", SetupRequest{SetupKey: "K1", Username: "admin", Password: "1234567"}, ErrPasswordTooShort},
		{"seven runes eight bytes", SetupRequest{SetupKey: "K1", Username: "admin", Password: "pässwd1"}, ErrPasswordTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := auth.Setup(ctx, tt.req); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := auth.Setup(ctx, SetupRequest{SetupKey: "K1", Username: "admin", Password: "12345678"}); err != nil {
		t.Fatalf("eight characters should be accepted: %v", err)
	}
	if _, err := auth.Setup(ctx, SetupRequest{SetupKey: "K1", Username: "admin", Password: "12345678"}); !errors.Is(err, ErrAdminExists) {
		t.Errorf("duplicate username: got %v, want ErrAdminExists", err)
	}
}

func TestStoreUnavailable(t *testing.T) {
	auth, store, _ := newTestAuth(t, "K1")
	store.Close()
	ctx := context.Background()

	if _, err := auth.SetupStatus(ctx); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("SetupStatus: got %v, want ErrStoreUnavailable", err)
	}
	if _, err := login(auth, "1.2.3.4", "admin", "Sup3rSecret!"); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("Login: got %v, want ErrStoreUnavailable", err)
	}
	if auth.CheckSession(ctx, strings.Repeat("a", 64)) {
		t.Error("CheckSession should degrade to false")
	}
}
