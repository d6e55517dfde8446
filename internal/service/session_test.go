package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hackfolio/hackfolio/internal/model"
)

func TestValidFormat(t *testing.T) {
	tests := []struct {
		token string
		want  bool
	}{
		{strings.Repeat("a", 64), true},
		{strings.Repeat("0123456789abcdef", 4), true},
		{strings.Repeat("A", 64), true},
		{strings.Repeat("a", 63), false},
		{strings.Repeat("a", 65), false},
		{strings.Repeat("g", 64), false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidFormat(tt.token); got != tt.want {
			t.Errorf("ValidFormat(%q) = %v, want %v", tt.token, got, tt.want)
		}
	}
}

func TestSessionIssue(t *testing.T) {
	issuer := NewSessionIssuer(newTestStore(t), false, 0, nil)
	a, err := issuer.Issue()
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	b, _ := issuer.Issue()
	if !ValidFormat(a) || !ValidFormat(b) {
		t.Errorf("issued tokens not 64 hex: %q %q", a, b)
	}
	if a == b {
		t.Error("two issued tokens were identical")
	}
}

func TestSessionCookie(t *testing.T) {
	for _, secure := range []bool{false, true} {
		issuer := NewSessionIssuer(newTestStore(t), secure, 0, nil)
		rec := httptest.NewRecorder()
		issuer.Attach(rec, "tok")

		cookies := rec.Result().Cookies()
		if len(cookies) != 1 {
			t.Fatalf("got %d cookies, want 1", len(cookies))
		}
		c := cookies[0]
		if c.Name != SessionCookieName || c.Value != "tok" || c.Path != "/" {
			t.Errorf("unexpected cookie: %+v", c)
		}
		if !c.HttpOnly || c.SameSite != http.SameSiteStrictMode {
			t.Errorf("cookie must be HttpOnly and SameSite=Strict: %+v", c)
		}
		if c.MaxAge != 86400 {
			t.Errorf("MaxAge = %d, want 86400", c.MaxAge)
		}
		if c.Secure != secure {
			t.Errorf("Secure = %v, want %v", c.Secure, secure)
		}

		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(c)
		if Token(req) != "tok" {
			t.Errorf("Token = %q, want tok", Token(req))
		}

		rec = httptest.NewRecorder()
		issuer.Clear(rec)
		cleared := rec.Result().Cookies()[0]
		if cleared.MaxAge >= 0 || cleared.Value != "" {
			t.Errorf("Clear should expire the cookie: %+v", cleared)
		}
	}

	if Token(httptest.NewRequest("GET", "/", nil)) != "" {
		t.Error("Token without cookie should be empty")
	}
}

func TestSessionValidate(t *testing.T) {
	store := newTestStore(t)
	clock := newFakeClock()
	issuer := NewSessionIssuer(store, false, time.Hour, clock.Now)
	ctx := context.Background()

	admin := &model.AdminUser{Username: "admin", PasswordHash: "00", Salt: "00"}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		t.Fatal(err)
	}

	token, _ := issuer.Issue()
	if err := issuer.Persist(ctx, token, admin.ID, "1.2.3.4", "test"); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := issuer.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != admin.ID {
		t.Errorf("owner = %d, want %d", got.ID, admin.ID)
	}

	forged := strings.Repeat("ab", 32)
	if _, err := issuer.Validate(ctx, forged); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("forged well-formed token: got %v, want ErrInvalidSession", err)
	}
	if _, err := issuer.Validate(ctx, "short"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("malformed token: got %v, want ErrInvalidSession", err)
	}

	clock.Advance(time.Hour)
	if _, err := issuer.Validate(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("expired token: got %v, want ErrInvalidSession", err)
	}
	n, err := issuer.Purge(ctx)
	if err != nil || n != 1 {
		t.Errorf("Purge = %d, %v; want 1", n, err)
	}
}

func TestSessionRevoke(t *testing.T) {
	store := newTestStore(t)
	issuer := NewSessionIssuer(store, false, 0, newFakeClock().Now)
	ctx := context.Background()

	admin := &model.AdminUser{Username: "admin", PasswordHash: "00", Salt: "00"}
	if err := store.CreateAdmin(ctx, admin); err != nil {
		t.Fatal(err)
	}
	token, _ := issuer.Issue()
	if err := issuer.Persist(ctx, token, admin.ID, "", ""); err != nil {
		t.Fatal(err)
	}
	if err := issuer.Revoke(ctx, token); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if _, err := issuer.Validate(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("revoked token: got %v, want ErrInvalidSession", err)
	}
}
