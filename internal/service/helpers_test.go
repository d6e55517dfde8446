package service

import (
	"sync"
	"testing"
	"time"

	"github.com/hackfolio/hackfolio/internal/config"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T) *config.Store {
	t.Helper()
	store, err := config.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestAuth(t *testing.T, setupKey string) (*AuthService, *config.Store, *fakeClock) {
	t.Helper()
	store := newTestStore(t)
	clock := newFakeClock()
	auth := NewAuthService(store, AuthConfig{SetupKey: setupKey, Now: clock.Now}, nil)
	return auth, store, clock
}
