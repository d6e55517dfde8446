package config

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hackfolio/hackfolio/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore("") // in-memory
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createAdmin(t *testing.T, s *Store, username string) *model.AdminUser {
	t.Helper()
	admin := &model.AdminUser{Username: username, PasswordHash: "ab", Salt: "cd"}
	if err := s.CreateAdmin(context.Background(), admin); err != nil {
		t.Fatalf("CreateAdmin: %v", err)
	}
	return admin
}

func strPtr(s string) *string { return &s }

func TestNewStoreOnDisk(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(filepath.Join(dir, "hackfolio.db")); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
	if s.Driver() != DriverSQLite {
		t.Errorf("Driver() = %q, want %q", s.Driver(), DriverSQLite)
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestNewStoreUnsupportedDriver(t *testing.T) {
	if _, err := NewStoreWithDSN("oracle", "x"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestAdminCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	admin := createAdmin(t, s, "admin")
	if admin.ID == 0 {
		t.Fatal("expected non-zero ID after create")
	}
	if !admin.IsActive {
		t.Error("new admin should be active")
	}

	got, err := s.GetActiveAdminByUsername(ctx, "admin")
	if err != nil {
		t.Fatalf("GetActiveAdminByUsername: %v", err)
	}
	if got.ID != admin.ID || got.PasswordHash != "ab" || got.Salt != "cd" {
		t.Errorf("unexpected admin: %+v", got)
	}
	if got.LastLogin != nil {
		t.Errorf("LastLogin = %v, want nil", got.LastLogin)
	}

	if _, err := s.GetActiveAdminByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// Duplicate username.
	dup := &model.AdminUser{Username: "admin", PasswordHash: "x", Salt: "y"}
	if err := s.CreateAdmin(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	login := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.UpdateAdminLastLogin(ctx, admin.ID, login); err != nil {
		t.Fatalf("UpdateAdminLastLogin: %v", err)
	}
	got, _ = s.GetAdmin(ctx, admin.ID)
	if got.LastLogin == nil || !got.LastLogin.Equal(login) {
		t.Errorf("LastLogin = %v, want %v", got.LastLogin, login)
	}
	if err := s.UpdateAdminLastLogin(ctx, 9999, login); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	n, err := s.CountActiveAdmins(ctx)
	if err != nil || n != 1 {
		t.Fatalf("CountActiveAdmins = %d, %v; want 1", n, err)
	}

	if err := s.SetAdminActive(ctx, "admin", false); err != nil {
		t.Fatalf("SetAdminActive: %v", err)
	}
	if _, err := s.GetActiveAdminByUsername(ctx, "admin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("deactivated admin should not load, got %v", err)
	}
	n, _ = s.CountActiveAdmins(ctx)
	if n != 0 {
		t.Errorf("CountActiveAdmins = %d, want 0", n)
	}
	exists, err := s.AdminExists(ctx, "admin")
	if err != nil || !exists {
		t.Errorf("AdminExists = %v, %v; want true", exists, err)
	}
	if err := s.SetAdminActive(ctx, "ghost", true); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	list, err := s.ListAdmins(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListAdmins = %d, %v; want 1", len(list), err)
	}
}

func TestRecordFailedLoginLocksAtThreshold(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lockUntil := now.Add(15 * time.Minute)

	if _, err := s.GetRateLimit(ctx, "1.2.3.4"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	for i := 1; i <= 4; i++ {
		count, err := s.RecordFailedLogin(ctx, "1.2.3.4", now, 5, lockUntil)
		if err != nil {
			t.Fatalf("RecordFailedLogin: %v", err)
		}
		if count != i {
			t.Fatalf("count = %d, want %d", count, i)
		}
	}

	entry, err := s.GetRateLimit(ctx, "1.2.3.4")
	if err != nil {
		t.Fatalf("GetRateLimit: %v", err)
	}
	if entry.LockedUntil != nil {
		t.Fatalf("locked after 4 failures: %v", entry.LockedUntil)
	}

	count, err := s.RecordFailedLogin(ctx, "1.2.3.4", now, 5, lockUntil)
	if err != nil || count != 5 {
		t.Fatalf("fifth failure = %d, %v", count, err)
	}
	entry, _ = s.GetRateLimit(ctx, "1.2.3.4")
	if entry.LockedUntil == nil || !entry.LockedUntil.Equal(lockUntil) {
		t.Fatalf("LockedUntil = %v, want %v", entry.LockedUntil, lockUntil)
	}
	if !entry.LockedAt(now) || entry.LockedAt(lockUntil) {
		t.Error("LockedAt should hold until exactly lockUntil")
	}

	// Other addresses are independent.
	count, _ = s.RecordFailedLogin(ctx, "5.6.7.8", now, 5, lockUntil)
	if count != 1 {
		t.Errorf("independent address count = %d, want 1", count)
	}

	if err := s.DeleteRateLimit(ctx, "1.2.3.4"); err != nil {
		t.Fatalf("DeleteRateLimit: %v", err)
	}
	if _, err := s.GetRateLimit(ctx, "1.2.3.4"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := s.DeleteRateLimit(ctx, "1.2.3.4"); err != nil {
		t.Errorf("deleting a missing entry should succeed: %v", err)
	}

	list, err := s.ListRateLimits(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListRateLimits = %d, %v; want 1", len(list), err)
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := createAdmin(t, s, "admin")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	live := &model.AdminSession{
		TokenHash: "live", UserID: admin.ID, CreatedAt: now, ExpiresAt: now.Add(24 * time.Hour),
		IPAddress: "1.2.3.4", UserAgent: "test",
	}
	stale := &model.AdminSession{
		TokenHash: "stale", UserID: admin.ID, CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-24 * time.Hour),
	}
	for _, sess := range []*model.AdminSession{live, stale} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}
	}

	got, err := s.GetSession(ctx, "live")
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.UserID != admin.ID || got.IPAddress != "1.2.3.4" || !got.ExpiresAt.Equal(live.ExpiresAt) {
		t.Errorf("unexpected session: %+v", got)
	}

	n, err := s.PurgeExpiredSessions(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("PurgeExpiredSessions = %d, %v; want 1", n, err)
	}
	if _, err := s.GetSession(ctx, "stale"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected stale session purged, got %v", err)
	}

	if err := s.DeleteSession(ctx, "live"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := s.GetSession(ctx, "live"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeactivateRevokesSessions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	admin := createAdmin(t, s, "admin")
	now := time.Now().UTC()

	if err := s.CreateSession(ctx, &model.AdminSession{
		TokenHash: "h", UserID: admin.ID, CreatedAt: now, ExpiresAt: now.Add(time.Hour),
	}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := s.SetAdminActive(ctx, "admin", false); err != nil {
		t.Fatalf("SetAdminActive: %v", err)
	}
	if _, err := s.GetSession(ctx, "h"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected session revoked, got %v", err)
	}
}

func TestAuditLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []model.AuditLogEntry{
		{Action: model.ActionAdminUserCreated, Data: json.RawMessage(`{"username":"admin"}`), CreatedAt: base},
		{Action: model.ActionAdminLogin, Data: json.RawMessage(`{"username":"admin"}`), IPAddress: "1.2.3.4", CreatedAt: base.Add(time.Minute)},
		{Action: model.ActionAdminLogout, CreatedAt: base.Add(2 * time.Minute)},
	}
	for i := range entries {
		if err := s.AppendAuditLog(ctx, &entries[i]); err != nil {
			t.Fatalf("AppendAuditLog: %v", err)
		}
		if entries[i].ID == 0 {
			t.Fatal("expected non-zero ID")
		}
	}

	all, err := s.ListAuditLogs(ctx, AuditFilter{})
	if err != nil {
		t.Fatalf("ListAuditLogs: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d entries, want 3", len(all))
	}
	if all[0].Action != model.ActionAdminLogout {
		t.Errorf("newest entry = %q, want %q", all[0].Action, model.ActionAdminLogout)
	}
	if string(all[0].Data) != "{}" {
		t.Errorf("empty data stored as %s, want {}", all[0].Data)
	}

	logins, _ := s.ListAuditLogs(ctx, AuditFilter{Action: model.ActionAdminLogin})
	if len(logins) != 1 || logins[0].IPAddress != "1.2.3.4" {
		t.Fatalf("unexpected login entries: %+v", logins)
	}
	var data map[string]string
	if err := json.Unmarshal(logins[0].Data, &data); err != nil || data["username"] != "admin" {
		t.Errorf("data = %s, %v", logins[0].Data, err)
	}

	page, _ := s.ListAuditLogs(ctx, AuditFilter{Limit: 1, Offset: 1})
	if len(page) != 1 || page[0].Action != model.ActionAdminLogin {
		t.Errorf("unexpected page: %+v", page)
	}

	count, err := s.CountAuditLogs(ctx, AuditFilter{})
	if err != nil || count != 3 {
		t.Errorf("CountAuditLogs = %d, %v; want 3", count, err)
	}
}

func TestRoomCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	room := &model.Room{
		Title:         "Blue",
		Slug:          "blue",
		Difficulty:    "Easy",
		Status:        model.StatusCompleted,
		Tags:          []string{"windows", "eternalblue"},
		URL:           "https://tryhackme.com/room/blue",
		RoomCode:      "blue",
		Points:        120,
		DateCompleted: strPtr("2026-01-15"),
	}
	if err := s.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if room.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetRoomBySlug(ctx, "blue")
	if err != nil {
		t.Fatalf("GetRoomBySlug: %v", err)
	}
	if got.ID != room.ID || len(got.Tags) != 2 || got.Writeup != nil {
		t.Errorf("unexpected room: %+v", got)
	}
	if got.DateCompleted == nil || *got.DateCompleted != "2026-01-15" {
		t.Errorf("DateCompleted = %v", got.DateCompleted)
	}

	if err := s.CreateRoom(ctx, &model.Room{Title: "Dup", Slug: "blue", Difficulty: "Easy", Status: model.StatusPlanned}); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict on duplicate slug, got %v", err)
	}

	other := &model.Room{Title: "Kenobi", Slug: "kenobi", Difficulty: "Medium", Status: model.StatusInProgress}
	if err := s.CreateRoom(ctx, other); err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if len(other.Tags) != 0 {
		t.Errorf("nil tags should round-trip empty")
	}

	tests := []struct {
		name   string
		filter model.ContentFilter
		want   int
	}{
		{"all", model.ContentFilter{}, 2},
		{"difficulty", model.ContentFilter{Difficulty: "Medium"}, 1},
		{"status", model.ContentFilter{Status: model.StatusCompleted}, 1},
		{"search title", model.ContentFilter{Search: "KENO"}, 1},
		{"search tag", model.ContentFilter{Search: "eternal"}, 1},
		{"no match", model.ContentFilter{Search: "zzz"}, 0},
		{"wildcard taken literally", model.ContentFilter{Search: "%"}, 0},
		{"underscore taken literally", model.ContentFilter{Search: "k_no"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rooms, err := s.ListRooms(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListRooms: %v", err)
			}
			if len(rooms) != tt.want {
				t.Errorf("got %d rooms, want %d", len(rooms), tt.want)
			}
		})
	}

	got.Writeup = strPtr("# Blue\nexploit")
	got.Points = 150
	if err := s.UpdateRoom(ctx, got); err != nil {
		t.Fatalf("UpdateRoom: %v", err)
	}
	again, _ := s.GetRoom(ctx, room.ID)
	if again.Points != 150 || again.Writeup == nil || *again.Writeup != "# Blue\nexploit" {
		t.Errorf("update not persisted: %+v", again)
	}

	if err := s.DeleteRoom(ctx, room.ID); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	if err := s.DeleteRoom(ctx, room.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetRoom(ctx, room.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMachineCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	m := &model.Machine{
		Name: "Lame", OS: "Linux", Difficulty: "Easy", Status: model.StatusCompleted,
		IPAddress: "10.10.10.3", Points: 20, Tags: []string{"smb"},
	}
	if err := s.CreateMachine(ctx, m); err != nil {
		t.Fatalf("CreateMachine: %v", err)
	}

	got, err := s.GetMachine(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMachine: %v", err)
	}
	if got.Name != "Lame" || got.OS != "Linux" || got.Tags[0] != "smb" {
		t.Errorf("unexpected machine: %+v", got)
	}

	list, err := s.ListMachines(ctx, model.ContentFilter{Search: "linux"})
	if err != nil || len(list) != 1 {
		t.Fatalf("ListMachines = %d, %v; want 1", len(list), err)
	}

	got.Status = model.StatusInProgress
	if err := s.UpdateMachine(ctx, got); err != nil {
		t.Fatalf("UpdateMachine: %v", err)
	}
	got.ID = "missing"
	if err := s.UpdateMachine(ctx, got); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	if err := s.DeleteMachine(ctx, m.ID); err != nil {
		t.Fatalf("DeleteMachine: %v", err)
	}
	if _, err := s.GetMachine(ctx, m.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetHTBStats(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before save, got %v", err)
	}

	rank := 12
	htb := model.DefaultHTBStats()
	htb.UniversityRank = &rank
	if err := s.SaveHTBStats(ctx, &htb); err != nil {
		t.Fatalf("SaveHTBStats: %v", err)
	}
	htb.FinalScore = 2000
	if err := s.SaveHTBStats(ctx, &htb); err != nil {
		t.Fatalf("SaveHTBStats again: %v", err)
	}
	got, err := s.GetHTBStats(ctx)
	if err != nil {
		t.Fatalf("GetHTBStats: %v", err)
	}
	if got.FinalScore != 2000 || got.UniversityRank == nil || *got.UniversityRank != 12 {
		t.Errorf("unexpected htb stats: %+v", got)
	}
	if got.LastUpdated.IsZero() {
		t.Error("LastUpdated not set")
	}

	thm := model.DefaultTHMStats()
	if err := s.SaveTHMStats(ctx, &thm); err != nil {
		t.Fatalf("SaveTHMStats: %v", err)
	}
	gotTHM, err := s.GetTHMStats(ctx)
	if err != nil {
		t.Fatalf("GetTHMStats: %v", err)
	}
	if gotTHM.RoomsCompleted != thm.RoomsCompleted || gotTHM.Badges != thm.Badges {
		t.Errorf("unexpected thm stats: %+v", gotTHM)
	}
}

func TestIsUnavailable(t *testing.T) {
	s, err := NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Close()

	_, err = s.CountActiveAdmins(context.Background())
	if err == nil {
		t.Fatal("expected error from closed store")
	}
	if !IsUnavailable(err) {
		t.Errorf("IsUnavailable(%v) = false, want true", err)
	}
	if IsUnavailable(nil) || IsUnavailable(ErrNotFound) {
		t.Error("IsUnavailable should be false for nil and ErrNotFound")
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hackfolio.yaml")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatalf("WriteDefaultConfig: %v", err)
	}

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Server.Port != 8080 || cfg.Database.Driver != DriverSQLite {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Auth.SessionTTL != "24h" {
		t.Errorf("SessionTTL = %q, want 24h", cfg.Auth.SessionTTL)
	}
}

func TestLoadYAMLConfigExpandsEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hackfolio.yaml")
	content := "environment: production\nadmin:\n  setup_key: ${HF_TEST_KEY}\nserver:\n  port: 9090\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HF_TEST_KEY", "from-env")

	cfg, err := LoadYAMLConfig(path)
	if err != nil {
		t.Fatalf("LoadYAMLConfig: %v", err)
	}
	if cfg.Admin.SetupKey != "from-env" {
		t.Errorf("SetupKey = %q, want from-env", cfg.Admin.SetupKey)
	}
	if cfg.Environment != "production" || cfg.Server.Port != 9090 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("unset keys should keep defaults, got log level %q", cfg.Log.Level)
	}
}
