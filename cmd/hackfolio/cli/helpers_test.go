package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hackfolio/hackfolio/internal/config"
)

func TestParseByteSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"512", 512, false},
		{"1MB", 1000000, false},
		{"1MiB", 1 << 20, false},
		{"64kb", 64000, false},
		{" 2 GiB ", 2 << 30, false},
		{"10B", 10, false},
		{"lots", 0, true},
		{"-1MB", 0, true},
		{"10EB", 0, true},
		{"9000000000000GB", 0, true},
	}
	for _, tt := range tests {
		got, err := parseByteSize(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseByteSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseByteSize(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	d, err := parseDuration("", time.Hour)
	if err != nil || d != time.Hour {
		t.Errorf("empty: got %v, %v; want 1h default", d, err)
	}
	d, err = parseDuration("90m", time.Hour)
	if err != nil || d != 90*time.Minute {
		t.Errorf("90m: got %v, %v", d, err)
	}
	if _, err := parseDuration("-5s", time.Hour); err == nil {
		t.Error("expected error for negative duration")
	}
	if _, err := parseDuration("soon", time.Hour); err == nil {
		t.Error("expected error for garbage duration")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":       slog.LevelInfo,
		"info":   slog.LevelInfo,
		"DEBUG":  slog.LevelDebug,
		"warn":   slog.LevelWarn,
		"warn+2": slog.LevelWarn + 2,
		"error":  slog.LevelError,
	}
	for in, want := range tests {
		got, err := parseLevel(in)
		if err != nil {
			t.Errorf("parseLevel(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example, ,https://b.example ")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Errorf("splitList = %q", got)
	}
	if got := splitList(""); len(got) != 0 {
		t.Errorf("splitList(\"\") = %q, want empty", got)
	}
}

func TestNewLogger_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "hackfolio.log")
	logger, closer, err := newLogger(config.LogConfig{
		Level:     "info",
		Format:    "json",
		File:      path,
		MaxSizeMB: 1,
	}, false)
	if err != nil {
		t.Fatalf("newLogger: %v", err)
	}
	logger.Info("hello", "component", "test")
	if err := closer.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file missing entry: %s", data)
	}
}

func TestNewLogger_BadFormat(t *testing.T) {
	if _, _, err := newLogger(config.LogConfig{Format: "xml"}, false); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestOpenStore_PostgresNeedsDSN(t *testing.T) {
	cfg := config.DefaultYAMLConfig()
	cfg.Database.Driver = config.DriverPostgres
	if _, err := openStore(cfg); err == nil {
		t.Error("expected error for postgres without dsn")
	}

	cfg.Database.Driver = "oracle"
	if _, err := openStore(cfg); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRedactConfig(t *testing.T) {
	cfg := config.DefaultYAMLConfig()
	cfg.Admin.SetupKey = "s3cret"
	cfg.Database.DSN = "postgres://u:p@db/portfolio"

	shown := redactConfig(cfg)
	if shown.Admin.SetupKey == "s3cret" || shown.Database.DSN == cfg.Database.DSN {
		t.Errorf("secrets not redacted: %+v", shown)
	}
	if cfg.Admin.SetupKey != "s3cret" {
		t.Error("redactConfig modified the original")
	}
}

func TestVersionString(t *testing.T) {
	defer func(v string) { appVersion = v }(appVersion)

	for in, want := range map[string]string{"": "dev", "dev": "dev", "1.2.0": "v1.2.0", "v1.2.0": "v1.2.0"} {
		appVersion = in
		if got := versionString(); got != want {
			t.Errorf("versionString() with %q = %q, want %q", in, got, want)
		}
	}
}

func TestOpenAPICommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd("dev", "none", "unknown")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"openapi", "--base-url", "https://portfolio.example"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var spec struct {
		OpenAPI string `json:"openapi"`
		Servers []struct {
			URL string `json:"url"`
		} `json:"servers"`
		Paths map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(out.Bytes(), &spec); err != nil {
		t.Fatalf("decode spec: %v", err)
	}
	if spec.OpenAPI != "3.1.0" {
		t.Errorf("openapi = %q", spec.OpenAPI)
	}
	if len(spec.Servers) == 0 || spec.Servers[0].URL != "https://portfolio.example" {
		t.Errorf("servers = %+v", spec.Servers)
	}
	if _, ok := spec.Paths["/api/admin/auth"]; !ok {
		t.Error("spec missing /api/admin/auth")
	}
}

func TestVersionCommand_JSON(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd("1.0.0", "abc123", "2026-01-01")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--json"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	var info map[string]string
	if err := json.Unmarshal(out.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info["version"] != "1.0.0" || info["commit"] != "abc123" {
		t.Errorf("info = %v", info)
	}
}
