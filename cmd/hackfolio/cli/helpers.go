package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/service"
)

// loadConfig resolves the effective configuration: defaults, then the config
// file (with ${VAR} expansion), then HACKFOLIO_* environment variables and
// any flags bound through viper.
func loadConfig() (*config.YAMLConfig, error) {
	cfg := config.DefaultYAMLConfig()

	if path := viper.ConfigFileUsed(); path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := config.LoadYAMLConfig(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else if cfgFile != "" {
			return nil, fmt.Errorf("config file %s: %w", cfgFile, err)
		}
	}

	overlayString(&cfg.Environment, "environment")
	overlayString(&cfg.DataDir, "data_dir")
	overlayString(&cfg.Server.Host, "server.host")
	overlayInt(&cfg.Server.Port, "server.port")
	overlayString(&cfg.Server.BaseURL, "server.base_url")
	overlayInt(&cfg.Server.RateLimitPerMin, "server.rate_limit_per_minute")
	overlayString(&cfg.Server.MaxBodySize, "server.max_body_size")
	overlayString(&cfg.Server.ShutdownTimeout, "server.shutdown_timeout")
	overlayString(&cfg.Database.Driver, "database.driver")
	overlayString(&cfg.Database.DSN, "database.dsn")
	overlayString(&cfg.Admin.SetupKey, "admin.setup_key")
	overlayString(&cfg.Auth.SessionTTL, "auth.session_ttl")
	overlayString(&cfg.MCP.Transport, "mcp.transport")
	overlayInt(&cfg.MCP.Port, "mcp.port")
	overlayString(&cfg.Log.Level, "log.level")
	overlayString(&cfg.Log.Format, "log.format")
	overlayString(&cfg.Log.File, "log.file")

	if origins, ok := os.LookupEnv("HACKFOLIO_SERVER_CORS_ORIGINS"); ok {
		cfg.Server.CORSOrigins = splitList(origins)
	}
	// The site was first deployed with a bare ADMIN_SETUP_KEY.
	if cfg.Admin.SetupKey == "" {
		cfg.Admin.SetupKey = os.Getenv("ADMIN_SETUP_KEY")
	}

	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if cfg.DataDir == "" {
		home, _ := os.UserHomeDir()
		cfg.DataDir = filepath.Join(home, ".hackfolio")
	}
	return cfg, nil
}

// Viper also reads the config file, so its values are expanded the same way
// LoadYAMLConfig expands them before overriding.
func overlayString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = os.ExpandEnv(viper.GetString(key))
	}
}

func overlayInt(dst *int, key string) {
	if !viper.IsSet(key) {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.ExpandEnv(viper.GetString(key)))); err == nil {
		*dst = n
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// openStore opens the configured store and applies migrations.
func openStore(cfg *config.YAMLConfig) (*config.Store, error) {
	switch cfg.Database.Driver {
	case "", config.DriverSQLite:
		if cfg.Database.DSN != "" {
			return config.NewStoreWithDSN(config.DriverSQLite, cfg.Database.DSN)
		}
		return config.NewStore(cfg.DataDir)
	case config.DriverPostgres:
		if cfg.Database.DSN == "" {
			return nil, fmt.Errorf("database.dsn is required for the postgres driver")
		}
		return config.NewStoreWithDSN(config.DriverPostgres, cfg.Database.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q; use sqlite or postgres", cfg.Database.Driver)
	}
}

// newAuthService builds the auth service from configuration. Cookies are
// Secure only in production.
func newAuthService(cfg *config.YAMLConfig, store *config.Store, logger *slog.Logger) (*service.AuthService, error) {
	ttl, err := parseDuration(cfg.Auth.SessionTTL, service.DefaultSessionTTL)
	if err != nil {
		return nil, fmt.Errorf("auth.session_ttl: %w", err)
	}
	return service.NewAuthService(store, service.AuthConfig{
		SetupKey:      cfg.Admin.SetupKey,
		SecureCookies: isProduction(cfg),
		SessionTTL:    ttl,
	}, logger), nil
}

func isProduction(cfg *config.YAMLConfig) bool {
	return strings.EqualFold(cfg.Environment, "production")
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive, got %s", s)
	}
	return d, nil
}

// parseByteSize accepts a plain byte count or a humanized size such as
// "1MB" (decimal) or "1MiB" (binary). An empty string means no limit.
func parseByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("size %q is too large", s)
	}
	return int64(n), nil
}

// cliLogger is the quiet logger for one-shot admin commands.
func cliLogger() *slog.Logger {
	level := slog.LevelWarn
	if devMode {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// withStore loads configuration, opens the store and runs fn against it.
func withStore(fn func(cfg *config.YAMLConfig, store *config.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

func readAllTrimmed(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// versionString returns a display version string.
func versionString() string {
	if appVersion == "" || appVersion == "dev" {
		return "dev"
	}
	if strings.HasPrefix(appVersion, "v") {
		return appVersion
	}
	return "v" + appVersion
}
