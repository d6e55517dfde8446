package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hackfolio/hackfolio/internal/server"
)

const banner = `
 _                _      __       _ _
| |__   __ _  ___| | __ / _| ___ | (_) ___
| '_ \ / _' |/ __| |/ /| |_ / _ \| | |/ _ \
| | | | (_| | (__|   < |  _| (_) | | | (_) |
|_| |_|\__,_|\___|_|\_\|_|  \___/|_|_|\___/
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hackfolio API server",
		Long:  "Start the HTTP server for the catalog, stats, sitemap and admin API.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, logCloser, err := newLogger(cfg.Log, devMode)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	maxBody, err := parseByteSize(cfg.Server.MaxBodySize)
	if err != nil {
		return fmt.Errorf("server.max_body_size: %w", err)
	}
	shutdown, err := parseDuration(cfg.Server.ShutdownTimeout, 30*time.Second)
	if err != nil {
		return fmt.Errorf("server.shutdown_timeout: %w", err)
	}

	fmt.Print(banner)
	fmt.Println()

	// 1. Open the store and migrate
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer store.Close()
	logger.Info("store initialized", "driver", store.Driver(), "data_dir", cfg.DataDir)

	// 2. Auth service
	authSvc, err := newAuthService(cfg, store, logger)
	if err != nil {
		return err
	}
	if !isProduction(cfg) {
		logger.Warn("session cookies are not marked Secure outside production", "environment", cfg.Environment)
	}

	// 3. First-run hints
	ctx := context.Background()
	status, err := authSvc.SetupStatus(ctx)
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	} else if !status.HasAdminUser {
		if cfg.Admin.SetupKey == "" {
			logger.Warn("no admin account and no setup key - run: hackfolio admin create")
		} else {
			logger.Warn("no admin account found - POST /api/admin/setup with the setup key or run: hackfolio admin create")
		}
	}
	if n, err := authSvc.Sessions().Purge(ctx); err != nil {
		logger.Warn("failed to purge expired sessions", "error", err)
	} else if n > 0 {
		logger.Info("purged expired sessions", "count", n)
	}

	// 4. Build and start the HTTP server
	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		BaseURL:         cfg.Server.BaseURL,
		Version:         versionString(),
		ShutdownTimeout: shutdown,
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitPerMin: cfg.Server.RateLimitPerMin,
		MaxBodySize:     maxBody,
	}
	srv := server.New(srvCfg, store, authSvc, logger)

	display := cfg.Server.Host
	if display == "0.0.0.0" || display == "" {
		display = "localhost"
	}
	fmt.Printf("→ hackfolio %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", display, cfg.Server.Port)
	fmt.Printf("→ Admin API:  http://%s:%d/api/admin\n", display, cfg.Server.Port)
	fmt.Printf("→ OpenAPI:    http://%s:%d/openapi.json\n", display, cfg.Server.Port)
	fmt.Printf("→ Health:     http://%s:%d/healthz\n", display, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
