package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hackfolio/hackfolio/internal/config"
	"github.com/hackfolio/hackfolio/internal/handler"
	"github.com/hackfolio/hackfolio/internal/server/middleware"
	"github.com/hackfolio/hackfolio/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	BaseURL         string // public origin for sitemap and OpenAPI; "" derives it per request
	Version         string
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	RateLimitPerMin int   // coarse per-IP limit on /api/admin; 0 disables
	MaxBodySize     int64 // bytes
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"*"},
		RateLimitPerMin: 60,
		MaxBodySize:     1 << 20, // 1MB
	}
}

// Server is the top-level HTTP server for hackfolio. It owns the Chi router
// and the handlers built over the store and the auth service.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *config.Store
	authSvc    *service.AuthService
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. Call ListenAndServe to start accepting connections.
func New(cfg Config, store *config.Store, authSvc *service.AuthService, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		store:   store,
		authSvc: authSvc,
		logger:  logger,
	}
	s.setupRouter()
	return s
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	if s.cfg.MaxBodySize > 0 {
		r.Use(chimw.RequestSize(s.cfg.MaxBodySize))
	}
	r.Use(chimw.Compress(5))

	// --- Health checks (no auth required) ---
	r.Get("/healthz", s.handleHealthz)
	r.Get("/readyz", s.handleReadyz)

	r.Get("/openapi.json", handler.NewOpenAPIHandler(s.cfg.BaseURL, s.cfg.Version).ServeSpec)
	r.Get("/sitemap.xml", handler.NewSitemapHandler(s.store, s.cfg.BaseURL, s.logger).ServeSitemap)

	authHandler := handler.NewAuthHandler(s.authSvc, s.logger)
	contentHandler := handler.NewContentHandler(s.store, s.authSvc.Audit(), s.logger)
	auditHandler := handler.NewAuditHandler(s.authSvc.Audit(), s.logger)
	requireAdmin := middleware.RequireAdminSession(s.authSvc.Sessions())

	throttle := func(next http.Handler) http.Handler { return next }
	if s.cfg.RateLimitPerMin > 0 {
		throttle = middleware.Throttle(s.cfg.RateLimitPerMin)
	}

	r.Route("/api/admin", func(r chi.Router) {
		// Session lifecycle. Login carries its own persisted lockout; the
		// session check always answers.
		r.With(throttle).Post("/auth", authHandler.Login)
		r.Get("/auth", authHandler.Session)
		r.Delete("/auth", authHandler.Logout)

		// First-admin bootstrap, gated by the setup key.
		r.With(throttle).Post("/setup", authHandler.Setup)
		r.Get("/setup", authHandler.SetupStatus)

		// Public catalog reads
		r.Get("/thm-rooms", contentHandler.ListRooms)
		r.Get("/htb-machines", contentHandler.ListMachines)
		r.Get("/htb-stats", contentHandler.GetHTBStats)
		r.Get("/thm-stats", contentHandler.GetTHMStats)

		// Paths the first client release used.
		r.Get("/thm-rooms-d1", contentHandler.ListRooms)
		r.Get("/htb-stats-d1", contentHandler.GetHTBStats)
		r.Get("/thm-stats-d1", contentHandler.GetTHMStats)

		// Everything that mutates state or reveals the audit trail needs
		// a live admin session.
		r.Group(func(r chi.Router) {
			r.Use(throttle)
			r.Use(requireAdmin)

			r.Post("/thm-rooms", contentHandler.CreateRoom)
			r.Put("/thm-rooms", contentHandler.UpdateRoom)
			r.Delete("/thm-rooms", contentHandler.DeleteRoom)
			r.Post("/thm-rooms-d1", contentHandler.CreateRoom)
			r.Put("/thm-rooms-d1", contentHandler.UpdateRoom)
			r.Delete("/thm-rooms-d1", contentHandler.DeleteRoom)

			r.Post("/htb-machines", contentHandler.CreateMachine)
			r.Put("/htb-machines", contentHandler.UpdateMachine)
			r.Delete("/htb-machines", contentHandler.DeleteMachine)

			r.Post("/htb-stats", contentHandler.SaveHTBStats)
			r.Post("/thm-stats", contentHandler.SaveTHMStats)
			r.Post("/htb-stats-d1", contentHandler.SaveHTBStats)
			r.Post("/thm-stats-d1", contentHandler.SaveTHMStats)

			r.Get("/logs", auditHandler.ListLogs)
		})
	})

	s.router = r
}

// handleHealthz is a liveness probe. Returns 200 if the process is running.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// handleReadyz is a readiness probe. Returns 200 when the store answers a
// ping, 503 otherwise.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	httpStatus := http.StatusOK
	database := "ok"

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Warn("readiness check failed", "error", err)
		database = "unavailable"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": map[string]string{
			"database": database,
		},
	})
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests. The store is left open for the caller to close.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
