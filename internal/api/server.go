package api

import (
	"context"
	"fmt"
	"time"

	"github.com/amaumene/reelwatch/internal/api/handlers"
	"github.com/amaumene/reelwatch/internal/api/middleware"
	"github.com/amaumene/reelwatch/internal/config"
	"github.com/amaumene/reelwatch/internal/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
)

// Server represents the HTTP server
type Server struct {
	app    *fiber.App
	addr   string
	logger zerolog.Logger
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	updates *handlers.UpdatesHandler,
	monitoring *handlers.MonitoringHandler,
	accounts *handlers.AccountsHandler,
	runtimeInfo *handlers.RuntimeHandler,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Server {
	s := &Server{
		addr:   ":" + cfg.ServerPort,
		logger: logger.With().Str("component", "http").Logger(),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "reelwatch",
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          15 * time.Second,
		IdleTimeout:           60 * time.Second,
		DisableStartupMessage: true,
		ErrorHandler:          handlers.ErrorHandler,
	})
	s.app.Use(requestid.New())
	s.app.Use(recover.New())
	s.app.Use(middleware.Logging(s.logger))

	s.setupRoutes(cfg, updates, monitoring, accounts, runtimeInfo, m)
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(
	cfg *config.Config,
	updates *handlers.UpdatesHandler,
	monitoring *handlers.MonitoringHandler,
	accounts *handlers.AccountsHandler,
	runtimeInfo *handlers.RuntimeHandler,
	m *metrics.Metrics,
) {
	s.app.Get("/health", handlers.NewHealthHandler().Get)
	s.app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	api := s.app.Group("/api")
	api.Get("/updates", updates.List)
	api.Get("/updates/:id", updates.Get)
	api.Get("/search", updates.Search)
	api.Get("/stats", updates.Stats)
	api.Get("/events", updates.Events)

	admin := basicauth.New(basicauth.Config{
		Users: map[string]string{cfg.AdminUsername: cfg.AdminPassword},
		Realm: "reelwatch",
	})
	api.Post("/start-monitoring", admin, monitoring.Start)
	api.Post("/stop-monitoring", admin, monitoring.Stop)
	api.Get("/monitoring/status", admin, monitoring.Status)
	api.Get("/accounts", admin, accounts.List)
	api.Post("/accounts", admin, accounts.Save)
	api.Post("/accounts/:id/toggle", admin, accounts.Toggle)
	api.Delete("/accounts/:id", admin, accounts.Delete)
	api.Get("/runtime", admin, runtimeInfo.Get)
}

// App returns the underlying fiber application
func (s *Server) App() *fiber.App {
	return s.app
}

// Start serves until ctx is cancelled or the listener fails
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info().Str("addr", s.addr).Msg("Starting HTTP server")

	errChan := make(chan error, 1)
	go func() {
		if err := s.app.Listen(s.addr); err != nil {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}
