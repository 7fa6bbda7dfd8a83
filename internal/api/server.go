package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/propscope/propscope/internal/analysis"
	mw "github.com/propscope/propscope/internal/api/middleware"
	v1 "github.com/propscope/propscope/internal/api/v1"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/observability"
)

// Server is the main HTTP server for propscope. It manages the Echo
// framework instance, middleware, and all HTTP routes.
type Server struct {
	// Core components
	echo     *echo.Echo
	config   *Config
	settings *conf.Settings
	logger   *slog.Logger
	levelVar *slog.LevelVar

	// Dependencies
	core    *analysis.Core
	metrics *observability.Metrics

	// API controller
	apiController *v1.Controller

	// Lifecycle management
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startTime time.Time

	// Cleanup
	logCloser func() error

	// Logger injected via WithLogger, passed through to the controller
	// so tests do not write log files.
	baseLogger *slog.Logger
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the structured logger for the server. When set, the
// server and controller log here instead of opening log files.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.baseLogger = logger
	}
}

// WithMetrics sets the observability metrics for the server. Request
// counts, durations, and response sizes are recorded when present.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// New creates a new HTTP server with the given settings and options.
func New(settings *conf.Settings, core *analysis.Core, opts ...ServerOption) (*Server, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings are required")
	}
	if core == nil {
		return nil, fmt.Errorf("analysis core is required")
	}

	config := ConfigFromSettings(settings)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		config:    config,
		settings:  settings,
		core:      core,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.initLogger()

	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Server.ReadTimeout = config.ReadTimeout
	s.echo.Server.WriteTimeout = config.WriteTimeout
	s.echo.Server.IdleTimeout = config.IdleTimeout

	s.setupMiddleware()

	if err := s.setupRoutes(); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup routes: %w", err)
	}

	s.logger.Info("HTTP server initialized",
		"address", config.Address(),
		"debug", config.Debug,
	)

	return s, nil
}

// initLogger initializes the structured logger for the server.
func (s *Server) initLogger() {
	s.levelVar = new(slog.LevelVar)
	s.levelVar.Set(s.config.LogLevel)

	if s.baseLogger != nil {
		s.logger = s.baseLogger.With("service", "server")
		s.logCloser = func() error { return nil }
		return
	}

	logger, closer, err := logging.NewFileLogger(DefaultLogPath, "server", s.levelVar)
	if err != nil {
		// Fall back to a disabled logger rather than refusing to start.
		handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: s.levelVar})
		s.logger = slog.New(handler).With("service", "server")
		s.logCloser = func() error { return nil }
		return
	}

	s.logger = logger
	s.logCloser = closer
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// Recovery middleware comes first
	s.echo.Use(echomw.Recover())

	// Tag every request with an ID before anything logs it
	s.echo.Use(mw.NewRequestID())

	// Request logging
	s.echo.Use(mw.NewRequestLogger(s.logger))

	securityConfig := mw.SecurityConfig{
		AllowedOrigins: s.config.AllowedOrigins,
		HSTSMaxAge:     mw.HSTSMaxAge,
	}

	// CORS middleware
	s.echo.Use(mw.NewCORS(securityConfig))

	// Body limit middleware
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))

	// Gzip compression
	s.echo.Use(mw.NewGzip())

	// Secure headers
	s.echo.Use(mw.NewSecureHeaders(securityConfig))

	// Request metrics
	if s.metrics != nil && s.metrics.HTTP != nil {
		s.echo.Use(mw.NewHTTPMetrics(s.metrics.HTTP))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() error {
	// Health check endpoint at root level
	s.echo.GET("/health", s.healthCheck)

	apiController, err := v1.New(s.echo, s.core, s.settings, s.baseLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize API v1: %w", err)
	}
	s.apiController = apiController

	s.logger.Info("Routes initialized", "api_version", "v1")

	return nil
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)

	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"version":        s.settings.Version,
		"build_date":     s.settings.BuildDate,
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Start begins serving HTTP requests in a background goroutine. This
// returns immediately; use Shutdown to stop the server.
func (s *Server) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.startBlocking(); err != nil {
			s.logger.Error("Server error", "error", err)
		}
	}()

	s.logger.Info("HTTP server starting", "address", s.config.Address())
}

// startBlocking begins serving HTTP requests and blocks until the server
// is shut down.
func (s *Server) startBlocking() error {
	if err := s.echo.Start(s.config.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartWithGracefulShutdown starts the server and blocks until SIGINT or
// SIGTERM arrives, then shuts down gracefully.
func (s *Server) StartWithGracefulShutdown() error {
	s.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	s.logger.Info("Shutdown signal received, initiating graceful shutdown")

	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if s.apiController != nil {
		s.apiController.Shutdown()
	}

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("Error during server shutdown", "error", err)
		return fmt.Errorf("shutdown error: %w", err)
	}

	s.wg.Wait()

	if s.logCloser != nil {
		if err := s.logCloser(); err != nil {
			return fmt.Errorf("failed to close server log: %w", err)
		}
	}

	s.logger.Info("Server shutdown complete")
	return nil
}

// APIController returns the mounted v1 controller.
func (s *Server) APIController() *v1.Controller {
	return s.apiController
}

// Echo returns the underlying Echo instance. This is useful for testing
// or advanced configuration.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// SetLogLevel dynamically changes the logging level.
func (s *Server) SetLogLevel(level slog.Level) {
	if s.levelVar != nil {
		s.levelVar.Set(level)
		s.logger.Info("Log level changed", "level", level.String())
	}
}
