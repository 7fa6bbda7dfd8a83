// Package api implements the versioned JSON API. The Controller binds the
// four analysis operations to /api/v1 routes, translates analysis errors
// into HTTP status codes by category, and tags every error response with a
// correlation ID for log lookup.
package api

import (
	"crypto/rand"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/propscope/propscope/internal/analysis"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/errors"
	"github.com/propscope/propscope/internal/logging"
)

// logPath is where the controller writes its request-scoped log when no
// logger is injected.
const logPath = "logs/web.log"

// Controller manages the API routes and handlers.
type Controller struct {
	Echo     *echo.Echo
	Group    *echo.Group
	Core     *analysis.Core
	Settings *conf.Settings

	logger    *slog.Logger
	levelVar  *slog.LevelVar
	logCloser func() error
	startTime time.Time
}

// New creates the API controller and registers all routes under /api/v1.
// A nil logger falls back to a file logger at logs/web.log.
func New(e *echo.Echo, core *analysis.Core, settings *conf.Settings, logger *slog.Logger) (*Controller, error) {
	if e == nil {
		return nil, errors.Newf("api: echo instance is required").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if core == nil {
		return nil, errors.Newf("api: analysis core is required").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}
	if settings == nil {
		return nil, errors.Newf("api: settings are required").
			Component("api").
			Category(errors.CategoryValidation).
			Build()
	}

	c := &Controller{
		Echo:      e,
		Core:      core,
		Settings:  settings,
		startTime: time.Now(),
	}

	c.levelVar = new(slog.LevelVar)
	if settings.WebServer.Debug {
		c.levelVar.Set(slog.LevelDebug)
	}

	switch {
	case logger != nil:
		c.logger = logger.With("service", "api")
		c.logCloser = func() error { return nil }
	default:
		fileLogger, closer, err := logging.NewFileLogger(logPath, "api", c.levelVar)
		if err != nil {
			// Fall back to a disabled logger rather than refusing to serve.
			handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: c.levelVar})
			c.logger = slog.New(handler).With("service", "api")
			c.logCloser = func() error { return nil }
		} else {
			c.logger = fileLogger
			c.logCloser = closer
		}
	}

	c.Group = e.Group("/api/v1")
	c.initRoutes()

	return c, nil
}

// initRoutes registers all API endpoints.
func (c *Controller) initRoutes() {
	c.Group.GET("/health", c.HealthCheck)

	routeInitializers := []struct {
		name string
		fn   func()
	}{
		{"property routes", c.initPropertyRoutes},
		{"comparables routes", c.initComparablesRoutes},
		{"sales routes", c.initSalesRoutes},
		{"tax benefit routes", c.initBenefitRoutes},
	}

	for _, initializer := range routeInitializers {
		initializer.fn()
		c.logger.Debug("Initialized route group", "group", initializer.name)
	}
}

// HealthCheck handles the API health check endpoint.
func (c *Controller) HealthCheck(ctx echo.Context) error {
	uptime := time.Since(c.startTime)

	response := map[string]any{
		"status":         "healthy",
		"version":        c.Settings.Version,
		"build_date":     c.Settings.BuildDate,
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	}

	if c.Settings.WebServer.Debug {
		response["environment"] = "development"
	} else {
		response["environment"] = "production"
	}

	return ctx.JSON(http.StatusOK, response)
}

// Shutdown releases controller resources. Safe to call once after the
// server stops accepting requests.
func (c *Controller) Shutdown() {
	if c.logCloser != nil {
		if err := c.logCloser(); err != nil {
			c.logger.Error("Failed to close API log file", "error", err)
		}
	}
}

// ErrorResponse is the JSON body returned for every failed request.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	Code          int    `json:"code"`
	CorrelationID string `json:"correlation_id"` // Unique identifier for tracking this error
}

// NewErrorResponse creates a new API error response.
func NewErrorResponse(err error, message string, code int) *ErrorResponse {
	var errorStr string
	if err != nil {
		errorStr = err.Error()
	} else {
		errorStr = message
	}

	return &ErrorResponse{
		Error:         errorStr,
		Message:       message,
		Code:          code,
		CorrelationID: generateCorrelationID(),
	}
}

// generateCorrelationID creates a unique identifier for error tracking using
// cryptographic randomness for uniqueness guarantees across all platforms.
func generateCorrelationID() string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 8

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		// Fall back to a fixed ID if crypto/rand fails
		return "ERR-RAND"
	}

	for i := range b {
		b[i] = charset[int(b[i])%len(charset)]
	}
	return string(b)
}

// HandleError constructs and returns an error response with an explicit
// status code.
func (c *Controller) HandleError(ctx echo.Context, err error, message string, code int) error {
	errorResp := NewErrorResponse(err, message, code)

	c.logger.Error("API Error",
		"correlation_id", errorResp.CorrelationID,
		"message", message,
		"error", errorResp.Error,
		"code", code,
		"path", ctx.Request().URL.Path,
		"method", ctx.Request().Method,
		"ip", ctx.RealIP(),
	)

	return ctx.JSON(code, errorResp)
}

// OperationError renders an analysis error with a status derived from its
// category, so callers can tell bad input (400), unknown subjects (404),
// and registry trouble (502) apart without parsing messages.
func (c *Controller) OperationError(ctx echo.Context, err error, message string) error {
	return c.HandleError(ctx, err, message, statusFromError(err))
}

// statusFromError maps error categories to HTTP status codes. Unrecognized
// errors are treated as internal.
func statusFromError(err error) int {
	switch {
	case errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryNotFound):
		return http.StatusNotFound
	case errors.IsCategory(err, errors.CategoryNetwork),
		errors.IsCategory(err, errors.CategoryRegistryQuery),
		errors.IsCategory(err, errors.CategoryHTTP),
		errors.IsCategory(err, errors.CategoryTimeout):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
