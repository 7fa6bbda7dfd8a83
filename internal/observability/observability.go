// Package observability provides Prometheus metrics for monitoring the
// propscope application. Sentry-related error telemetry is handled in the
// telemetry package.
package observability

import (
	"fmt"
	"io"
	stdlog "log"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/observability/metrics"
)

// Package-level logger specific to the metrics service
var (
	serviceLogger   *slog.Logger
	serviceLevelVar = new(slog.LevelVar)
	closeLogger     func() error
)

func init() {
	var err error
	logFilePath := filepath.Join("logs", "metrics.log")
	serviceLevelVar.Set(slog.LevelInfo)

	serviceLogger, closeLogger, err = logging.NewFileLogger(logFilePath, "metrics", serviceLevelVar)
	if err != nil {
		stdlog.Printf("Failed to initialize metrics file logger at %s: %v. Service logging disabled.", logFilePath, err)
		fbHandler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: serviceLevelVar})
		serviceLogger = slog.New(fbHandler).With("service", "metrics")
		closeLogger = func() error { return nil }
	}
}

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	promRegistry *prometheus.Registry
	Registry     *metrics.RegistryMetrics
	Comps        *metrics.CompsMetrics
	HTTP         *metrics.HTTPMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
// It returns an error if any metric collector fails to initialize.
func NewMetrics() (*Metrics, error) {
	promRegistry := prometheus.NewRegistry()

	registryMetrics, err := metrics.NewRegistryMetrics(promRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to create registry metrics: %w", err)
	}

	compsMetrics, err := metrics.NewCompsMetrics(promRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to create comps metrics: %w", err)
	}

	httpMetrics, err := metrics.NewHTTPMetrics(promRegistry)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP metrics: %w", err)
	}

	return &Metrics{
		promRegistry: promRegistry,
		Registry:     registryMetrics,
		Comps:        compsMetrics,
		HTTP:         httpMetrics,
	}, nil
}

// RegisterHandlers registers the metrics endpoint with the provided http.ServeMux.
func (m *Metrics) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/metrics", m.metricsHandler)
}

// metricsHandler is the HTTP handler for the /metrics endpoint.
func (m *Metrics) metricsHandler(w http.ResponseWriter, r *http.Request) {
	h := promhttp.HandlerFor(m.promRegistry, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(serviceLogger.Handler(), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	h.ServeHTTP(w, r)
}

// Gather collects all metrics from the underlying registry. It is intended
// for tests and diagnostics that need to inspect metric state directly.
func (m *Metrics) Gather() ([]*dto.MetricFamily, error) {
	return m.promRegistry.Gather()
}
