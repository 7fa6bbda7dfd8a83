// Package serve implements the HTTP server command.
package serve

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/propscope/propscope/internal/analysis"
	"github.com/propscope/propscope/internal/api"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/logging"
	"github.com/propscope/propscope/internal/observability"
	"github.com/propscope/propscope/internal/registry"
)

// Command creates a new command that runs the HTTP API server until
// interrupted.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long:  "Serve the JSON API for property lookup, sales search, comparable search, and tax benefits.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	if err := setupFlags(cmd, settings); err != nil {
		fmt.Printf("error setting up flags: %v\n", err)
		os.Exit(1)
	}

	return cmd
}

// setupFlags configures flags specific to the serve command.
func setupFlags(cmd *cobra.Command, settings *conf.Settings) error {
	cmd.Flags().StringVar(&settings.WebServer.Port, "port", viper.GetString("webserver.port"), "Port for the HTTP server")
	cmd.Flags().BoolVar(&settings.Telemetry.Enabled, "telemetry", viper.GetBool("telemetry.enabled"), "Enable Prometheus telemetry endpoint")
	cmd.Flags().StringVar(&settings.Telemetry.Listen, "listen", viper.GetString("telemetry.listen"), "Listen address and port of telemetry endpoint")

	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}

func runServer(settings *conf.Settings) error {
	log := logging.ForService("serve")

	registries, err := registry.NewRegistries(settings)
	if err != nil {
		return fmt.Errorf("failed to initialize registries: %w", err)
	}
	defer registries.Close()

	metrics, err := observability.NewMetrics()
	if err != nil {
		return fmt.Errorf("failed to initialize metrics: %w", err)
	}
	registries.Client().SetMetrics(metrics.Registry)

	core, err := analysis.New(registries, settings, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize analysis core: %w", err)
	}
	core.SetMetrics(metrics.Comps)

	if settings.Telemetry.Enabled {
		startTelemetryEndpoint(settings, metrics, log)
	}

	server, err := api.New(settings, core, api.WithMetrics(metrics))
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	return server.StartWithGracefulShutdown()
}

// startTelemetryEndpoint exposes /metrics on the telemetry listen address.
// The endpoint lives on its own listener so it can be firewalled apart
// from the public API.
func startTelemetryEndpoint(settings *conf.Settings, metrics *observability.Metrics, log *slog.Logger) {
	mux := http.NewServeMux()
	metrics.RegisterHandlers(mux)

	server := &http.Server{
		Addr:         settings.Telemetry.Listen,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Telemetry endpoint starting", "listen", settings.Telemetry.Listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Telemetry endpoint failed", "error", err)
		}
	}()
}
