package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/flowcharts"
	"github.com/aretw0/flowcharts/internal/config"
	"github.com/aretw0/flowcharts/internal/presentation/tui"
	httpAdapter "github.com/aretw0/flowcharts/pkg/adapters/http"
	"github.com/aretw0/flowcharts/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts the flowchart service, exposing a JSON API over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		mgr, closeBackend, reg, err := newManager(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer closeBackend()

		opts := []httpAdapter.HandlerOption{
			httpAdapter.WithLogger(logger),
			httpAdapter.WithCORSOrigins(cfg.CORS.AllowedOrigins...),
		}
		if reg != nil {
			opts = append(opts, httpAdapter.WithMetricsHandler(observability.Handler(reg)))
		}

		srv := &http.Server{
			Addr:              cfg.Addr,
			Handler:           httpAdapter.NewHandler(mgr, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("Starting flowchart server", "addr", srv.Addr, "store", cfg.Store.Backend, "version", flowcharts.Version)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "error", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("could not stop server: %w", err)
				}
			}
			logger.Info("Flowchart server stopped gracefully")
		}
		return nil
	},
}

// newManager opens the configured backend and wires it into a Manager.
// The returned registry is nil when metrics are disabled.
func newManager(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*flowcharts.Manager, func(), *prometheus.Registry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	closeBackend := func() {
		if err := backend.Close(); err != nil {
			logger.Warn("Failed to close store", "error", err)
		}
	}

	opts := []flowcharts.Option{
		flowcharts.WithStore(backend.Store),
		flowcharts.WithLogger(logger),
	}
	if backend.Locker != nil {
		opts = append(opts, flowcharts.WithLocker(backend.Locker), flowcharts.WithLockTTL(cfg.Lock.TTL))
	}

	var reg *prometheus.Registry
	if cfg.Metrics.Enabled {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, flowcharts.WithRecorder(observability.NewMetrics(reg)))
	}

	return flowcharts.New(opts...), closeBackend, reg, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().String("store", "", "Store backend: memory, redis, sql, file")
	serveCmd.Flags().Bool("metrics", true, "Expose Prometheus metrics on /metrics")
}
