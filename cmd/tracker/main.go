package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/krissolling/delli-data/internal/api"
	"github.com/krissolling/delli-data/internal/config"
	"github.com/krissolling/delli-data/internal/report"
	"github.com/krissolling/delli-data/internal/store"
	"github.com/krissolling/delli-data/internal/tracker"
	"github.com/krissolling/delli-data/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/tracker.yaml", "path to config file")
	daemon := flag.Bool("daemon", false, "run continuously on the configured interval")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("starting tracker",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"base_url", cfg.API.BaseURL,
		"store_backend", cfg.Store.Backend,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Open the store
	st, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	// Create API client
	clientOpts := []api.ClientOption{
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
		api.WithPageSize(cfg.API.PageSize),
		api.WithPageDelay(cfg.API.PageDelay),
	}
	if cfg.API.UserAgent != "" {
		clientOpts = append(clientOpts, api.WithUserAgent(cfg.API.UserAgent))
	}
	client := api.NewClient(cfg.API.BaseURL, clientOpts...)

	trackerCfg := tracker.Config{
		Interval: cfg.Schedule.Interval,
	}
	tr := tracker.New(trackerCfg, client, st, logger)

	if !*daemon {
		runOnce(ctx, tr, cfg, logger)
		return
	}

	runDaemon(ctx, tr, st, cfg, logger)
}

// runOnce executes a single tracking run and reports the result.
func runOnce(ctx context.Context, tr *tracker.Tracker, cfg *config.TrackerConfig, logger *slog.Logger) {
	result, err := tr.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, tracker.ErrEmptyCatalog) {
			logger.Error("no products fetched, exiting without changes")
		} else {
			logger.Error("run failed", "error", err)
		}
		os.Exit(1)
	}

	report.WriteConsole(os.Stdout, result.Changes, cfg.Report.ShowLimit)

	if err := report.WriteStepSummary(result.Changes, cfg.API.BaseURL); err != nil {
		logger.Warn("failed to write step summary", "error", err)
	}
}

// runDaemon starts the interval loop and a health server, then waits
// for shutdown.
func runDaemon(ctx context.Context, tr *tracker.Tracker, st store.Store, cfg *config.TrackerConfig, logger *slog.Logger) {
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(tr, st),
	}

	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	if err := tr.Start(ctx); err != nil {
		logger.Error("failed to start tracker", "error", err)
		os.Exit(1)
	}

	logger.Info("tracker running",
		"instance_id", cfg.Instance.ID,
		"interval", cfg.Schedule.Interval,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	healthServer.Shutdown(shutdownCtx)
	if err := tr.Stop(shutdownCtx); err != nil {
		logger.Error("tracker stop error", "error", err)
	}

	logger.Info("tracker stopped")
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(tr *tracker.Tracker, st store.Store) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status  string         `json:"status"`
			Store   any            `json:"store"`
			LastRun map[string]any `json:"last_run,omitempty"`
			Error   string         `json:"error,omitempty"`
		}{
			Status: "healthy",
		}

		// Check store
		if err := st.Ping(ctx); err != nil {
			health.Status = "unhealthy"
			health.Store = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Store = "connected"
		}

		last, lastErr := tr.LastRun()
		if last != nil {
			health.LastRun = map[string]any{
				"run_id":     last.RunID.String(),
				"fetched_at": time.UnixMicro(last.FetchedAt).UTC().Format(time.RFC3339),
				"products":   last.ProductCount,
				"changes":    len(last.Changes),
			}
		}
		if lastErr != nil && health.Status == "healthy" {
			health.Status = "degraded"
			health.Error = lastErr.Error()
		}
		if last == nil && lastErr == nil && health.Status == "healthy" {
			health.Status = "starting"
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	return mux
}
