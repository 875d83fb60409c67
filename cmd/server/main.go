package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pscheid92/scopeconf/internal/adapter/httpserver"
	"github.com/pscheid92/scopeconf/internal/adapter/metrics"
	"github.com/pscheid92/scopeconf/internal/bootstrap"
	"github.com/pscheid92/scopeconf/internal/platform/config"
	"github.com/pscheid92/scopeconf/internal/platform/logging"
	"github.com/pscheid92/scopeconf/internal/platform/version"
)

const (
	startupTimeout  = 60 * time.Second
	shutdownTimeout = 10 * time.Second
)

func runGracefulShutdown(srv *httpserver.Server, stopWorkers context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		stopWorkers()
		close(done)
	}()

	return done
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func main() {
	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().Version)

	registry := metrics.NewRegistry()

	startCtx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	a, err := bootstrap.Build(startCtx, cfg, bootstrap.Options{Migrate: true, Registry: registry})
	cancel()
	if err != nil {
		slog.Error("Failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	workersCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	a.Start(workersCtx)

	srv := httpserver.NewServer(cfg, a.Service,
		httpserver.WithMetrics(metrics.NewHTTPMetrics(registry), metrics.Handler(registry)),
		httpserver.WithHealthChecks(a.HealthChecks...),
	)

	done := runGracefulShutdown(srv, stopWorkers)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
