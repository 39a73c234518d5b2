package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"registro/internal/backend"
	"registro/internal/config"
	apphttp "registro/internal/http"
	applog "registro/internal/log"
	"registro/internal/services"
	"registro/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := config.Load()

	level, _ := config.ParseLogLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{Level: level, Component: "registro"})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	gw, cleanup := openGateway(cfg, logger)
	if cleanup != nil {
		defer func() {
			if err := cleanup(); err != nil {
				logger.Error("Gateway cleanup failed", "error", err)
			}
		}()
	}

	svc := services.NewLedgerService(gw, logger)
	if err := svc.Open(context.Background()); err != nil {
		logger.Error("Failed to open ledger", "error", err)
		os.Exit(1)
	}

	srv := apphttp.NewServer(":"+cfg.Port, svc, cfg.RecentLimit, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting registro server", "port", cfg.Port, "backend", cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// openGateway builds the configured storage gateway. A backend that fails to
// initialize degrades to the in-memory gateway with a single warning, so the
// ledger stays usable for the session.
func openGateway(cfg *config.Config, logger *applog.Logger) (storage.Gateway, func() error) {
	factory := backend.NewFactory(logger.Logger)
	res, err := factory.CreateGateway(backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		SQLiteDBPath: cfg.SQLiteDBPath,
		SnapshotPath: cfg.SnapshotPath,
		Passphrase:   cfg.SnapshotPassphrase,
	})
	if err != nil {
		logger.Warn("Storage backend unavailable, continuing in-memory only",
			"backend", cfg.DataBackend, "error", err)
		return storage.NewMemoryGateway(), nil
	}
	return res.Gateway, res.Cleanup
}
