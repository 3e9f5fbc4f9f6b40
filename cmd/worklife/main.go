package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"worklife/internal/cli"
	"worklife/internal/config"
	apphttp "worklife/internal/http"
	"worklife/internal/log"
	"worklife/internal/prefs"
	"worklife/internal/services"
	"worklife/internal/sheets/memory"
	"worklife/internal/storage"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	logger.Info("Starting worklife")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	publisher, closePublisher := cli.InitPublisher(logger, cfg)
	defer closePublisher()

	ctx, stop := cli.SignalContext()
	defer stop()

	srv, watcher, err := newServer(ctx, cfg, repo, publisher, logger)
	if err != nil {
		logger.Error("Failed to create server", log.FieldError, err)
		os.Exit(1)
	}
	defer watcher.Stop()

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	}()

	logger.Info("HTTP server listening", "addr", srv.Addr, "prefs", cfg.PrefsPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// newServer wires the services and the API server. The preferences watcher
// starts only once the server exists, as its reload hook calls into it.
func newServer(ctx context.Context, cfg *config.Config, repo *storage.SQLiteRepository, publisher services.EventPublisher, logger *log.Logger) (*apphttp.Server, *prefs.Watcher, error) {
	var srv *apphttp.Server
	watcher, err := prefs.NewWatcher(cfg.PrefsPath, func(*prefs.Preferences) {
		srv.InvalidateSummaries()
	})
	if err != nil {
		return nil, nil, fmt.Errorf("load preferences %s: %w", cfg.PrefsPath, err)
	}

	habits := services.NewHabitService(repo, watcher, publisher)
	svc := apphttp.Services{
		Work:   services.NewWorkService(repo, watcher),
		Habits: habits,
		Focus:  services.NewFocusService(repo, habits),
		Ledger: services.NewLedgerService(repo, publisher),
		Loans:  services.NewLoanService(repo, publisher),
	}
	// Stats and retries only touch the database; rows are exported by
	// worklife-worker.
	svc.Exports = services.NewExportProcessor(repo, memory.New(), services.ExportProcessorConfig{
		BatchSize:    cfg.ExportBatchSize,
		PollInterval: cfg.ExportPollInterval,
		MaxRetries:   cfg.ExportMaxRetries,
	})

	srv, err = apphttp.NewServer(":"+cfg.Port, svc, repo, apphttp.Config{
		RequestsPerMinute: cfg.RequestsPerMinute,
		CacheTTL:          cfg.CacheTTL,
		TrustedProxies:    cfg.TrustedProxies,
		Logger:            logger.WithComponent(log.ComponentHTTP),
	})
	if err != nil {
		watcher.Stop()
		return nil, nil, err
	}

	if err := watcher.Start(ctx); err != nil {
		logger.Warn("Preferences will not reload on change", log.FieldError, err)
	}
	return srv, watcher, nil
}
