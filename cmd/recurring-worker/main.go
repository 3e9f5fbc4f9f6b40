package main

import (
	"os"
	"time"

	"worklife/internal/cli"
	"worklife/internal/core"
	"worklife/internal/log"
	"worklife/internal/prefs"
	"worklife/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	p, err := prefs.Load(cfg.PrefsPath)
	if err != nil {
		logger.Error("Failed to load preferences", log.FieldError, err, "path", cfg.PrefsPath)
		os.Exit(1)
	}

	publisher, closePublisher := cli.InitPublisher(logger, cfg)
	defer closePublisher()

	processor := services.NewRecurringProcessor(repo, publisher)
	habits := services.NewHabitService(repo, p, publisher)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Recurring processor configured",
		"interval", cfg.RecurringInterval,
		"sqlite_db", cfg.SQLiteDBPath)

	tick := func(now time.Time) {
		posted, err := processor.ProcessDue(ctx, now)
		if err != nil {
			logger.Error("Recurring processing failed", log.FieldError, err)
		} else {
			logger.Info("Recurring processing complete",
				"transactions_created", posted,
				"next_check", now.Add(cfg.RecurringInterval).Format("15:04:05"))
		}

		broken, err := habits.SweepBrokenStreaks(ctx, core.DateOf(now))
		if err != nil {
			logger.Error("Streak sweep failed", log.FieldError, err)
		} else if broken > 0 {
			logger.Info("Broken streaks reset", "habits", broken)
		}
	}

	tick(time.Now())

	ticker := time.NewTicker(cfg.RecurringInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("Recurring-worker shutdown complete")
			return
		case now := <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			tick(now)
		}
	}
}

