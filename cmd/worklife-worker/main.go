package main

import (
	"context"
	"os"

	"worklife/internal/amqp"
	"worklife/internal/cli"
	"worklife/internal/config"
	"worklife/internal/log"
	"worklife/internal/services"
	ports "worklife/internal/sheets"
	gsheet "worklife/internal/sheets/google"
	"worklife/internal/sheets/memory"
	"worklife/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting worklife-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, stop := cli.SignalContext()
	defer stop()

	exporter, err := newExporter(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize exporter", log.FieldError, err, "backend", cfg.ExportBackend)
		os.Exit(1)
	}
	logger.Info("Exporter initialized", "backend", cfg.ExportBackend)

	processor := services.NewExportProcessor(repo, exporter, services.ExportProcessorConfig{
		BatchSize:    cfg.ExportBatchSize,
		PollInterval: cfg.ExportPollInterval,
		MaxRetries:   cfg.ExportMaxRetries,
	})

	// Without a broker the worker still sweeps pending rows on a timer.
	var consumer worker.EventConsumer
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		consumer = client
	} else {
		logger.Info("AMQP disabled, relying on periodic sweeps", "interval", cfg.ExportPollInterval)
	}

	if err := worker.NewExportWorker(processor).Run(ctx, consumer); err != nil {
		logger.Error("Export worker stopped", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worklife-worker shutdown complete")
}

func newExporter(ctx context.Context, cfg *config.Config) (ports.TransactionExporter, error) {
	if cfg.ExportBackend == config.ExportSheets {
		return gsheet.NewFromEnv(ctx)
	}
	return memory.New(), nil
}
