package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"worklife/internal/core"
	"worklife/internal/sheets"
	"worklife/internal/storage"
)

// ExportProcessorConfig holds configuration for the export processor
type ExportProcessorConfig struct {
	// PollInterval is how often pending rows are swept (default: 30s)
	PollInterval time.Duration

	// BatchSize is the max number of rows exported per sweep (default: 20)
	BatchSize int

	// MaxRetries is the number of failed attempts before a row is parked in
	// the error status (default: 3)
	MaxRetries int
}

// DefaultExportProcessorConfig returns sensible defaults
func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		PollInterval: 30 * time.Second,
		BatchSize:    20,
		MaxRetries:   3,
	}
}

// SyncOutcome is what SyncTransaction did with a row.
type SyncOutcome string

const (
	SyncExported  SyncOutcome = "exported"
	SyncRemoved   SyncOutcome = "removed"
	SyncUnchanged SyncOutcome = "unchanged"
)

// ExportProcessor mirrors ledger transactions into the spreadsheet. It is
// driven both by transaction events and by a periodic sweep, so a lost event
// only delays the export.
type ExportProcessor struct {
	storage  *storage.SQLiteRepository
	exporter sheets.TransactionExporter
	config   ExportProcessorConfig

	// serializes work on a single row between events and the sweep
	rowMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(
	storage *storage.SQLiteRepository,
	exporter sheets.TransactionExporter,
	config ExportProcessorConfig,
) *ExportProcessor {
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultExportProcessorConfig().BatchSize
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultExportProcessorConfig().MaxRetries
	}
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultExportProcessorConfig().PollInterval
	}
	return &ExportProcessor{
		storage:  storage,
		exporter: exporter,
		config:   config,
	}
}

// Start begins the sweep loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started",
		"poll_interval", p.config.PollInterval,
		"batch_size", p.config.BatchSize,
		"max_retries", p.config.MaxRetries)
	return nil
}

// Stop signals the loop and waits for the current sweep to finish.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
	return nil
}

func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *ExportProcessor) sweep(ctx context.Context) {
	if _, err := p.SweepPending(ctx); err != nil {
		slog.ErrorContext(ctx, "Export sweep failed", "error", err)
	}
}

// SweepPending exports one batch of pending rows and removes the copies of
// deleted ones. It returns how many rows changed.
func (p *ExportProcessor) SweepPending(ctx context.Context) (int, error) {
	records, err := p.storage.PendingExports(ctx, p.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("load pending exports: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}
	slog.DebugContext(ctx, "Processing export batch", "count", len(records))

	changed := 0
	for _, rec := range records {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		outcome, err := p.SyncTransaction(ctx, rec.Transaction.ID)
		if err != nil {
			continue
		}
		if outcome != SyncUnchanged {
			changed++
		}
	}
	return changed, nil
}

// SyncTransaction brings the spreadsheet copy of one transaction up to date:
// a live row without a copy is exported, a deleted row with a copy has it
// cleared. A failure is counted against the row before it is returned.
func (p *ExportProcessor) SyncTransaction(ctx context.Context, id int64) (SyncOutcome, error) {
	if p.storage == nil || p.exporter == nil {
		return SyncUnchanged, fmt.Errorf("processor not properly initialized")
	}
	p.rowMu.Lock()
	defer p.rowMu.Unlock()

	rec, err := p.storage.GetExportRecord(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.WarnContext(ctx, "Transaction to export not found", "id", id)
			return SyncUnchanged, nil
		}
		return SyncUnchanged, err
	}

	switch {
	case rec.Deleted && rec.Status == storage.ExportDone:
		if err := p.exporter.Remove(ctx, rec.Ref); err != nil {
			return SyncUnchanged, p.handleFailure(ctx, rec, fmt.Errorf("remove exported row: %w", err))
		}
		if err := p.storage.MarkExportRemoved(ctx, id); err != nil {
			return SyncUnchanged, err
		}
		slog.InfoContext(ctx, "Removed exported transaction", "id", id, "ref", rec.Ref)
		return SyncRemoved, nil

	case rec.Deleted:
		if rec.Status == storage.ExportRemoved {
			return SyncUnchanged, nil
		}
		// never reached the sheet, nothing to clear
		if err := p.storage.MarkExportRemoved(ctx, id); err != nil {
			return SyncUnchanged, err
		}
		return SyncUnchanged, nil

	case rec.Status == storage.ExportDone:
		return SyncUnchanged, nil
	}

	ref, err := p.exporter.Export(ctx, rec.Transaction)
	if err != nil {
		return SyncUnchanged, p.handleFailure(ctx, rec, fmt.Errorf("export row: %w", err))
	}
	if err := p.storage.MarkExported(ctx, id, ref); err != nil {
		return SyncUnchanged, err
	}
	slog.InfoContext(ctx, "Exported transaction",
		"id", id,
		"kind", rec.Transaction.Kind,
		"ref", ref)
	return SyncExported, nil
}

func (p *ExportProcessor) handleFailure(ctx context.Context, rec storage.ExportRecord, cause error) error {
	attempt := rec.Attempts + 1
	slog.WarnContext(ctx, "Export attempt failed",
		"id", rec.Transaction.ID,
		"attempt", attempt,
		"error", cause)

	if err := p.storage.RecordExportFailure(ctx, rec.Transaction.ID, p.config.MaxRetries); err != nil {
		slog.ErrorContext(ctx, "Failed to record export failure",
			"id", rec.Transaction.ID, "error", err)
	}
	if attempt >= p.config.MaxRetries {
		slog.ErrorContext(ctx, "Export failed permanently after max retries",
			"id", rec.Transaction.ID,
			"attempts", attempt)
	}
	return cause
}

// Stats returns how many transactions sit in each export status.
func (p *ExportProcessor) Stats(ctx context.Context) (map[storage.ExportStatus]int64, error) {
	return p.storage.ExportStats(ctx)
}

// RetryFailed puts every parked row back in the sweep.
func (p *ExportProcessor) RetryFailed(ctx context.Context) (int64, error) {
	return p.storage.RetryFailedExports(ctx)
}
