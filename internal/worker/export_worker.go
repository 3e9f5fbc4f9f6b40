package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"worklife/internal/amqp"
	"worklife/internal/services"
)

// startupBatches bounds how many sweep batches run before the worker starts
// consuming.
const startupBatches = 5

// EventConsumer delivers bus events to a handler until ctx is done.
// *amqp.Client implements it.
type EventConsumer interface {
	Consume(ctx context.Context, handler func(context.Context, amqp.Event) error) error
}

// ExportWorker keeps the spreadsheet in step with the ledger. Transaction
// events are handled as they arrive; the processor's periodic sweep catches
// anything an event missed.
type ExportWorker struct {
	processor *services.ExportProcessor
}

func NewExportWorker(processor *services.ExportProcessor) *ExportWorker {
	return &ExportWorker{processor: processor}
}

// HandleEvent processes one bus event. Export failures are not returned:
// the row stays pending and the sweep retries it, so redelivering the
// message would only repeat the attempt.
func (w *ExportWorker) HandleEvent(ctx context.Context, e amqp.Event) error {
	switch e.Type {
	case amqp.TransactionCreated, amqp.TransactionDeleted:
		slog.InfoContext(ctx, "Processing transaction event",
			"event_id", e.ID,
			"type", e.Type,
			"transaction_id", e.EntityID)

		outcome, err := w.processor.SyncTransaction(ctx, e.EntityID)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			slog.ErrorContext(ctx, "Transaction export failed, left for the sweep",
				"transaction_id", e.EntityID,
				"error", err)
			return nil
		}
		slog.DebugContext(ctx, "Transaction event handled",
			"transaction_id", e.EntityID,
			"outcome", outcome)

	case amqp.HabitCompleted:
		slog.InfoContext(ctx, "Habit completed",
			"habit_id", e.EntityID,
			"outcome", e.Detail,
			"at", e.Timestamp)

	case amqp.AchievementUnlocked:
		slog.InfoContext(ctx, "Achievement unlocked",
			"habit_id", e.EntityID,
			"code", e.Detail,
			"at", e.Timestamp)

	default:
		slog.WarnContext(ctx, "Ignoring unknown event", "type", e.Type, "event_id", e.ID)
	}
	return nil
}

// StartupSync drains the pending rows left over from downtime before any
// new event is consumed.
func (w *ExportWorker) StartupSync(ctx context.Context) error {
	total := 0
	for i := 0; i < startupBatches; i++ {
		n, err := w.processor.SweepPending(ctx)
		if err != nil {
			return fmt.Errorf("startup sweep: %w", err)
		}
		if n == 0 {
			break
		}
		total += n
	}
	if total == 0 {
		slog.InfoContext(ctx, "No pending exports found on startup")
		return nil
	}
	slog.InfoContext(ctx, "Startup sync completed", "synced", total)
	return nil
}

// Run consumes events and sweeps periodically until ctx is cancelled or
// the consumer fails.
func (w *ExportWorker) Run(ctx context.Context, consumer EventConsumer) error {
	if err := w.StartupSync(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := w.processor.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		return w.processor.Stop(context.WithoutCancel(gctx))
	})
	if consumer != nil {
		g.Go(func() error {
			return consumer.Consume(gctx, w.HandleEvent)
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
