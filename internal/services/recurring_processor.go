package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"worklife/internal/amqp"
	"worklife/internal/core"
	"worklife/internal/storage"
)

// RecurringProcessor posts ledger entries from the recurring templates that
// are due.
type RecurringProcessor struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

func NewRecurringProcessor(storage *storage.SQLiteRepository, publisher EventPublisher) *RecurringProcessor {
	return &RecurringProcessor{storage: storage, publisher: publisher}
}

// ProcessDue posts every active template due at now and returns how many
// were posted. A template that fails is logged and skipped.
func (p *RecurringProcessor) ProcessDue(ctx context.Context, now time.Time) (int, error) {
	if p.storage == nil {
		return 0, fmt.Errorf("processor not properly initialized")
	}
	day := core.DateOf(now)

	templates, err := p.storage.ListActiveRecurring(ctx, day)
	if err != nil {
		return 0, fmt.Errorf("failed to get active recurring transactions: %w", err)
	}
	slog.InfoContext(ctx, "Processing recurring transactions",
		"total_active", len(templates),
		"processing_date", day.String())

	processed := 0
	for _, rt := range templates {
		checker, err := GetDuenessChecker(rt.Every)
		if err != nil {
			slog.ErrorContext(ctx, "Skipping recurring transaction", "recurring_id", rt.ID, "error", err)
			continue
		}
		if !checker.IsDue(rt.LastExecution, now, rt.StartDate) {
			continue
		}

		posted, err := p.post(ctx, rt, day, now)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to post recurring transaction",
				"recurring_id", rt.ID,
				"description", rt.Description,
				"error", err)
			continue
		}
		publish(ctx, p.publisher, amqp.NewEvent(amqp.TransactionCreated, posted.ID))

		processed++
		slog.InfoContext(ctx, "Posted transaction from recurring template",
			"recurring_id", rt.ID,
			"transaction_id", posted.ID,
			"amount_cents", rt.Amount.Cents,
			"frequency", rt.Every)
	}

	slog.InfoContext(ctx, "Recurring transaction processing complete",
		"processed", processed,
		"total_checked", len(templates))
	return processed, nil
}

// post books the entry and moves the template's last execution in one
// transaction, so a crash cannot post the same period twice.
func (p *RecurringProcessor) post(ctx context.Context, rt core.RecurringTransaction, day core.Date, now time.Time) (core.Transaction, error) {
	var posted core.Transaction
	err := p.storage.InTx(ctx, func(repo *storage.SQLiteRepository) error {
		var err error
		if posted, err = createTransaction(ctx, repo, rt.Materialize(day)); err != nil {
			return err
		}
		return repo.UpdateRecurringLastExecution(ctx, rt.ID, now)
	})
	return posted, err
}
