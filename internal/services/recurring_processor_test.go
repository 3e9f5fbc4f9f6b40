package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklife/internal/amqp"
	"worklife/internal/core"
)

func TestRecurringProcessorProcessDue(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	pub := &recordingPublisher{}
	ledger := NewLedgerService(repo, nil)
	bank := mustAccount(t, repo, "Bank", core.AccountBank, 0)

	salary, err := ledger.CreateRecurring(ctx, core.RecurringTransaction{
		Kind: core.TxIncome, Every: core.Monthly, StartDate: core.NewDate(2025, 1, 27),
		Amount: core.Money{Cents: 250000}, AccountID: bank.ID, Category: "salary", Description: "Salary",
	})
	require.NoError(t, err)
	_, err = ledger.CreateRecurring(ctx, core.RecurringTransaction{
		Kind: core.TxExpense, Every: core.Daily, StartDate: core.NewDate(2025, 1, 1), EndDate: core.NewDate(2025, 1, 31),
		Amount: core.Money{Cents: 150}, AccountID: bank.ID, Description: "Coffee",
	})
	require.NoError(t, err)

	proc := NewRecurringProcessor(repo, pub)

	n, err := proc.ProcessDue(ctx, time.Date(2025, 1, 20, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, n, "salary has not started yet")

	n, err = proc.ProcessDue(ctx, time.Date(2025, 1, 20, 18, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n, "the same day is not posted twice")

	n, err = proc.ProcessDue(ctx, time.Date(2025, 1, 27, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = proc.ProcessDue(ctx, time.Date(2025, 2, 3, 7, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, n, "coffee ended in January and salary waits for the 27th")

	txs, err := ledger.ListTransactions(ctx, 2025, 1)
	require.NoError(t, err)
	require.Len(t, txs, 3)
	var posted *core.Transaction
	for i := range txs {
		if txs[i].Category == "salary" {
			posted = &txs[i]
		}
	}
	require.NotNil(t, posted)
	assert.Equal(t, core.NewDate(2025, 1, 27), posted.Date)
	require.NotNil(t, posted.RecurringID)
	assert.Equal(t, salary.ID, *posted.RecurringID)

	assert.Len(t, pub.details(amqp.TransactionCreated), 3)
}

func TestRecurringProcessorSkipsArchivedAccount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	ledger := NewLedgerService(repo, nil)
	bank := mustAccount(t, repo, "Bank", core.AccountBank, 0)

	_, err := ledger.CreateRecurring(ctx, core.RecurringTransaction{
		Kind: core.TxExpense, Every: core.Weekly, StartDate: core.NewDate(2025, 1, 1),
		Amount: core.Money{Cents: 1000}, AccountID: bank.ID, Description: "Groceries",
	})
	require.NoError(t, err)
	require.NoError(t, ledger.ArchiveAccount(ctx, bank.ID, true))

	proc := NewRecurringProcessor(repo, nil)
	now := time.Date(2025, 1, 8, 7, 0, 0, 0, time.UTC)
	n, err := proc.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, n)

	// The failed post left the template due, so it goes through once the
	// account is back.
	require.NoError(t, ledger.ArchiveAccount(ctx, bank.ID, false))
	n, err = proc.ProcessDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecurringProcessorRequiresStorage(t *testing.T) {
	_, err := (&RecurringProcessor{}).ProcessDue(context.Background(), time.Now())
	assert.Error(t, err)
}
