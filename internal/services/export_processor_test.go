package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"worklife/internal/core"
	"worklife/internal/storage"
)

func newExportFixture(t *testing.T) (*ExportProcessor, *stubExporter, *LedgerService, core.Account) {
	t.Helper()
	repo := newTestRepo(t)
	exp := &stubExporter{}
	cfg := DefaultExportProcessorConfig()
	cfg.MaxRetries = 2
	proc := NewExportProcessor(repo, exp, cfg)
	return proc, exp, NewLedgerService(repo, nil), mustAccount(t, repo, "Bank", core.AccountBank, 0)
}

func addExpense(t *testing.T, ledger *LedgerService, acc core.Account, day int) core.Transaction {
	t.Helper()
	tx, err := ledger.CreateTransaction(context.Background(), core.Transaction{
		Kind: core.TxExpense, Date: core.NewDate(2025, 5, day), Amount: core.Money{Cents: 1000},
		Category: "food", FromAccount: &acc.ID,
	})
	require.NoError(t, err)
	return tx
}

func TestDefaultExportProcessorConfig(t *testing.T) {
	cfg := DefaultExportProcessorConfig()
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
	assert.Equal(t, 20, cfg.BatchSize)
	assert.Equal(t, 3, cfg.MaxRetries)

	p := NewExportProcessor(nil, nil, ExportProcessorConfig{})
	assert.Equal(t, cfg, p.config, "zero values fall back to defaults")
}

func TestExportProcessorSyncTransaction(t *testing.T) {
	ctx := context.Background()
	proc, exp, ledger, acc := newExportFixture(t)
	tx := addExpense(t, ledger, acc, 1)

	outcome, err := proc.SyncTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, SyncExported, outcome)

	outcome, err = proc.SyncTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, SyncUnchanged, outcome, "an exported row is not written twice")
	assert.Equal(t, 1, exp.exportCount())

	require.NoError(t, ledger.DeleteTransaction(ctx, tx.ID))
	outcome, err = proc.SyncTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, SyncRemoved, outcome)
	assert.Equal(t, []string{"row-1"}, exp.removed)

	outcome, err = proc.SyncTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, SyncUnchanged, outcome)

	outcome, err = proc.SyncTransaction(ctx, 404)
	require.NoError(t, err)
	assert.Equal(t, SyncUnchanged, outcome)
}

func TestExportProcessorDeletedBeforeExport(t *testing.T) {
	ctx := context.Background()
	proc, exp, ledger, acc := newExportFixture(t)
	tx := addExpense(t, ledger, acc, 1)
	require.NoError(t, ledger.DeleteTransaction(ctx, tx.ID))

	outcome, err := proc.SyncTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, SyncUnchanged, outcome)
	assert.Zero(t, exp.exportCount())
	assert.Empty(t, exp.removed)

	stats, err := proc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[storage.ExportRemoved])
}

func TestExportProcessorRetriesThenParks(t *testing.T) {
	ctx := context.Background()
	proc, exp, ledger, acc := newExportFixture(t)
	tx := addExpense(t, ledger, acc, 1)
	exp.setFail(true)

	_, err := proc.SyncTransaction(ctx, tx.ID)
	assert.ErrorIs(t, err, errSheetDown)
	n, err := proc.SweepPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	stats, err := proc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[storage.ExportError])

	exp.setFail(false)
	n, err = proc.SweepPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "parked rows wait for a retry")

	reset, err := proc.RetryFailed(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reset)

	n, err = proc.SweepPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, exp.exportCount())
}

func TestExportProcessorSweepBatches(t *testing.T) {
	ctx := context.Background()
	proc, exp, ledger, acc := newExportFixture(t)
	proc.config.BatchSize = 2
	for day := 1; day <= 3; day++ {
		addExpense(t, ledger, acc, day)
	}

	n, err := proc.SweepPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = proc.SweepPending(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = proc.SweepPending(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 3, exp.exportCount())
}

func TestExportProcessorLifecycle(t *testing.T) {
	proc, exp, ledger, acc := newExportFixture(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	addExpense(t, ledger, acc, 1)
	proc.config.PollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.False(t, proc.IsRunning())
	require.NoError(t, proc.Start(ctx))
	assert.True(t, proc.IsRunning())
	assert.Error(t, proc.Start(ctx), "starting twice fails")

	assert.Eventually(t, func() bool { return exp.exportCount() == 1 }, time.Second, 5*time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, proc.Stop(stopCtx))
	assert.False(t, proc.IsRunning())
	require.NoError(t, proc.Stop(stopCtx), "stopping twice is a no-op")
}

func TestExportProcessorRequiresDependencies(t *testing.T) {
	p := NewExportProcessor(nil, nil, DefaultExportProcessorConfig())
	_, err := p.SyncTransaction(context.Background(), 1)
	assert.Error(t, err)
}
