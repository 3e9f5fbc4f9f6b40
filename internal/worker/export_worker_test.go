package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"worklife/internal/amqp"
	"worklife/internal/core"
	"worklife/internal/services"
	"worklife/internal/sheets/memory"
	"worklife/internal/storage"
)

type fixture struct {
	worker *ExportWorker
	ledger *services.LedgerService
	sheet  *memory.Store
	bank   core.Account
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worker.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	sheet := memory.New()
	cfg := services.DefaultExportProcessorConfig()
	cfg.PollInterval = 20 * time.Millisecond
	proc := services.NewExportProcessor(repo, sheet, cfg)

	ledger := services.NewLedgerService(repo, nil)
	bank, err := ledger.CreateAccount(ctx, core.Account{Name: "Bank", Kind: core.AccountBank})
	require.NoError(t, err)

	return fixture{worker: NewExportWorker(proc), ledger: ledger, sheet: sheet, bank: bank}
}

func (f fixture) addExpense(t *testing.T, cents int64) core.Transaction {
	t.Helper()
	tx, err := f.ledger.CreateTransaction(context.Background(), core.Transaction{
		Kind: core.TxExpense, Date: core.NewDate(2025, 6, 2), Amount: core.Money{Cents: cents},
		Category: "food", FromAccount: &f.bank.ID,
	})
	require.NoError(t, err)
	return tx
}

func liveRows(s *memory.Store) int {
	n := 0
	for _, r := range s.Rows() {
		if r != nil {
			n++
		}
	}
	return n
}

func TestHandleEventExportsAndRemoves(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	tx := f.addExpense(t, 1250)

	require.NoError(t, f.worker.HandleEvent(ctx, amqp.NewEvent(amqp.TransactionCreated, tx.ID)))
	require.Equal(t, 1, liveRows(f.sheet))

	ov, err := f.sheet.ReadMonthOverview(ctx, 2025, 6)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), ov.Expense.Cents)

	require.NoError(t, f.ledger.DeleteTransaction(ctx, tx.ID))
	require.NoError(t, f.worker.HandleEvent(ctx, amqp.NewEvent(amqp.TransactionDeleted, tx.ID)))
	assert.Zero(t, liveRows(f.sheet))
}

func TestHandleEventIgnoresOtherEvents(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	assert.NoError(t, f.worker.HandleEvent(ctx, amqp.NewEvent(amqp.HabitCompleted, 1).WithDetail("started")))
	assert.NoError(t, f.worker.HandleEvent(ctx, amqp.NewEvent(amqp.AchievementUnlocked, 1).WithDetail("streak_3")))
	assert.NoError(t, f.worker.HandleEvent(ctx, amqp.Event{Type: "unknown"}))
	assert.NoError(t, f.worker.HandleEvent(ctx, amqp.NewEvent(amqp.TransactionCreated, 999)), "a vanished transaction is acked")
	assert.Zero(t, liveRows(f.sheet))
}

func TestStartupSync(t *testing.T) {
	f := newFixture(t)
	f.addExpense(t, 100)
	f.addExpense(t, 200)

	require.NoError(t, f.worker.StartupSync(context.Background()))
	assert.Equal(t, 2, liveRows(f.sheet))
	require.NoError(t, f.worker.StartupSync(context.Background()))
	assert.Equal(t, 2, liveRows(f.sheet), "nothing is exported twice")
}

// chanConsumer replays events from a channel until ctx ends.
type chanConsumer struct {
	events chan amqp.Event
	mu     sync.Mutex
	errs   []error
}

func (c *chanConsumer) Consume(ctx context.Context, handler func(context.Context, amqp.Event) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case e := <-c.events:
			err := handler(ctx, e)
			c.mu.Lock()
			c.errs = append(c.errs, err)
			c.mu.Unlock()
		}
	}
}

func TestRunConsumesUntilCancelled(t *testing.T) {
	f := newFixture(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	consumer := &chanConsumer{events: make(chan amqp.Event, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.worker.Run(ctx, consumer) }()

	tx := f.addExpense(t, 300)
	consumer.events <- amqp.NewEvent(amqp.TransactionCreated, tx.ID)
	assert.Eventually(t, func() bool { return liveRows(f.sheet) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

type failingConsumer struct{ err error }

func (c failingConsumer) Consume(context.Context, func(context.Context, amqp.Event) error) error {
	return c.err
}

func TestRunReturnsConsumerError(t *testing.T) {
	f := newFixture(t)
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	boom := errors.New("queue deleted")
	err := f.worker.Run(context.Background(), failingConsumer{err: boom})
	assert.ErrorIs(t, err, boom)
}
