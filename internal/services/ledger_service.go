package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"worklife/internal/amqp"
	"worklife/internal/core"
	"worklife/internal/storage"
)

// LedgerService orchestrates accounts and transactions across SQLite and AMQP.
type LedgerService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

func NewLedgerService(storage *storage.SQLiteRepository, publisher EventPublisher) *LedgerService {
	return &LedgerService{storage: storage, publisher: publisher}
}

func (s *LedgerService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	a.Name = strings.TrimSpace(a.Name)
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}
	return s.storage.CreateAccount(ctx, a)
}

func (s *LedgerService) Accounts(ctx context.Context, includeArchived bool) ([]core.AccountBalance, error) {
	return s.storage.ListAccountBalances(ctx, includeArchived)
}

func (s *LedgerService) ArchiveAccount(ctx context.Context, id int64, archived bool) error {
	return s.storage.ArchiveAccount(ctx, id, archived)
}

// CreateTransaction saves the entry locally, then announces it. A failed
// publish does not fail the request; the export sweep picks the row up later.
func (s *LedgerService) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	var saved core.Transaction
	err := s.storage.InTx(ctx, func(repo *storage.SQLiteRepository) error {
		var err error
		saved, err = createTransaction(ctx, repo, t)
		return err
	})
	if err != nil {
		return core.Transaction{}, err
	}
	publish(ctx, s.publisher, amqp.NewEvent(amqp.TransactionCreated, saved.ID))
	return saved, nil
}

// createTransaction validates t against its accounts and loan and stores it.
func createTransaction(ctx context.Context, repo *storage.SQLiteRepository, t core.Transaction) (core.Transaction, error) {
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	for _, id := range []*int64{t.FromAccount, t.ToAccount} {
		if id == nil {
			continue
		}
		a, err := repo.GetAccount(ctx, *id)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("account %d: %w", *id, err)
		}
		if a.Archived {
			return core.Transaction{}, fmt.Errorf("%w: account %s is archived", core.ErrValidation, a.Name)
		}
	}
	if t.LoanID != nil {
		l, err := repo.GetLoan(ctx, *t.LoanID)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("loan %d: %w", *t.LoanID, err)
		}
		if err := checkLoanMovement(l, t); err != nil {
			return core.Transaction{}, err
		}
	}
	return repo.CreateTransaction(ctx, t)
}

// checkLoanMovement ties the direction of money to the direction of the loan:
// on a borrowed loan money comes in once and goes out afterwards, on a lent
// loan the opposite.
func checkLoanMovement(l core.Loan, t core.Transaction) error {
	var ok bool
	switch t.Kind {
	case core.TxLoanTaken, core.TxEMIPayment:
		ok = l.Direction == core.LoanBorrowed
	case core.TxLoanGiven:
		ok = l.Direction == core.LoanLent
	case core.TxLoanRepayment:
		if l.Direction == core.LoanBorrowed {
			ok = t.FromAccount != nil
		} else {
			ok = t.ToAccount != nil
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s does not fit %s loan %q", core.ErrValidation, t.Kind, l.Direction, l.Name)
	}
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.storage.GetTransaction(ctx, id)
}

func (s *LedgerService) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	return s.storage.ListTransactions(ctx, year, month)
}

// DeleteTransaction soft deletes locally and announces the deletion.
func (s *LedgerService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.storage.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	publish(ctx, s.publisher, amqp.NewEvent(amqp.TransactionDeleted, id))
	return nil
}

// MonthOverview loads the month's totals and category breakdown concurrently.
func (s *LedgerService) MonthOverview(ctx context.Context, year, month int) (core.MonthOverview, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return core.MonthOverview{}, err
	}
	ov := core.MonthOverview{Year: year, Month: month}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ov.Income, ov.Expense, err = s.storage.MonthTotals(gctx, year, month)
		return err
	})
	g.Go(func() error {
		var err error
		ov.ByCategory, err = s.storage.CategorySums(gctx, year, month)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.MonthOverview{}, err
	}

	ov.Net = ov.Income.Sub(ov.Expense)
	slog.DebugContext(ctx, "Month overview computed",
		"year", year,
		"month", month,
		"income_cents", ov.Income.Cents,
		"expense_cents", ov.Expense.Cents,
		"categories", len(ov.ByCategory))
	return ov, nil
}

// CreateRecurring stores a template after checking its account and loan.
func (s *LedgerService) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	rt.Description = strings.TrimSpace(rt.Description)
	rt.Category = strings.TrimSpace(rt.Category)
	if err := rt.Validate(); err != nil {
		return core.RecurringTransaction{}, err
	}
	if _, err := s.storage.GetAccount(ctx, rt.AccountID); err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("account %d: %w", rt.AccountID, err)
	}
	if rt.LoanID != nil {
		l, err := s.storage.GetLoan(ctx, *rt.LoanID)
		if err != nil {
			return core.RecurringTransaction{}, fmt.Errorf("loan %d: %w", *rt.LoanID, err)
		}
		if err := checkLoanMovement(l, rt.Materialize(rt.StartDate)); err != nil {
			return core.RecurringTransaction{}, err
		}
	}
	return s.storage.CreateRecurring(ctx, rt)
}

func (s *LedgerService) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	return s.storage.ListRecurring(ctx)
}

func (s *LedgerService) DeleteRecurring(ctx context.Context, id int64) error {
	return s.storage.DeleteRecurring(ctx, id)
}
