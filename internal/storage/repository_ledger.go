package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"worklife/internal/core"
)

// Export states of a transaction's copy in the external spreadsheet.
const (
	ExportPending ExportStatus = "pending"
	ExportDone    ExportStatus = "exported"
	ExportError   ExportStatus = "error"
	ExportRemoved ExportStatus = "removed"
)

const defaultListCap = 64

type ExportStatus string

// ExportRecord is a transaction together with its export bookkeeping.
type ExportRecord struct {
	Transaction core.Transaction
	Deleted     bool
	Status      ExportStatus
	Ref         string
	Attempts    int
}

func toCoreAccount(row Account) core.Account {
	return core.Account{
		ID:        row.ID,
		Name:      row.Name,
		Kind:      core.AccountKind(row.Kind),
		Opening:   core.Money{Cents: row.OpeningCents},
		Archived:  row.Archived,
		CreatedAt: row.CreatedAt.Time,
	}
}

func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	id, err := r.queries.CreateAccount(ctx, a.Name, string(a.Kind), a.Opening.Cents)
	if err != nil {
		return core.Account{}, mapErr(err, "create account")
	}
	slog.InfoContext(ctx, "Account created", "id", id, "name", a.Name, "kind", a.Kind)
	return r.GetAccount(ctx, id)
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id)
	if err != nil {
		return core.Account{}, mapErr(err, "get account")
	}
	return toCoreAccount(row), nil
}

func (r *SQLiteRepository) ArchiveAccount(ctx context.Context, id int64, archived bool) error {
	n, err := r.queries.SetAccountArchived(ctx, id, archived)
	return expectOne(n, err, "archive account")
}

// ListAccountBalances returns accounts with their opening balance plus every
// live transaction that touches them.
func (r *SQLiteRepository) ListAccountBalances(ctx context.Context, includeArchived bool) ([]core.AccountBalance, error) {
	rows, err := r.queries.ListAccountBalances(ctx, includeArchived)
	if err != nil {
		return nil, mapErr(err, "list account balances")
	}
	out := make([]core.AccountBalance, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.AccountBalance{
			Account: toCoreAccount(row.Account),
			Balance: core.Money{Cents: row.BalanceCents},
		})
	}
	return out, nil
}

func toCoreTransaction(row Transaction) (core.Transaction, error) {
	day, err := core.ParseDate(row.Day)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %d: %w", row.ID, err)
	}
	return core.Transaction{
		ID:          row.ID,
		Kind:        core.TransactionKind(row.Kind),
		Date:        day,
		Amount:      core.Money{Cents: row.AmountCents},
		Category:    row.Category,
		Description: row.Description,
		FromAccount: intPtr(row.FromAccount),
		ToAccount:   intPtr(row.ToAccount),
		LoanID:      intPtr(row.LoanID),
		RecurringID: intPtr(row.RecurringID),
		CreatedAt:   row.CreatedAt.Time,
	}, nil
}

func toCoreTransactions(rows []Transaction) ([]core.Transaction, error) {
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := toCoreTransaction(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	id, err := r.queries.CreateTransaction(ctx, CreateTransactionParams{
		Kind:        string(t.Kind),
		Day:         t.Date.String(),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Description: t.Description,
		FromAccount: nullInt(t.FromAccount),
		ToAccount:   nullInt(t.ToAccount),
		LoanID:      nullInt(t.LoanID),
		RecurringID: nullInt(t.RecurringID),
	})
	if err != nil {
		return core.Transaction{}, mapErr(err, "create transaction")
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", id,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"day", t.Date.String())

	return r.GetTransaction(ctx, id)
}

// GetTransaction returns a live transaction; soft deleted rows are not found.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	rec, err := r.GetExportRecord(ctx, id)
	if err != nil {
		return core.Transaction{}, err
	}
	if rec.Deleted {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", core.ErrNotFound)
	}
	return rec.Transaction, nil
}

// GetExportRecord returns a transaction whether or not it was deleted.
func (r *SQLiteRepository) GetExportRecord(ctx context.Context, id int64) (ExportRecord, error) {
	row, err := r.queries.GetTransaction(ctx, id)
	if err != nil {
		return ExportRecord{}, mapErr(err, "get transaction")
	}
	return toExportRecord(row)
}

func toExportRecord(row Transaction) (ExportRecord, error) {
	t, err := toCoreTransaction(row)
	if err != nil {
		return ExportRecord{}, err
	}
	return ExportRecord{
		Transaction: t,
		Deleted:     row.DeletedAt.Valid,
		Status:      ExportStatus(row.ExportStatus),
		Ref:         row.ExportRef.String,
		Attempts:    int(row.ExportAttempts),
	}, nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, year, month int) ([]core.Transaction, error) {
	from, to := monthRange(year, month)
	rows, err := r.queries.ListTransactionsBetween(ctx, from, to)
	if err != nil {
		return nil, mapErr(err, "list transactions")
	}
	return toCoreTransactions(rows)
}

// DeleteTransaction soft deletes; the row stays until its export is removed.
func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, id int64) error {
	n, err := r.queries.SoftDeleteTransaction(ctx, id)
	if err := expectOne(n, err, "delete transaction"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction soft deleted", "id", id)
	return nil
}

func (r *SQLiteRepository) MonthTotals(ctx context.Context, year, month int) (income, expense core.Money, err error) {
	from, to := monthRange(year, month)
	row, err := r.queries.GetMonthTotals(ctx, from, to)
	if err != nil {
		return core.Money{}, core.Money{}, mapErr(err, "get month totals")
	}
	return core.Money{Cents: row.IncomeCents}, core.Money{Cents: row.ExpenseCents}, nil
}

func (r *SQLiteRepository) CategorySums(ctx context.Context, year, month int) ([]core.CategoryAmount, error) {
	from, to := monthRange(year, month)
	rows, err := r.queries.GetCategorySums(ctx, from, to)
	if err != nil {
		return nil, mapErr(err, "get category sums")
	}
	out := make([]core.CategoryAmount, 0, len(rows))
	for _, cs := range rows {
		out = append(out, core.CategoryAmount{Name: cs.Name, Amount: core.Money{Cents: cs.TotalAmount}})
	}
	return out, nil
}

// PendingExports returns up to limit transactions whose spreadsheet copy is
// out of date.
func (r *SQLiteRepository) PendingExports(ctx context.Context, limit int) ([]ExportRecord, error) {
	if limit <= 0 {
		limit = defaultListCap
	}
	rows, err := r.queries.GetPendingExports(ctx, int64(limit))
	if err != nil {
		return nil, mapErr(err, "get pending exports")
	}
	out := make([]ExportRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := toExportRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64, ref string) error {
	n, err := r.queries.SetTransactionExport(ctx, id, string(ExportDone), sql.NullString{String: ref, Valid: ref != ""})
	if err := expectOne(n, err, "mark transaction exported"); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction marked as exported", "id", id, "ref", ref)
	return nil
}

func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	n, err := r.queries.SetTransactionExport(ctx, id, string(ExportError), sql.NullString{})
	if err := expectOne(n, err, "mark transaction export error"); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with export error", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkExportRemoved(ctx context.Context, id int64) error {
	n, err := r.queries.SetTransactionExport(ctx, id, string(ExportRemoved), sql.NullString{})
	return expectOne(n, err, "mark transaction export removed")
}

// RecordExportFailure counts a failed export attempt. Once maxAttempts is
// reached the row moves to the error status and leaves the pending sweep.
func (r *SQLiteRepository) RecordExportFailure(ctx context.Context, id int64, maxAttempts int) error {
	n, err := r.queries.RecordExportFailure(ctx, id, int64(maxAttempts))
	return expectOne(n, err, "record export failure")
}

// RetryFailedExports puts every errored row back in the sweep and returns
// how many were reset.
func (r *SQLiteRepository) RetryFailedExports(ctx context.Context) (int64, error) {
	n, err := r.queries.RetryFailedExports(ctx)
	if err != nil {
		return 0, mapErr(err, "retry failed exports")
	}
	slog.InfoContext(ctx, "Failed exports reset for retry", "count", n)
	return n, nil
}

// ExportStats counts transactions per export status.
func (r *SQLiteRepository) ExportStats(ctx context.Context) (map[ExportStatus]int64, error) {
	rows, err := r.queries.GetExportStats(ctx)
	if err != nil {
		return nil, mapErr(err, "get export stats")
	}
	out := make(map[ExportStatus]int64, len(rows))
	for _, row := range rows {
		out[ExportStatus(row.Status)] = row.Count
	}
	return out, nil
}

func toCoreLoan(row Loan) (core.Loan, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.Loan{}, fmt.Errorf("loan %d: %w", row.ID, err)
	}
	rate, err := parseDecimalColumn(row.AnnualRate, "annual_rate")
	if err != nil {
		return core.Loan{}, err
	}
	return core.Loan{
		ID:           row.ID,
		Name:         row.Name,
		Counterparty: row.Counterparty,
		Direction:    core.LoanDirection(row.Direction),
		Principal:    core.Money{Cents: row.PrincipalCents},
		AnnualRate:   rate,
		TenureMonths: int(row.TenureMonths),
		StartDate:    start,
		CreatedAt:    row.CreatedAt.Time,
	}, nil
}

func (r *SQLiteRepository) CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error) {
	id, err := r.queries.CreateLoan(ctx, CreateLoanParams{
		Name:           l.Name,
		Counterparty:   l.Counterparty,
		Direction:      string(l.Direction),
		PrincipalCents: l.Principal.Cents,
		AnnualRate:     l.AnnualRate.String(),
		TenureMonths:   int64(l.TenureMonths),
		StartDate:      l.StartDate.String(),
	})
	if err != nil {
		return core.Loan{}, mapErr(err, "create loan")
	}
	return r.GetLoan(ctx, id)
}

func (r *SQLiteRepository) GetLoan(ctx context.Context, id int64) (core.Loan, error) {
	row, err := r.queries.GetLoan(ctx, id)
	if err != nil {
		return core.Loan{}, mapErr(err, "get loan")
	}
	return toCoreLoan(row)
}

func (r *SQLiteRepository) ListLoans(ctx context.Context) ([]core.Loan, error) {
	rows, err := r.queries.ListLoans(ctx)
	if err != nil {
		return nil, mapErr(err, "list loans")
	}
	out := make([]core.Loan, 0, len(rows))
	for _, row := range rows {
		l, err := toCoreLoan(row)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// LoanTransactions returns every live transaction referencing the loan.
func (r *SQLiteRepository) LoanTransactions(ctx context.Context, loanID int64) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByLoan(ctx, loanID)
	if err != nil {
		return nil, mapErr(err, "list loan transactions")
	}
	return toCoreTransactions(rows)
}

func toCoreRecurring(row RecurringTransaction) (core.RecurringTransaction, error) {
	start, err := core.ParseDate(row.StartDate)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("recurring %d: %w", row.ID, err)
	}
	end, err := parseNullDate(row.EndDate)
	if err != nil {
		return core.RecurringTransaction{}, fmt.Errorf("recurring %d: %w", row.ID, err)
	}
	return core.RecurringTransaction{
		ID:            row.ID,
		Kind:          core.TransactionKind(row.Kind),
		Every:         core.RepetitionTypes(row.Every),
		StartDate:     start,
		EndDate:       end,
		Amount:        core.Money{Cents: row.AmountCents},
		AccountID:     row.AccountID,
		Category:      row.Category,
		Description:   row.Description,
		LoanID:        intPtr(row.LoanID),
		LastExecution: row.LastExecutionDate.Time,
	}, nil
}

func toCoreRecurrings(rows []RecurringTransaction) ([]core.RecurringTransaction, error) {
	out := make([]core.RecurringTransaction, 0, len(rows))
	for _, row := range rows {
		rt, err := toCoreRecurring(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rt)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateRecurring(ctx context.Context, rt core.RecurringTransaction) (core.RecurringTransaction, error) {
	id, err := r.queries.CreateRecurring(ctx, CreateRecurringParams{
		Kind:        string(rt.Kind),
		Every:       string(rt.Every),
		StartDate:   rt.StartDate.String(),
		EndDate:     nullDate(rt.EndDate),
		AmountCents: rt.Amount.Cents,
		AccountID:   rt.AccountID,
		Category:    rt.Category,
		Description: rt.Description,
		LoanID:      nullInt(rt.LoanID),
	})
	if err != nil {
		return core.RecurringTransaction{}, mapErr(err, "create recurring transaction")
	}
	return r.GetRecurring(ctx, id)
}

func (r *SQLiteRepository) GetRecurring(ctx context.Context, id int64) (core.RecurringTransaction, error) {
	row, err := r.queries.GetRecurring(ctx, id)
	if err != nil {
		return core.RecurringTransaction{}, mapErr(err, "get recurring transaction")
	}
	return toCoreRecurring(row)
}

func (r *SQLiteRepository) ListRecurring(ctx context.Context) ([]core.RecurringTransaction, error) {
	rows, err := r.queries.ListRecurring(ctx)
	if err != nil {
		return nil, mapErr(err, "list recurring transactions")
	}
	return toCoreRecurrings(rows)
}

// ListActiveRecurring returns templates whose date range covers day.
func (r *SQLiteRepository) ListActiveRecurring(ctx context.Context, day core.Date) ([]core.RecurringTransaction, error) {
	rows, err := r.queries.ListActiveRecurring(ctx, day.String())
	if err != nil {
		return nil, mapErr(err, "list active recurring transactions")
	}
	return toCoreRecurrings(rows)
}

func (r *SQLiteRepository) UpdateRecurringLastExecution(ctx context.Context, id int64, at time.Time) error {
	n, err := r.queries.UpdateRecurringLastExecution(ctx, id, NewTimestamp(at))
	return expectOne(n, err, "update recurring last execution")
}

func (r *SQLiteRepository) DeleteRecurring(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteRecurring(ctx, id)
	return expectOne(n, err, "delete recurring transaction")
}
