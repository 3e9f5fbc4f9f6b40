package storage

import (
	"context"
	"database/sql"
)

const accountColumns = `id, name, kind, opening_cents, archived, created_at`

func scanAccount(row scanner) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Kind,
		&i.OpeningCents,
		&i.Archived,
		&i.CreatedAt,
	)
	return i, err
}

const createAccount = `INSERT INTO accounts (name, kind, opening_cents) VALUES (?, ?, ?)`

func (q *Queries) CreateAccount(ctx context.Context, name, kind string, openingCents int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, createAccount, name, kind, openingCents)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getAccount = `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`

func (q *Queries) GetAccount(ctx context.Context, id int64) (Account, error) {
	return scanAccount(q.db.QueryRowContext(ctx, getAccount, id))
}

const setAccountArchived = `UPDATE accounts SET archived = ? WHERE id = ?`

func (q *Queries) SetAccountArchived(ctx context.Context, id int64, archived bool) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, setAccountArchived, archived, id))
}

const listAccountBalances = `
SELECT a.id, a.name, a.kind, a.opening_cents, a.archived, a.created_at,
       a.opening_cents
       + COALESCE((SELECT SUM(t.amount_cents) FROM transactions t WHERE t.to_account = a.id AND t.deleted_at IS NULL), 0)
       - COALESCE((SELECT SUM(t.amount_cents) FROM transactions t WHERE t.from_account = a.id AND t.deleted_at IS NULL), 0)
FROM accounts a
WHERE a.archived = 0 OR ?
ORDER BY a.name
`

type ListAccountBalancesRow struct {
	Account
	BalanceCents int64
}

func (q *Queries) ListAccountBalances(ctx context.Context, includeArchived bool) ([]ListAccountBalancesRow, error) {
	rows, err := q.db.QueryContext(ctx, listAccountBalances, includeArchived)
	return collect(rows, err, func(row scanner) (ListAccountBalancesRow, error) {
		var i ListAccountBalancesRow
		err := row.Scan(
			&i.ID,
			&i.Name,
			&i.Kind,
			&i.OpeningCents,
			&i.Archived,
			&i.CreatedAt,
			&i.BalanceCents,
		)
		return i, err
	})
}

const transactionColumns = `id, kind, day, amount_cents, category, description, from_account, to_account, loan_id, recurring_id, created_at, deleted_at, export_status, export_ref, export_attempts`

func scanTransaction(row scanner) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Day,
		&i.AmountCents,
		&i.Category,
		&i.Description,
		&i.FromAccount,
		&i.ToAccount,
		&i.LoanID,
		&i.RecurringID,
		&i.CreatedAt,
		&i.DeletedAt,
		&i.ExportStatus,
		&i.ExportRef,
		&i.ExportAttempts,
	)
	return i, err
}

const createTransaction = `
INSERT INTO transactions (kind, day, amount_cents, category, description, from_account, to_account, loan_id, recurring_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateTransactionParams struct {
	Kind        string
	Day         string
	AmountCents int64
	Category    string
	Description string
	FromAccount sql.NullInt64
	ToAccount   sql.NullInt64
	LoanID      sql.NullInt64
	RecurringID sql.NullInt64
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createTransaction,
		arg.Kind,
		arg.Day,
		arg.AmountCents,
		arg.Category,
		arg.Description,
		arg.FromAccount,
		arg.ToAccount,
		arg.LoanID,
		arg.RecurringID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

// GetTransaction also returns soft deleted rows; callers check DeletedAt.
func (q *Queries) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, id))
}

const listTransactionsBetween = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE deleted_at IS NULL AND day >= ? AND day <= ?
ORDER BY day, id
`

func (q *Queries) ListTransactionsBetween(ctx context.Context, from, to string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsBetween, from, to)
	return collect(rows, err, scanTransaction)
}

const listTransactionsByLoan = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE deleted_at IS NULL AND loan_id = ?
ORDER BY day, id
`

func (q *Queries) ListTransactionsByLoan(ctx context.Context, loanID int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByLoan, loanID)
	return collect(rows, err, scanTransaction)
}

const softDeleteTransaction = `UPDATE transactions SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`

func (q *Queries) SoftDeleteTransaction(ctx context.Context, id int64) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, softDeleteTransaction, id))
}

const getMonthTotals = `
SELECT
    COALESCE(SUM(CASE WHEN kind = 'income' THEN amount_cents END), 0),
    COALESCE(SUM(CASE WHEN kind IN ('expense', 'emi_payment') THEN amount_cents END), 0)
FROM transactions
WHERE deleted_at IS NULL AND day >= ? AND day <= ?
`

type GetMonthTotalsRow struct {
	IncomeCents  int64
	ExpenseCents int64
}

func (q *Queries) GetMonthTotals(ctx context.Context, from, to string) (GetMonthTotalsRow, error) {
	var i GetMonthTotalsRow
	err := q.db.QueryRowContext(ctx, getMonthTotals, from, to).Scan(&i.IncomeCents, &i.ExpenseCents)
	return i, err
}

const getCategorySums = `
SELECT CASE WHEN TRIM(category) = '' THEN kind ELSE category END AS name,
       SUM(amount_cents) AS total
FROM transactions
WHERE deleted_at IS NULL AND day >= ? AND day <= ? AND kind IN ('expense', 'emi_payment')
GROUP BY name
ORDER BY total DESC, name
`

type GetCategorySumsRow struct {
	Name        string
	TotalAmount int64
}

func (q *Queries) GetCategorySums(ctx context.Context, from, to string) ([]GetCategorySumsRow, error) {
	rows, err := q.db.QueryContext(ctx, getCategorySums, from, to)
	return collect(rows, err, func(row scanner) (GetCategorySumsRow, error) {
		var i GetCategorySumsRow
		err := row.Scan(&i.Name, &i.TotalAmount)
		return i, err
	})
}

const getPendingExports = `
SELECT ` + transactionColumns + `
FROM transactions
WHERE (deleted_at IS NULL AND export_status = 'pending')
   OR (deleted_at IS NOT NULL AND export_status = 'exported')
ORDER BY id
LIMIT ?
`

// GetPendingExports returns live rows never exported and deleted rows whose
// exported copy still has to be removed.
func (q *Queries) GetPendingExports(ctx context.Context, limit int64) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, getPendingExports, limit)
	return collect(rows, err, scanTransaction)
}

const setTransactionExport = `UPDATE transactions SET export_status = ?, export_ref = COALESCE(?, export_ref), export_attempts = 0 WHERE id = ?`

func (q *Queries) SetTransactionExport(ctx context.Context, id int64, status string, ref sql.NullString) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, setTransactionExport, status, ref, id))
}

// The status only moves to error once maxAttempts failures have accumulated.
const recordExportFailure = `
UPDATE transactions
SET export_attempts = export_attempts + 1,
    export_status = CASE WHEN export_attempts + 1 >= ? THEN 'error' ELSE export_status END
WHERE id = ?
`

func (q *Queries) RecordExportFailure(ctx context.Context, id, maxAttempts int64) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, recordExportFailure, maxAttempts, id))
}

// Failed live rows go back to pending; failed deleted rows that still have a
// spreadsheet copy go back to exported so the removal is retried.
const retryFailedExports = `
UPDATE transactions
SET export_attempts = 0,
    export_status = CASE
        WHEN deleted_at IS NULL THEN 'pending'
        WHEN export_ref IS NOT NULL THEN 'exported'
        ELSE 'removed'
    END
WHERE export_status = 'error'
`

func (q *Queries) RetryFailedExports(ctx context.Context) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, retryFailedExports))
}

const getExportStats = `
SELECT export_status, COUNT(*) FROM transactions GROUP BY export_status ORDER BY export_status
`

type GetExportStatsRow struct {
	Status string
	Count  int64
}

func (q *Queries) GetExportStats(ctx context.Context) ([]GetExportStatsRow, error) {
	rows, err := q.db.QueryContext(ctx, getExportStats)
	return collect(rows, err, func(row scanner) (GetExportStatsRow, error) {
		var i GetExportStatsRow
		err := row.Scan(&i.Status, &i.Count)
		return i, err
	})
}

const loanColumns = `id, name, counterparty, direction, principal_cents, annual_rate, tenure_months, start_date, created_at`

func scanLoan(row scanner) (Loan, error) {
	var i Loan
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Counterparty,
		&i.Direction,
		&i.PrincipalCents,
		&i.AnnualRate,
		&i.TenureMonths,
		&i.StartDate,
		&i.CreatedAt,
	)
	return i, err
}

const createLoan = `
INSERT INTO loans (name, counterparty, direction, principal_cents, annual_rate, tenure_months, start_date)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateLoanParams struct {
	Name           string
	Counterparty   string
	Direction      string
	PrincipalCents int64
	AnnualRate     string
	TenureMonths   int64
	StartDate      string
}

func (q *Queries) CreateLoan(ctx context.Context, arg CreateLoanParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createLoan,
		arg.Name,
		arg.Counterparty,
		arg.Direction,
		arg.PrincipalCents,
		arg.AnnualRate,
		arg.TenureMonths,
		arg.StartDate,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getLoan = `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`

func (q *Queries) GetLoan(ctx context.Context, id int64) (Loan, error) {
	return scanLoan(q.db.QueryRowContext(ctx, getLoan, id))
}

const listLoans = `SELECT ` + loanColumns + ` FROM loans ORDER BY start_date, id`

func (q *Queries) ListLoans(ctx context.Context) ([]Loan, error) {
	rows, err := q.db.QueryContext(ctx, listLoans)
	return collect(rows, err, scanLoan)
}

const recurringColumns = `id, kind, every, start_date, end_date, amount_cents, account_id, category, description, loan_id, last_execution_date, created_at`

func scanRecurring(row scanner) (RecurringTransaction, error) {
	var i RecurringTransaction
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.Every,
		&i.StartDate,
		&i.EndDate,
		&i.AmountCents,
		&i.AccountID,
		&i.Category,
		&i.Description,
		&i.LoanID,
		&i.LastExecutionDate,
		&i.CreatedAt,
	)
	return i, err
}

const createRecurring = `
INSERT INTO recurring_transactions (kind, every, start_date, end_date, amount_cents, account_id, category, description, loan_id)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateRecurringParams struct {
	Kind        string
	Every       string
	StartDate   string
	EndDate     sql.NullString
	AmountCents int64
	AccountID   int64
	Category    string
	Description string
	LoanID      sql.NullInt64
}

func (q *Queries) CreateRecurring(ctx context.Context, arg CreateRecurringParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createRecurring,
		arg.Kind,
		arg.Every,
		arg.StartDate,
		arg.EndDate,
		arg.AmountCents,
		arg.AccountID,
		arg.Category,
		arg.Description,
		arg.LoanID,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getRecurring = `SELECT ` + recurringColumns + ` FROM recurring_transactions WHERE id = ?`

func (q *Queries) GetRecurring(ctx context.Context, id int64) (RecurringTransaction, error) {
	return scanRecurring(q.db.QueryRowContext(ctx, getRecurring, id))
}

const listRecurring = `SELECT ` + recurringColumns + ` FROM recurring_transactions ORDER BY start_date, id`

func (q *Queries) ListRecurring(ctx context.Context) ([]RecurringTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listRecurring)
	return collect(rows, err, scanRecurring)
}

const listActiveRecurring = `
SELECT ` + recurringColumns + `
FROM recurring_transactions
WHERE start_date <= ? AND (end_date IS NULL OR end_date >= ?)
ORDER BY id
`

func (q *Queries) ListActiveRecurring(ctx context.Context, day string) ([]RecurringTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listActiveRecurring, day, day)
	return collect(rows, err, scanRecurring)
}

const updateRecurringLastExecution = `UPDATE recurring_transactions SET last_execution_date = ? WHERE id = ?`

func (q *Queries) UpdateRecurringLastExecution(ctx context.Context, id int64, at Timestamp) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateRecurringLastExecution, at, id))
}

const deleteRecurring = `DELETE FROM recurring_transactions WHERE id = ?`

func (q *Queries) DeleteRecurring(ctx context.Context, id int64) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteRecurring, id))
}
