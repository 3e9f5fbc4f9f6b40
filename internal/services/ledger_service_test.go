package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklife/internal/amqp"
	"worklife/internal/core"
)

func TestLedgerServiceTransactions(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	pub := &recordingPublisher{}
	s := NewLedgerService(repo, pub)

	bank, err := s.CreateAccount(ctx, core.Account{Name: " Bank ", Kind: core.AccountBank, Opening: core.Money{Cents: 50000}})
	require.NoError(t, err)
	assert.Equal(t, "Bank", bank.Name)
	_, err = s.CreateAccount(ctx, core.Account{Name: "Jar", Kind: "jar"})
	assert.ErrorIs(t, err, core.ErrValidation)

	salary, err := s.CreateTransaction(ctx, core.Transaction{
		Kind: core.TxIncome, Date: core.NewDate(2025, 4, 1), Amount: core.Money{Cents: 300000},
		Category: " salary ", ToAccount: &bank.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "salary", salary.Category)

	rent, err := s.CreateTransaction(ctx, core.Transaction{
		Kind: core.TxExpense, Date: core.NewDate(2025, 4, 3), Amount: core.Money{Cents: 90000},
		Category: "rent", FromAccount: &bank.ID,
	})
	require.NoError(t, err)

	_, err = s.CreateTransaction(ctx, core.Transaction{Kind: core.TxExpense, Date: core.NewDate(2025, 4, 3), Amount: core.Money{Cents: 1}})
	assert.ErrorIs(t, err, core.ErrValidation, "an expense needs a source account")

	ov, err := s.MonthOverview(ctx, 2025, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(300000), ov.Income.Cents)
	assert.Equal(t, int64(90000), ov.Expense.Cents)
	assert.Equal(t, int64(210000), ov.Net.Cents)
	require.Len(t, ov.ByCategory, 1)
	assert.Equal(t, "rent", ov.ByCategory[0].Name)

	require.NoError(t, s.DeleteTransaction(ctx, rent.ID))
	assert.ErrorIs(t, s.DeleteTransaction(ctx, rent.ID), core.ErrNotFound)

	list, err := s.ListTransactions(ctx, 2025, 4)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, salary.ID, list[0].ID)

	accounts, err := s.Accounts(ctx, false)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, int64(350000), accounts[0].Balance.Cents)

	assert.Equal(t, []amqp.EventType{amqp.TransactionCreated, amqp.TransactionCreated, amqp.TransactionDeleted}, pub.types())

	_, err = s.MonthOverview(ctx, 2025, 0)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestLedgerServiceRejectsArchivedAccount(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	s := NewLedgerService(repo, nil)

	cash := mustAccount(t, repo, "Cash", core.AccountCash, 0)
	require.NoError(t, s.ArchiveAccount(ctx, cash.ID, true))

	_, err := s.CreateTransaction(ctx, core.Transaction{
		Kind: core.TxIncome, Date: core.NewDate(2025, 4, 1), Amount: core.Money{Cents: 100}, ToAccount: &cash.ID,
	})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestLedgerServicePublishFailureKeepsTransaction(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	s := NewLedgerService(repo, &recordingPublisher{err: amqp.ErrCircuitOpen})
	bank := mustAccount(t, repo, "Bank", core.AccountBank, 0)

	tx, err := s.CreateTransaction(ctx, core.Transaction{
		Kind: core.TxIncome, Date: core.NewDate(2025, 4, 1), Amount: core.Money{Cents: 100}, ToAccount: &bank.ID,
	})
	require.NoError(t, err)

	got, err := s.GetTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), got.Amount.Cents)
}

func TestCheckLoanMovement(t *testing.T) {
	acc := int64(1)
	borrowed := core.Loan{Name: "car", Direction: core.LoanBorrowed}
	lent := core.Loan{Name: "friend", Direction: core.LoanLent}

	tests := []struct {
		name string
		loan core.Loan
		tx   core.Transaction
		ok   bool
	}{
		{"borrowed disbursement", borrowed, core.Transaction{Kind: core.TxLoanTaken, ToAccount: &acc}, true},
		{"borrowed emi", borrowed, core.Transaction{Kind: core.TxEMIPayment, FromAccount: &acc}, true},
		{"borrowed repayment out", borrowed, core.Transaction{Kind: core.TxLoanRepayment, FromAccount: &acc}, true},
		{"borrowed repayment in", borrowed, core.Transaction{Kind: core.TxLoanRepayment, ToAccount: &acc}, false},
		{"borrowed lent out", borrowed, core.Transaction{Kind: core.TxLoanGiven, FromAccount: &acc}, false},
		{"lent disbursement", lent, core.Transaction{Kind: core.TxLoanGiven, FromAccount: &acc}, true},
		{"lent repayment in", lent, core.Transaction{Kind: core.TxLoanRepayment, ToAccount: &acc}, true},
		{"lent emi", lent, core.Transaction{Kind: core.TxEMIPayment, FromAccount: &acc}, false},
		{"plain expense", borrowed, core.Transaction{Kind: core.TxExpense, FromAccount: &acc}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkLoanMovement(tt.loan, tt.tx)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, core.ErrValidation)
			}
		})
	}
}

func TestLedgerServiceRecurringTemplates(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	s := NewLedgerService(repo, nil)
	bank := mustAccount(t, repo, "Bank", core.AccountBank, 0)

	rt, err := s.CreateRecurring(ctx, core.RecurringTransaction{
		Kind: core.TxExpense, Every: core.Monthly, StartDate: core.NewDate(2025, 1, 5),
		Amount: core.Money{Cents: 1299}, AccountID: bank.ID, Description: " Streaming ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Streaming", rt.Description)

	_, err = s.CreateRecurring(ctx, core.RecurringTransaction{
		Kind: core.TxExpense, Every: core.Monthly, StartDate: core.NewDate(2025, 1, 5),
		Amount: core.Money{Cents: 1299}, AccountID: 999, Description: "Gym",
	})
	assert.ErrorIs(t, err, core.ErrNotFound)

	loan, err := repo.CreateLoan(ctx, core.Loan{
		Name: "friend", Direction: core.LoanLent, Principal: core.Money{Cents: 100000},
		AnnualRate: decimal.Zero, TenureMonths: 10, StartDate: core.NewDate(2025, 1, 1),
	})
	require.NoError(t, err)
	_, err = s.CreateRecurring(ctx, core.RecurringTransaction{
		Kind: core.TxEMIPayment, Every: core.Monthly, StartDate: core.NewDate(2025, 2, 1),
		Amount: core.Money{Cents: 10000}, AccountID: bank.ID, Description: "EMI", LoanID: &loan.ID,
	})
	assert.ErrorIs(t, err, core.ErrValidation, "a lent loan has no EMI to pay")

	list, err := s.ListRecurring(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.DeleteRecurring(ctx, rt.ID))
	list, err = s.ListRecurring(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}
