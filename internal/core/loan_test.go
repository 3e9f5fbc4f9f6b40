package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func carLoan() Loan {
	return Loan{
		Name:         "car",
		Counterparty: "bank",
		Direction:    LoanBorrowed,
		Principal:    Money{Cents: 10000000},
		AnnualRate:   dec("12"),
		TenureMonths: 12,
		StartDate:    NewDate(2025, 1, 15),
	}
}

func TestLoanEMI(t *testing.T) {
	assert.Equal(t, int64(888488), carLoan().EMI().Cents)

	free := carLoan()
	free.AnnualRate = dec("0")
	free.Principal = Money{Cents: 120000}
	assert.Equal(t, int64(10000), free.EMI().Cents)

	free.Principal = Money{Cents: 100000}
	free.TenureMonths = 3
	assert.Equal(t, int64(33333), free.EMI().Cents)
}

func TestLoanSchedule(t *testing.T) {
	l := carLoan()
	rows := l.Schedule()
	require.Len(t, rows, 12)

	first := rows[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, NewDate(2025, 2, 15), first.DueDate)
	assert.Equal(t, int64(100000), first.Interest.Cents)
	assert.Equal(t, int64(788488), first.Principal.Cents)
	assert.Equal(t, int64(9211512), first.Balance.Cents)

	var principal int64
	for _, r := range rows {
		principal += r.Principal.Cents
		assert.Equal(t, r.Payment.Cents, r.Principal.Cents+r.Interest.Cents)
	}
	assert.Equal(t, l.Principal.Cents, principal)

	last := rows[len(rows)-1]
	assert.True(t, last.Balance.IsZero())
	assert.Equal(t, NewDate(2026, 1, 15), last.DueDate)
	assert.InDelta(t, l.EMI().Cents, last.Payment.Cents, 12, "final row only absorbs rounding")
}

func TestLoanScheduleInterestFree(t *testing.T) {
	l := carLoan()
	l.AnnualRate = dec("0")
	l.Principal = Money{Cents: 100000}
	l.TenureMonths = 3
	rows := l.Schedule()
	require.Len(t, rows, 3)
	assert.Equal(t, int64(33333), rows[0].Payment.Cents)
	assert.Equal(t, int64(33334), rows[2].Payment.Cents)
}

func TestLoanStatus(t *testing.T) {
	l := carLoan()
	emi := l.EMI()
	payments := []Transaction{
		{Kind: TxEMIPayment, Date: NewDate(2025, 3, 15), Amount: emi},
		{Kind: TxEMIPayment, Date: NewDate(2025, 2, 15), Amount: emi},
		{Kind: TxLoanTaken, Date: NewDate(2025, 1, 15), Amount: l.Principal},
	}
	st := l.Status(payments)
	assert.Equal(t, 2, st.InstallmentsPaid)
	assert.Equal(t, int64(100000+92115), st.InterestPaid.Cents)
	assert.Equal(t, int64(8415139), st.Outstanding.Cents)
	require.NotNil(t, st.NextDue)
	assert.Equal(t, NewDate(2025, 4, 15), *st.NextDue)
	assert.False(t, st.Closed)

	payments = append(payments, Transaction{Kind: TxLoanRepayment, Date: NewDate(2025, 3, 20), Amount: Money{Cents: 9000000}})
	st = l.Status(payments)
	assert.True(t, st.Closed)
	assert.Nil(t, st.NextDue)
	assert.True(t, st.Outstanding.IsZero())
	assert.Equal(t, l.Principal, st.PrincipalPaid)
	assert.True(t, l.Outstanding(payments).IsZero())
}

func TestLoanValidate(t *testing.T) {
	require.NoError(t, carLoan().Validate())

	mutations := []func(*Loan){
		func(l *Loan) { l.Name = "" },
		func(l *Loan) { l.Direction = "sideways" },
		func(l *Loan) { l.Principal = Money{} },
		func(l *Loan) { l.AnnualRate = dec("-1") },
		func(l *Loan) { l.TenureMonths = 0 },
		func(l *Loan) { l.TenureMonths = 601 },
		func(l *Loan) { l.StartDate = Date{} },
	}
	for i, mutate := range mutations {
		l := carLoan()
		mutate(&l)
		assert.ErrorIs(t, l.Validate(), ErrValidation, "mutation %d", i)
	}
}

func TestRecurringTransaction(t *testing.T) {
	rt := RecurringTransaction{
		ID:          4,
		Kind:        TxExpense,
		Every:       Monthly,
		StartDate:   NewDate(2025, 1, 31),
		EndDate:     NewDate(2025, 6, 30),
		Amount:      Money{Cents: 1299},
		AccountID:   2,
		Category:    "subscriptions",
		Description: "music",
	}
	require.NoError(t, rt.Validate())

	assert.False(t, rt.ActiveOn(NewDate(2025, 1, 30)))
	assert.True(t, rt.ActiveOn(NewDate(2025, 6, 30)))
	assert.False(t, rt.ActiveOn(NewDate(2025, 7, 1)))

	tx := rt.Materialize(NewDate(2025, 2, 28))
	require.NoError(t, tx.Validate())
	require.NotNil(t, tx.FromAccount)
	assert.Equal(t, int64(2), *tx.FromAccount)
	assert.Nil(t, tx.ToAccount)
	assert.Equal(t, int64(4), *tx.RecurringID)

	income := rt
	income.Kind = TxIncome
	tx = income.Materialize(NewDate(2025, 2, 28))
	require.NotNil(t, tx.ToAccount)
	assert.Nil(t, tx.FromAccount)

	bad := []func(*RecurringTransaction){
		func(r *RecurringTransaction) { r.Kind = TxTransfer },
		func(r *RecurringTransaction) { r.Every = "hourly" },
		func(r *RecurringTransaction) { r.EndDate = NewDate(2024, 12, 31) },
		func(r *RecurringTransaction) { r.AccountID = 0 },
		func(r *RecurringTransaction) { r.Description = "" },
		func(r *RecurringTransaction) { r.Kind = TxEMIPayment },
	}
	for i, mutate := range bad {
		r := rt
		mutate(&r)
		assert.ErrorIs(t, r.Validate(), ErrValidation, "mutation %d", i)
	}
}
