package core

import (
	"strings"
	"time"
)

const (
	Monthly RepetitionTypes = "monthly"
	Yearly  RepetitionTypes = "yearly"
	Weekly  RepetitionTypes = "weekly"
	Daily   RepetitionTypes = "daily"
)

type (
	RepetitionTypes string

	// RecurringTransaction is a template posted to the ledger on a schedule.
	RecurringTransaction struct {
		ID            int64           `json:"id"`
		Kind          TransactionKind `json:"kind"`
		Every         RepetitionTypes `json:"every"`
		StartDate     Date            `json:"start_date"`
		EndDate       Date            `json:"end_date"`
		Amount        Money           `json:"amount"`
		AccountID     int64           `json:"account_id"`
		Category      string          `json:"category,omitempty"`
		Description   string          `json:"description"`
		LoanID        *int64          `json:"loan_id,omitempty"`
		LastExecution time.Time       `json:"last_execution,omitempty"`
	}
)

// ParseRepetition parses a frequency name, case-insensitively.
func ParseRepetition(s string) (RepetitionTypes, error) {
	r := RepetitionTypes(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case Daily, Weekly, Monthly, Yearly:
		return r, nil
	}
	return "", invalid("invalid repetition type")
}

func (rt RecurringTransaction) Validate() error {
	if err := rt.StartDate.Validate(); err != nil {
		return invalidf("invalid start date: %v", err)
	}
	if !rt.EndDate.IsZero() {
		if err := rt.EndDate.Validate(); err != nil {
			return invalidf("invalid end date: %v", err)
		}
		if rt.EndDate.Before(rt.StartDate.Time) {
			return invalid("end date must be after start date")
		}
	}
	if _, err := ParseRepetition(string(rt.Every)); err != nil {
		return err
	}
	switch rt.Kind {
	case TxIncome, TxExpense, TxEMIPayment:
	default:
		return invalidf("%s cannot recur", rt.Kind)
	}
	if rt.AccountID <= 0 {
		return invalid("recurring transaction needs an account")
	}
	if err := validateText("description", rt.Description, 200, true); err != nil {
		return err
	}
	if err := validateText("category", rt.Category, 50, false); err != nil {
		return err
	}
	if err := rt.Amount.Validate(); err != nil {
		return err
	}
	if rt.Kind == TxEMIPayment && rt.LoanID == nil {
		return invalid("emi_payment must reference a loan")
	}
	return nil
}

// ActiveOn reports whether day lies within the template's start and end dates.
func (rt RecurringTransaction) ActiveOn(day Date) bool {
	if day.Before(rt.StartDate.Time) {
		return false
	}
	return rt.EndDate.IsZero() || !day.After(rt.EndDate.Time)
}

// Materialize builds the ledger entry this template posts on day.
func (rt RecurringTransaction) Materialize(day Date) Transaction {
	id := rt.ID
	account := rt.AccountID
	tx := Transaction{
		Kind:        rt.Kind,
		Date:        day,
		Amount:      rt.Amount,
		Category:    rt.Category,
		Description: rt.Description,
		LoanID:      rt.LoanID,
		RecurringID: &id,
	}
	if rt.Kind == TxIncome {
		tx.ToAccount = &account
	} else {
		tx.FromAccount = &account
	}
	return tx
}
