package core

import (
	"strings"
	"time"
)

const (
	AccountCash    AccountKind = "cash"
	AccountBank    AccountKind = "bank"
	AccountCard    AccountKind = "card"
	AccountSavings AccountKind = "savings"
	AccountWallet  AccountKind = "wallet"
)

const (
	TxIncome        TransactionKind = "income"
	TxExpense       TransactionKind = "expense"
	TxTransfer      TransactionKind = "transfer"
	TxLoanTaken     TransactionKind = "loan_taken"
	TxLoanGiven     TransactionKind = "loan_given"
	TxLoanRepayment TransactionKind = "loan_repayment"
	TxEMIPayment    TransactionKind = "emi_payment"
)

type (
	AccountKind string

	// Account is a named bucket money moves in and out of.
	Account struct {
		ID        int64       `json:"id"`
		Name      string      `json:"name"`
		Kind      AccountKind `json:"kind"`
		Opening   Money       `json:"opening_balance"`
		Archived  bool        `json:"archived"`
		CreatedAt time.Time   `json:"created_at"`
	}

	AccountBalance struct {
		Account
		Balance Money `json:"balance"`
	}

	TransactionKind string

	// Transaction is a single ledger entry touching one or two accounts.
	Transaction struct {
		ID          int64           `json:"id"`
		Kind        TransactionKind `json:"kind"`
		Date        Date            `json:"date"`
		Amount      Money           `json:"amount"`
		Category    string          `json:"category,omitempty"`
		Description string          `json:"description,omitempty"`
		FromAccount *int64          `json:"from_account,omitempty"`
		ToAccount   *int64          `json:"to_account,omitempty"`
		LoanID      *int64          `json:"loan_id,omitempty"`
		RecurringID *int64          `json:"recurring_id,omitempty"`
		CreatedAt   time.Time       `json:"created_at"`
	}
)

func (k AccountKind) Valid() bool {
	switch k {
	case AccountCash, AccountBank, AccountCard, AccountSavings, AccountWallet:
		return true
	}
	return false
}

func (a Account) Validate() error {
	if err := validateText("name", a.Name, 50, true); err != nil {
		return err
	}
	if !a.Kind.Valid() {
		return invalidf("invalid account kind %q", a.Kind)
	}
	return nil
}

func (k TransactionKind) Valid() bool {
	switch k {
	case TxIncome, TxExpense, TxTransfer, TxLoanTaken, TxLoanGiven, TxLoanRepayment, TxEMIPayment:
		return true
	}
	return false
}

// ParseTransactionKind parses a kind name, case-insensitively.
func ParseTransactionKind(s string) (TransactionKind, error) {
	k := TransactionKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", ErrInvalidKind
	}
	return k, nil
}

// IsLoanMovement reports whether the kind must reference a loan.
func (k TransactionKind) IsLoanMovement() bool {
	switch k {
	case TxLoanTaken, TxLoanGiven, TxLoanRepayment, TxEMIPayment:
		return true
	}
	return false
}

func (t Transaction) Validate() error {
	if !t.Kind.Valid() {
		return ErrInvalidKind
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := validateText("description", t.Description, 200, false); err != nil {
		return err
	}
	if err := validateText("category", t.Category, 50, false); err != nil {
		return err
	}

	from, to := t.FromAccount != nil, t.ToAccount != nil
	switch t.Kind {
	case TxIncome, TxLoanTaken:
		if from || !to {
			return invalidf("%s needs a destination account only", t.Kind)
		}
	case TxExpense, TxLoanGiven, TxEMIPayment:
		if !from || to {
			return invalidf("%s needs a source account only", t.Kind)
		}
	case TxTransfer:
		if !from || !to {
			return invalid("transfer needs both source and destination accounts")
		}
		if *t.FromAccount == *t.ToAccount {
			return invalid("transfer accounts must differ")
		}
	case TxLoanRepayment:
		if from == to {
			return invalid("loan repayment needs exactly one account")
		}
	}

	if t.Kind.IsLoanMovement() && t.LoanID == nil {
		return invalidf("%s must reference a loan", t.Kind)
	}
	if !t.Kind.IsLoanMovement() && t.LoanID != nil {
		return invalidf("%s cannot reference a loan", t.Kind)
	}
	return nil
}

// Effect is the signed change this transaction makes to accountID.
func (t Transaction) Effect(accountID int64) Money {
	var m Money
	if t.ToAccount != nil && *t.ToAccount == accountID {
		m = m.Add(t.Amount)
	}
	if t.FromAccount != nil && *t.FromAccount == accountID {
		m = m.Sub(t.Amount)
	}
	return m
}

// CategoryOrKind falls back to the kind name for uncategorised entries.
func (t Transaction) CategoryOrKind() string {
	if c := strings.TrimSpace(t.Category); c != "" {
		return c
	}
	return string(t.Kind)
}

// CountsAsIncome and CountsAsExpense decide which side of a monthly overview
// a transaction lands on. Transfers and loan principal movements land on neither.
func (t Transaction) CountsAsIncome() bool {
	return t.Kind == TxIncome
}

func (t Transaction) CountsAsExpense() bool {
	return t.Kind == TxExpense || t.Kind == TxEMIPayment
}
