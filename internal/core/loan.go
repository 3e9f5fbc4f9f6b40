package core

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	LoanBorrowed LoanDirection = "borrowed"
	LoanLent     LoanDirection = "lent"
)

// powPrecision bounds the digits kept while compounding the monthly rate.
const powPrecision = 24

type (
	LoanDirection string

	// Loan is money borrowed from or lent to a counterparty, repaid in equal
	// monthly installments.
	Loan struct {
		ID           int64           `json:"id"`
		Name         string          `json:"name"`
		Counterparty string          `json:"counterparty,omitempty"`
		Direction    LoanDirection   `json:"direction"`
		Principal    Money           `json:"principal"`
		AnnualRate   decimal.Decimal `json:"annual_rate"`
		TenureMonths int             `json:"tenure_months"`
		StartDate    Date            `json:"start_date"`
		CreatedAt    time.Time       `json:"created_at"`
	}

	// Installment is one row of an amortization schedule.
	Installment struct {
		Number    int   `json:"number"`
		DueDate   Date  `json:"due_date"`
		Payment   Money `json:"payment"`
		Interest  Money `json:"interest"`
		Principal Money `json:"principal"`
		Balance   Money `json:"balance"`
	}

	// LoanStatus is the repayment position of a loan given its recorded payments.
	LoanStatus struct {
		Loan             Loan  `json:"loan"`
		EMI              Money `json:"emi"`
		PrincipalPaid    Money `json:"principal_paid"`
		InterestPaid     Money `json:"interest_paid"`
		Outstanding      Money `json:"outstanding"`
		InstallmentsPaid int   `json:"installments_paid"`
		NextDue          *Date `json:"next_due,omitempty"`
		Closed           bool  `json:"closed"`
	}
)

func (d LoanDirection) Valid() bool {
	return d == LoanBorrowed || d == LoanLent
}

// ParseLoanDirection parses a direction name, case-insensitively.
func ParseLoanDirection(s string) (LoanDirection, error) {
	d := LoanDirection(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", invalidf("invalid loan direction %q", s)
	}
	return d, nil
}

func (l Loan) Validate() error {
	if err := validateText("name", l.Name, 100, true); err != nil {
		return err
	}
	if err := validateText("counterparty", l.Counterparty, 100, false); err != nil {
		return err
	}
	if !l.Direction.Valid() {
		return invalidf("invalid loan direction %q", l.Direction)
	}
	if err := l.Principal.Validate(); err != nil {
		return err
	}
	if l.AnnualRate.IsNegative() || l.AnnualRate.GreaterThan(decimal.NewFromInt(100)) {
		return ErrInvalidRate
	}
	if l.TenureMonths < 1 || l.TenureMonths > 600 {
		return invalid("tenure must be between 1 and 600 months")
	}
	return l.StartDate.Validate()
}

func (l Loan) monthlyRate() decimal.Decimal {
	return l.AnnualRate.Div(decimal.NewFromInt(1200))
}

// EMI is the equated monthly installment P·r·(1+r)^n / ((1+r)^n − 1), or
// P/n for an interest free loan, rounded to cents.
func (l Loan) EMI() Money {
	if l.TenureMonths < 1 {
		return Money{}
	}
	p := l.Principal.Decimal()
	n := decimal.NewFromInt(int64(l.TenureMonths))
	r := l.monthlyRate()
	if r.IsZero() {
		return MoneyFromDecimal(p.Div(n))
	}

	growth := decimal.NewFromInt(1)
	base := r.Add(decimal.NewFromInt(1))
	for i := 0; i < l.TenureMonths; i++ {
		growth = growth.Mul(base).Round(powPrecision)
	}
	return MoneyFromDecimal(p.Mul(r).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1))))
}

func (l Loan) interestOn(balance Money) Money {
	return MoneyFromDecimal(balance.Decimal().Mul(l.monthlyRate()))
}

// Schedule returns the amortization table. Installments fall due monthly
// from one month after the start date; the last one settles whatever
// rounding left over.
func (l Loan) Schedule() []Installment {
	emi := l.EMI()
	balance := l.Principal
	rows := make([]Installment, 0, l.TenureMonths)
	for i := 1; i <= l.TenureMonths; i++ {
		interest := l.interestOn(balance)
		principal := emi.Sub(interest)
		if i == l.TenureMonths || principal.Cents > balance.Cents {
			principal = balance
		}
		balance = balance.Sub(principal)
		rows = append(rows, Installment{
			Number:    i,
			DueDate:   l.StartDate.AddMonths(i),
			Payment:   principal.Add(interest),
			Interest:  interest,
			Principal: principal,
			Balance:   balance,
		})
		if balance.IsZero() {
			break
		}
	}
	return rows
}

// Status replays the loan's payments in date order. An EMI payment covers the
// month's interest first and the rest reduces principal; a repayment is a
// principal-only prepayment. Other kinds are ignored.
func (l Loan) Status(payments []Transaction) LoanStatus {
	ordered := make([]Transaction, 0, len(payments))
	for _, p := range payments {
		if p.Kind == TxEMIPayment || p.Kind == TxLoanRepayment {
			ordered = append(ordered, p)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Date.Before(ordered[j].Date.Time) })

	st := LoanStatus{Loan: l, EMI: l.EMI(), Outstanding: l.Principal}
	for _, p := range ordered {
		if st.Outstanding.Cents <= 0 {
			break
		}
		principal := p.Amount
		if p.Kind == TxEMIPayment {
			interest := l.interestOn(st.Outstanding)
			if interest.Cents > p.Amount.Cents {
				interest = p.Amount
			}
			st.InterestPaid = st.InterestPaid.Add(interest)
			principal = p.Amount.Sub(interest)
			st.InstallmentsPaid++
		}
		if principal.Cents > st.Outstanding.Cents {
			principal = st.Outstanding
		}
		st.PrincipalPaid = st.PrincipalPaid.Add(principal)
		st.Outstanding = st.Outstanding.Sub(principal)
	}

	st.Closed = st.Outstanding.Cents <= 0
	if !st.Closed && st.InstallmentsPaid < l.TenureMonths {
		next := l.StartDate.AddMonths(st.InstallmentsPaid + 1)
		st.NextDue = &next
	}
	return st
}

// Outstanding is the principal still owed after payments.
func (l Loan) Outstanding(payments []Transaction) Money {
	return l.Status(payments).Outstanding
}
