package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"worklife/internal/amqp"
	"worklife/internal/core"
	"worklife/internal/storage"
)

// LoanRequest describes a new loan. When DisburseAccount is set the principal
// is booked on the start date; when AutoDebitAccount is set a monthly EMI
// template is created for a borrowed loan.
type LoanRequest struct {
	Loan             core.Loan `json:"loan"`
	DisburseAccount  *int64    `json:"disburse_account,omitempty"`
	AutoDebitAccount *int64    `json:"auto_debit_account,omitempty"`
}

// LoanCreated is the stored loan and whatever was booked alongside it.
type LoanCreated struct {
	Loan         core.Loan                  `json:"loan"`
	Disbursement *core.Transaction          `json:"disbursement,omitempty"`
	AutoDebit    *core.RecurringTransaction `json:"auto_debit,omitempty"`
}

type LoanService struct {
	storage   *storage.SQLiteRepository
	publisher EventPublisher
}

func NewLoanService(storage *storage.SQLiteRepository, publisher EventPublisher) *LoanService {
	return &LoanService{storage: storage, publisher: publisher}
}

func (s *LoanService) Create(ctx context.Context, req LoanRequest) (LoanCreated, error) {
	l := req.Loan
	l.Name = strings.TrimSpace(l.Name)
	l.Counterparty = strings.TrimSpace(l.Counterparty)
	if err := l.Validate(); err != nil {
		return LoanCreated{}, err
	}
	if req.AutoDebitAccount != nil && l.Direction != core.LoanBorrowed {
		return LoanCreated{}, fmt.Errorf("%w: auto-debit applies to borrowed loans only", core.ErrValidation)
	}

	var out LoanCreated
	err := s.storage.InTx(ctx, func(repo *storage.SQLiteRepository) error {
		var err error
		if out.Loan, err = repo.CreateLoan(ctx, l); err != nil {
			return err
		}
		loanID := out.Loan.ID

		if req.DisburseAccount != nil {
			t := core.Transaction{
				Date:        l.StartDate,
				Amount:      l.Principal,
				Category:    "loan",
				Description: l.Name,
				LoanID:      &loanID,
			}
			if l.Direction == core.LoanBorrowed {
				t.Kind, t.ToAccount = core.TxLoanTaken, req.DisburseAccount
			} else {
				t.Kind, t.FromAccount = core.TxLoanGiven, req.DisburseAccount
			}
			saved, err := createTransaction(ctx, repo, t)
			if err != nil {
				return fmt.Errorf("book disbursement: %w", err)
			}
			out.Disbursement = &saved
		}

		if req.AutoDebitAccount != nil {
			rt := core.RecurringTransaction{
				Kind:        core.TxEMIPayment,
				Every:       core.Monthly,
				StartDate:   l.StartDate.AddMonths(1),
				EndDate:     l.StartDate.AddMonths(l.TenureMonths),
				Amount:      l.EMI(),
				AccountID:   *req.AutoDebitAccount,
				Category:    "emi",
				Description: "EMI " + l.Name,
				LoanID:      &loanID,
			}
			if err := rt.Validate(); err != nil {
				return err
			}
			if _, err := repo.GetAccount(ctx, rt.AccountID); err != nil {
				return fmt.Errorf("auto-debit account %d: %w", rt.AccountID, err)
			}
			saved, err := repo.CreateRecurring(ctx, rt)
			if err != nil {
				return err
			}
			out.AutoDebit = &saved
		}
		return nil
	})
	if err != nil {
		return LoanCreated{}, err
	}

	slog.InfoContext(ctx, "Loan created",
		"id", out.Loan.ID,
		"direction", l.Direction,
		"principal_cents", l.Principal.Cents,
		"emi_cents", l.EMI().Cents)
	if out.Disbursement != nil {
		publish(ctx, s.publisher, amqp.NewEvent(amqp.TransactionCreated, out.Disbursement.ID))
	}
	return out, nil
}

func (s *LoanService) Get(ctx context.Context, id int64) (core.Loan, error) {
	return s.storage.GetLoan(ctx, id)
}

func (s *LoanService) List(ctx context.Context) ([]core.Loan, error) {
	return s.storage.ListLoans(ctx)
}

func (s *LoanService) Schedule(ctx context.Context, id int64) ([]core.Installment, error) {
	l, err := s.storage.GetLoan(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.Schedule(), nil
}

// Status replays the loan's recorded payments.
func (s *LoanService) Status(ctx context.Context, id int64) (core.LoanStatus, error) {
	l, err := s.storage.GetLoan(ctx, id)
	if err != nil {
		return core.LoanStatus{}, err
	}
	payments, err := s.storage.LoanTransactions(ctx, id)
	if err != nil {
		return core.LoanStatus{}, err
	}
	return l.Status(payments), nil
}
