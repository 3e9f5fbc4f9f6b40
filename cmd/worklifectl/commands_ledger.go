package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"worklife/internal/core"
	"worklife/internal/services"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
	}

	var kind, opening string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acc := core.Account{Name: args[0], Kind: core.AccountKind(strings.ToLower(kind))}
			if opening != "" {
				m, err := core.ParseMoney(opening)
				if err != nil {
					return err
				}
				acc.Opening = m
			}
			created, err := a.ledger.CreateAccount(cmd.Context(), acc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created account %d %s\n", created.ID, titleStyle.Render(created.Name))
			return nil
		},
	}
	add.Flags().StringVar(&kind, "kind", string(core.AccountBank), "cash, bank, card, savings or wallet")
	add.Flags().StringVar(&opening, "opening", "", "opening balance")

	var archived bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List accounts with their balances",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			accounts, err := a.ledger.Accounts(cmd.Context(), archived)
			if err != nil {
				return err
			}
			t := newTable("ID", "NAME", "KIND", "BALANCE")
			for _, acc := range accounts {
				t.add(strconv.FormatInt(acc.ID, 10), acc.Name, string(acc.Kind), signedMoney(acc.Balance))
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}
	list.Flags().BoolVar(&archived, "archived", false, "include archived accounts")

	cmd.AddCommand(add, list)
	return cmd
}

func newTxCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and list transactions",
	}

	var from, to, loan int64
	var category, desc, date string
	add := &cobra.Command{
		Use:   "add KIND AMOUNT",
		Short: "Record a transaction",
		Example: `  worklifectl tx add expense 12,50 --from 1 --category food
  worklifectl tx add income 2100 --to 1 --category salary
  worklifectl tx add transfer 200 --from 1 --to 2`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseMoney(args[1])
			if err != nil {
				return err
			}
			day, err := a.resolveDay(date)
			if err != nil {
				return err
			}
			t := core.Transaction{
				Kind:        core.TransactionKind(strings.ToLower(args[0])),
				Date:        day,
				Amount:      amount,
				Category:    category,
				Description: desc,
				FromAccount: optionalFlag(from),
				ToAccount:   optionalFlag(to),
				LoanID:      optionalFlag(loan),
			}
			created, err := a.ledger.CreateTransaction(cmd.Context(), t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s %s on %s (id %d)\n",
				created.Kind, created.Amount, created.Date, created.ID)
			return nil
		},
	}
	add.Flags().Int64Var(&from, "from", 0, "account the money leaves")
	add.Flags().Int64Var(&to, "to", 0, "account the money enters")
	add.Flags().Int64Var(&loan, "loan", 0, "loan the transaction belongs to")
	add.Flags().StringVar(&category, "category", "", "category")
	add.Flags().StringVar(&desc, "desc", "", "description")
	add.Flags().StringVar(&date, "date", "", "day as YYYY-MM-DD (default: today)")

	var year, month int
	list := &cobra.Command{
		Use:   "list",
		Short: "List a month's transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			y, m, err := a.resolveMonth(year, month)
			if err != nil {
				return err
			}
			txs, err := a.ledger.ListTransactions(cmd.Context(), y, m)
			if err != nil {
				return err
			}
			t := newTable("ID", "DATE", "KIND", "AMOUNT", "FROM", "TO", "CATEGORY", "DESCRIPTION")
			for _, tx := range txs {
				t.add(strconv.FormatInt(tx.ID, 10), tx.Date.String(), string(tx.Kind), tx.Amount.String(),
					optionalID(tx.FromAccount), optionalID(tx.ToAccount), tx.Category, tx.Description)
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}
	monthFlags(list, &year, &month)

	remove := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := a.ledger.DeleteTransaction(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted transaction %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(add, list, remove)
	return cmd
}

func optionalFlag(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

func newOverviewCmd(a *app) *cobra.Command {
	var year, month int
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Show a month's income, expense and categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			y, m, err := a.resolveMonth(year, month)
			if err != nil {
				return err
			}
			ov, err := a.ledger.MonthOverview(cmd.Context(), y, m)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			keyValues(out, fmt.Sprintf("%04d-%02d", y, m),
				[2]string{"Income", ov.Income.String()},
				[2]string{"Expense", ov.Expense.String()},
				[2]string{"Net", signedMoney(ov.Net)},
			)
			t := newTable("CATEGORY", "AMOUNT")
			for _, c := range ov.ByCategory {
				t.add(c.Name, c.Amount.String())
			}
			t.render(out)
			return nil
		},
	}
	monthFlags(cmd, &year, &month)
	return cmd
}

func newLoanCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loan",
		Short: "Track loans and their EMI schedules",
	}

	var direction, counterparty, rate, start string
	var tenure int
	var disburse, autoDebit int64
	add := &cobra.Command{
		Use:   "add NAME PRINCIPAL",
		Short: "Record a loan",
		Example: `  worklifectl loan add Car 12000 --rate 6.5 --months 48 --start 2025-01-15 --disburse 1 --auto-debit 1
  worklifectl loan add Friend 300 --direction lent --months 3`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := core.ParseMoney(args[1])
			if err != nil {
				return err
			}
			annual, err := parseDecimal("rate", rate)
			if err != nil {
				return err
			}
			day, err := a.resolveDay(start)
			if err != nil {
				return err
			}
			dir, err := core.ParseLoanDirection(direction)
			if err != nil {
				return err
			}
			res, err := a.loans.Create(cmd.Context(), services.LoanRequest{
				Loan: core.Loan{
					Name:         args[0],
					Counterparty: counterparty,
					Direction:    dir,
					Principal:    principal,
					AnnualRate:   annual,
					TenureMonths: tenure,
					StartDate:    day,
				},
				DisburseAccount:  optionalFlag(disburse),
				AutoDebitAccount: optionalFlag(autoDebit),
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created loan %d %s, EMI %s\n", res.Loan.ID, titleStyle.Render(res.Loan.Name), res.Loan.EMI())
			if res.Disbursement != nil {
				fmt.Fprintf(out, "Booked disbursement %d on %s\n", res.Disbursement.ID, res.Disbursement.Date)
			}
			if res.AutoDebit != nil {
				fmt.Fprintf(out, "EMI auto-debit from account %d, %s to %s\n",
					res.AutoDebit.AccountID, res.AutoDebit.StartDate, res.AutoDebit.EndDate)
			}
			return nil
		},
	}
	add.Flags().StringVar(&direction, "direction", string(core.LoanBorrowed), "borrowed or lent")
	add.Flags().StringVar(&counterparty, "counterparty", "", "lender or borrower")
	add.Flags().StringVar(&rate, "rate", "0", "annual interest rate in percent")
	add.Flags().IntVar(&tenure, "months", 12, "tenure in months")
	add.Flags().StringVar(&start, "start", "", "start date YYYY-MM-DD (default: today)")
	add.Flags().Int64Var(&disburse, "disburse", 0, "account that receives or pays out the principal")
	add.Flags().Int64Var(&autoDebit, "auto-debit", 0, "account the monthly EMI is debited from")

	list := &cobra.Command{
		Use:   "list",
		Short: "List loans with their outstanding balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			loans, err := a.loans.List(ctx)
			if err != nil {
				return err
			}
			t := newTable("ID", "NAME", "DIRECTION", "PRINCIPAL", "EMI", "OUTSTANDING", "PAID", "NEXT DUE")
			for _, l := range loans {
				st, err := a.loans.Status(ctx, l.ID)
				if err != nil {
					return err
				}
				t.add(strconv.FormatInt(l.ID, 10), l.Name, string(l.Direction), l.Principal.String(), st.EMI.String(),
					st.Outstanding.String(), fmt.Sprintf("%d/%d", st.InstallmentsPaid, l.TenureMonths), optionalDate(st.NextDue))
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}

	schedule := &cobra.Command{
		Use:   "schedule ID",
		Short: "Print a loan's amortization table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			rows, err := a.loans.Schedule(cmd.Context(), id)
			if err != nil {
				return err
			}
			t := newTable("#", "DUE", "PAYMENT", "INTEREST", "PRINCIPAL", "BALANCE")
			for _, in := range rows {
				t.add(strconv.Itoa(in.Number), in.DueDate.String(), in.Payment.String(),
					in.Interest.String(), in.Principal.String(), in.Balance.String())
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.AddCommand(add, list, schedule)
	return cmd
}
