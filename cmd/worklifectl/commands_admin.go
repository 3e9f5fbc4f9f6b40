package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"worklife/internal/core"
	"worklife/internal/storage"
)

func newRecurringCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring transactions",
	}

	var kind, every, start, end, category string
	var account int64
	add := &cobra.Command{
		Use:   "add DESCRIPTION AMOUNT",
		Short: "Create a recurring transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := core.ParseMoney(args[1])
			if err != nil {
				return err
			}
			rep, err := core.ParseRepetition(every)
			if err != nil {
				return err
			}
			startDay, err := a.resolveDay(start)
			if err != nil {
				return err
			}
			rt := core.RecurringTransaction{
				Kind:        core.TransactionKind(strings.ToLower(kind)),
				Every:       rep,
				StartDate:   startDay,
				Amount:      amount,
				AccountID:   account,
				Category:    category,
				Description: args[0],
			}
			if end != "" {
				if rt.EndDate, err = core.ParseDate(end); err != nil {
					return err
				}
			}
			created, err := a.ledger.CreateRecurring(cmd.Context(), rt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created recurring %d: %s %s %s\n", created.ID, created.Every, created.Kind, created.Amount)
			return nil
		},
	}
	add.Flags().StringVar(&kind, "kind", string(core.TxExpense), "income or expense")
	add.Flags().StringVar(&every, "every", string(core.Monthly), "daily, weekly, monthly or yearly")
	add.Flags().StringVar(&start, "start", "", "first day YYYY-MM-DD (default: today)")
	add.Flags().StringVar(&end, "end", "", "last day YYYY-MM-DD (default: open ended)")
	add.Flags().StringVar(&category, "category", "", "category")
	add.Flags().Int64Var(&account, "account", 0, "account debited or credited")
	_ = add.MarkFlagRequired("account")

	list := &cobra.Command{
		Use:   "list",
		Short: "List recurring transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := a.ledger.ListRecurring(cmd.Context())
			if err != nil {
				return err
			}
			t := newTable("ID", "DESCRIPTION", "KIND", "EVERY", "AMOUNT", "ACCOUNT", "FROM", "UNTIL", "LAST RUN")
			for _, rt := range templates {
				until, last := "-", "-"
				if !rt.EndDate.IsZero() {
					until = rt.EndDate.String()
				}
				if !rt.LastExecution.IsZero() {
					last = rt.LastExecution.Local().Format("2006-01-02")
				}
				t.add(strconv.FormatInt(rt.ID, 10), rt.Description, string(rt.Kind), string(rt.Every), rt.Amount.String(),
					strconv.FormatInt(rt.AccountID, 10), rt.StartDate.String(), until, last)
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "Post every recurring transaction that is due now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			posted, err := a.recurring.ProcessDue(cmd.Context(), a.now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted %d transactions\n", posted)
			return nil
		},
	}

	cmd.AddCommand(add, list, run)
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Inspect the spreadsheet export queue",
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Count transactions per export status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := a.exports.Stats(cmd.Context())
			if err != nil {
				return err
			}
			statuses := make([]string, 0, len(counts))
			for s := range counts {
				statuses = append(statuses, string(s))
			}
			sort.Strings(statuses)

			t := newTable("STATUS", "COUNT")
			for _, s := range statuses {
				t.add(s, strconv.FormatInt(counts[storage.ExportStatus(s)], 10))
			}
			t.render(cmd.OutOrStdout())
			return nil
		},
	}

	retry := &cobra.Command{
		Use:   "retry",
		Short: "Queue failed exports again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := a.exports.RetryFailed(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d transactions\n", n)
			return nil
		},
	}

	cmd.AddCommand(stats, retry)
	return cmd
}

func newDBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database maintenance",
	}

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, dirty, err := storage.SchemaVersion(a.dbPath)
			if err != nil {
				return err
			}
			state := positiveStyle.Render("clean")
			if dirty {
				state = negativeStyle.Render("dirty")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema version %d (%s)\n", v, state)
			return nil
		},
	}

	cmd.AddCommand(version)
	return cmd
}
