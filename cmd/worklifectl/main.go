// Command worklifectl works on the worklife database directly, without the
// HTTP server.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"worklife/internal/cli"
	"worklife/internal/config"
	"worklife/internal/log"
	"worklife/internal/prefs"
	"worklife/internal/services"
	"worklife/internal/sheets/memory"
	"worklife/internal/storage"
)

// app is what every subcommand runs against. It is built lazily so that
// flags are parsed before the database is opened.
type app struct {
	dbPath    string
	prefsPath string
	now       func() time.Time

	repo      *storage.SQLiteRepository
	work      *services.WorkService
	habits    *services.HabitService
	focus     *services.FocusService
	ledger    *services.LedgerService
	loans     *services.LoanService
	recurring *services.RecurringProcessor
	exports   *services.ExportProcessor
}

func (a *app) open() error {
	repo, err := storage.NewSQLiteRepository(a.dbPath)
	if err != nil {
		return err
	}
	p, err := prefs.Load(a.prefsPath)
	if err != nil {
		repo.Close()
		return err
	}

	a.repo = repo
	a.work = services.NewWorkService(repo, p)
	a.habits = services.NewHabitService(repo, p, nil)
	a.focus = services.NewFocusService(repo, a.habits)
	a.ledger = services.NewLedgerService(repo, nil)
	a.loans = services.NewLoanService(repo, nil)
	a.recurring = services.NewRecurringProcessor(repo, nil)
	a.exports = services.NewExportProcessor(repo, memory.New(), services.DefaultExportProcessorConfig())
	return nil
}

func (a *app) close() {
	if a.repo != nil {
		_ = a.repo.Close()
		a.repo = nil
	}
}

func newRootCmd(a *app, out io.Writer) *cobra.Command {
	cfg := config.Load()
	var verbose bool

	root := &cobra.Command{
		Use:           "worklifectl",
		Short:         "Track work days, habits and money from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			log.SetDefault(log.New(log.Config{Level: level, Component: log.ComponentCLI, Output: cmd.ErrOrStderr()}))
			return a.open()
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().StringVar(&a.dbPath, "db", cfg.SQLiteDBPath, "SQLite database path")
	root.PersistentFlags().StringVar(&a.prefsPath, "prefs", cfg.PrefsPath, "preferences file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newLogCmd(a),
		newMonthCmd(a),
		newHabitCmd(a),
		newFocusCmd(a),
		newAccountCmd(a),
		newTxCmd(a),
		newOverviewCmd(a),
		newLoanCmd(a),
		newRecurringCmd(a),
		newExportCmd(a),
		newDBCmd(a),
	)
	return root
}

// run executes one command line and closes the database afterwards.
func run(args []string, out io.Writer) error {
	a := &app{now: time.Now}
	defer a.close()

	root := newRootCmd(a, out)
	root.SetArgs(args)
	return root.Execute()
}

func main() {
	cli.LoadEnvFile()
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}
