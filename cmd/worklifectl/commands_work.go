package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"worklife/internal/core"
)

// monthFlags adds --year and --month, both defaulting to the current month.
func monthFlags(cmd *cobra.Command, year, month *int) {
	cmd.Flags().IntVar(year, "year", 0, "year (default: current)")
	cmd.Flags().IntVar(month, "month", 0, "month 1-12 (default: current)")
}

func (a *app) resolveMonth(year, month int) (int, int, error) {
	now := a.now()
	if year == 0 {
		year = now.Year()
	}
	if month == 0 {
		month = int(now.Month())
	}
	return year, month, core.ValidateYearMonth(year, month)
}

func (a *app) resolveDay(raw string) (core.Date, error) {
	if raw == "" || raw == "today" {
		return core.DateOf(a.now()), nil
	}
	return core.ParseDate(raw)
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: id %q", core.ErrValidation, raw)
	}
	return id, nil
}

// parseDecimal accepts a comma or a dot as the decimal separator.
func parseDecimal(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."))
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s %q", core.ErrValidation, field, raw)
	}
	return d, nil
}

func parseHours(raw string) (decimal.Decimal, error) {
	return parseDecimal("hours", raw)
}

func newLogCmd(a *app) *cobra.Command {
	var start, end, note string
	var remove bool

	cmd := &cobra.Command{
		Use:   "log DATE TYPE",
		Short: "Record a work day (office, home, off or extra)",
		Example: `  worklifectl log today office --start 09:00 --end 18:30
  worklifectl log 2025-03-08 extra --start 22:00 --end 06:00
  worklifectl log 2025-03-07 --delete`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			day, err := a.resolveDay(args[0])
			if err != nil {
				return err
			}
			if remove {
				if err := a.work.DeleteDay(ctx, day); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted log for %s\n", day)
				return nil
			}
			if len(args) < 2 {
				return fmt.Errorf("%w: day type is required", core.ErrValidation)
			}

			dt, err := core.ParseDayType(args[1])
			if err != nil {
				return err
			}
			l := core.WorkLog{Date: day, Type: dt, Note: note}
			if start != "" {
				t, err := core.ParseClockTime(start)
				if err != nil {
					return err
				}
				l.Start = &t
			}
			if end != "" {
				t, err := core.ParseClockTime(end)
				if err != nil {
					return err
				}
				l.End = &t
			}
			if err := a.work.LogDay(ctx, l); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s as %s\n", day, positiveStyle.Render(string(dt)))
			return nil
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "start time HH:MM")
	cmd.Flags().StringVar(&end, "end", "", "end time HH:MM")
	cmd.Flags().StringVar(&note, "note", "", "free text note")
	cmd.Flags().BoolVar(&remove, "delete", false, "delete the day's log instead")
	return cmd
}

func newMonthCmd(a *app) *cobra.Command {
	var year, month int
	var project, reset, days bool
	var meals int
	var overtime string

	cmd := &cobra.Command{
		Use:   "month",
		Short: "Show the month's meal and overtime summary",
		Example: `  worklifectl month
  worklifectl month --year 2025 --month 3 --project
  worklifectl month --meals 18 --overtime 6.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			y, m, err := a.resolveMonth(year, month)
			if err != nil {
				return err
			}

			switch {
			case reset:
				if err := a.work.ResetMonth(ctx, y, m); err != nil {
					return err
				}
			case project:
				if _, err := a.work.Project(ctx, y, m); err != nil {
					return err
				}
			}

			var adj core.MonthlyAdjustment
			if cmd.Flags().Changed("meals") {
				adj.Meals = &meals
			}
			if overtime != "" {
				hours, err := parseHours(overtime)
				if err != nil {
					return err
				}
				adj.OvertimeHours = &hours
			}
			if adj.Meals != nil || adj.OvertimeHours != nil {
				if _, err := a.work.UpdateMonthlyInput(ctx, y, m, adj); err != nil {
					return err
				}
			}

			sum, err := a.work.Summary(ctx, y, m)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			source := "projected"
			if !sum.Input.AutoCalculated {
				source = "manual"
			}
			keyValues(out, fmt.Sprintf("%04d-%02d", y, m),
				[2]string{"Working days", strconv.Itoa(sum.Input.WorkingDays)},
				[2]string{"Meals", fmt.Sprintf("%d (%s, %d logged)", sum.Input.Meals, source, sum.ActualMeals)},
				[2]string{"Overtime", fmt.Sprintf("%sh (%sh logged)", sum.Input.OvertimeHours.StringFixed(2), sum.ActualOvertimeHours.StringFixed(2))},
				[2]string{"Meal pay", sum.MealPay.String()},
				[2]string{"Overtime pay", sum.OvertimePay.String()},
				[2]string{"Total", positiveStyle.Render(sum.Total.String())},
				[2]string{"Days", fmt.Sprintf("office %d  home %d  off %d  extra %d", sum.OfficeDays, sum.HomeDays, sum.OffDays, sum.ExtraDays)},
			)

			if days {
				logs, err := a.work.ListDays(ctx, y, m)
				if err != nil {
					return err
				}
				t := newTable("DATE", "TYPE", "START", "END", "NOTE")
				for _, l := range logs {
					start, end := "-", "-"
					if l.Start != nil {
						start = l.Start.String()
					}
					if l.End != nil {
						end = l.End.String()
					}
					t.add(l.Date.String(), string(l.Type), start, end, l.Note)
				}
				t.render(out)
			}
			return nil
		},
	}
	monthFlags(cmd, &year, &month)
	cmd.Flags().BoolVar(&project, "project", false, "re-project the month from its first week")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop manual values and project again")
	cmd.Flags().BoolVar(&days, "days", false, "also list the logged days")
	cmd.Flags().IntVar(&meals, "meals", 0, "set the meal count")
	cmd.Flags().StringVar(&overtime, "overtime", "", "set the overtime hours, e.g. 6.5")
	cmd.MarkFlagsMutuallyExclusive("project", "reset")
	return cmd
}
