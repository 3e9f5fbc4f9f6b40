package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"worklife/internal/core"
)

func toCoreWorkLog(row WorkLog) (core.WorkLog, error) {
	day, err := core.ParseDate(row.Day)
	if err != nil {
		return core.WorkLog{}, fmt.Errorf("work log %d: %w", row.ID, err)
	}
	l := core.WorkLog{Date: day, Type: core.DayType(row.DayType), Note: row.Note}
	if row.StartMinute.Valid && row.EndMinute.Valid {
		start, end := core.ClockTime(row.StartMinute.Int64), core.ClockTime(row.EndMinute.Int64)
		l.Start, l.End = &start, &end
	}
	return l, nil
}

func clockParam(c *core.ClockTime) sql.NullInt64 {
	if c == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*c), Valid: true}
}

// SaveWorkLog inserts or replaces the log for its day.
func (r *SQLiteRepository) SaveWorkLog(ctx context.Context, l core.WorkLog) error {
	err := r.queries.UpsertWorkLog(ctx, UpsertWorkLogParams{
		Day:         l.Date.String(),
		DayType:     string(l.Type),
		StartMinute: clockParam(l.Start),
		EndMinute:   clockParam(l.End),
		Note:        l.Note,
	})
	if err != nil {
		return mapErr(err, "save work log")
	}
	slog.DebugContext(ctx, "Work log saved", "day", l.Date.String(), "type", l.Type)
	return nil
}

func (r *SQLiteRepository) GetWorkLog(ctx context.Context, day core.Date) (core.WorkLog, error) {
	row, err := r.queries.GetWorkLog(ctx, day.String())
	if err != nil {
		return core.WorkLog{}, mapErr(err, "get work log")
	}
	return toCoreWorkLog(row)
}

// ListWorkLogs returns the month's logs in day order.
func (r *SQLiteRepository) ListWorkLogs(ctx context.Context, year, month int) ([]core.WorkLog, error) {
	from, to := monthRange(year, month)
	rows, err := r.queries.ListWorkLogsBetween(ctx, from, to)
	if err != nil {
		return nil, mapErr(err, "list work logs")
	}
	logs := make([]core.WorkLog, 0, len(rows))
	for _, row := range rows {
		l, err := toCoreWorkLog(row)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}

func (r *SQLiteRepository) DeleteWorkLog(ctx context.Context, day core.Date) error {
	n, err := r.queries.DeleteWorkLog(ctx, day.String())
	return expectOne(n, err, "delete work log")
}

func parseDecimalColumn(s, column string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %w", column, s, err)
	}
	return d, nil
}

// GetMonthlyInput returns core.ErrNotFound when the month was never projected.
func (r *SQLiteRepository) GetMonthlyInput(ctx context.Context, year, month int) (core.MonthlyInput, error) {
	row, err := r.queries.GetMonthlyInput(ctx, int64(year), int64(month))
	if err != nil {
		return core.MonthlyInput{}, mapErr(err, "get monthly input")
	}
	in := core.MonthlyInput{
		Year:           int(row.Year),
		Month:          int(row.Month),
		WorkingDays:    int(row.WorkingDays),
		Meals:          int(row.Meals),
		AutoCalculated: row.AutoCalculated,
	}
	if in.OvertimeHours, err = parseDecimalColumn(row.OvertimeHours, "overtime_hours"); err != nil {
		return core.MonthlyInput{}, err
	}
	if in.Rates.MealRate, err = parseDecimalColumn(row.MealRate, "meal_rate"); err != nil {
		return core.MonthlyInput{}, err
	}
	if in.Rates.OvertimeRate, err = parseDecimalColumn(row.OvertimeRate, "overtime_rate"); err != nil {
		return core.MonthlyInput{}, err
	}
	return in, nil
}

func (r *SQLiteRepository) SaveMonthlyInput(ctx context.Context, in core.MonthlyInput) error {
	err := r.queries.UpsertMonthlyInput(ctx, UpsertMonthlyInputParams{
		Year:           int64(in.Year),
		Month:          int64(in.Month),
		WorkingDays:    int64(in.WorkingDays),
		Meals:          int64(in.Meals),
		OvertimeHours:  in.OvertimeHours.String(),
		MealRate:       in.Rates.MealRate.String(),
		OvertimeRate:   in.Rates.OvertimeRate.String(),
		AutoCalculated: in.AutoCalculated,
	})
	return mapErr(err, "save monthly input")
}

func (r *SQLiteRepository) DeleteMonthlyInput(ctx context.Context, year, month int) error {
	return mapErr(r.queries.DeleteMonthlyInput(ctx, int64(year), int64(month)), "delete monthly input")
}
