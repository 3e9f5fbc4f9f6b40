package storage

import (
	"context"
	"database/sql"
)

const workLogColumns = `id, day, day_type, start_minute, end_minute, note, created_at, updated_at`

func scanWorkLog(row scanner) (WorkLog, error) {
	var i WorkLog
	err := row.Scan(
		&i.ID,
		&i.Day,
		&i.DayType,
		&i.StartMinute,
		&i.EndMinute,
		&i.Note,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertWorkLog = `
INSERT INTO work_logs (day, day_type, start_minute, end_minute, note)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (day) DO UPDATE SET
    day_type = excluded.day_type,
    start_minute = excluded.start_minute,
    end_minute = excluded.end_minute,
    note = excluded.note,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertWorkLogParams struct {
	Day         string
	DayType     string
	StartMinute sql.NullInt64
	EndMinute   sql.NullInt64
	Note        string
}

func (q *Queries) UpsertWorkLog(ctx context.Context, arg UpsertWorkLogParams) error {
	_, err := q.db.ExecContext(ctx, upsertWorkLog,
		arg.Day,
		arg.DayType,
		arg.StartMinute,
		arg.EndMinute,
		arg.Note,
	)
	return err
}

const getWorkLog = `SELECT ` + workLogColumns + ` FROM work_logs WHERE day = ?`

func (q *Queries) GetWorkLog(ctx context.Context, day string) (WorkLog, error) {
	return scanWorkLog(q.db.QueryRowContext(ctx, getWorkLog, day))
}

const listWorkLogsBetween = `SELECT ` + workLogColumns + ` FROM work_logs WHERE day >= ? AND day <= ? ORDER BY day`

func (q *Queries) ListWorkLogsBetween(ctx context.Context, from, to string) ([]WorkLog, error) {
	rows, err := q.db.QueryContext(ctx, listWorkLogsBetween, from, to)
	return collect(rows, err, scanWorkLog)
}

const deleteWorkLog = `DELETE FROM work_logs WHERE day = ?`

func (q *Queries) DeleteWorkLog(ctx context.Context, day string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteWorkLog, day))
}

const getMonthlyInput = `
SELECT year, month, working_days, meals, overtime_hours, meal_rate, overtime_rate, auto_calculated, updated_at
FROM monthly_inputs
WHERE year = ? AND month = ?
`

func (q *Queries) GetMonthlyInput(ctx context.Context, year, month int64) (MonthlyInput, error) {
	row := q.db.QueryRowContext(ctx, getMonthlyInput, year, month)
	var i MonthlyInput
	err := row.Scan(
		&i.Year,
		&i.Month,
		&i.WorkingDays,
		&i.Meals,
		&i.OvertimeHours,
		&i.MealRate,
		&i.OvertimeRate,
		&i.AutoCalculated,
		&i.UpdatedAt,
	)
	return i, err
}

const upsertMonthlyInput = `
INSERT INTO monthly_inputs (year, month, working_days, meals, overtime_hours, meal_rate, overtime_rate, auto_calculated)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (year, month) DO UPDATE SET
    working_days = excluded.working_days,
    meals = excluded.meals,
    overtime_hours = excluded.overtime_hours,
    meal_rate = excluded.meal_rate,
    overtime_rate = excluded.overtime_rate,
    auto_calculated = excluded.auto_calculated,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertMonthlyInputParams struct {
	Year           int64
	Month          int64
	WorkingDays    int64
	Meals          int64
	OvertimeHours  string
	MealRate       string
	OvertimeRate   string
	AutoCalculated bool
}

func (q *Queries) UpsertMonthlyInput(ctx context.Context, arg UpsertMonthlyInputParams) error {
	_, err := q.db.ExecContext(ctx, upsertMonthlyInput,
		arg.Year,
		arg.Month,
		arg.WorkingDays,
		arg.Meals,
		arg.OvertimeHours,
		arg.MealRate,
		arg.OvertimeRate,
		arg.AutoCalculated,
	)
	return err
}

const deleteMonthlyInput = `DELETE FROM monthly_inputs WHERE year = ? AND month = ?`

func (q *Queries) DeleteMonthlyInput(ctx context.Context, year, month int64) error {
	_, err := q.db.ExecContext(ctx, deleteMonthlyInput, year, month)
	return err
}
