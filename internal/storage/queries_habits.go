package storage

import (
	"context"
	"database/sql"
)

const habitColumns = `id, name, description, current_streak, longest_streak, total_completions, last_completed, archived, created_at`

func scanHabit(row scanner) (Habit, error) {
	var i Habit
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Description,
		&i.CurrentStreak,
		&i.LongestStreak,
		&i.TotalCompletions,
		&i.LastCompleted,
		&i.Archived,
		&i.CreatedAt,
	)
	return i, err
}

const createHabit = `INSERT INTO habits (name, description) VALUES (?, ?)`

func (q *Queries) CreateHabit(ctx context.Context, name, description string) (int64, error) {
	result, err := q.db.ExecContext(ctx, createHabit, name, description)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getHabit = `SELECT ` + habitColumns + ` FROM habits WHERE id = ?`

func (q *Queries) GetHabit(ctx context.Context, id int64) (Habit, error) {
	return scanHabit(q.db.QueryRowContext(ctx, getHabit, id))
}

const listHabits = `SELECT ` + habitColumns + ` FROM habits WHERE archived = 0 OR ? ORDER BY name`

func (q *Queries) ListHabits(ctx context.Context, includeArchived bool) ([]Habit, error) {
	rows, err := q.db.QueryContext(ctx, listHabits, includeArchived)
	return collect(rows, err, scanHabit)
}

const updateHabitDetails = `UPDATE habits SET name = ?, description = ? WHERE id = ?`

func (q *Queries) UpdateHabitDetails(ctx context.Context, id int64, name, description string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, updateHabitDetails, name, description, id))
}

const updateHabitProgress = `
UPDATE habits
SET current_streak = ?, longest_streak = ?, total_completions = ?, last_completed = ?
WHERE id = ?
`

type UpdateHabitProgressParams struct {
	ID               int64
	CurrentStreak    int64
	LongestStreak    int64
	TotalCompletions int64
	LastCompleted    sql.NullString
}

func (q *Queries) UpdateHabitProgress(ctx context.Context, arg UpdateHabitProgressParams) error {
	_, err := q.db.ExecContext(ctx, updateHabitProgress,
		arg.CurrentStreak,
		arg.LongestStreak,
		arg.TotalCompletions,
		arg.LastCompleted,
		arg.ID,
	)
	return err
}

const setHabitArchived = `UPDATE habits SET archived = ? WHERE id = ?`

func (q *Queries) SetHabitArchived(ctx context.Context, id int64, archived bool) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, setHabitArchived, archived, id))
}

const deleteHabit = `DELETE FROM habits WHERE id = ?`

func (q *Queries) DeleteHabit(ctx context.Context, id int64) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, deleteHabit, id))
}

const insertHabitCompletion = `INSERT INTO habit_completions (habit_id, day) VALUES (?, ?) ON CONFLICT (habit_id, day) DO NOTHING`

func (q *Queries) InsertHabitCompletion(ctx context.Context, habitID int64, day string) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, insertHabitCompletion, habitID, day))
}

const listHabitCompletions = `SELECT day FROM habit_completions WHERE habit_id = ? AND day >= ? AND day <= ? ORDER BY day`

func (q *Queries) ListHabitCompletions(ctx context.Context, habitID int64, from, to string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listHabitCompletions, habitID, from, to)
	return collect(rows, err, func(row scanner) (string, error) {
		var day string
		err := row.Scan(&day)
		return day, err
	})
}

const insertAchievement = `
INSERT INTO achievements (habit_id, code, title, metric, threshold, unlocked_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (habit_id, code) DO NOTHING
`

type InsertAchievementParams struct {
	HabitID    int64
	Code       string
	Title      string
	Metric     string
	Threshold  int64
	UnlockedAt Timestamp
}

func (q *Queries) InsertAchievement(ctx context.Context, arg InsertAchievementParams) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, insertAchievement,
		arg.HabitID,
		arg.Code,
		arg.Title,
		arg.Metric,
		arg.Threshold,
		arg.UnlockedAt,
	))
}

const listAchievements = `
SELECT id, habit_id, code, title, metric, threshold, unlocked_at
FROM achievements
WHERE habit_id = ?
ORDER BY unlocked_at, id
`

func (q *Queries) ListAchievements(ctx context.Context, habitID int64) ([]Achievement, error) {
	rows, err := q.db.QueryContext(ctx, listAchievements, habitID)
	return collect(rows, err, func(row scanner) (Achievement, error) {
		var i Achievement
		err := row.Scan(
			&i.ID,
			&i.HabitID,
			&i.Code,
			&i.Title,
			&i.Metric,
			&i.Threshold,
			&i.UnlockedAt,
		)
		return i, err
	})
}

const focusSessionColumns = `id, label, habit_id, started_at, ended_at, planned_minutes`

func scanFocusSession(row scanner) (FocusSession, error) {
	var i FocusSession
	err := row.Scan(
		&i.ID,
		&i.Label,
		&i.HabitID,
		&i.StartedAt,
		&i.EndedAt,
		&i.PlannedMinutes,
	)
	return i, err
}

const createFocusSession = `INSERT INTO focus_sessions (label, habit_id, started_at, planned_minutes) VALUES (?, ?, ?, ?)`

type CreateFocusSessionParams struct {
	Label          string
	HabitID        sql.NullInt64
	StartedAt      Timestamp
	PlannedMinutes int64
}

func (q *Queries) CreateFocusSession(ctx context.Context, arg CreateFocusSessionParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, createFocusSession,
		arg.Label,
		arg.HabitID,
		arg.StartedAt,
		arg.PlannedMinutes,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

const getFocusSession = `SELECT ` + focusSessionColumns + ` FROM focus_sessions WHERE id = ?`

func (q *Queries) GetFocusSession(ctx context.Context, id int64) (FocusSession, error) {
	return scanFocusSession(q.db.QueryRowContext(ctx, getFocusSession, id))
}

const stopFocusSession = `UPDATE focus_sessions SET ended_at = ? WHERE id = ? AND ended_at IS NULL`

func (q *Queries) StopFocusSession(ctx context.Context, id int64, endedAt Timestamp) (int64, error) {
	return rowsAffected(q.db.ExecContext(ctx, stopFocusSession, endedAt, id))
}

const listFocusSessionsBetween = `
SELECT ` + focusSessionColumns + `
FROM focus_sessions
WHERE started_at >= ? AND started_at < ?
ORDER BY started_at, id
`

func (q *Queries) ListFocusSessionsBetween(ctx context.Context, from, to Timestamp) ([]FocusSession, error) {
	rows, err := q.db.QueryContext(ctx, listFocusSessionsBetween, from, to)
	return collect(rows, err, scanFocusSession)
}

const listFocusSessionsByHabit = `SELECT ` + focusSessionColumns + ` FROM focus_sessions WHERE habit_id = ? ORDER BY started_at, id`

func (q *Queries) ListFocusSessionsByHabit(ctx context.Context, habitID int64) ([]FocusSession, error) {
	rows, err := q.db.QueryContext(ctx, listFocusSessionsByHabit, habitID)
	return collect(rows, err, scanFocusSession)
}

const listRunningFocusSessions = `SELECT ` + focusSessionColumns + ` FROM focus_sessions WHERE ended_at IS NULL ORDER BY started_at, id`

func (q *Queries) ListRunningFocusSessions(ctx context.Context) ([]FocusSession, error) {
	rows, err := q.db.QueryContext(ctx, listRunningFocusSessions)
	return collect(rows, err, scanFocusSession)
}
