package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"worklife/internal/core"
)

func toCoreHabit(row Habit) (core.Habit, error) {
	h := core.Habit{
		ID:               row.ID,
		Name:             row.Name,
		Description:      row.Description,
		CurrentStreak:    int(row.CurrentStreak),
		LongestStreak:    int(row.LongestStreak),
		TotalCompletions: int(row.TotalCompletions),
		Archived:         row.Archived,
		CreatedAt:        row.CreatedAt.Time,
	}
	last, err := parseNullDate(row.LastCompleted)
	if err != nil {
		return core.Habit{}, fmt.Errorf("habit %d: %w", row.ID, err)
	}
	if !last.IsZero() {
		h.LastCompleted = &last
	}
	return h, nil
}

func (r *SQLiteRepository) CreateHabit(ctx context.Context, h core.Habit) (core.Habit, error) {
	id, err := r.queries.CreateHabit(ctx, h.Name, h.Description)
	if err != nil {
		return core.Habit{}, mapErr(err, "create habit")
	}
	slog.InfoContext(ctx, "Habit created", "id", id, "name", h.Name)
	return r.GetHabit(ctx, id)
}

func (r *SQLiteRepository) GetHabit(ctx context.Context, id int64) (core.Habit, error) {
	row, err := r.queries.GetHabit(ctx, id)
	if err != nil {
		return core.Habit{}, mapErr(err, "get habit")
	}
	return toCoreHabit(row)
}

func (r *SQLiteRepository) ListHabits(ctx context.Context, includeArchived bool) ([]core.Habit, error) {
	rows, err := r.queries.ListHabits(ctx, includeArchived)
	if err != nil {
		return nil, mapErr(err, "list habits")
	}
	habits := make([]core.Habit, 0, len(rows))
	for _, row := range rows {
		h, err := toCoreHabit(row)
		if err != nil {
			return nil, err
		}
		habits = append(habits, h)
	}
	return habits, nil
}

func (r *SQLiteRepository) UpdateHabitDetails(ctx context.Context, id int64, name, description string) error {
	n, err := r.queries.UpdateHabitDetails(ctx, id, name, description)
	return expectOne(n, err, "update habit")
}

func (r *SQLiteRepository) ArchiveHabit(ctx context.Context, id int64, archived bool) error {
	n, err := r.queries.SetHabitArchived(ctx, id, archived)
	return expectOne(n, err, "archive habit")
}

func (r *SQLiteRepository) DeleteHabit(ctx context.Context, id int64) error {
	n, err := r.queries.DeleteHabit(ctx, id)
	return expectOne(n, err, "delete habit")
}

// SaveHabitProgress stores the streak counters of h.
func (r *SQLiteRepository) SaveHabitProgress(ctx context.Context, h core.Habit) error {
	last := sql.NullString{}
	if h.LastCompleted != nil {
		last = nullDate(*h.LastCompleted)
	}
	err := r.queries.UpdateHabitProgress(ctx, UpdateHabitProgressParams{
		ID:               h.ID,
		CurrentStreak:    int64(h.CurrentStreak),
		LongestStreak:    int64(h.LongestStreak),
		TotalCompletions: int64(h.TotalCompletions),
		LastCompleted:    last,
	})
	return mapErr(err, "save habit progress")
}

// RecordCompletion applies a completion on day to the habit and stores the
// completion row and the new counters atomically.
func (r *SQLiteRepository) RecordCompletion(ctx context.Context, id int64, day core.Date) (core.Habit, core.StreakOutcome, error) {
	var (
		habit   core.Habit
		outcome core.StreakOutcome
	)
	err := r.InTx(ctx, func(tx *SQLiteRepository) error {
		h, err := tx.GetHabit(ctx, id)
		if err != nil {
			return err
		}
		if outcome, err = h.Complete(day); err != nil {
			return err
		}
		habit = h
		if outcome == core.StreakUnchanged {
			return nil
		}
		if _, err := tx.queries.InsertHabitCompletion(ctx, id, day.String()); err != nil {
			return mapErr(err, "insert habit completion")
		}
		return tx.SaveHabitProgress(ctx, h)
	})
	if err != nil {
		return core.Habit{}, "", err
	}
	return habit, outcome, nil
}

// ListCompletions returns the days a habit was completed between from and to inclusive.
func (r *SQLiteRepository) ListCompletions(ctx context.Context, id int64, from, to core.Date) ([]core.Date, error) {
	rows, err := r.queries.ListHabitCompletions(ctx, id, from.String(), to.String())
	if err != nil {
		return nil, mapErr(err, "list habit completions")
	}
	days := make([]core.Date, 0, len(rows))
	for _, s := range rows {
		d, err := core.ParseDate(s)
		if err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, nil
}

// UnlockAchievement records a for the habit. It reports false when the
// habit already holds that achievement.
func (r *SQLiteRepository) UnlockAchievement(ctx context.Context, habitID int64, a core.Achievement, at time.Time) (bool, error) {
	n, err := r.queries.InsertAchievement(ctx, InsertAchievementParams{
		HabitID:    habitID,
		Code:       a.Code,
		Title:      a.Title,
		Metric:     string(a.Metric),
		Threshold:  int64(a.Threshold),
		UnlockedAt: NewTimestamp(at),
	})
	if err != nil {
		return false, mapErr(err, "unlock achievement")
	}
	return n > 0, nil
}

func (r *SQLiteRepository) ListAchievements(ctx context.Context, habitID int64) ([]core.UnlockedAchievement, error) {
	rows, err := r.queries.ListAchievements(ctx, habitID)
	if err != nil {
		return nil, mapErr(err, "list achievements")
	}
	out := make([]core.UnlockedAchievement, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.UnlockedAchievement{
			HabitID: row.HabitID,
			Achievement: core.Achievement{
				Code:      row.Code,
				Title:     row.Title,
				Metric:    core.AchievementMetric(row.Metric),
				Threshold: int(row.Threshold),
			},
			UnlockedAt: row.UnlockedAt.Time,
		})
	}
	return out, nil
}

// UnlockedCodes returns the achievement codes the habit already holds.
func (r *SQLiteRepository) UnlockedCodes(ctx context.Context, habitID int64) (map[string]bool, error) {
	unlocked, err := r.ListAchievements(ctx, habitID)
	if err != nil {
		return nil, err
	}
	codes := make(map[string]bool, len(unlocked))
	for _, a := range unlocked {
		codes[a.Code] = true
	}
	return codes, nil
}

func toCoreFocusSession(row FocusSession) core.FocusSession {
	s := core.FocusSession{
		ID:             row.ID,
		Label:          row.Label,
		HabitID:        intPtr(row.HabitID),
		StartedAt:      row.StartedAt.Time,
		PlannedMinutes: int(row.PlannedMinutes),
	}
	if row.EndedAt.Valid {
		ended := row.EndedAt.Time
		s.EndedAt = &ended
	}
	return s
}

func (r *SQLiteRepository) StartFocusSession(ctx context.Context, s core.FocusSession) (core.FocusSession, error) {
	id, err := r.queries.CreateFocusSession(ctx, CreateFocusSessionParams{
		Label:          s.Label,
		HabitID:        nullInt(s.HabitID),
		StartedAt:      NewTimestamp(s.StartedAt),
		PlannedMinutes: int64(s.PlannedMinutes),
	})
	if err != nil {
		return core.FocusSession{}, mapErr(err, "start focus session")
	}
	return r.GetFocusSession(ctx, id)
}

func (r *SQLiteRepository) GetFocusSession(ctx context.Context, id int64) (core.FocusSession, error) {
	row, err := r.queries.GetFocusSession(ctx, id)
	if err != nil {
		return core.FocusSession{}, mapErr(err, "get focus session")
	}
	return toCoreFocusSession(row), nil
}

// StopFocusSession ends a running session at now.
func (r *SQLiteRepository) StopFocusSession(ctx context.Context, id int64, now time.Time) (core.FocusSession, error) {
	var stopped core.FocusSession
	err := r.InTx(ctx, func(tx *SQLiteRepository) error {
		s, err := tx.GetFocusSession(ctx, id)
		if err != nil {
			return err
		}
		if err := s.Stop(now); err != nil {
			return err
		}
		n, err := tx.queries.StopFocusSession(ctx, id, NewTimestamp(*s.EndedAt))
		if err := expectOne(n, err, "stop focus session"); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				return core.ErrSessionStopped
			}
			return err
		}
		stopped = s
		return nil
	})
	return stopped, err
}

// ListFocusSessions returns sessions started between from and to inclusive.
func (r *SQLiteRepository) ListFocusSessions(ctx context.Context, from, to core.Date) ([]core.FocusSession, error) {
	rows, err := r.queries.ListFocusSessionsBetween(ctx, NewTimestamp(from.Time), NewTimestamp(to.AddDays(1).Time))
	if err != nil {
		return nil, mapErr(err, "list focus sessions")
	}
	return toCoreFocusSessions(rows), nil
}

func (r *SQLiteRepository) ListRunningFocusSessions(ctx context.Context) ([]core.FocusSession, error) {
	rows, err := r.queries.ListRunningFocusSessions(ctx)
	if err != nil {
		return nil, mapErr(err, "list running focus sessions")
	}
	return toCoreFocusSessions(rows), nil
}

// FocusMinutes totals the finished session minutes linked to a habit.
func (r *SQLiteRepository) FocusMinutes(ctx context.Context, habitID int64) (int, error) {
	rows, err := r.queries.ListFocusSessionsByHabit(ctx, habitID)
	if err != nil {
		return 0, mapErr(err, "list habit focus sessions")
	}
	total := 0
	for _, s := range toCoreFocusSessions(rows) {
		total += s.Minutes()
	}
	return total, nil
}

func toCoreFocusSessions(rows []FocusSession) []core.FocusSession {
	out := make([]core.FocusSession, 0, len(rows))
	for _, row := range rows {
		out = append(out, toCoreFocusSession(row))
	}
	return out
}
