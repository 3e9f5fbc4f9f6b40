package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"worklife/internal/core"
	"worklife/internal/storage"
)

// FocusResult is a stopped session plus what it did to its linked habit.
type FocusResult struct {
	Session    core.FocusSession  `json:"session"`
	Completion *CompletionResult  `json:"completion,omitempty"`
	Unlocked   []core.Achievement `json:"unlocked,omitempty"`
}

type FocusService struct {
	storage *storage.SQLiteRepository
	habits  *HabitService
	now     Clock
}

func NewFocusService(storage *storage.SQLiteRepository, habits *HabitService) *FocusService {
	return &FocusService{storage: storage, habits: habits, now: systemClock}
}

// Start opens a session now. A linked habit must exist and be active.
func (s *FocusService) Start(ctx context.Context, label string, habitID *int64, plannedMinutes int) (core.FocusSession, error) {
	session := core.FocusSession{
		Label:          strings.TrimSpace(label),
		HabitID:        habitID,
		StartedAt:      s.now().UTC(),
		PlannedMinutes: plannedMinutes,
	}
	if err := session.Validate(); err != nil {
		return core.FocusSession{}, err
	}
	if habitID != nil {
		h, err := s.storage.GetHabit(ctx, *habitID)
		if err != nil {
			return core.FocusSession{}, err
		}
		if h.Archived {
			return core.FocusSession{}, core.ErrHabitArchived
		}
	}
	return s.storage.StartFocusSession(ctx, session)
}

// Stop ends a running session. When it is linked to a habit, a session that
// ran its planned length completes the habit for the session's day, and
// focus-time achievements are checked either way.
func (s *FocusService) Stop(ctx context.Context, id int64) (FocusResult, error) {
	session, err := s.storage.StopFocusSession(ctx, id, s.now().UTC())
	if err != nil {
		return FocusResult{}, err
	}
	res := FocusResult{Session: session}
	slog.InfoContext(ctx, "Focus session stopped", "id", id, "minutes", session.Minutes())
	if session.HabitID == nil {
		return res, nil
	}

	habitID := *session.HabitID
	if session.ReachedPlan() {
		completion, err := s.habits.Complete(ctx, habitID, session.Day())
		switch {
		case err == nil:
			res.Completion = &completion
			if completion.Outcome != core.StreakUnchanged {
				return res, nil
			}
		case errors.Is(err, core.ErrHabitArchived), errors.Is(err, core.ErrCompletionBeforeLast), errors.Is(err, core.ErrNotFound):
			slog.WarnContext(ctx, "Focus session did not complete habit", "habit_id", habitID, "error", err)
			return res, nil
		default:
			return res, err
		}
	}

	h, err := s.storage.GetHabit(ctx, habitID)
	if errors.Is(err, core.ErrNotFound) {
		return res, nil
	}
	if err != nil {
		return res, err
	}
	if res.Unlocked, err = s.habits.checkAchievements(ctx, h); err != nil {
		return res, err
	}
	return res, nil
}

func (s *FocusService) Get(ctx context.Context, id int64) (core.FocusSession, error) {
	return s.storage.GetFocusSession(ctx, id)
}

func (s *FocusService) List(ctx context.Context, from, to core.Date) ([]core.FocusSession, error) {
	if to.Before(from.Time) {
		return nil, fmt.Errorf("%w: range ends before it starts", core.ErrValidation)
	}
	return s.storage.ListFocusSessions(ctx, from, to)
}

func (s *FocusService) Running(ctx context.Context) ([]core.FocusSession, error) {
	return s.storage.ListRunningFocusSessions(ctx)
}
