package services

import (
	"context"
	"log/slog"
	"strings"

	"worklife/internal/amqp"
	"worklife/internal/core"
	"worklife/internal/prefs"
	"worklife/internal/storage"
)

// CompletionResult is what a habit completion changed.
type CompletionResult struct {
	Habit    core.Habit         `json:"habit"`
	Outcome  core.StreakOutcome `json:"outcome"`
	Unlocked []core.Achievement `json:"unlocked"`
}

type HabitService struct {
	storage   *storage.SQLiteRepository
	prefs     prefs.Source
	publisher EventPublisher
	now       Clock
}

func NewHabitService(storage *storage.SQLiteRepository, prefs prefs.Source, publisher EventPublisher) *HabitService {
	return &HabitService{storage: storage, prefs: prefs, publisher: publisher, now: systemClock}
}

func (s *HabitService) Create(ctx context.Context, name, description string) (core.Habit, error) {
	h := core.Habit{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}
	return s.storage.CreateHabit(ctx, h)
}

func (s *HabitService) Get(ctx context.Context, id int64) (core.Habit, error) {
	return s.storage.GetHabit(ctx, id)
}

func (s *HabitService) List(ctx context.Context, includeArchived bool) ([]core.Habit, error) {
	return s.storage.ListHabits(ctx, includeArchived)
}

func (s *HabitService) Rename(ctx context.Context, id int64, name, description string) (core.Habit, error) {
	h := core.Habit{Name: strings.TrimSpace(name), Description: strings.TrimSpace(description)}
	if err := h.Validate(); err != nil {
		return core.Habit{}, err
	}
	if err := s.storage.UpdateHabitDetails(ctx, id, h.Name, h.Description); err != nil {
		return core.Habit{}, err
	}
	return s.storage.GetHabit(ctx, id)
}

func (s *HabitService) Archive(ctx context.Context, id int64, archived bool) error {
	return s.storage.ArchiveHabit(ctx, id, archived)
}

func (s *HabitService) Delete(ctx context.Context, id int64) error {
	return s.storage.DeleteHabit(ctx, id)
}

// Complete marks the habit done on day and unlocks any achievements the new
// counters reach. The completion and its unlocks commit together; events go
// out after the commit.
func (s *HabitService) Complete(ctx context.Context, id int64, day core.Date) (CompletionResult, error) {
	var res CompletionResult
	err := s.storage.InTx(ctx, func(repo *storage.SQLiteRepository) error {
		h, outcome, err := repo.RecordCompletion(ctx, id, day)
		if err != nil {
			return err
		}
		res = CompletionResult{Habit: h, Outcome: outcome}
		if outcome == core.StreakUnchanged {
			return nil
		}
		res.Unlocked, err = s.unlockReached(ctx, repo, h)
		return err
	})
	if err != nil {
		return CompletionResult{}, err
	}
	if res.Outcome == core.StreakUnchanged {
		return res, nil
	}

	slog.InfoContext(ctx, "Habit completed",
		"habit_id", id,
		"day", day.String(),
		"outcome", res.Outcome,
		"streak", res.Habit.CurrentStreak)
	publish(ctx, s.publisher, amqp.NewEvent(amqp.HabitCompleted, id).WithDetail(string(res.Outcome)))
	s.announceUnlocks(ctx, id, res.Unlocked)
	return res, nil
}

// checkAchievements unlocks what h has reached in one transaction.
func (s *HabitService) checkAchievements(ctx context.Context, h core.Habit) ([]core.Achievement, error) {
	var unlocked []core.Achievement
	err := s.storage.InTx(ctx, func(repo *storage.SQLiteRepository) error {
		var err error
		unlocked, err = s.unlockReached(ctx, repo, h)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.announceUnlocks(ctx, h.ID, unlocked)
	return unlocked, nil
}

// unlockReached records every achievement h has reached but not yet been
// awarded and returns the new ones.
func (s *HabitService) unlockReached(ctx context.Context, repo *storage.SQLiteRepository, h core.Habit) ([]core.Achievement, error) {
	minutes, err := repo.FocusMinutes(ctx, h.ID)
	if err != nil {
		return nil, err
	}
	held, err := repo.UnlockedCodes(ctx, h.ID)
	if err != nil {
		return nil, err
	}

	candidates := core.Unlockable(core.ProgressOf(h, minutes), s.prefs.Current().AchievementDefs(), held)
	unlocked := make([]core.Achievement, 0, len(candidates))
	at := s.now()
	for _, a := range candidates {
		added, err := repo.UnlockAchievement(ctx, h.ID, a, at)
		if err != nil {
			return nil, err
		}
		if added {
			unlocked = append(unlocked, a)
		}
	}
	return unlocked, nil
}

func (s *HabitService) announceUnlocks(ctx context.Context, habitID int64, unlocked []core.Achievement) {
	for _, a := range unlocked {
		slog.InfoContext(ctx, "Achievement unlocked", "habit_id", habitID, "code", a.Code)
		publish(ctx, s.publisher, amqp.NewEvent(amqp.AchievementUnlocked, habitID).WithDetail(a.Code))
	}
}

func (s *HabitService) Achievements(ctx context.Context, id int64) ([]core.UnlockedAchievement, error) {
	if _, err := s.storage.GetHabit(ctx, id); err != nil {
		return nil, err
	}
	return s.storage.ListAchievements(ctx, id)
}

func (s *HabitService) Completions(ctx context.Context, id int64, from, to core.Date) ([]core.Date, error) {
	return s.storage.ListCompletions(ctx, id, from, to)
}

// SweepBrokenStreaks zeroes the current streak of every active habit not
// completed yesterday or today. It returns how many streaks broke.
func (s *HabitService) SweepBrokenStreaks(ctx context.Context, today core.Date) (int, error) {
	habits, err := s.storage.ListHabits(ctx, false)
	if err != nil {
		return 0, err
	}
	broken := 0
	for _, h := range habits {
		if h.Evaluate(today) != core.StreakBroken {
			continue
		}
		if err := s.storage.SaveHabitProgress(ctx, h); err != nil {
			return broken, err
		}
		broken++
		slog.InfoContext(ctx, "Habit streak broken", "habit_id", h.ID, "last_completed", h.LastCompleted.String())
	}
	return broken, nil
}
