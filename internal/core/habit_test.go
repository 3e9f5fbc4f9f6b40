package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHabitCompleteStreaks(t *testing.T) {
	h := Habit{Name: "read"}
	steps := []struct {
		day     Date
		outcome StreakOutcome
		current int
		longest int
		total   int
	}{
		{NewDate(2025, 3, 1), StreakStarted, 1, 1, 1},
		{NewDate(2025, 3, 2), StreakContinued, 2, 2, 2},
		{NewDate(2025, 3, 2), StreakUnchanged, 2, 2, 2},
		{NewDate(2025, 3, 3), StreakContinued, 3, 3, 3},
		{NewDate(2025, 3, 6), StreakReset, 1, 3, 4},
		{NewDate(2025, 3, 7), StreakContinued, 2, 3, 5},
	}
	for i, s := range steps {
		got, err := h.Complete(s.day)
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, s.outcome, got, "step %d", i)
		assert.Equal(t, s.current, h.CurrentStreak, "step %d current", i)
		assert.Equal(t, s.longest, h.LongestStreak, "step %d longest", i)
		assert.Equal(t, s.total, h.TotalCompletions, "step %d total", i)
		assert.Equal(t, s.day, *h.LastCompleted)
	}
}

func TestHabitCompleteAcrossMonthBoundary(t *testing.T) {
	last := NewDate(2024, 2, 29)
	h := Habit{Name: "run", CurrentStreak: 4, LongestStreak: 4, TotalCompletions: 4, LastCompleted: &last}
	got, err := h.Complete(NewDate(2024, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, StreakContinued, got)
	assert.Equal(t, 5, h.CurrentStreak)
}

func TestHabitCompleteRejects(t *testing.T) {
	last := NewDate(2025, 3, 5)
	h := Habit{Name: "read", CurrentStreak: 2, LongestStreak: 2, TotalCompletions: 2, LastCompleted: &last}

	_, err := h.Complete(NewDate(2025, 3, 4))
	assert.ErrorIs(t, err, ErrCompletionBeforeLast)
	assert.Equal(t, 2, h.CurrentStreak, "rejected completion leaves counters alone")

	h.Archived = true
	_, err = h.Complete(NewDate(2025, 3, 6))
	assert.ErrorIs(t, err, ErrHabitArchived)

	_, err = (&Habit{}).Complete(Date{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHabitEvaluate(t *testing.T) {
	last := NewDate(2025, 3, 5)
	fresh := func() Habit {
		l := last
		return Habit{CurrentStreak: 3, LongestStreak: 5, LastCompleted: &l}
	}

	h := fresh()
	assert.Equal(t, StreakUnchanged, h.Evaluate(NewDate(2025, 3, 5)))
	assert.Equal(t, StreakUnchanged, h.Evaluate(NewDate(2025, 3, 6)))
	assert.Equal(t, 3, h.CurrentStreak)

	assert.Equal(t, StreakBroken, h.Evaluate(NewDate(2025, 3, 7)))
	assert.Equal(t, 0, h.CurrentStreak)
	assert.Equal(t, 5, h.LongestStreak)
	assert.Equal(t, StreakUnchanged, h.Evaluate(NewDate(2025, 3, 8)), "already broken")

	never := Habit{}
	assert.Equal(t, StreakUnchanged, never.Evaluate(NewDate(2025, 3, 8)))
}

func TestHabitValidate(t *testing.T) {
	assert.NoError(t, Habit{Name: "meditate"}.Validate())
	assert.ErrorIs(t, Habit{Name: "  "}.Validate(), ErrEmptyName)
}

func TestUnlockable(t *testing.T) {
	defs := DefaultAchievements()
	for _, a := range defs {
		require.NoError(t, a.Validate())
	}

	p := Progress{Streak: 7, Total: 12, FocusMinutes: 90}
	got := Unlockable(p, defs, map[string]bool{"streak_3": true})

	var codes []string
	for _, a := range got {
		codes = append(codes, a.Code)
	}
	want := []string{"streak_7", "total_10", "focus_60"}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Fatalf("unlockable codes mismatch (-want +got):\n%s", diff)
	}

	assert.Empty(t, Unlockable(Progress{}, defs, nil))
}

func TestUnlockableOrdersByThreshold(t *testing.T) {
	defs := []Achievement{
		{Code: "focus_5", Metric: MetricFocusMinutes, Threshold: 5},
		{Code: "total_2", Metric: MetricTotal, Threshold: 2},
		{Code: "streak_5", Metric: MetricStreak, Threshold: 5},
		{Code: "streak_1", Metric: MetricStreak, Threshold: 1},
	}
	var codes []string
	for _, a := range Unlockable(Progress{Streak: 5, Total: 5, FocusMinutes: 5}, defs, nil) {
		codes = append(codes, a.Code)
	}
	want := []string{"streak_1", "total_2", "focus_5", "streak_5"}
	if diff := cmp.Diff(want, codes); diff != "" {
		t.Fatalf("unlock order mismatch (-want +got):\n%s", diff)
	}
}

func TestUnlockableSkipsDuplicateCodes(t *testing.T) {
	defs := []Achievement{
		{Code: "x", Metric: MetricTotal, Threshold: 2},
		{Code: "x", Metric: MetricTotal, Threshold: 1},
	}
	got := Unlockable(Progress{Total: 5}, defs, nil)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Threshold)
}

func TestProgressOfUsesLongestStreak(t *testing.T) {
	p := ProgressOf(Habit{CurrentStreak: 1, LongestStreak: 30, TotalCompletions: 40}, 15)
	assert.Equal(t, Progress{Streak: 30, Total: 40, FocusMinutes: 15}, p)
}

func TestAchievementValidate(t *testing.T) {
	assert.Error(t, Achievement{Code: "a", Metric: "weight", Threshold: 1}.Validate())
	assert.Error(t, Achievement{Code: "a", Metric: MetricTotal, Threshold: 0}.Validate())
	assert.Error(t, Achievement{Metric: MetricTotal, Threshold: 1}.Validate())
}
