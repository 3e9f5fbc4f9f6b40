package core

import (
	"sort"
	"time"
)

const (
	StreakStarted   StreakOutcome = "started"
	StreakContinued StreakOutcome = "continued"
	StreakReset     StreakOutcome = "reset"
	StreakUnchanged StreakOutcome = "unchanged"
	StreakBroken    StreakOutcome = "broken"
)

const (
	MetricStreak       AchievementMetric = "streak"
	MetricTotal        AchievementMetric = "total"
	MetricFocusMinutes AchievementMetric = "focus_minutes"
)

type (
	// StreakOutcome describes what a completion or evaluation did to a streak.
	StreakOutcome string

	Habit struct {
		ID               int64     `json:"id"`
		Name             string    `json:"name"`
		Description      string    `json:"description,omitempty"`
		CurrentStreak    int       `json:"current_streak"`
		LongestStreak    int       `json:"longest_streak"`
		TotalCompletions int       `json:"total_completions"`
		LastCompleted    *Date     `json:"last_completed,omitempty"`
		CreatedAt        time.Time `json:"created_at"`
		Archived         bool      `json:"archived"`
	}

	AchievementMetric string

	Achievement struct {
		Code      string            `json:"code" yaml:"code"`
		Title     string            `json:"title" yaml:"title"`
		Metric    AchievementMetric `json:"metric" yaml:"metric"`
		Threshold int               `json:"threshold" yaml:"threshold"`
	}

	UnlockedAchievement struct {
		HabitID int64 `json:"habit_id"`
		Achievement
		UnlockedAt time.Time `json:"unlocked_at"`
	}

	// Progress is the set of counters achievements are measured against.
	Progress struct {
		Streak       int
		Total        int
		FocusMinutes int
	}
)

func (h Habit) Validate() error {
	if err := validateText("name", h.Name, 100, true); err != nil {
		return err
	}
	return validateText("description", h.Description, 500, false)
}

// Complete records a completion on day. Completing twice on the same day
// changes nothing; the day right after the last completion extends the
// streak; any longer gap restarts it at one.
func (h *Habit) Complete(day Date) (StreakOutcome, error) {
	if h.Archived {
		return "", ErrHabitArchived
	}
	if err := day.Validate(); err != nil {
		return "", err
	}

	outcome := StreakStarted
	if h.LastCompleted != nil {
		switch gap := h.LastCompleted.DaysUntil(day); {
		case gap == 0:
			return StreakUnchanged, nil
		case gap < 0:
			return "", ErrCompletionBeforeLast
		case gap == 1:
			outcome = StreakContinued
		default:
			outcome = StreakReset
		}
	}

	if outcome == StreakContinued {
		h.CurrentStreak++
	} else {
		h.CurrentStreak = 1
	}
	if h.CurrentStreak > h.LongestStreak {
		h.LongestStreak = h.CurrentStreak
	}
	h.TotalCompletions++
	d := day
	h.LastCompleted = &d
	return outcome, nil
}

// Evaluate breaks the streak when today is more than one day past the last
// completion. A streak is still alive on the day after the last completion.
func (h *Habit) Evaluate(today Date) StreakOutcome {
	if h.LastCompleted == nil || h.CurrentStreak == 0 {
		return StreakUnchanged
	}
	if h.LastCompleted.DaysUntil(today) > 1 {
		h.CurrentStreak = 0
		return StreakBroken
	}
	return StreakUnchanged
}

// DefaultAchievements is the built-in achievement catalogue.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{Code: "streak_3", Title: "Three in a row", Metric: MetricStreak, Threshold: 3},
		{Code: "streak_7", Title: "One week strong", Metric: MetricStreak, Threshold: 7},
		{Code: "streak_30", Title: "Monthly habit", Metric: MetricStreak, Threshold: 30},
		{Code: "streak_100", Title: "Centurion", Metric: MetricStreak, Threshold: 100},
		{Code: "total_10", Title: "Ten done", Metric: MetricTotal, Threshold: 10},
		{Code: "total_50", Title: "Fifty done", Metric: MetricTotal, Threshold: 50},
		{Code: "total_100", Title: "Hundred done", Metric: MetricTotal, Threshold: 100},
		{Code: "focus_60", Title: "First focused hour", Metric: MetricFocusMinutes, Threshold: 60},
		{Code: "focus_600", Title: "Ten focused hours", Metric: MetricFocusMinutes, Threshold: 600},
	}
}

func (a Achievement) Validate() error {
	if err := validateText("code", a.Code, 50, true); err != nil {
		return err
	}
	switch a.Metric {
	case MetricStreak, MetricTotal, MetricFocusMinutes:
	default:
		return invalidf("unknown achievement metric %q", a.Metric)
	}
	if a.Threshold < 1 {
		return invalidf("achievement %s needs a positive threshold", a.Code)
	}
	return nil
}

// Reached reports whether the progress meets the achievement's threshold.
func (a Achievement) Reached(p Progress) bool {
	switch a.Metric {
	case MetricStreak:
		return p.Streak >= a.Threshold
	case MetricTotal:
		return p.Total >= a.Threshold
	case MetricFocusMinutes:
		return p.FocusMinutes >= a.Threshold
	}
	return false
}

// ProgressOf measures a habit. The longest streak is used so definitions
// added later still unlock for streaks already achieved.
func ProgressOf(h Habit, focusMinutes int) Progress {
	return Progress{Streak: h.LongestStreak, Total: h.TotalCompletions, FocusMinutes: focusMinutes}
}

// Unlockable returns the definitions reached by p that are not in unlocked,
// ordered by threshold. Equal thresholds fall back to metric, then code.
func Unlockable(p Progress, defs []Achievement, unlocked map[string]bool) []Achievement {
	var out []Achievement
	seen := make(map[string]bool, len(defs))
	for _, a := range defs {
		if unlocked[a.Code] || seen[a.Code] || !a.Reached(p) {
			continue
		}
		seen[a.Code] = true
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Threshold != out[j].Threshold {
			return out[i].Threshold < out[j].Threshold
		}
		if out[i].Metric != out[j].Metric {
			return out[i].Metric < out[j].Metric
		}
		return out[i].Code < out[j].Code
	})
	return out
}
