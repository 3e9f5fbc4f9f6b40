package core

import "time"

// FocusSession is a timed stretch of focused work, optionally tied to a habit.
type FocusSession struct {
	ID             int64      `json:"id"`
	Label          string     `json:"label"`
	HabitID        *int64     `json:"habit_id,omitempty"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	PlannedMinutes int        `json:"planned_minutes"`
}

func (s FocusSession) Validate() error {
	if err := validateText("label", s.Label, 100, true); err != nil {
		return err
	}
	if s.PlannedMinutes < 0 || s.PlannedMinutes > 12*60 {
		return invalid("planned minutes must be between 0 and 720")
	}
	if s.StartedAt.IsZero() {
		return invalid("focus session needs a start time")
	}
	return nil
}

// Stop ends the session at now. A clock that went backwards yields a zero
// length session rather than a negative one.
func (s *FocusSession) Stop(now time.Time) error {
	if s.EndedAt != nil {
		return ErrSessionStopped
	}
	if now.Before(s.StartedAt) {
		now = s.StartedAt
	}
	s.EndedAt = &now
	return nil
}

// Running reports whether the session has not been stopped yet.
func (s FocusSession) Running() bool {
	return s.EndedAt == nil
}

// Minutes is the whole number of minutes between start and end.
func (s FocusSession) Minutes() int {
	if s.EndedAt == nil {
		return 0
	}
	return int(s.EndedAt.Sub(s.StartedAt) / time.Minute)
}

// ReachedPlan reports whether a planned session ran at least as long as planned.
func (s FocusSession) ReachedPlan() bool {
	return s.PlannedMinutes > 0 && s.Minutes() >= s.PlannedMinutes
}

// Day is the calendar day the session started on.
func (s FocusSession) Day() Date {
	return DateOf(s.StartedAt)
}
