package services

import (
	"fmt"
	"time"

	"worklife/internal/core"
)

// DuenessChecker decides whether a recurring transaction should be posted
// again. Each frequency has its own implementation.
type DuenessChecker interface {
	// IsDue reports whether a template last posted at lastExecution (zero
	// when never posted) is due at now.
	IsDue(lastExecution, now time.Time, startDate core.Date) bool
}

// DailyChecker is due once per calendar day.
type DailyChecker struct{}

func (DailyChecker) IsDue(lastExecution, now time.Time, _ core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	return core.DateOf(lastExecution).DaysUntil(core.DateOf(now)) >= 1
}

// WeeklyChecker is due seven calendar days after the last posting.
type WeeklyChecker struct{}

func (WeeklyChecker) IsDue(lastExecution, now time.Time, _ core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	return core.DateOf(lastExecution).DaysUntil(core.DateOf(now)) >= 7
}

// MonthlyChecker is due once a month, on or after the start date's day of
// month. Days past the end of a short month fall on its last day.
type MonthlyChecker struct{}

func (MonthlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	if lastExecution.Year() == now.Year() && lastExecution.Month() == now.Month() {
		return false
	}
	return now.Day() >= clampDay(startDate.Day(), now.Year(), int(now.Month()))
}

// YearlyChecker is due once a year, on or after the start date's month and day.
type YearlyChecker struct{}

func (YearlyChecker) IsDue(lastExecution, now time.Time, startDate core.Date) bool {
	if lastExecution.IsZero() {
		return true
	}
	if lastExecution.Year() == now.Year() {
		return false
	}

	targetMonth := startDate.Month()
	switch {
	case int(now.Month()) < targetMonth:
		return false
	case int(now.Month()) == targetMonth:
		return now.Day() >= clampDay(startDate.Day(), now.Year(), targetMonth)
	}
	return true
}

func clampDay(day, year, month int) int {
	if last := core.DaysIn(year, month); day > last {
		return last
	}
	return day
}

var duenessStrategies = map[core.RepetitionTypes]DuenessChecker{
	core.Daily:   DailyChecker{},
	core.Weekly:  WeeklyChecker{},
	core.Monthly: MonthlyChecker{},
	core.Yearly:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a repetition type.
func GetDuenessChecker(frequency core.RepetitionTypes) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown repetition type: %s", frequency)
	}
	return checker, nil
}

// RegisterDuenessChecker adds or replaces the checker for a repetition type.
// It is not safe to call while a processor is running.
func RegisterDuenessChecker(frequency core.RepetitionTypes, checker DuenessChecker) {
	duenessStrategies[frequency] = checker
}
