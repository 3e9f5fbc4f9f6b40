package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"worklife/internal/core"
	"worklife/internal/prefs"
	"worklife/internal/storage"
)

// WorkService records work days and derives the monthly meal and overtime pay.
type WorkService struct {
	storage *storage.SQLiteRepository
	prefs   prefs.Source
}

func NewWorkService(storage *storage.SQLiteRepository, prefs prefs.Source) *WorkService {
	return &WorkService{storage: storage, prefs: prefs}
}

// LogDay stores the log for its day, replacing any earlier one.
func (s *WorkService) LogDay(ctx context.Context, l core.WorkLog) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return s.storage.SaveWorkLog(ctx, l)
}

func (s *WorkService) DeleteDay(ctx context.Context, day core.Date) error {
	return s.storage.DeleteWorkLog(ctx, day)
}

func (s *WorkService) Day(ctx context.Context, day core.Date) (core.WorkLog, error) {
	return s.storage.GetWorkLog(ctx, day)
}

func (s *WorkService) ListDays(ctx context.Context, year, month int) ([]core.WorkLog, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return nil, err
	}
	return s.storage.ListWorkLogs(ctx, year, month)
}

// Project extrapolates the month from its first week of logs using the
// current rates and stores the result, replacing any earlier input.
func (s *WorkService) Project(ctx context.Context, year, month int) (core.MonthlyInput, error) {
	in, err := s.project(ctx, year, month)
	if err != nil {
		return core.MonthlyInput{}, err
	}
	if err := in.Validate(); err != nil {
		return core.MonthlyInput{}, err
	}
	if err := s.storage.SaveMonthlyInput(ctx, in); err != nil {
		return core.MonthlyInput{}, err
	}
	slog.InfoContext(ctx, "Month projected",
		"year", year,
		"month", month,
		"working_days", in.WorkingDays,
		"meals", in.Meals,
		"overtime_hours", in.OvertimeHours.String())
	return in, nil
}

func (s *WorkService) project(ctx context.Context, year, month int) (core.MonthlyInput, error) {
	logs, err := s.ListDays(ctx, year, month)
	if err != nil {
		return core.MonthlyInput{}, err
	}
	p := s.prefs.Current()
	return core.ProjectMonth(year, month, logs, p.Rates(), p.Policy()), nil
}

// MonthlyInput returns the stored input, or a fresh projection when the
// month has none. The second result reports whether it was stored.
func (s *WorkService) MonthlyInput(ctx context.Context, year, month int) (core.MonthlyInput, bool, error) {
	in, err := s.storage.GetMonthlyInput(ctx, year, month)
	if err == nil {
		return in, true, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return core.MonthlyInput{}, false, err
	}
	in, err = s.project(ctx, year, month)
	return in, false, err
}

// UpdateMonthlyInput applies a manual adjustment on top of the month's
// current input and stores the result.
func (s *WorkService) UpdateMonthlyInput(ctx context.Context, year, month int, adj core.MonthlyAdjustment) (core.MonthlyInput, error) {
	in, _, err := s.MonthlyInput(ctx, year, month)
	if err != nil {
		return core.MonthlyInput{}, err
	}
	in = in.Apply(adj)
	if err := in.Validate(); err != nil {
		return core.MonthlyInput{}, err
	}
	if err := s.storage.SaveMonthlyInput(ctx, in); err != nil {
		return core.MonthlyInput{}, fmt.Errorf("save monthly input: %w", err)
	}
	return in, nil
}

// ResetMonth drops the stored input so the month is projected again.
func (s *WorkService) ResetMonth(ctx context.Context, year, month int) error {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return err
	}
	return s.storage.DeleteMonthlyInput(ctx, year, month)
}

// Summary computes the month's pay from its input and tallies its logs.
func (s *WorkService) Summary(ctx context.Context, year, month int) (core.MonthlySummary, error) {
	in, _, err := s.MonthlyInput(ctx, year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	logs, err := s.storage.ListWorkLogs(ctx, year, month)
	if err != nil {
		return core.MonthlySummary{}, err
	}
	return core.Summarize(in, logs, s.prefs.Current().Policy()), nil
}
