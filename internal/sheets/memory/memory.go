package memory

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"worklife/internal/core"
	ports "worklife/internal/sheets"
)

// Store is an in-process exporter for development and tests.
type Store struct {
	mu   sync.Mutex
	rows []*core.Transaction
}

var (
	_ ports.TransactionExporter = (*Store)(nil)
	_ ports.OverviewReader      = (*Store)(nil)
)

func New() *Store {
	return &Store{}
}

// Export stores the transaction and returns a synthetic row reference.
func (s *Store) Export(_ context.Context, t core.Transaction) (string, error) {
	if err := t.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := t
	s.rows = append(s.rows, &row)
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Remove blanks the referenced row.
func (s *Store) Remove(_ context.Context, rowRef string) error {
	n, err := strconv.Atoi(strings.TrimPrefix(rowRef, "mem:"))
	if err != nil || !strings.HasPrefix(rowRef, "mem:") {
		return fmt.Errorf("invalid row reference %q", rowRef)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < 1 || n > len(s.rows) {
		return fmt.Errorf("row reference %q out of range", rowRef)
	}
	s.rows[n-1] = nil
	return nil
}

func (s *Store) ReadMonthOverview(_ context.Context, year, month int) (core.MonthOverview, error) {
	if err := core.ValidateYearMonth(year, month); err != nil {
		return core.MonthOverview{}, err
	}
	return core.Overview(year, month, s.Rows()), nil
}

// Rows returns the rows that have not been removed, in export order.
func (s *Store) Rows() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.rows))
	for _, r := range s.rows {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}
