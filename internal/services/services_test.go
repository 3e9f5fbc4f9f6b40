package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"worklife/internal/amqp"
	"worklife/internal/core"
	"worklife/internal/storage"
)

func newTestRepo(t *testing.T) *storage.SQLiteRepository {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "worklife.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func fixedClock(t time.Time) Clock { return func() time.Time { return t } }

// recordingPublisher keeps every event it is handed. When err is set the
// events are still recorded but Publish fails.
type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) types() []amqp.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func (p *recordingPublisher) details(typ amqp.EventType) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e.Detail)
		}
	}
	return out
}

var errSheetDown = errors.New("sheet unavailable")

// stubExporter records exports and removals and can be told to fail.
type stubExporter struct {
	mu       sync.Mutex
	exported []core.Transaction
	removed  []string
	fail     bool
}

func (s *stubExporter) Export(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return "", errSheetDown
	}
	s.exported = append(s.exported, t)
	return "row-" + string(rune('0'+len(s.exported))), nil
}

func (s *stubExporter) Remove(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return errSheetDown
	}
	s.removed = append(s.removed, ref)
	return nil
}

func (s *stubExporter) setFail(fail bool) {
	s.mu.Lock()
	s.fail = fail
	s.mu.Unlock()
}

func (s *stubExporter) exportCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.exported)
}

func mustAccount(t *testing.T, repo *storage.SQLiteRepository, name string, kind core.AccountKind, opening int64) core.Account {
	t.Helper()
	a, err := repo.CreateAccount(context.Background(), core.Account{Name: name, Kind: kind, Opening: core.Money{Cents: opening}})
	require.NoError(t, err)
	return a
}
