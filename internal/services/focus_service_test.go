package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"worklife/internal/core"
)

// movableClock is a test clock advanced by hand.
type movableClock struct{ t time.Time }

func (c *movableClock) now() time.Time { return c.t }
func (c *movableClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newFocusFixture(t *testing.T) (*FocusService, *HabitService, *movableClock) {
	t.Helper()
	repo := newTestRepo(t)
	habits := newHabitService(t, repo, nil)
	clock := &movableClock{t: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)}
	focus := NewFocusService(repo, habits)
	focus.now = clock.now
	return focus, habits, clock
}

func TestFocusServiceStartValidates(t *testing.T) {
	ctx := context.Background()
	focus, habits, _ := newFocusFixture(t)

	_, err := focus.Start(ctx, "  ", nil, 25)
	assert.ErrorIs(t, err, core.ErrValidation)

	missing := int64(42)
	_, err = focus.Start(ctx, "deep work", &missing, 25)
	assert.ErrorIs(t, err, core.ErrNotFound)

	h, err := habits.Create(ctx, "Write", "")
	require.NoError(t, err)
	require.NoError(t, habits.Archive(ctx, h.ID, true))
	_, err = focus.Start(ctx, "deep work", &h.ID, 25)
	assert.ErrorIs(t, err, core.ErrHabitArchived)
}

func TestFocusServiceStopCompletesHabit(t *testing.T) {
	ctx := context.Background()
	focus, habits, clock := newFocusFixture(t)

	h, err := habits.Create(ctx, "Write", "")
	require.NoError(t, err)

	session, err := focus.Start(ctx, "chapter one", &h.ID, 30)
	require.NoError(t, err)
	running, err := focus.Running(ctx)
	require.NoError(t, err)
	require.Len(t, running, 1)

	clock.advance(35 * time.Minute)
	res, err := focus.Stop(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, res.Session.Minutes())
	require.NotNil(t, res.Completion)
	assert.Equal(t, core.StreakStarted, res.Completion.Outcome)
	require.Len(t, res.Completion.Unlocked, 1)
	assert.Equal(t, "focus_30", res.Completion.Unlocked[0].Code)

	_, err = focus.Stop(ctx, session.ID)
	assert.ErrorIs(t, err, core.ErrSessionStopped)

	running, err = focus.Running(ctx)
	require.NoError(t, err)
	assert.Empty(t, running)

	got, err := habits.Get(ctx, h.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastCompleted)
	assert.Equal(t, core.NewDate(2025, 3, 10), *got.LastCompleted)
}

func TestFocusServiceShortSessionStillCountsMinutes(t *testing.T) {
	ctx := context.Background()
	focus, habits, clock := newFocusFixture(t)

	h, err := habits.Create(ctx, "Practice", "")
	require.NoError(t, err)

	first, err := focus.Start(ctx, "scales", &h.ID, 60)
	require.NoError(t, err)
	clock.advance(20 * time.Minute)
	res, err := focus.Stop(ctx, first.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Completion, "a session short of its plan does not complete the habit")
	assert.Empty(t, res.Unlocked)

	second, err := focus.Start(ctx, "pieces", &h.ID, 60)
	require.NoError(t, err)
	clock.advance(15 * time.Minute)
	res, err = focus.Stop(ctx, second.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Completion)
	require.Len(t, res.Unlocked, 1, "minutes add up across sessions")
	assert.Equal(t, "focus_30", res.Unlocked[0].Code)
}

func TestFocusServiceList(t *testing.T) {
	ctx := context.Background()
	focus, _, clock := newFocusFixture(t)

	s, err := focus.Start(ctx, "inbox", nil, 0)
	require.NoError(t, err)
	clock.advance(10 * time.Minute)
	res, err := focus.Stop(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Completion)

	day := core.NewDate(2025, 3, 10)
	list, err := focus.List(ctx, day, day)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "inbox", list[0].Label)

	_, err = focus.List(ctx, day, day.AddDays(-1))
	assert.ErrorIs(t, err, core.ErrValidation)
}
