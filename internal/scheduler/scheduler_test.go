// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-library/internal/kv"
	"github.com/pdiddy/paper-library/internal/library"
	"github.com/pdiddy/paper-library/internal/related"
	"github.com/pdiddy/paper-library/pkg/types"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeFinder struct {
	mu    sync.Mutex
	calls int
	err   error
	clock *fakeClock
	store *library.Store
}

func (f *fakeFinder) Discover(ctx context.Context, _ []string) (related.Discovery, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return related.Discovery{}, f.err
	}
	papers := []types.RelatedPaper{{Identifier: "1", Title: "Fresh"}}
	if err := f.store.CacheRelatedWork(ctx, papers); err != nil {
		return related.Discovery{}, err
	}
	return related.Discovery{Papers: papers, FetchedAt: f.clock.Now()}, nil
}

func (f *fakeFinder) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func setup(t *testing.T, cfg types.SchedulerConfig) (*Scheduler, *fakeFinder, *fakeClock, *library.Store) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)}
	store := library.New(kv.NewMemory(0), types.LibraryConfig{}, nil, library.WithClock(clock.Now))
	finder := &fakeFinder{clock: clock, store: store}
	s := New(store, finder, cfg, nil)
	s.now = clock.Now
	return s, finder, clock, store
}

func TestRunOnceRefreshesEmptyCache(t *testing.T) {
	s, finder, _, _ := setup(t, types.SchedulerConfig{})

	rep, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Refreshed)
	assert.Equal(t, 1, rep.Results)
	assert.True(t, rep.Purged)
	assert.Equal(t, 1, finder.Calls())
}

func TestRunOnceHonorsFrequency(t *testing.T) {
	s, finder, clock, store := setup(t, types.SchedulerConfig{})
	ctx := context.Background()

	_, err := s.RunOnce(ctx)
	require.NoError(t, err)

	clock.Advance(2 * time.Hour)
	rep, err := s.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, rep.Refreshed)
	assert.False(t, rep.Purged)
	assert.Equal(t, 1, finder.Calls())

	_, err = store.UpdateSettings(ctx, func(st *types.Settings) { st.RelatedWorkFrequency = types.FrequencyDaily })
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	rep, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, rep.Refreshed)
	assert.True(t, rep.Purged)
	assert.Equal(t, 2, finder.Calls())
}

func TestRunOnceWeeklyWaitsSevenDays(t *testing.T) {
	s, finder, clock, _ := setup(t, types.SchedulerConfig{})
	ctx := context.Background()

	_, err := s.RunOnce(ctx)
	require.NoError(t, err)

	clock.Advance(6 * 24 * time.Hour)
	_, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, finder.Calls())

	clock.Advance(24 * time.Hour)
	_, err = s.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, finder.Calls())
}

func TestRunOnceReportsFinderError(t *testing.T) {
	s, finder, _, _ := setup(t, types.SchedulerConfig{})
	finder.err = errors.New("store unavailable")

	_, err := s.RunOnce(context.Background())
	assert.ErrorContains(t, err, "store unavailable")
}

func TestRunStopsOnCancel(t *testing.T) {
	s, finder, _, _ := setup(t, types.SchedulerConfig{TickInterval: 5 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return finder.Calls() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNilFinderOnlyPurges(t *testing.T) {
	store := library.New(kv.NewMemory(0), types.LibraryConfig{}, nil)
	s := New(store, nil, types.SchedulerConfig{}, nil)

	rep, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.False(t, rep.Refreshed)
	assert.True(t, rep.Purged)
}
