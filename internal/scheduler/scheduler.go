// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scheduler runs the periodic library maintenance: related-work
// refresh at the configured frequency and stale-data purges.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pdiddy/paper-library/internal/library"
	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/internal/related"
	"github.com/pdiddy/paper-library/pkg/types"
)

const (
	DefaultTickInterval  = time.Hour
	DefaultPurgeInterval = 24 * time.Hour
)

// Discoverer refreshes the related-work cache. *related.Finder implements it.
type Discoverer interface {
	Discover(ctx context.Context, keywords []string) (related.Discovery, error)
}

// Report describes what one RunOnce did.
type Report struct {
	Refreshed bool
	Results   int
	Purged    bool
	Purge     library.PurgeReport
}

// Scheduler owns the periodic tasks.
type Scheduler struct {
	store  *library.Store
	finder Discoverer
	cfg    types.SchedulerConfig
	log    *logger.Logger
	now    func() time.Time

	mu        sync.Mutex
	lastPurge time.Time
}

// New returns a Scheduler. A nil finder disables related-work refresh.
func New(store *library.Store, finder Discoverer, cfg types.SchedulerConfig, log *logger.Logger) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.PurgeInterval <= 0 {
		cfg.PurgeInterval = DefaultPurgeInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Scheduler{
		store:  store,
		finder: finder,
		cfg:    cfg,
		log:    log.With("component", "scheduler"),
		now:    time.Now,
	}
}

// Run calls RunOnce immediately and then on every tick until ctx is
// done. Task failures are logged and retried on the next tick.
func (s *Scheduler) Run(ctx context.Context) error {
	s.log.Info("scheduler started", "tick", s.cfg.TickInterval, "purge_every", s.cfg.PurgeInterval)
	s.tick(ctx)

	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
		s.log.Warn("scheduled run failed", "error", err)
	}
}

// RunOnce refreshes related work when the cache is older than the
// configured frequency, and purges stale data when PurgeInterval has
// passed since the last purge.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	var rep Report

	due, err := s.refreshDue(ctx)
	if err != nil {
		return rep, err
	}
	if due && s.finder != nil {
		d, err := s.finder.Discover(ctx, nil)
		if err != nil {
			return rep, fmt.Errorf("refreshing related work: %w", err)
		}
		rep.Refreshed = !d.FromCache && !d.FetchedAt.IsZero()
		rep.Results = len(d.Papers)
	}

	if s.purgeDue() {
		purge, err := s.store.PurgeStale(ctx, 0)
		if err != nil {
			return rep, fmt.Errorf("purging stale data: %w", err)
		}
		s.markPurged()
		rep.Purged = true
		rep.Purge = purge
	}
	return rep, nil
}

func (s *Scheduler) refreshDue(ctx context.Context) (bool, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return false, err
	}
	snapshot, ok, err := s.store.RelatedWorkSnapshot(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return s.now().Sub(snapshot.FetchedAt) >= settings.RelatedWorkFrequency.Period(), nil
}

func (s *Scheduler) purgeDue() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastPurge.IsZero() || s.now().Sub(s.lastPurge) >= s.cfg.PurgeInterval
}

func (s *Scheduler) markPurged() {
	s.mu.Lock()
	s.lastPurge = s.now()
	s.mu.Unlock()
}
