// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package library is the sole authority over the persisted paper library:
// papers, clusters, viewed related-work links, the related-work cache,
// settings, and preferences.
//
// Every read-modify-write runs under a per-resource gate held until the
// write is persisted, so overlapping callers never act on the same stale
// snapshot. Gates are acquired in a fixed order (papers, clusters, viewed,
// related, settings, preferences) and are never held across gateway calls.
package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/paper-library/internal/kv"
	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/pkg/types"
)

// Persisted key space.
const (
	keyPapers      = "papers"
	keyClusters    = "clusters"
	keySettings    = "settings"
	keyPreferences = "userPreferences"
	keyViewed      = "viewedLinks"
	keyRelated     = "recentRelatedWork"
	keyLastUpdated = "lastUpdated"
)

const (
	defaultHighWaterMark        = 100
	defaultLongTermRetention    = 365 * 24 * time.Hour
	defaultRelatedWorkRetention = 7 * 24 * time.Hour
)

// ErrQuotaExceeded is returned (wrapped) when a write does not fit in the
// backend's storage quota.
var ErrQuotaExceeded = kv.ErrQuotaExceeded

// Store is the library handle shared by every caller context.
type Store struct {
	kv    kv.Store
	cfg   types.LibraryConfig
	log   *logger.Logger
	now   func() time.Time
	newID func() string

	papers   *semaphore.Weighted
	clusters *semaphore.Weighted
	viewed   *semaphore.Weighted
	related  *semaphore.Weighted
	settings *semaphore.Weighted
	prefs    *semaphore.Weighted
}

// Option customizes a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator replaces the UUID generator used for new paper ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// New returns a Store persisting to backend. Zero-valued retention and
// high-water settings in cfg take their defaults.
func New(backend kv.Store, cfg types.LibraryConfig, log *logger.Logger, opts ...Option) *Store {
	if cfg.HighWaterMark <= 0 {
		cfg.HighWaterMark = defaultHighWaterMark
	}
	if cfg.LongTermRetention <= 0 {
		cfg.LongTermRetention = defaultLongTermRetention
	}
	if cfg.RelatedWorkRetention <= 0 {
		cfg.RelatedWorkRetention = defaultRelatedWorkRetention
	}
	if log == nil {
		log = logger.Nop()
	}

	s := &Store{
		kv:       backend,
		cfg:      cfg,
		log:      log.With("component", "library"),
		now:      time.Now,
		newID:    uuid.NewString,
		papers:   semaphore.NewWeighted(1),
		clusters: semaphore.NewWeighted(1),
		viewed:   semaphore.NewWeighted(1),
		related:  semaphore.NewWeighted(1),
		settings: semaphore.NewWeighted(1),
		prefs:    semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective library configuration.
func (s *Store) Config() types.LibraryConfig {
	return s.cfg
}

// acquire takes the given gates in argument order. Callers list gates in
// the package's canonical order. On failure nothing stays held.
func acquire(ctx context.Context, gates ...*semaphore.Weighted) (func(), error) {
	for i, g := range gates {
		if err := g.Acquire(ctx, 1); err != nil {
			for j := i - 1; j >= 0; j-- {
				gates[j].Release(1)
			}
			return nil, fmt.Errorf("waiting for library lock: %w", err)
		}
	}
	return func() {
		for j := len(gates) - 1; j >= 0; j-- {
			gates[j].Release(1)
		}
	}, nil
}

// load decodes the JSON value at key into v. It reports false when the
// key is absent, leaving v untouched.
func (s *Store) load(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.kv.Get(ctx, key)
	if errors.Is(err, kv.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) save(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, data); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

type document struct {
	key   string
	value any
}

// saveAll encodes every document and writes them in one backend call, so
// either all of them land or none do.
func (s *Store) saveAll(ctx context.Context, docs ...document) error {
	entries := make([]kv.Entry, len(docs))
	keys := make([]string, len(docs))
	for i, d := range docs {
		data, err := json.Marshal(d.value)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", d.key, err)
		}
		entries[i] = kv.Entry{Key: d.key, Value: data}
		keys[i] = d.key
	}
	if err := s.kv.SetMany(ctx, entries...); err != nil {
		return fmt.Errorf("saving %s: %w", strings.Join(keys, ", "), err)
	}
	return nil
}

// touch records the time of the latest top-level mutation. It is a blind
// write, so it needs no gate.
func (s *Store) touch(ctx context.Context) error {
	return s.save(ctx, keyLastUpdated, s.now().UTC())
}

// LastUpdated returns the time of the latest mutation, or the zero time
// for a library that was never written.
func (s *Store) LastUpdated(ctx context.Context) (time.Time, error) {
	var t time.Time
	if _, err := s.load(ctx, keyLastUpdated, &t); err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func (s *Store) loadPapers(ctx context.Context) ([]types.Paper, error) {
	var papers []types.Paper
	if _, err := s.load(ctx, keyPapers, &papers); err != nil {
		return nil, err
	}
	return papers, nil
}

func (s *Store) loadClusters(ctx context.Context) ([]types.Cluster, error) {
	var clusters []types.Cluster
	if _, err := s.load(ctx, keyClusters, &clusters); err != nil {
		return nil, err
	}
	return clusters, nil
}

// Reset removes all library state, viewed links included.
func (s *Store) Reset(ctx context.Context) error {
	release, err := acquire(ctx, s.papers, s.clusters, s.viewed, s.related, s.settings, s.prefs)
	if err != nil {
		return err
	}
	defer release()

	if err := s.kv.Delete(ctx, keyClusters, keyPapers, keyViewed, keyRelated, keySettings, keyPreferences); err != nil {
		return fmt.Errorf("resetting library: %w", err)
	}
	s.log.Info("library reset")
	return s.touch(ctx)
}
