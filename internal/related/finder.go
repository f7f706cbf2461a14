// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package related

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pdiddy/paper-library/internal/library"
	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/internal/telemetry"
	"github.com/pdiddy/paper-library/pkg/types"
)

// Discovery is the outcome of one Discover call.
type Discovery struct {
	Papers   []types.RelatedPaper `json:"papers"`
	Keywords []string             `json:"keywords"`

	// FromCache is set when every backend failed and Papers is the last
	// cached set, whatever its age.
	FromCache bool      `json:"fromCache"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// Finder runs related-work discovery against the library.
type Finder struct {
	store    *library.Store
	backends []Backend
	cfg      types.RelatedWorkConfig
	log      *logger.Logger
}

// NewFinder returns a Finder querying backends.
func NewFinder(store *library.Store, backends []Backend, cfg types.RelatedWorkConfig, log *logger.Logger) *Finder {
	if log == nil {
		log = logger.Nop()
	}
	return &Finder{store: store, backends: backends, cfg: cfg, log: log.With("component", "related")}
}

// Discover fetches related work for keywords, or for keywords derived
// from the library and the reader's research interests when none are
// given. Results the reader already viewed, or papers already in the
// library, are dropped and the cache is replaced. When every backend
// fails the previous cache is returned unchanged.
func (f *Finder) Discover(ctx context.Context, keywords []string) (Discovery, error) {
	keywords = dedupFold(keywords)
	if len(keywords) == 0 {
		derived, err := f.DefaultKeywords(ctx)
		if err != nil {
			return Discovery{}, err
		}
		keywords = derived
	}
	if len(keywords) == 0 {
		f.log.Info("no keywords to search for related work")
		return Discovery{Papers: []types.RelatedPaper{}, Keywords: []string{}}, nil
	}

	ctx, span := telemetry.Tracer("related").Start(ctx, "related.discover")
	span.SetAttributes(attribute.StringSlice("keywords", keywords))

	var (
		out Output
		err error
	)
	if f.cfg.Timeout > 0 {
		fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
		out, err = Fetch(fetchCtx, Query{Keywords: keywords}, f.backends, f.cfg, f.log)
		cancel()
	} else {
		out, err = Fetch(ctx, Query{Keywords: keywords}, f.backends, f.cfg, f.log)
	}
	telemetry.EndSpan(span, err)

	if err != nil {
		if !errors.Is(err, ErrAllBackendsFailed) && len(f.backends) > 0 {
			return Discovery{}, err
		}
		snapshot, _, cacheErr := f.store.RelatedWorkSnapshot(ctx)
		if cacheErr != nil {
			return Discovery{}, cacheErr
		}
		papers, seenErr := f.filterSeen(ctx, snapshot.Papers)
		if seenErr != nil {
			return Discovery{}, seenErr
		}
		f.log.Warn("related-work fetch failed, serving cached results", "error", err, "cached", len(papers))
		return Discovery{Papers: papers, Keywords: keywords, FromCache: true, FetchedAt: snapshot.FetchedAt}, nil
	}

	papers, err := f.filterSeen(ctx, out.Results)
	if err != nil {
		return Discovery{}, err
	}
	if err := f.store.CacheRelatedWork(ctx, papers); err != nil {
		return Discovery{}, fmt.Errorf("caching related work: %w", err)
	}
	f.log.Info("related work refreshed", "keywords", len(keywords), "results", len(papers), "duplicates", out.DupsRemoved)
	return Discovery{Papers: papers, Keywords: keywords, FetchedAt: time.Now().UTC()}, nil
}

// filterSeen drops results whose URL was viewed or whose title is
// already in the library.
func (f *Finder) filterSeen(ctx context.Context, results []types.RelatedPaper) ([]types.RelatedPaper, error) {
	viewed, err := f.store.ViewedLinks(ctx)
	if err != nil {
		return nil, err
	}
	papers, err := f.store.ListPapers(ctx, library.Filter{})
	if err != nil {
		return nil, err
	}

	seenURL := make(map[string]bool, len(viewed))
	for _, u := range viewed {
		seenURL[u] = true
	}
	owned := make(map[string]bool, len(papers))
	for _, p := range papers {
		owned[NormalizeTitle(p.Title)] = true
	}

	out := make([]types.RelatedPaper, 0, len(results))
	for _, r := range results {
		if r.URL != "" && seenURL[r.URL] {
			continue
		}
		if owned[NormalizeTitle(r.Title)] {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// DefaultKeywords returns the library's most frequent keywords, up to
// MaxKeywords, followed by the reader's research interests.
func (f *Finder) DefaultKeywords(ctx context.Context) ([]string, error) {
	papers, err := f.store.ListPapers(ctx, library.Filter{})
	if err != nil {
		return nil, err
	}
	prefs, err := f.store.Preferences(ctx)
	if err != nil {
		return nil, err
	}

	limit := f.cfg.MaxKeywords
	if limit <= 0 {
		limit = defaultMaxKeywords
	}
	keywords := TopKeywords(papers, limit)
	return dedupFold(append(keywords, prefs.ResearchInterests...)), nil
}

// TopKeywords returns up to n keywords ordered by how many papers carry
// them, ties broken by first appearance.
func TopKeywords(papers []types.Paper, n int) []string {
	counts := map[string]int{}
	display := map[string]string{}
	var order []string
	for _, p := range papers {
		for _, kw := range p.Keywords {
			kw = strings.TrimSpace(kw)
			key := strings.ToLower(kw)
			if key == "" {
				continue
			}
			if counts[key] == 0 {
				order = append(order, key)
				display[key] = kw
			}
			counts[key]++
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if len(order) > n {
		order = order[:n]
	}
	out := make([]string, len(order))
	for i, k := range order {
		out[i] = display[k]
	}
	return out
}

func dedupFold(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, s := range in {
		s = strings.TrimSpace(s)
		k := strings.ToLower(s)
		if s == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, s)
	}
	return out
}
