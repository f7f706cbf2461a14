// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package related discovers recent work related to the library by
// querying academic APIs, merging their results, and filtering out what
// the reader has already seen.
package related

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/pkg/types"
)

const (
	defaultMaxResults  = 20
	defaultMaxKeywords = 5
)

// ErrAllBackendsFailed is returned by Fetch when no backend produced a
// result set.
var ErrAllBackendsFailed = errors.New("all related-work backends failed")

// Backend searches a single academic API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query Query, cfg types.RelatedWorkConfig) ([]types.RelatedPaper, error)
}

// Query holds the search terms. Keywords are alternatives: a paper
// matching any of them is related.
type Query struct {
	Keywords []string
}

// IsEmpty reports whether the query contains no searchable terms.
func (q Query) IsEmpty() bool {
	for _, k := range q.Keywords {
		if strings.TrimSpace(k) != "" {
			return false
		}
	}
	return true
}

// Output holds the merged results and per-backend failures.
type Output struct {
	Results       []types.RelatedPaper
	DupsRemoved   int
	BackendErrors []string
}

// NewBackends returns the backends enabled in cfg, sharing one client.
func NewBackends(cfg types.RelatedWorkConfig) []Backend {
	client := &http.Client{Timeout: cfg.Timeout}
	var backends []Backend
	if cfg.EnableArxiv {
		backends = append(backends, &ArxivBackend{Client: client})
	}
	if cfg.EnableSemanticScholar {
		backends = append(backends, &SemanticScholarBackend{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	if cfg.EnableOpenAlex {
		backends = append(backends, &OpenAlexBackend{Client: client, Email: cfg.OpenAlexEmail})
	}
	return backends
}

// Fetch fans the query out to all backends concurrently, deduplicates and
// ranks the results, and keeps the top MaxResults. A failing backend is
// logged and skipped; only when every backend fails does Fetch return
// ErrAllBackendsFailed.
func Fetch(ctx context.Context, query Query, backends []Backend, cfg types.RelatedWorkConfig, log *logger.Logger) (Output, error) {
	if query.IsEmpty() {
		return Output{}, fmt.Errorf("query is empty: provide at least one keyword")
	}
	if len(backends) == 0 {
		return Output{}, fmt.Errorf("no related-work backends configured")
	}
	if log == nil {
		log = logger.Nop()
	}

	perBackend := make([][]types.RelatedPaper, len(backends))
	errs := make([]error, len(backends))
	g, gctx := errgroup.WithContext(ctx)
	for i, b := range backends {
		g.Go(func() error {
			perBackend[i], errs[i] = b.Search(gctx, query, cfg)
			return nil
		})
	}
	g.Wait()

	// Merge in backend order so results do not depend on timing.
	var all []types.RelatedPaper
	var failures []string
	for i, b := range backends {
		if errs[i] != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", b.Name(), errs[i]))
			log.Warn("related-work backend failed", "backend", b.Name(), "error", errs[i])
			continue
		}
		all = append(all, perBackend[i]...)
	}

	if len(failures) == len(backends) {
		return Output{BackendErrors: failures}, fmt.Errorf("%w: %s", ErrAllBackendsFailed, strings.Join(failures, "; "))
	}

	deduped, removed := deduplicate(all)
	sort.SliceStable(deduped, func(i, j int) bool {
		return deduped[i].RelevanceScore > deduped[j].RelevanceScore
	})

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if len(deduped) > maxResults {
		deduped = deduped[:maxResults]
	}

	return Output{Results: deduped, DupsRemoved: removed, BackendErrors: failures}, nil
}

// deduplicate merges results that share an identifier or normalized title.
func deduplicate(results []types.RelatedPaper) ([]types.RelatedPaper, int) {
	seen := make(map[string]int)
	deduped := make([]types.RelatedPaper, 0, len(results))
	removed := 0

	for _, r := range results {
		idKey := ""
		if r.Identifier != "" {
			idKey = "id:" + strings.ToLower(r.Identifier)
		}
		titleKey := ""
		if t := NormalizeTitle(r.Title); t != "" {
			titleKey = "title:" + t
		}

		if idx, ok := lookup(seen, idKey, titleKey); ok {
			mergeInto(&deduped[idx], r)
			removed++
			continue
		}

		idx := len(deduped)
		deduped = append(deduped, r)
		for _, k := range []string{idKey, titleKey} {
			if k != "" {
				seen[k] = idx
			}
		}
	}
	return deduped, removed
}

func lookup(seen map[string]int, keys ...string) (int, bool) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if idx, ok := seen[k]; ok {
			return idx, true
		}
	}
	return 0, false
}

// mergeInto fills empty fields of dst from src and keeps the higher score.
func mergeInto(dst *types.RelatedPaper, src types.RelatedPaper) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if len(dst.Authors) == 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" {
		dst.Abstract = src.Abstract
	}
	if dst.Date.IsZero() {
		dst.Date = src.Date
	}
	if dst.URL == "" {
		dst.URL = src.URL
	}
	if src.RelevanceScore > dst.RelevanceScore {
		dst.RelevanceScore = src.RelevanceScore
	}
	if src.Source != "" && !strings.Contains(dst.Source, src.Source) {
		dst.Source = dst.Source + "," + src.Source
	}
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of
// the title.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// positionScore turns a result's rank into a relevance score in
// [0.1, 1.0].
func positionScore(i, total int) float64 {
	if total > 1 {
		return 1.0 - float64(i)/float64(total-1)*0.9
	}
	return 1.0
}

func resultLimit(cfg types.RelatedWorkConfig, ceiling int) int {
	n := cfg.MaxResults
	if n <= 0 {
		n = defaultMaxResults
	}
	if ceiling > 0 && n > ceiling {
		n = ceiling
	}
	return n
}
