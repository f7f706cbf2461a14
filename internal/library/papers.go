// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"math"
	"strings"

	"github.com/pdiddy/paper-library/pkg/types"
)

const untitledPaper = "Untitled Paper"

// Filter selects papers for ListPapers. The zero value lists everything;
// ClusterID and Query combine with AND.
type Filter struct {
	// ClusterID keeps only members of the cluster. An unknown id matches nothing.
	ClusterID string

	// Query is matched case-insensitively as a substring of the title,
	// any author, any keyword, or the abstract.
	Query string
}

// AddPaper inserts p and returns the stored record. Missing fields are
// defaulted. When the library grows past its cap the oldest papers are
// evicted, and cascaded out of clusters, before anything is persisted.
func (s *Store) AddPaper(ctx context.Context, p types.Paper) (types.Paper, error) {
	stored, err := s.AddPapers(ctx, []types.Paper{p})
	if err != nil {
		return types.Paper{}, err
	}
	return stored[0], nil
}

// AddPapers inserts papers in order within one critical section.
func (s *Store) AddPapers(ctx context.Context, in []types.Paper) ([]types.Paper, error) {
	if len(in) == 0 {
		return []types.Paper{}, nil
	}

	release, err := acquire(ctx, s.papers, s.clusters)
	if err != nil {
		return nil, err
	}
	defer release()

	papers, err := s.loadPapers(ctx)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]bool, len(papers)+len(in))
	for _, p := range papers {
		ids[p.ID] = true
	}

	stored := make([]types.Paper, 0, len(in))
	for _, p := range in {
		p = s.normalizePaper(p)
		if p.ID == "" || ids[p.ID] {
			p.ID = s.freshID(ids)
		}
		ids[p.ID] = true
		papers = append(papers, p)
		stored = append(stored, p)
	}

	gone := map[string]bool{}
	if limit := s.cfg.EffectiveMaxPapers(); limit > 0 && len(papers) > limit {
		evicted := papers[:len(papers)-limit]
		papers = append([]types.Paper(nil), papers[len(papers)-limit:]...)
		for _, p := range evicted {
			gone[p.ID] = true
		}
	}

	if err := s.commitPapers(ctx, papers, gone); err != nil {
		return nil, err
	}
	if len(gone) > 0 {
		s.log.Info("evicted oldest papers", "count", len(gone), "cap", s.cfg.EffectiveMaxPapers())
	}
	if err := s.touch(ctx); err != nil {
		return nil, err
	}
	return stored, nil
}

func (s *Store) freshID(taken map[string]bool) string {
	for {
		id := s.newID()
		if id != "" && !taken[id] {
			return id
		}
	}
}

// DeletePaper removes the paper with id and strips it from every cluster,
// deleting clusters left empty. It reports false for an unknown id.
func (s *Store) DeletePaper(ctx context.Context, id string) (bool, error) {
	release, err := acquire(ctx, s.papers, s.clusters)
	if err != nil {
		return false, err
	}
	defer release()

	papers, err := s.loadPapers(ctx)
	if err != nil {
		return false, err
	}

	idx := -1
	for i, p := range papers {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	papers = append(papers[:idx], papers[idx+1:]...)

	if err := s.commitPapers(ctx, papers, map[string]bool{id: true}); err != nil {
		return false, err
	}
	if err := s.touch(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// GetPaper returns the paper with id and whether it exists.
func (s *Store) GetPaper(ctx context.Context, id string) (types.Paper, bool, error) {
	release, err := acquire(ctx, s.papers)
	if err != nil {
		return types.Paper{}, false, err
	}
	defer release()

	papers, err := s.loadPapers(ctx)
	if err != nil {
		return types.Paper{}, false, err
	}
	for _, p := range papers {
		if p.ID == id {
			return p, true, nil
		}
	}
	return types.Paper{}, false, nil
}

// ListPapers returns matching papers in insertion order.
func (s *Store) ListPapers(ctx context.Context, f Filter) ([]types.Paper, error) {
	release, err := acquire(ctx, s.papers, s.clusters)
	if err != nil {
		return nil, err
	}
	defer release()

	papers, err := s.loadPapers(ctx)
	if err != nil {
		return nil, err
	}

	var members map[string]bool
	if f.ClusterID != "" {
		clusters, err := s.loadClusters(ctx)
		if err != nil {
			return nil, err
		}
		members = map[string]bool{}
		for _, c := range clusters {
			if c.ID == f.ClusterID {
				for _, m := range c.Members {
					members[m] = true
				}
				break
			}
		}
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]types.Paper, 0, len(papers))
	for _, p := range papers {
		if members != nil && !members[p.ID] {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// matchesQuery reports whether any searchable field contains the
// lower-cased query.
func matchesQuery(p types.Paper, query string) bool {
	if strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Abstract), query) {
		return true
	}
	for _, a := range p.Authors {
		if strings.Contains(strings.ToLower(a), query) {
			return true
		}
	}
	for _, k := range p.Keywords {
		if strings.Contains(strings.ToLower(k), query) {
			return true
		}
	}
	return false
}

// normalizePaper fills defaults for every optional field so that records
// from gateways or detection scripts of any shape can be stored. The
// processed date is always the insertion time.
func (s *Store) normalizePaper(p types.Paper) types.Paper {
	p.ID = strings.TrimSpace(p.ID)
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		p.Title = strings.TrimSpace(p.FileInfo.Name)
	}
	if p.Title == "" {
		p.Title = untitledPaper
	}

	p.Authors = cleanStrings(p.Authors, false)
	p.Keywords = cleanStrings(p.Keywords, true)
	p.Findings = cleanStrings(p.Findings, false)
	p.Abstract = strings.TrimSpace(p.Abstract)
	p.Summary = strings.TrimSpace(p.Summary)

	if math.IsNaN(p.ConfidenceScore) || p.ConfidenceScore <= 0 || p.ConfidenceScore > 1 {
		p.ConfidenceScore = types.DefaultConfidenceScore
	}
	p.ProcessedDate = s.now().UTC()
	if p.Origin == "" {
		p.Origin = types.OriginUpload
	}
	return p
}

// cleanStrings trims entries, drops blanks, and optionally drops
// case-insensitive duplicates. It never returns nil.
func cleanStrings(in []string, dedup bool) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if dedup {
			k := strings.ToLower(v)
			if seen[k] {
				continue
			}
			seen[k] = true
		}
		out = append(out, v)
	}
	return out
}
