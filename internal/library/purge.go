// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"time"

	"github.com/pdiddy/paper-library/pkg/types"
)

// PurgeReport lists what PurgeStale removed.
type PurgeReport struct {
	CacheRemoved  bool     `json:"cacheRemoved"`
	PapersEvicted []string `json:"papersEvicted"`
}

// PurgeStale drops the related-work cache once it is older than retention
// (zero uses the configured retention). When the library holds more
// papers than the high-water mark it also evicts papers processed before
// the long-term retention window, cascading them out of clusters.
func (s *Store) PurgeStale(ctx context.Context, retention time.Duration) (PurgeReport, error) {
	if retention <= 0 {
		retention = s.cfg.RelatedWorkRetention
	}
	report := PurgeReport{PapersEvicted: []string{}}

	release, err := acquire(ctx, s.papers, s.clusters, s.related)
	if err != nil {
		return report, err
	}
	defer release()

	now := s.now()
	mutated := false

	var snapshot types.RelatedWorkCache
	found, err := s.load(ctx, keyRelated, &snapshot)
	if err != nil {
		return report, err
	}
	if found && now.Sub(snapshot.FetchedAt) > retention {
		if err := s.kv.Delete(ctx, keyRelated); err != nil {
			return report, fmt.Errorf("purging related work: %w", err)
		}
		report.CacheRemoved = true
		mutated = true
	}

	papers, err := s.loadPapers(ctx)
	if err != nil {
		return report, err
	}
	if len(papers) > s.cfg.HighWaterMark {
		cutoff := now.Add(-s.cfg.LongTermRetention)
		kept := make([]types.Paper, 0, len(papers))
		gone := map[string]bool{}
		for _, p := range papers {
			if p.ProcessedDate.Before(cutoff) {
				gone[p.ID] = true
				report.PapersEvicted = append(report.PapersEvicted, p.ID)
				continue
			}
			kept = append(kept, p)
		}
		if len(gone) > 0 {
			if err := s.commitPapers(ctx, kept, gone); err != nil {
				return report, err
			}
			mutated = true
		}
	}

	if !mutated {
		return report, nil
	}
	s.log.Info("purged stale data", "cache_removed", report.CacheRemoved, "papers_evicted", len(report.PapersEvicted))
	return report, s.touch(ctx)
}
