// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package library

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/paper-library/pkg/types"
)

// ValidationError reports structurally malformed ReplaceClusters input.
type ValidationError struct {
	// Index is the position of the offending cluster.
	Index int

	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid cluster at index %d: %s %s", e.Index, e.Field, e.Reason)
}

// Clusters returns the clusters of the current clustering run.
func (s *Store) Clusters(ctx context.Context) ([]types.Cluster, error) {
	release, err := acquire(ctx, s.clusters)
	if err != nil {
		return nil, err
	}
	defer release()

	clusters, err := s.loadClusters(ctx)
	if err != nil {
		return nil, err
	}
	if clusters == nil {
		clusters = []types.Cluster{}
	}
	return clusters, nil
}

// ReplaceClusters discards every existing cluster and installs next in
// one step. Clusters missing an id or a members field, or repeating an
// id, fail with *ValidationError and change nothing. Member ids that do
// not name a current paper are dropped with a warning, as are clusters
// left without members.
func (s *Store) ReplaceClusters(ctx context.Context, next []types.Cluster) error {
	if err := validateClusters(next); err != nil {
		return err
	}

	release, err := acquire(ctx, s.papers, s.clusters)
	if err != nil {
		return err
	}
	defer release()

	papers, err := s.loadPapers(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(papers))
	for _, p := range papers {
		known[p.ID] = true
	}

	installed := make([]types.Cluster, 0, len(next))
	for _, c := range next {
		members := make([]string, 0, len(c.Members))
		seen := map[string]bool{}
		for _, m := range c.Members {
			if seen[m] {
				continue
			}
			seen[m] = true
			if !known[m] {
				s.log.Warn("dropping unknown cluster member", "cluster_id", c.ID, "paper_id", m)
				continue
			}
			members = append(members, m)
		}
		if len(members) == 0 {
			s.log.Warn("dropping cluster without members", "cluster_id", c.ID)
			continue
		}
		c.Members = members
		if c.Keywords == nil {
			c.Keywords = []string{}
		}
		installed = append(installed, c)
	}

	if err := s.save(ctx, keyClusters, installed); err != nil {
		return err
	}
	return s.touch(ctx)
}

func validateClusters(clusters []types.Cluster) error {
	ids := make(map[string]bool, len(clusters))
	for i, c := range clusters {
		id := strings.TrimSpace(c.ID)
		if id == "" {
			return &ValidationError{Index: i, Field: "id", Reason: "is missing"}
		}
		if c.Members == nil {
			return &ValidationError{Index: i, Field: "members", Reason: "is missing"}
		}
		if ids[id] {
			return &ValidationError{Index: i, Field: "id", Reason: fmt.Sprintf("%q is duplicated", id)}
		}
		ids[id] = true
	}
	return nil
}

// pruneClusters strips the given paper ids from the stored clusters and
// drops clusters left empty. It reports whether anything changed; the
// caller holds the papers and clusters gates and persists the result
// together with the papers through saveAll.
func (s *Store) pruneClusters(ctx context.Context, gone map[string]bool) ([]types.Cluster, bool, error) {
	clusters, err := s.loadClusters(ctx)
	if err != nil || len(clusters) == 0 {
		return nil, false, err
	}

	changed := false
	kept := clusters[:0]
	for _, c := range clusters {
		members := c.Members[:0]
		for _, m := range c.Members {
			if gone[m] {
				changed = true
				continue
			}
			members = append(members, m)
		}
		c.Members = members
		if len(c.Members) == 0 {
			s.log.Info("removing emptied cluster", "cluster_id", c.ID)
			continue
		}
		kept = append(kept, c)
	}
	return kept, changed, nil
}

// commitPapers saves papers together with the clusters pruned of gone in
// a single backend write. An empty gone set writes only papers.
func (s *Store) commitPapers(ctx context.Context, papers []types.Paper, gone map[string]bool) error {
	clusters, changed, err := s.pruneClusters(ctx, gone)
	if err != nil {
		return err
	}
	if !changed {
		return s.save(ctx, keyPapers, papers)
	}
	return s.saveAll(ctx, document{keyPapers, papers}, document{keyClusters, clusters})
}
