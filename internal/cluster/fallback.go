// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pdiddy/paper-library/pkg/types"
)

// FallbackAlgorithm names the local keyword-bucket algorithm.
const FallbackAlgorithm = "keyword-bucket"

const (
	defaultBucket      = "general"
	fallbackCohesion   = 0.7
	maxClusterKeywords = 5
)

// Palette holds cluster colors. Clusters take the entry at their
// position, cycling.
var Palette = []string{
	"#8b5cf6", "#06b6d4", "#22c55e", "#f59e0b", "#ef4444", "#14b8a6",
	"#eab308", "#3b82f6", "#d946ef", "#f97316", "#ec4899", "#64748b",
}

// ClusterID returns the id of the cluster at position i in its run.
func ClusterID(i int) string { return fmt.Sprintf("cluster_%d", i) }

// ColorFor returns the palette color for the cluster at position i.
func ColorFor(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}

type bucket struct {
	keyword string
	members []string
	counts  map[string]int
	order   []string
}

// Fallback groups papers by their first keyword. Papers without keywords
// land in "general". Buckets become clusters in first-seen order, so the
// same papers in the same order always produce the same clusters.
func Fallback(papers []types.Paper) types.ClusteringResult {
	var buckets []*bucket
	byKey := map[string]*bucket{}

	for _, p := range papers {
		key := defaultBucket
		if len(p.Keywords) > 0 {
			if k := strings.ToLower(strings.TrimSpace(p.Keywords[0])); k != "" {
				key = k
			}
		}

		b, ok := byKey[key]
		if !ok {
			b = &bucket{keyword: key, counts: map[string]int{}}
			byKey[key] = b
			buckets = append(buckets, b)
		}
		b.members = append(b.members, p.ID)

		for _, kw := range p.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" || kw == key {
				continue
			}
			if b.counts[kw] == 0 {
				b.order = append(b.order, kw)
			}
			b.counts[kw]++
		}
	}

	clusters := make([]types.Cluster, 0, len(buckets))
	for i, b := range buckets {
		clusters = append(clusters, types.Cluster{
			ID:            ClusterID(i),
			Name:          capitalize(b.keyword),
			Description:   fmt.Sprintf("Papers with primary keyword %q", b.keyword),
			Color:         ColorFor(i),
			Keywords:      b.keywords(),
			Members:       b.members,
			CohesionScore: fallbackCohesion,
		})
	}

	return types.ClusteringResult{
		Clusters:       clusters,
		AlgorithmInfo:  types.AlgorithmInfo{Name: FallbackAlgorithm, Version: "1", Fallback: true},
		QualityMetrics: Metrics(clusters, len(papers)),
	}
}

// keywords returns the bucket keyword followed by the most frequent other
// keywords, ties broken by first appearance.
func (b *bucket) keywords() []string {
	others := append([]string(nil), b.order...)
	sort.SliceStable(others, func(i, j int) bool {
		return b.counts[others[i]] > b.counts[others[j]]
	})
	out := []string{b.keyword}
	for _, kw := range others {
		if len(out) == maxClusterKeywords {
			break
		}
		out = append(out, kw)
	}
	return out
}

// Metrics computes quality metrics for clusters over a library of total
// papers.
func Metrics(clusters []types.Cluster, total int) types.QualityMetrics {
	m := types.QualityMetrics{ClusterCount: len(clusters)}
	if len(clusters) == 0 {
		return m
	}

	covered := map[string]bool{}
	var cohesion float64
	for _, c := range clusters {
		cohesion += c.CohesionScore
		for _, id := range c.Members {
			covered[id] = true
		}
	}
	m.AverageCohesion = cohesion / float64(len(clusters))
	if total > 0 {
		m.Coverage = float64(len(covered)) / float64(total)
		if m.Coverage > 1 {
			m.Coverage = 1
		}
	}
	return m
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
