// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the paper library:
// papers and clusters held by the library store, related-work results
// and their cache, user settings, and service configuration.
package types

import "time"

// RelatedPaper is a candidate paper returned by a related-work backend.
type RelatedPaper struct {
	// Identifier is the canonical ID from the source (arXiv ID, DOI, or source ID).
	Identifier string `json:"identifier" yaml:"identifier"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract or summary.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Date is the publication or preprint date.
	Date time.Time `json:"date" yaml:"date"`

	// Source identifies which backend found this result (e.g. "arxiv", "semantic_scholar").
	Source string `json:"source" yaml:"source"`

	// URL is the landing page. Viewed-link dedup keys on it.
	URL string `json:"url" yaml:"url"`

	// RelevanceScore is a value between 0.0 and 1.0.
	RelevanceScore float64 `json:"relevanceScore" yaml:"relevance_score"`
}

// RelatedWorkCache is the single most recent related-work snapshot.
type RelatedWorkCache struct {
	Papers    []RelatedPaper `json:"papers" yaml:"papers"`
	FetchedAt time.Time      `json:"fetchedAt" yaml:"fetched_at"`
}
