// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DefaultConfidenceScore is assigned when the analysis gateway reports no
// confidence or one outside [0,1].
const DefaultConfidenceScore = 0.75

// PaperOrigin records how a paper entered the library.
type PaperOrigin string

const (
	OriginUpload   PaperOrigin = "upload"
	OriginDetected PaperOrigin = "detected"
	OriginFallback PaperOrigin = "fallback"
)

// FileInfo describes the uploaded document. It is immutable once set.
type FileInfo struct {
	// Name is the original file name (e.g. "attention.pdf").
	Name string `json:"name" yaml:"name"`

	// Size is the file size in bytes.
	Size int64 `json:"size" yaml:"size"`

	// Type is the MIME type reported by the uploader.
	Type string `json:"type" yaml:"type"`
}

// Paper is one analyzed document in the library. Core fields are
// write-once: the store never mutates a paper after insertion.
type Paper struct {
	// ID is an opaque unique identifier assigned at insertion.
	ID string `json:"id" yaml:"id"`

	// Title is the paper title.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Abstract is the paper abstract.
	Abstract string `json:"abstract" yaml:"abstract"`

	// Keywords are topic keywords; the first one drives fallback clustering.
	Keywords []string `json:"keywords" yaml:"keywords"`

	// Summary is the generated summary.
	Summary string `json:"summary" yaml:"summary"`

	// Findings lists the key findings reported by the analysis.
	Findings []string `json:"findings" yaml:"findings"`

	// ConfidenceScore is the analysis confidence in [0,1].
	ConfidenceScore float64 `json:"confidenceScore" yaml:"confidence_score"`

	// ProcessedDate is set when the paper is inserted.
	ProcessedDate time.Time `json:"processedDate" yaml:"processed_date"`

	// FileInfo describes the source document.
	FileInfo FileInfo `json:"fileInfo" yaml:"file_info"`

	// SourceURL is the page a detected paper was found on.
	SourceURL string `json:"sourceUrl,omitempty" yaml:"source_url,omitempty"`

	// Origin records how the paper entered the library.
	Origin PaperOrigin `json:"origin,omitempty" yaml:"origin,omitempty"`
}
