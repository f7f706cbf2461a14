// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package messaging implements the request/response contract through
// which every caller (extension popup, background worker, content scripts,
// CLI) reaches the library.
package messaging

import (
	"encoding/json"

	"github.com/pdiddy/paper-library/pkg/types"
)

// MessageType selects the operation a Request performs.
type MessageType string

const (
	AnalyzeDocument       MessageType = "ANALYZE_DOCUMENT"
	PerformClustering     MessageType = "PERFORM_CLUSTERING"
	FetchRelatedWork      MessageType = "FETCH_RELATED_WORK"
	SaveDetectedPaper     MessageType = "SAVE_DETECTED_PAPER"
	SaveAllDetectedPapers MessageType = "SAVE_ALL_DETECTED_PAPERS"
	ExportData            MessageType = "EXPORT_DATA"
	ListPapers            MessageType = "LIST_PAPERS"
	DeletePaper           MessageType = "DELETE_PAPER"
	GetClusters           MessageType = "GET_CLUSTERS"
	RecordViewedLink      MessageType = "RECORD_VIEWED_LINK"
	GetRelatedWork        MessageType = "GET_RELATED_WORK"
	GetSettings           MessageType = "GET_SETTINGS"
	UpdateSettings        MessageType = "UPDATE_SETTINGS"
	GetPreferences        MessageType = "GET_PREFERENCES"
	UpdatePreferences     MessageType = "UPDATE_PREFERENCES"
)

// Request is one message. Payload holds the type-specific fields.
type Request struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the reply to a Request. Filename and ContentType are set
// only for exports. Code classifies failures the caller may act on.
type Response struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Error       string `json:"error,omitempty"`
	Code        string `json:"code,omitempty"`
	Filename    string `json:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty"`
}

// NewRequest marshals payload into a Request.
func NewRequest(t MessageType, payload any) (Request, error) {
	if payload == nil {
		return Request{Type: t}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Request{}, err
	}
	return Request{Type: t, Payload: raw}, nil
}

// AnalyzeDocumentPayload carries an uploaded file. FileData is base64 or
// a data URL.
type AnalyzeDocumentPayload struct {
	FileData string `json:"fileData"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	FileSize int64  `json:"fileSize"`
}

// PerformClusteringPayload clusters Papers, or the whole library when
// Papers is empty. A zero Threshold uses the stored setting.
type PerformClusteringPayload struct {
	Papers    []types.Paper `json:"papers,omitempty"`
	Threshold float64       `json:"threshold,omitempty"`
}

// FetchRelatedWorkPayload lists search keywords; empty derives them from
// the library.
type FetchRelatedWorkPayload struct {
	Keywords []string `json:"keywords"`
}

type SaveDetectedPaperPayload struct {
	Paper types.Paper `json:"paper"`
}

type SaveAllDetectedPapersPayload struct {
	Papers []types.Paper `json:"papers"`
}

type ExportDataPayload struct {
	Format string `json:"format"`
}

type ListPapersPayload struct {
	Query     string `json:"query,omitempty"`
	ClusterID string `json:"clusterId,omitempty"`
}

type DeletePaperPayload struct {
	ID string `json:"id"`
}

type RecordViewedLinkPayload struct {
	URL string `json:"url"`
}

// GetRelatedWorkPayload reads the cache. A zero MaxAgeHours uses the
// configured refresh frequency.
type GetRelatedWorkPayload struct {
	MaxAgeHours float64 `json:"maxAgeHours,omitempty"`
}

// UpdateSettingsPayload changes only the fields that are present.
type UpdateSettingsPayload struct {
	AutoCluster          *bool                       `json:"autoCluster,omitempty"`
	ClusterThreshold     *float64                    `json:"clusterThreshold,omitempty"`
	APIEndpoint          *string                     `json:"apiEndpoint,omitempty"`
	AudioSummary         *bool                       `json:"audioSummary,omitempty"`
	RelatedWorkFrequency *types.RelatedWorkFrequency `json:"relatedWorkFrequency,omitempty"`
}

// UpdatePreferencesPayload changes only the fields that are present.
type UpdatePreferencesPayload struct {
	ResearchInterests []string `json:"researchInterests,omitempty"`
	PreferredVenues   []string `json:"preferredVenues,omitempty"`
	Language          *string  `json:"language,omitempty"`
}

// Failure codes.
const (
	CodeQuotaExceeded = "QUOTA_EXCEEDED"
	CodeValidation    = "VALIDATION"
	CodeBadRequest    = "BAD_REQUEST"
)

// DeleteResult is the data of a DELETE_PAPER response.
type DeleteResult struct {
	Deleted bool `json:"deleted"`
}

// AnalyzeResult is the data of an ANALYZE_DOCUMENT response.
type AnalyzeResult struct {
	types.Paper
	UsedFallback bool `json:"usedFallback"`
}
