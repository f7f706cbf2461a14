// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package analysis turns an uploaded document into a paper record through
// an external analysis service, falling back to a minimal record when the
// service is unavailable.
package analysis

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-library/internal/httputil"
	"github.com/pdiddy/paper-library/pkg/types"
)

const serviceName = "analysis"

// Gateway abstracts the analysis service so tests can supply a mock.
type Gateway interface {
	Analyze(ctx context.Context, doc Document) (Result, error)
}

// Result is what a gateway extracted from a document. Any field may be
// empty.
type Result struct {
	Text       string
	Title      string
	Authors    []string
	Abstract   string
	Keywords   []string
	Summary    string
	Findings   []string
	Confidence float64
}

// analyzeRequest is the POST body of {endpoint}/analyze.
type analyzeRequest struct {
	ContentBase64 string `json:"content_base64"`
	Filename      string `json:"filename"`
	FileType      string `json:"file_type,omitempty"`
	FileSize      int64  `json:"file_size"`
}

// analyzeResponse is the reply of {endpoint}/analyze. Only ok is
// required; the metadata fields are optional.
type analyzeResponse struct {
	OK         bool     `json:"ok"`
	Filename   string   `json:"filename"`
	Size       int64    `json:"size"`
	Text       string   `json:"text"`
	Error      string   `json:"error"`
	Title      string   `json:"title"`
	Authors    []string `json:"authors"`
	Abstract   string   `json:"abstract"`
	Keywords   []string `json:"keywords"`
	Summary    string   `json:"summary"`
	Findings   []string `json:"findings"`
	Confidence float64  `json:"confidence"`
}

// HTTPGateway calls a remote analysis API.
type HTTPGateway struct {
	Endpoint   string
	APIKey     string
	UserAgent  string
	MaxRetries int
	Client     *http.Client
}

// NewHTTPGateway returns a gateway for cfg.
func NewHTTPGateway(cfg types.AnalysisConfig) *HTTPGateway {
	return &HTTPGateway{
		Endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		MaxRetries: 1,
		Client:     &http.Client{},
	}
}

// Analyze posts the document and maps the reply. A reply with ok=false is
// a *httputil.GatewayError.
func (g *HTTPGateway) Analyze(ctx context.Context, doc Document) (Result, error) {
	var resp analyzeResponse
	err := httputil.PostJSON(ctx, g.Client, httputil.JSONRequest{
		Service:    serviceName,
		URL:        g.Endpoint + "/analyze",
		APIKey:     g.APIKey,
		UserAgent:  g.UserAgent,
		MaxRetries: g.MaxRetries,
	}, analyzeRequest{
		ContentBase64: base64.StdEncoding.EncodeToString(doc.Data),
		Filename:      doc.Name,
		FileType:      doc.MimeType,
		FileSize:      doc.Size(),
	}, &resp)
	if err != nil {
		return Result{}, err
	}
	if !resp.OK {
		msg := resp.Error
		if msg == "" {
			msg = "analysis rejected"
		}
		return Result{}, &httputil.GatewayError{Service: serviceName, StatusCode: http.StatusOK, Err: errors.New(msg)}
	}

	r := Result{
		Text:       resp.Text,
		Title:      resp.Title,
		Authors:    resp.Authors,
		Abstract:   resp.Abstract,
		Keywords:   resp.Keywords,
		Summary:    resp.Summary,
		Findings:   resp.Findings,
		Confidence: resp.Confidence,
	}
	return fillFromText(r), nil
}

// NewGateway builds the gateway cfg selects. It returns nil when no
// analysis backend is configured, in which case every upload falls back.
// Callers close gateways that implement io.Closer.
func NewGateway(ctx context.Context, cfg types.AnalysisConfig) (Gateway, error) {
	switch cfg.Backend {
	case types.AnalysisDocumentAI:
		gw, err := NewDocumentAIGateway(ctx, cfg.DocumentAI)
		if err != nil {
			return nil, err
		}
		return gw, nil
	case types.AnalysisHTTP, "":
		if strings.TrimSpace(cfg.Endpoint) == "" {
			return nil, nil
		}
		return NewHTTPGateway(cfg), nil
	case types.AnalysisNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown analysis backend %q", cfg.Backend)
	}
}
