// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"fmt"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/pdiddy/paper-library/internal/httputil"
	"github.com/pdiddy/paper-library/pkg/types"
)

const defaultDocumentAILocation = "us"

// processFunc issues one ProcessDocument call.
type processFunc func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error)

// DocumentAIGateway extracts text with a Google Cloud Document AI
// processor and derives the paper metadata from it.
type DocumentAIGateway struct {
	processor string
	process   processFunc
	close     func() error
}

// NewDocumentAIGateway dials the regional Document AI endpoint for cfg.
func NewDocumentAIGateway(ctx context.Context, cfg types.DocumentAIConfig) (*DocumentAIGateway, error) {
	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("documentai: project_id and processor_id are required")
	}
	location := strings.TrimSpace(cfg.Location)
	if location == "" {
		location = defaultDocumentAILocation
	}

	opts := []option.ClientOption{option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", location))}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}

	return &DocumentAIGateway{
		processor: fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.ProjectID, location, cfg.ProcessorID),
		process: func(ctx context.Context, req *documentaipb.ProcessRequest) (*documentaipb.ProcessResponse, error) {
			return client.ProcessDocument(ctx, req)
		},
		close: client.Close,
	}, nil
}

// Analyze sends the raw document bytes for processing.
func (g *DocumentAIGateway) Analyze(ctx context.Context, doc Document) (Result, error) {
	mime := doc.MimeType
	if mime == "" {
		mime = defaultMimeType
	}

	resp, err := g.process(ctx, &documentaipb.ProcessRequest{
		Name: g.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  doc.Data,
				MimeType: mime,
			},
		},
	})
	if err != nil {
		return Result{}, &httputil.GatewayError{Service: "documentai", Err: err}
	}

	text := resp.GetDocument().GetText()
	if strings.TrimSpace(text) == "" {
		return Result{}, &httputil.GatewayError{Service: "documentai", Err: fmt.Errorf("no text extracted from %s", doc.Name)}
	}
	return fillFromText(Result{Text: text}), nil
}

// Close releases the client connection.
func (g *DocumentAIGateway) Close() error {
	if g == nil || g.close == nil {
		return nil
	}
	return g.close()
}
