// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/internal/telemetry"
	"github.com/pdiddy/paper-library/pkg/types"
)

// DefaultTimeout bounds one analysis, retries included.
const DefaultTimeout = 30 * time.Second

const defaultMaxRetries = 2

// backoffBase controls the base duration for exponential backoff between
// gateway attempts. Tests override this to avoid real sleeps.
var backoffBase = time.Second

// Analyzer wraps a Gateway with a deadline, retries and the fallback
// record.
type Analyzer struct {
	gateway    Gateway
	timeout    time.Duration
	maxRetries int
	log        *logger.Logger
	now        func() time.Time
}

// NewAnalyzer returns an Analyzer. A nil gateway always falls back.
// Negative maxRetries disables retries; zero uses the default.
func NewAnalyzer(gateway Gateway, timeout time.Duration, maxRetries int, log *logger.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxRetries == 0 {
		maxRetries = defaultMaxRetries
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Analyzer{
		gateway:    gateway,
		timeout:    timeout,
		maxRetries: maxRetries,
		log:        log.With("component", "analysis"),
		now:        time.Now,
	}
}

// Analyze returns the paper record for doc. Any gateway failure yields
// the fallback record and true; gateway output is never partially merged
// into it.
func (a *Analyzer) Analyze(ctx context.Context, doc Document) (types.Paper, bool) {
	if a.gateway == nil {
		return a.fallback(doc), true
	}

	ctx, span := telemetry.Tracer("analysis").Start(ctx, "analysis.gateway")
	span.SetAttributes(attribute.String("file.name", doc.Name), attribute.Int64("file.size", doc.Size()))

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result, err := a.callWithRetry(callCtx, doc)
	telemetry.EndSpan(span, err)
	if err != nil {
		a.log.Warn("analysis failed, storing fallback record", "file", doc.Name, "error", err)
		return a.fallback(doc), true
	}
	return a.toPaper(doc, result), false
}

// callWithRetry calls the gateway with exponential backoff.
func (a *Analyzer) callWithRetry(ctx context.Context, doc Document) (Result, error) {
	var lastErr error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Result{}, fmt.Errorf("after %d attempts: %w", attempt, ctx.Err())
			case <-time.After(backoff):
			}
		}

		result, err := a.gateway.Analyze(ctx, doc)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return Result{}, fmt.Errorf("after %d retries: %w", a.maxRetries, lastErr)
}

func (a *Analyzer) fileInfo(doc Document) types.FileInfo {
	mime := doc.MimeType
	if mime == "" {
		mime = defaultMimeType
	}
	return types.FileInfo{Name: doc.Name, Size: doc.Size(), Type: mime}
}

func (a *Analyzer) toPaper(doc Document, r Result) types.Paper {
	title := r.Title
	if title == "" {
		title = doc.Name
	}
	return types.Paper{
		Title:           title,
		Authors:         r.Authors,
		Abstract:        r.Abstract,
		Keywords:        r.Keywords,
		Summary:         r.Summary,
		Findings:        r.Findings,
		ConfidenceScore: r.Confidence,
		ProcessedDate:   a.now().UTC(),
		FileInfo:        a.fileInfo(doc),
		Origin:          types.OriginUpload,
	}
}

// fallback is the minimal record stored when analysis is unavailable.
func (a *Analyzer) fallback(doc Document) types.Paper {
	return types.Paper{
		Title:         doc.Name,
		Authors:       []string{},
		Keywords:      []string{},
		Findings:      []string{},
		ProcessedDate: a.now().UTC(),
		FileInfo:      a.fileInfo(doc),
		Origin:        types.OriginFallback,
	}
}
