// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/paper-library/internal/analysis"
	"github.com/pdiddy/paper-library/internal/cluster"
	"github.com/pdiddy/paper-library/internal/export"
	"github.com/pdiddy/paper-library/internal/kv"
	"github.com/pdiddy/paper-library/internal/library"
	"github.com/pdiddy/paper-library/internal/logger"
	"github.com/pdiddy/paper-library/internal/related"
	"github.com/pdiddy/paper-library/pkg/types"
)

// ErrUnknownType is returned for a Request whose Type has no handler.
var ErrUnknownType = errors.New("unknown message type")

var errBadPayload = errors.New("malformed payload")

// Deps are the components a Handler dispatches to. Store is required;
// the others fall back to local behavior when nil.
type Deps struct {
	Store    *library.Store
	Analyzer *analysis.Analyzer
	Clusters *cluster.Service
	Finder   *related.Finder
	Log      *logger.Logger

	// Now is the clock used for export file names (default time.Now).
	Now func() time.Time
}

// Handler dispatches Requests. It is safe for concurrent use; all state
// lives in the library store.
type Handler struct {
	store    *library.Store
	analyzer *analysis.Analyzer
	clusters *cluster.Service
	finder   *related.Finder
	log      *logger.Logger
	now      func() time.Time
}

// NewHandler returns a Handler over deps.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		store:    deps.Store,
		analyzer: deps.Analyzer,
		clusters: deps.Clusters,
		finder:   deps.Finder,
		log:      deps.Log,
		now:      deps.Now,
	}
	if h.log == nil {
		h.log = logger.Nop()
	}
	h.log = h.log.With("component", "messaging")
	if h.now == nil {
		h.now = time.Now
	}
	if h.analyzer == nil {
		h.analyzer = analysis.NewAnalyzer(nil, 0, 0, h.log)
	}
	if h.clusters == nil {
		h.clusters = cluster.NewService(nil, 0, h.log)
	}
	return h
}

// Go runs Handle in its own goroutine. The returned channel receives
// exactly one Response and is then closed.
func (h *Handler) Go(ctx context.Context, req Request) <-chan Response {
	out := make(chan Response, 1)
	go func() {
		defer close(out)
		out <- h.Handle(ctx, req)
	}()
	return out
}

// Handle dispatches req and always returns a Response. Gateway failures
// are absorbed by the components; only persistence and input errors make
// Success false.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	reqID := uuid.NewString()
	log := h.log.With("request_id", reqID, "type", string(req.Type))
	start := time.Now()

	resp := h.dispatch(ctx, req)
	if resp.Success {
		log.Debug("message handled", "elapsed", time.Since(start))
	} else {
		log.Warn("message failed", "error", resp.Error, "elapsed", time.Since(start))
	}
	return resp
}

func (h *Handler) dispatch(ctx context.Context, req Request) Response {
	switch req.Type {
	case AnalyzeDocument:
		var p AnalyzeDocumentPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		return reply(h.analyzeDocument(ctx, p))

	case PerformClustering:
		var p PerformClusteringPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		return reply(h.performClustering(ctx, p))

	case FetchRelatedWork:
		var p FetchRelatedWorkPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		return reply(h.fetchRelatedWork(ctx, p.Keywords))

	case SaveDetectedPaper:
		var p SaveDetectedPaperPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		p.Paper.Origin = types.OriginDetected
		return reply(h.store.AddPaper(ctx, p.Paper))

	case SaveAllDetectedPapers:
		var p SaveAllDetectedPapersPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		for i := range p.Papers {
			p.Papers[i].Origin = types.OriginDetected
		}
		return reply(h.store.AddPapers(ctx, p.Papers))

	case ExportData:
		var p ExportDataPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		res, err := h.ExportLibrary(ctx, p.Format)
		if err != nil {
			return fail(err)
		}
		return Response{Success: true, Data: string(res.Data), Filename: res.Filename, ContentType: res.ContentType}

	case ListPapers:
		var p ListPapersPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		return reply(h.store.ListPapers(ctx, library.Filter{Query: p.Query, ClusterID: p.ClusterID}))

	case DeletePaper:
		var p DeletePaperPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		deleted, err := h.store.DeletePaper(ctx, p.ID)
		return reply(DeleteResult{Deleted: deleted}, err)

	case GetClusters:
		return reply(h.store.Clusters(ctx))

	case RecordViewedLink:
		var p RecordViewedLinkPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		if err := h.store.RecordViewedLink(ctx, p.URL); err != nil {
			return fail(err)
		}
		return Response{Success: true}

	case GetRelatedWork:
		var p GetRelatedWorkPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		return reply(h.cachedRelatedWork(ctx, p.MaxAgeHours))

	case GetSettings:
		return reply(h.store.Settings(ctx))

	case UpdateSettings:
		var p UpdateSettingsPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		return reply(h.store.UpdateSettings(ctx, p.apply))

	case GetPreferences:
		return reply(h.store.Preferences(ctx))

	case UpdatePreferences:
		var p UpdatePreferencesPayload
		if err := decode(req, &p); err != nil {
			return fail(err)
		}
		return reply(h.store.UpdatePreferences(ctx, p.apply))

	default:
		return fail(fmt.Errorf("%w: %q", ErrUnknownType, req.Type))
	}
}

// analyzeDocument analyzes and stores an uploaded file, re-clustering
// the library when auto-clustering is on. A failed analysis still stores
// the fallback record.
func (h *Handler) analyzeDocument(ctx context.Context, p AnalyzeDocumentPayload) (AnalyzeResult, error) {
	data, mime, err := analysis.DecodeFileData(p.FileData)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("decoding %s: %w", p.FileName, err)
	}
	if p.FileType != "" {
		mime = p.FileType
	}
	name := strings.TrimSpace(p.FileName)
	if name == "" {
		name = "document.pdf"
	}

	paper, usedFallback := h.analyzer.Analyze(ctx, analysis.Document{Name: name, MimeType: mime, Data: data})
	if p.FileSize > 0 {
		paper.FileInfo.Size = p.FileSize
	}
	stored, err := h.store.AddPaper(ctx, paper)
	if err != nil {
		return AnalyzeResult{}, err
	}

	settings, err := h.store.Settings(ctx)
	if err != nil {
		return AnalyzeResult{}, err
	}
	if settings.AutoCluster {
		if _, err := h.recluster(ctx, nil, settings.ClusterThreshold); err != nil {
			return AnalyzeResult{}, fmt.Errorf("auto-clustering: %w", err)
		}
	}
	return AnalyzeResult{Paper: stored, UsedFallback: usedFallback}, nil
}

func (h *Handler) performClustering(ctx context.Context, p PerformClusteringPayload) (types.ClusteringResult, error) {
	threshold := p.Threshold
	if threshold <= 0 {
		settings, err := h.store.Settings(ctx)
		if err != nil {
			return types.ClusteringResult{}, err
		}
		threshold = settings.ClusterThreshold
	}
	return h.recluster(ctx, p.Papers, threshold)
}

// Recluster clusters the whole library and installs the result.
func (h *Handler) Recluster(ctx context.Context) (types.ClusteringResult, error) {
	return h.performClustering(ctx, PerformClusteringPayload{})
}

// recluster runs clustering over papers (the library when empty) and
// replaces the stored clusters. The returned clusters are the installed
// ones, so members deleted meanwhile are already gone.
func (h *Handler) recluster(ctx context.Context, papers []types.Paper, threshold float64) (types.ClusteringResult, error) {
	if len(papers) == 0 {
		all, err := h.store.ListPapers(ctx, library.Filter{})
		if err != nil {
			return types.ClusteringResult{}, err
		}
		papers = all
	}

	result, usedFallback := h.clusters.Run(ctx, papers, threshold)
	if err := h.store.ReplaceClusters(ctx, result.Clusters); err != nil {
		return types.ClusteringResult{}, err
	}
	installed, err := h.store.Clusters(ctx)
	if err != nil {
		return types.ClusteringResult{}, err
	}
	result.Clusters = installed
	h.log.Info("library clustered", "papers", len(papers), "clusters", len(installed), "fallback", usedFallback)
	return result, nil
}

func (h *Handler) fetchRelatedWork(ctx context.Context, keywords []string) ([]types.RelatedPaper, error) {
	if h.finder == nil {
		snapshot, _, err := h.store.RelatedWorkSnapshot(ctx)
		if err != nil {
			return nil, err
		}
		if snapshot.Papers == nil {
			return []types.RelatedPaper{}, nil
		}
		return snapshot.Papers, nil
	}
	d, err := h.finder.Discover(ctx, keywords)
	if err != nil {
		return nil, err
	}
	return d.Papers, nil
}

func (h *Handler) cachedRelatedWork(ctx context.Context, maxAgeHours float64) ([]types.RelatedPaper, error) {
	maxAge := time.Duration(maxAgeHours * float64(time.Hour))
	if maxAge <= 0 {
		settings, err := h.store.Settings(ctx)
		if err != nil {
			return nil, err
		}
		maxAge = settings.RelatedWorkFrequency.Period()
	}
	return h.store.GetRelatedWorkCache(ctx, maxAge)
}

// ExportLibrary serializes the current library in the named format.
func (h *Handler) ExportLibrary(ctx context.Context, format string) (export.Result, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return export.Result{}, err
	}
	papers, err := h.store.ListPapers(ctx, library.Filter{})
	if err != nil {
		return export.Result{}, err
	}
	clusters, err := h.store.Clusters(ctx)
	if err != nil {
		return export.Result{}, err
	}
	return export.Export(export.Snapshot{Papers: papers, Clusters: clusters}, f, h.now())
}

func (p UpdateSettingsPayload) apply(s *types.Settings) {
	if p.AutoCluster != nil {
		s.AutoCluster = *p.AutoCluster
	}
	if p.ClusterThreshold != nil {
		s.ClusterThreshold = *p.ClusterThreshold
	}
	if p.APIEndpoint != nil {
		s.APIEndpoint = *p.APIEndpoint
	}
	if p.AudioSummary != nil {
		s.AudioSummary = *p.AudioSummary
	}
	if p.RelatedWorkFrequency != nil {
		s.RelatedWorkFrequency = *p.RelatedWorkFrequency
	}
}

func (p UpdatePreferencesPayload) apply(u *types.UserPreferences) {
	if p.ResearchInterests != nil {
		u.ResearchInterests = p.ResearchInterests
	}
	if p.PreferredVenues != nil {
		u.PreferredVenues = p.PreferredVenues
	}
	if p.Language != nil {
		u.Language = *p.Language
	}
}

func decode(req Request, v any) error {
	if len(req.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Payload, v); err != nil {
		return fmt.Errorf("%w: %s: %v", errBadPayload, req.Type, err)
	}
	return nil
}

func reply[T any](data T, err error) Response {
	if err != nil {
		return fail(err)
	}
	return Response{Success: true, Data: data}
}

func fail(err error) Response {
	resp := Response{Success: false, Error: err.Error()}
	var verr *library.ValidationError
	switch {
	case errors.Is(err, kv.ErrQuotaExceeded):
		resp.Code = CodeQuotaExceeded
	case errors.As(err, &verr):
		resp.Code = CodeValidation
	case errors.Is(err, ErrUnknownType), errors.Is(err, errBadPayload),
		errors.Is(err, export.ErrUnknownFormat), errors.Is(err, analysis.ErrEmptyFile):
		resp.Code = CodeBadRequest
	}
	return resp
}
