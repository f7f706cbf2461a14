// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/pdiddy/paper-library/internal/analysis"
	"github.com/pdiddy/paper-library/internal/cluster"
	"github.com/pdiddy/paper-library/internal/kv"
	"github.com/pdiddy/paper-library/internal/library"
	"github.com/pdiddy/paper-library/internal/messaging"
	"github.com/pdiddy/paper-library/internal/related"
)

// app wires the library components from cfg. Every subcommand works
// through the same message handler the HTTP transport uses.
type app struct {
	store   *library.Store
	handler *messaging.Handler
	finder  *related.Finder
	closers []io.Closer
}

func openApp(ctx context.Context) (*app, error) {
	backend, err := kv.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	a := &app{closers: []io.Closer{backend}}

	a.store = library.New(backend, cfg.Library, log)

	gateway, err := analysis.NewGateway(ctx, cfg.Analysis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := gateway.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	analyzer := analysis.NewAnalyzer(gateway, cfg.Analysis.Timeout, cfg.Analysis.MaxRetries, log)

	var clusterGateway cluster.Gateway
	if g := cluster.NewHTTPGateway(cfg.Clustering); g != nil {
		clusterGateway = g
	}
	clusters := cluster.NewService(clusterGateway, cfg.Clustering.Timeout, log)

	a.finder = related.NewFinder(a.store, related.NewBackends(cfg.RelatedWork), cfg.RelatedWork, log)

	a.handler = messaging.NewHandler(messaging.Deps{
		Store:    a.store,
		Analyzer: analyzer,
		Clusters: clusters,
		Finder:   a.finder,
		Log:      log,
	})

	log.Debug("library opened",
		"storage", cfg.Storage.Backend,
		"analysis", analysisMode(gateway),
		"clustering_remote", clusterGateway != nil)
	return a, nil
}

// Close releases the storage backend and any gateway clients.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// call dispatches a message and turns a failed Response into an error.
func (a *app) call(ctx context.Context, t messaging.MessageType, payload any) (messaging.Response, error) {
	req, err := messaging.NewRequest(t, payload)
	if err != nil {
		return messaging.Response{}, err
	}
	resp := a.handler.Handle(ctx, req)
	if !resp.Success {
		return resp, fmt.Errorf("%s: %s", t, resp.Error)
	}
	return resp, nil
}

func analysisMode(g analysis.Gateway) string {
	switch g.(type) {
	case nil:
		return "fallback"
	case *analysis.DocumentAIGateway:
		return "documentai"
	default:
		return "http"
	}
}
