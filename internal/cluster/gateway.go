// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cluster groups library papers into topical clusters, through a
// remote clustering API when one is configured and a local keyword-bucket
// fallback otherwise.
package cluster

import (
	"context"
	"net/http"
	"strings"

	"github.com/pdiddy/paper-library/internal/httputil"
	"github.com/pdiddy/paper-library/pkg/types"
)

const serviceName = "clustering"

// Gateway abstracts the clustering API so tests can supply a mock.
type Gateway interface {
	Cluster(ctx context.Context, papers []types.Paper, threshold float64) (types.ClusteringResult, error)
}

// clusterRequest is the POST body of {endpoint}/cluster.
type clusterRequest struct {
	Papers    []types.Paper `json:"papers"`
	Threshold float64       `json:"threshold"`
}

// HTTPGateway calls a remote clustering API.
type HTTPGateway struct {
	Endpoint   string
	APIKey     string
	UserAgent  string
	MaxRetries int
	Client     *http.Client
}

// NewHTTPGateway returns a gateway for cfg, or nil when no endpoint is set.
func NewHTTPGateway(cfg types.ClusteringConfig) *HTTPGateway {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil
	}
	return &HTTPGateway{
		Endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		APIKey:     cfg.APIKey,
		UserAgent:  cfg.UserAgent,
		MaxRetries: 2,
		Client:     &http.Client{},
	}
}

// Cluster posts papers and decodes the service's ClusteringResult.
func (g *HTTPGateway) Cluster(ctx context.Context, papers []types.Paper, threshold float64) (types.ClusteringResult, error) {
	var result types.ClusteringResult
	err := httputil.PostJSON(ctx, g.Client, httputil.JSONRequest{
		Service:    serviceName,
		URL:        g.Endpoint + "/cluster",
		APIKey:     g.APIKey,
		UserAgent:  g.UserAgent,
		MaxRetries: g.MaxRetries,
	}, clusterRequest{Papers: papers, Threshold: threshold}, &result)
	if err != nil {
		return types.ClusteringResult{}, err
	}
	return result, nil
}
