// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-library/pkg/types"
)

func paper(id string, keywords ...string) types.Paper {
	return types.Paper{ID: id, Title: id, Keywords: keywords}
}

func TestFallbackGroupsByFirstKeyword(t *testing.T) {
	result := Fallback([]types.Paper{
		paper("a", "ml"),
		paper("b", "ml"),
		paper("c", "nlp"),
	})

	require.Len(t, result.Clusters, 2)
	assert.Equal(t, "Ml", result.Clusters[0].Name)
	assert.Equal(t, []string{"a", "b"}, result.Clusters[0].Members)
	assert.Equal(t, "Nlp", result.Clusters[1].Name)
	assert.Equal(t, []string{"c"}, result.Clusters[1].Members)

	assert.Equal(t, "cluster_0", result.Clusters[0].ID)
	assert.Equal(t, "cluster_1", result.Clusters[1].ID)
	assert.Equal(t, Palette[0], result.Clusters[0].Color)
	assert.Equal(t, Palette[1], result.Clusters[1].Color)
	assert.Equal(t, 0.7, result.Clusters[0].CohesionScore)

	assert.True(t, result.AlgorithmInfo.Fallback)
	assert.Equal(t, FallbackAlgorithm, result.AlgorithmInfo.Name)
	assert.Equal(t, 2, result.QualityMetrics.ClusterCount)
	assert.InDelta(t, 0.7, result.QualityMetrics.AverageCohesion, 1e-9)
	assert.Equal(t, 1.0, result.QualityMetrics.Coverage)
}

func TestFallbackNormalizesBucketKeys(t *testing.T) {
	result := Fallback([]types.Paper{
		paper("a", " Deep Learning "),
		paper("b", "deep learning", "vision", "robotics"),
		paper("c"),
		paper("d", "", "ignored"),
		paper("e", "deep learning", "vision"),
	})

	require.Len(t, result.Clusters, 2)
	assert.Equal(t, "Deep learning", result.Clusters[0].Name)
	assert.Equal(t, []string{"a", "b", "e"}, result.Clusters[0].Members)
	assert.Equal(t, []string{"deep learning", "vision", "robotics"}, result.Clusters[0].Keywords)

	assert.Equal(t, "General", result.Clusters[1].Name)
	assert.Equal(t, []string{"c", "d"}, result.Clusters[1].Members)
}

func TestFallbackKeywordsCapped(t *testing.T) {
	result := Fallback([]types.Paper{
		paper("a", "ml", "k1", "k2", "k3"),
		paper("b", "ml", "k4", "k5", "k3"),
	})
	require.Len(t, result.Clusters, 1)
	assert.Equal(t, []string{"ml", "k3", "k1", "k2", "k4"}, result.Clusters[0].Keywords)
}

func TestFallbackIsDeterministic(t *testing.T) {
	papers := []types.Paper{
		paper("a", "graphs"), paper("b", "ml"), paper("c", "graphs", "gnn"),
		paper("d", "nlp"), paper("e"), paper("f", "ml", "vision"),
	}
	assert.Equal(t, Fallback(papers), Fallback(papers))
}

func TestFallbackPaletteCycles(t *testing.T) {
	var papers []types.Paper
	for i := 0; i < len(Palette)+2; i++ {
		papers = append(papers, paper(ClusterID(i), ClusterID(i)))
	}
	result := Fallback(papers)
	require.Len(t, result.Clusters, len(Palette)+2)
	assert.Equal(t, Palette[0], result.Clusters[len(Palette)].Color)
	assert.Equal(t, Palette[1], result.Clusters[len(Palette)+1].Color)
}

type stubGateway struct {
	result types.ClusteringResult
	err    error
	delay  time.Duration
}

func (s stubGateway) Cluster(ctx context.Context, _ []types.Paper, _ float64) (types.ClusteringResult, error) {
	if s.delay > 0 {
		select {
		case <-ctx.Done():
			return types.ClusteringResult{}, ctx.Err()
		case <-time.After(s.delay):
		}
	}
	return s.result, s.err
}

func TestServiceRun(t *testing.T) {
	papers := []types.Paper{paper("a", "ml"), paper("b", "nlp")}

	tests := []struct {
		name         string
		gateway      Gateway
		timeout      time.Duration
		wantFallback bool
	}{
		{"no gateway", nil, 0, true},
		{"typed nil gateway", NewHTTPGateway(types.ClusteringConfig{}), 0, true},
		{"gateway error", stubGateway{err: errors.New("boom")}, 0, true},
		{"timeout", stubGateway{delay: time.Second}, 10 * time.Millisecond, true},
		{"missing members", stubGateway{result: types.ClusteringResult{Clusters: []types.Cluster{{ID: "x"}}}}, 0, true},
		{"missing clusters", stubGateway{result: types.ClusteringResult{}}, 0, true},
		{"success", stubGateway{result: types.ClusteringResult{Clusters: []types.Cluster{{Members: []string{"a", "b"}}}}}, 0, false},
		{"duplicate ids", stubGateway{result: types.ClusteringResult{Clusters: []types.Cluster{
			{ID: "x", Members: []string{"a"}}, {ID: "x", Members: []string{"b"}},
		}}}, 0, false},
		{"blank id colliding with explicit id", stubGateway{result: types.ClusteringResult{Clusters: []types.Cluster{
			{Members: []string{"a"}}, {ID: "cluster_0", Members: []string{"b"}},
		}}}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.gateway, tt.timeout, nil)
			result, usedFallback := svc.Run(context.Background(), papers, 0.7)
			assert.Equal(t, tt.wantFallback, usedFallback)
			assert.Equal(t, tt.wantFallback, result.AlgorithmInfo.Fallback)
			require.NotEmpty(t, result.Clusters)
			ids := map[string]bool{}
			for _, c := range result.Clusters {
				assert.NotEmpty(t, c.ID)
				assert.NotEmpty(t, c.Color)
				assert.False(t, ids[c.ID], "duplicate id %s", c.ID)
				ids[c.ID] = true
			}
		})
	}
}

func TestServiceRunNormalizesGatewayClusters(t *testing.T) {
	svc := NewService(stubGateway{result: types.ClusteringResult{
		Clusters: []types.Cluster{
			{Name: "Vision", Members: []string{"a"}},
			{ID: "mine", Color: "#000000", Members: []string{"b"}, CohesionScore: 0.9},
		},
	}}, 0, nil)

	result, usedFallback := svc.Run(context.Background(), []types.Paper{paper("a"), paper("b")}, 0.5)
	require.False(t, usedFallback)
	assert.Equal(t, "cluster_0", result.Clusters[0].ID)
	assert.Equal(t, Palette[0], result.Clusters[0].Color)
	assert.Equal(t, "mine", result.Clusters[1].ID)
	assert.Equal(t, "#000000", result.Clusters[1].Color)
	assert.Equal(t, 2, result.QualityMetrics.ClusterCount)
	assert.Equal(t, 1.0, result.QualityMetrics.Coverage)
}

func TestServiceRunRenumbersCollidingIDs(t *testing.T) {
	svc := NewService(stubGateway{result: types.ClusteringResult{
		Clusters: []types.Cluster{
			{Members: []string{"a"}},
			{ID: "cluster_0", Members: []string{"b"}},
			{ID: " cluster_0 ", Members: []string{"c"}},
		},
	}}, 0, nil)

	result, usedFallback := svc.Run(context.Background(), []types.Paper{paper("a"), paper("b"), paper("c")}, 0.5)
	require.False(t, usedFallback)
	require.Len(t, result.Clusters, 3)
	assert.Equal(t, "cluster_1", result.Clusters[0].ID)
	assert.Equal(t, "cluster_0", result.Clusters[1].ID)
	assert.Equal(t, "cluster_2", result.Clusters[2].ID)
}

func TestHTTPGateway(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cluster", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req clusterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.Papers, 2)
		assert.Equal(t, 0.7, req.Threshold)

		json.NewEncoder(w).Encode(types.ClusteringResult{
			Clusters:      []types.Cluster{{ID: "cluster_0", Name: "All", Members: []string{"a", "b"}}},
			AlgorithmInfo: types.AlgorithmInfo{Name: "kmeans", Version: "2"},
		})
	}))
	defer ts.Close()

	gw := NewHTTPGateway(types.ClusteringConfig{Endpoint: ts.URL + "/", APIKey: "secret"})
	result, err := gw.Cluster(context.Background(), []types.Paper{paper("a"), paper("b")}, 0.7)
	require.NoError(t, err)
	assert.Equal(t, "kmeans", result.AlgorithmInfo.Name)
	require.Len(t, result.Clusters, 1)
	assert.Equal(t, []string{"a", "b"}, result.Clusters[0].Members)
}
