// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package related

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/paper-library/internal/kv"
	"github.com/pdiddy/paper-library/internal/library"
	"github.com/pdiddy/paper-library/pkg/types"
)

type mockBackend struct {
	name    string
	results []types.RelatedPaper
	err     error
	queries []Query
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Search(_ context.Context, q Query, _ types.RelatedWorkConfig) ([]types.RelatedPaper, error) {
	m.queries = append(m.queries, q)
	return m.results, m.err
}

func TestFetchMergesAndRanks(t *testing.T) {
	arxiv := &mockBackend{name: "arxiv", results: []types.RelatedPaper{
		{Identifier: "1706.03762", Title: "Attention Is All You Need", Source: "arxiv", URL: "https://arxiv.org/abs/1706.03762", RelevanceScore: 0.6},
		{Identifier: "1810.04805", Title: "BERT", Source: "arxiv", RelevanceScore: 0.5},
	}}
	semantic := &mockBackend{name: "semantic_scholar", results: []types.RelatedPaper{
		{Identifier: "1706.03762", Title: "Attention is all you need.", Authors: []string{"Vaswani"}, Source: "semantic_scholar", RelevanceScore: 0.9},
		{Identifier: "10.1/x", Title: "bert", Source: "semantic_scholar", RelevanceScore: 0.2},
	}}

	out, err := Fetch(context.Background(), Query{Keywords: []string{"attention"}}, []Backend{arxiv, semantic}, testCfg(), nil)
	require.NoError(t, err)

	require.Len(t, out.Results, 2)
	assert.Equal(t, 2, out.DupsRemoved)
	top := out.Results[0]
	assert.Equal(t, "1706.03762", top.Identifier)
	assert.Equal(t, 0.9, top.RelevanceScore)
	assert.Equal(t, []string{"Vaswani"}, top.Authors)
	assert.Contains(t, top.Source, "semantic_scholar")
	assert.Contains(t, top.Source, "arxiv")
}

func TestFetchAbsorbsBackendFailure(t *testing.T) {
	ok := &mockBackend{name: "arxiv", results: []types.RelatedPaper{{Identifier: "1", Title: "One"}}}
	bad := &mockBackend{name: "openalex", err: errors.New("down")}

	out, err := Fetch(context.Background(), Query{Keywords: []string{"x"}}, []Backend{ok, bad}, testCfg(), nil)
	require.NoError(t, err)
	assert.Len(t, out.Results, 1)
	require.Len(t, out.BackendErrors, 1)
	assert.Contains(t, out.BackendErrors[0], "openalex")
}

func TestFetchErrors(t *testing.T) {
	bad := &mockBackend{name: "arxiv", err: errors.New("down")}

	_, err := Fetch(context.Background(), Query{Keywords: []string{"x"}}, []Backend{bad}, testCfg(), nil)
	assert.ErrorIs(t, err, ErrAllBackendsFailed)

	_, err = Fetch(context.Background(), Query{Keywords: []string{" "}}, []Backend{bad}, testCfg(), nil)
	assert.ErrorContains(t, err, "empty")

	_, err = Fetch(context.Background(), Query{Keywords: []string{"x"}}, nil, testCfg(), nil)
	assert.ErrorContains(t, err, "no related-work backends")
}

func TestFetchTruncates(t *testing.T) {
	var many []types.RelatedPaper
	for i := 0; i < 30; i++ {
		many = append(many, types.RelatedPaper{Identifier: fmt.Sprintf("id-%d", i), Title: fmt.Sprintf("Paper %d", i)})
	}
	cfg := testCfg()
	cfg.MaxResults = 5
	out, err := Fetch(context.Background(), Query{Keywords: []string{"x"}}, []Backend{&mockBackend{name: "m", results: many}}, cfg, nil)
	require.NoError(t, err)
	assert.Len(t, out.Results, 5)
}

func TestTopKeywords(t *testing.T) {
	papers := []types.Paper{
		{Keywords: []string{"NLP", "transformers"}},
		{Keywords: []string{"vision", "transformers"}},
		{Keywords: []string{"nlp"}},
		{Keywords: []string{"robotics"}},
	}
	assert.Equal(t, []string{"NLP", "transformers", "vision"}, TopKeywords(papers, 3))
}

func newLibrary(t *testing.T) *library.Store {
	t.Helper()
	return library.New(kv.NewMemory(0), types.LibraryConfig{}, nil)
}

func TestDiscoverFiltersAndCaches(t *testing.T) {
	ctx := context.Background()
	store := newLibrary(t)

	_, err := store.AddPaper(ctx, types.Paper{Title: "Attention Is All You Need", Keywords: []string{"transformers"}})
	require.NoError(t, err)
	require.NoError(t, store.RecordViewedLink(ctx, "https://arxiv.org/abs/1810.04805"))
	_, err = store.UpdatePreferences(ctx, func(p *types.UserPreferences) {
		p.ResearchInterests = []string{"graph learning"}
	})
	require.NoError(t, err)

	backend := &mockBackend{name: "arxiv", results: []types.RelatedPaper{
		{Identifier: "1706.03762", Title: "Attention is all you need", URL: "https://arxiv.org/abs/1706.03762"},
		{Identifier: "1810.04805", Title: "BERT", URL: "https://arxiv.org/abs/1810.04805"},
		{Identifier: "1710.10903", Title: "Graph Attention Networks", URL: "https://arxiv.org/abs/1710.10903"},
	}}
	finder := NewFinder(store, []Backend{backend}, testCfg(), nil)

	d, err := finder.Discover(ctx, nil)
	require.NoError(t, err)
	assert.False(t, d.FromCache)
	assert.Equal(t, []string{"transformers", "graph learning"}, d.Keywords)
	require.Len(t, d.Papers, 1)
	assert.Equal(t, "Graph Attention Networks", d.Papers[0].Title)

	cached, err := store.GetRelatedWorkCache(ctx, types.FrequencyWeekly.Period())
	require.NoError(t, err)
	assert.Equal(t, d.Papers, cached)
}

func TestDiscoverServesCacheWhenAllBackendsFail(t *testing.T) {
	ctx := context.Background()
	store := newLibrary(t)
	previous := []types.RelatedPaper{{Identifier: "1", Title: "Cached Paper"}}
	require.NoError(t, store.CacheRelatedWork(ctx, previous))

	finder := NewFinder(store, []Backend{&mockBackend{name: "arxiv", err: errors.New("offline")}}, testCfg(), nil)
	d, err := finder.Discover(ctx, []string{"ml"})
	require.NoError(t, err)
	assert.True(t, d.FromCache)
	assert.Equal(t, previous, d.Papers)

	snapshot, ok, err := store.RelatedWorkSnapshot(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, previous, snapshot.Papers)
}

func TestDiscoverCacheFallbackSkipsViewedLinks(t *testing.T) {
	ctx := context.Background()
	store := newLibrary(t)
	require.NoError(t, store.CacheRelatedWork(ctx, []types.RelatedPaper{
		{Identifier: "1", Title: "Opened Later", URL: "https://arxiv.org/abs/1"},
		{Identifier: "2", Title: "Still Unread", URL: "https://arxiv.org/abs/2"},
	}))
	require.NoError(t, store.RecordViewedLink(ctx, "https://arxiv.org/abs/1"))

	finder := NewFinder(store, []Backend{&mockBackend{name: "arxiv", err: errors.New("offline")}}, testCfg(), nil)
	d, err := finder.Discover(ctx, []string{"ml"})
	require.NoError(t, err)
	assert.True(t, d.FromCache)
	require.Len(t, d.Papers, 1)
	assert.Equal(t, "Still Unread", d.Papers[0].Title)
}

func TestDiscoverWithoutKeywords(t *testing.T) {
	finder := NewFinder(newLibrary(t), []Backend{&mockBackend{name: "arxiv"}}, testCfg(), nil)
	d, err := finder.Discover(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, d.Papers)
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(Discovery{
		Papers:   []types.RelatedPaper{{Title: "Graph Attention Networks", Authors: []string{"Velickovic", "Cucurull"}, RelevanceScore: 0.5}},
		Keywords: []string{"graphs"},
	}, &buf)
	assert.Contains(t, buf.String(), "Graph Attention Networks")
	assert.Contains(t, buf.String(), "Velickovic et al.")
	assert.Contains(t, buf.String(), "1 results for: graphs")

	buf.Reset()
	FormatTable(Discovery{FromCache: true}, &buf)
	assert.Contains(t, buf.String(), "cached")
}
