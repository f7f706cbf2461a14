// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package related

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/paper-library/internal/httputil"
	"github.com/pdiddy/paper-library/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testCfg() types.RelatedWorkConfig {
	return types.RelatedWorkConfig{
		HTTPConfig: types.HTTPConfig{Timeout: 10 * time.Second, UserAgent: "test/0.1"},
		MaxResults: 20,
	}
}

// --- arXiv ---

const arxivFeedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/1706.03762v1</id>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models.  </summary>
    <published>2017-06-12T17:57:34Z</published>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/1810.04805v2</id>
    <title>BERT</title>
    <summary>Pre-training of deep bidirectional transformers.</summary>
    <published>2018-10-11T00:50:01Z</published>
    <author><name>Jacob Devlin</name></author>
  </entry>
</feed>`

func TestBuildArxivQuery(t *testing.T) {
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"single term", Query{Keywords: []string{"transformers"}}, "all:transformers"},
		{"phrase", Query{Keywords: []string{"graph neural networks"}}, "all:%22graph+neural+networks%22"},
		{"alternatives", Query{Keywords: []string{"ml", "nlp"}}, "all:ml+OR+all:nlp"},
		{"blank skipped", Query{Keywords: []string{" ", "nlp"}}, "all:nlp"},
		{"empty", Query{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildArxivQuery(tt.q); got != tt.want {
				t.Errorf("buildArxivQuery() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestArxivSearch(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, arxivFeedXML)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	b := &ArxivBackend{Client: ts.Client()}
	results, err := b.Search(context.Background(), Query{Keywords: []string{"attention"}}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if !strings.Contains(gotQuery, "sortBy=submittedDate") {
		t.Errorf("query %q should sort by submission date", gotQuery)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(results))
	}

	first := results[0]
	if first.Identifier != "1706.03762" {
		t.Errorf("Identifier = %q", first.Identifier)
	}
	if first.Title != "Attention Is All You Need" {
		t.Errorf("Title = %q", first.Title)
	}
	if first.URL != "https://arxiv.org/abs/1706.03762" {
		t.Errorf("URL = %q", first.URL)
	}
	if len(first.Authors) != 2 || first.Authors[0] != "Ashish Vaswani" {
		t.Errorf("Authors = %v", first.Authors)
	}
	if first.Date.Year() != 2017 {
		t.Errorf("Date = %v", first.Date)
	}
	if first.RelevanceScore != 1.0 || results[1].RelevanceScore != 0.1 {
		t.Errorf("scores = %v, %v", first.RelevanceScore, results[1].RelevanceScore)
	}
}

func TestArxivSearchHTTPError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer ts.Close()

	old := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = old }()

	b := &ArxivBackend{Client: ts.Client()}
	_, err := b.Search(context.Background(), Query{Keywords: []string{"x"}}, testCfg())
	if !httputil.IsGatewayError(err) {
		t.Errorf("expected gateway error, got %v", err)
	}
}

func TestExtractArxivID(t *testing.T) {
	tests := map[string]string{
		"http://arxiv.org/abs/2301.07041v1": "2301.07041",
		"http://arxiv.org/abs/2301.07041":   "2301.07041",
		"http://arxiv.org/abs/hep-th/9901001v3": "hep-th/9901001",
		"http://example.org/other":          "",
	}
	for in, want := range tests {
		if got := extractArxivID(in); got != want {
			t.Errorf("extractArxivID(%q) = %q, want %q", in, got, want)
		}
	}
}

// --- Semantic Scholar ---

func TestSemanticSearch(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":3,"offset":0,"data":[
			{"paperId":"abc","title":"Attention Is All You Need","authors":[{"name":"Ashish Vaswani"}],"externalIds":{"ArXiv":"1706.03762","DOI":"10.555/a"},"publicationDate":"2017-06-12"},
			{"paperId":"def","title":"Deep Residual Learning","authors":[],"externalIds":{"DOI":"10.1109/cvpr.2016.90"},"year":2016,"url":"https://www.semanticscholar.org/paper/def"},
			{"paperId":"ghi","title":"Untracked","authors":[],"externalIds":{}}
		]}`)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	cfg := testCfg()
	cfg.MaxResults = 15
	b := &SemanticScholarBackend{Client: ts.Client(), APIKey: "key-123"}
	results, err := b.Search(context.Background(), Query{Keywords: []string{"attention", "transformers"}}, cfg)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	q := captured.URL.Query()
	if got := q.Get("query"); got != "attention transformers" {
		t.Errorf("query param = %q", got)
	}
	if got := q.Get("limit"); got != "15" {
		t.Errorf("limit param = %q", got)
	}
	if got := captured.Header.Get("x-api-key"); got != "key-123" {
		t.Errorf("x-api-key = %q", got)
	}

	wantIDs := []string{"1706.03762", "10.1109/cvpr.2016.90", "ghi"}
	for i, want := range wantIDs {
		if results[i].Identifier != want {
			t.Errorf("results[%d].Identifier = %q, want %q", i, results[i].Identifier, want)
		}
	}
	if results[0].URL != "https://www.semanticscholar.org/paper/abc" {
		t.Errorf("URL fallback = %q", results[0].URL)
	}
	if results[1].Date.Year() != 2016 {
		t.Errorf("year fallback = %v", results[1].Date)
	}
}

func TestSemanticSearchRetriesRateLimit(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()

	old := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = old }()

	b := &SemanticScholarBackend{Client: ts.Client()}
	if _, err := b.Search(context.Background(), Query{Keywords: []string{"x"}}, testCfg()); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

// --- OpenAlex ---

func TestOpenAlexSearch(t *testing.T) {
	var captured *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		fmt.Fprint(w, `{"results":[
			{"id":"https://openalex.org/W1","title":"Graph Attention Networks","doi":"https://doi.org/10.48550/arxiv.1710.10903",
			 "publication_date":"2017-10-30","authorships":[{"author":{"display_name":"Petar Velickovic"}}],
			 "abstract_inverted_index":{"We":[0],"present":[1],"GATs":[2]}},
			{"id":"https://openalex.org/W2","title":"No DOI","publication_year":2020,"authorships":[]}
		]}`)
	}))
	defer ts.Close()

	old := openAlexSearchBase
	openAlexSearchBase = ts.URL
	defer func() { openAlexSearchBase = old }()

	b := &OpenAlexBackend{Client: ts.Client(), Email: "me@example.org"}
	results, err := b.Search(context.Background(), Query{Keywords: []string{"graph attention"}}, testCfg())
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := captured.URL.Query().Get("mailto"); got != "me@example.org" {
		t.Errorf("mailto = %q", got)
	}
	if len(results) != 2 {
		t.Fatalf("len(results) = %d", len(results))
	}
	if results[0].Identifier != "10.48550/arxiv.1710.10903" {
		t.Errorf("Identifier = %q", results[0].Identifier)
	}
	if results[0].Abstract != "We present GATs" {
		t.Errorf("Abstract = %q", results[0].Abstract)
	}
	if results[1].URL != "https://openalex.org/W2" {
		t.Errorf("URL = %q", results[1].URL)
	}
	if results[1].Date.Year() != 2020 {
		t.Errorf("Date = %v", results[1].Date)
	}
}
