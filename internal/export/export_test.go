// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-library/pkg/types"
)

var exportedAt = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func sampleSnapshot() Snapshot {
	processed := time.Date(2017, 6, 12, 0, 0, 0, 0, time.UTC)
	return Snapshot{
		Papers: []types.Paper{
			{
				ID:              "p1",
				Title:           "Attention Is All You Need",
				Authors:         []string{"Ashish Vaswani", "Noam Shazeer"},
				Keywords:        []string{"transformers", "attention"},
				Abstract:        "Uses 100% attention & no recurrence.",
				ConfidenceScore: 0.9,
				ProcessedDate:   processed,
				FileInfo:        types.FileInfo{Name: "attention.pdf"},
			},
			{
				ID:            "p2",
				Title:         "Attention, again",
				Authors:       []string{"Vaswani, A."},
				ProcessedDate: processed,
			},
		},
		Clusters: []types.Cluster{{ID: "cluster_0", Name: "Transformers", Members: []string{"p1"}}},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatJSON, "JSON": FormatJSON, "csv": FormatCSV, "bib": FormatBibTeX, "bibtex": FormatBibTeX, "yml": FormatYAML, "csl-json": FormatCSL} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestExportJSON(t *testing.T) {
	res, err := Export(sampleSnapshot(), FormatJSON, exportedAt)
	require.NoError(t, err)
	assert.Equal(t, "paper-library-2026-03-14.json", res.Filename)
	assert.Equal(t, "application/json", res.ContentType)

	var doc struct {
		ExportedAt time.Time       `json:"exportedAt"`
		Papers     []types.Paper   `json:"papers"`
		Clusters   []types.Cluster `json:"clusters"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &doc))
	assert.True(t, doc.ExportedAt.Equal(exportedAt))
	assert.Len(t, doc.Papers, 2)
	assert.Equal(t, "Transformers", doc.Clusters[0].Name)
}

func TestExportEmptyLibrary(t *testing.T) {
	res, err := Export(Snapshot{}, FormatJSON, exportedAt)
	require.NoError(t, err)
	assert.Contains(t, string(res.Data), `"papers": []`)
}

func TestExportYAML(t *testing.T) {
	res, err := Export(sampleSnapshot(), FormatYAML, exportedAt)
	require.NoError(t, err)
	assert.Equal(t, "paper-library-2026-03-14.yaml", res.Filename)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(res.Data, &doc))
	assert.Contains(t, doc, "exported_at")
	assert.Len(t, doc["papers"], 2)
}

func TestExportCSV(t *testing.T) {
	res, err := Export(sampleSnapshot(), FormatCSV, exportedAt)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", res.ContentType)

	rows, err := csv.NewReader(strings.NewReader(string(res.Data))).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Ashish Vaswani; Noam Shazeer", rows[1][2])
	assert.Equal(t, "0.90", rows[1][6])
	assert.Equal(t, "Transformers", rows[1][10])
	assert.Equal(t, "Attention, again", rows[2][1])
	assert.Equal(t, "", rows[2][10])
}

func TestExportBibTeX(t *testing.T) {
	res, err := Export(sampleSnapshot(), FormatBibTeX, exportedAt)
	require.NoError(t, err)
	assert.Equal(t, "paper-library-2026-03-14.bib", res.Filename)

	out := string(res.Data)
	assert.Contains(t, out, "@misc{vaswani2017atten,\n")
	assert.Contains(t, out, "@misc{vaswani2017attena,\n")
	assert.Contains(t, out, "  author = {Vaswani, Ashish and Shazeer, Noam},\n")
	assert.Contains(t, out, `  abstract = {Uses 100\% attention \& no recurrence.},`)
	assert.Contains(t, out, "  year = {2017},\n")
}

func TestExportCSL(t *testing.T) {
	res, err := Export(sampleSnapshot(), FormatCSL, exportedAt)
	require.NoError(t, err)
	assert.Equal(t, "paper-library-2026-03-14.csl.json", res.Filename)
	assert.Equal(t, "application/vnd.citationstyles.csl+json", res.ContentType)

	var items []cslItem
	require.NoError(t, json.Unmarshal(res.Data, &items))
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "vaswani2017atten", first.ID)
	assert.Equal(t, "article", first.Type)
	assert.Equal(t, []cslName{{Given: "Ashish", Family: "Vaswani"}, {Given: "Noam", Family: "Shazeer"}}, first.Author)
	require.NotNil(t, first.Issued)
	assert.Equal(t, [][]int{{2017, 6, 12}}, first.Issued.DateParts)
	assert.Equal(t, "transformers, attention", first.Keyword)

	assert.Equal(t, "vaswani2017attena", items[1].ID)
	assert.Equal(t, []cslName{{Family: "Vaswani", Given: "A."}}, items[1].Author)
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want cslName
	}{
		{"Geoffrey E. Hinton", cslName{Given: "Geoffrey E.", Family: "Hinton"}},
		{"LeCun, Yann", cslName{Family: "LeCun", Given: "Yann"}},
		{"Aristotle", cslName{Literal: "Aristotle"}},
		{"  ", cslName{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseAuthorName(tt.in), tt.in)
	}
	assert.Equal(t, "10.1/abc", doiFromURL("https://doi.org/10.1/abc"))
	assert.Empty(t, doiFromURL("https://arxiv.org/abs/1"))
}

func TestCitationKeysStayAlphabetic(t *testing.T) {
	papers := make([]types.Paper, 30)
	for i := range papers {
		papers[i] = types.Paper{Title: "document.pdf"}
	}

	keys := citationKeys(papers)
	assert.Equal(t, "paperdocum", keys[0])
	assert.Equal(t, "paperdocuma", keys[1])
	assert.Equal(t, "paperdocumz", keys[26])
	assert.Equal(t, "paperdocumaa", keys[27])
	assert.Equal(t, "paperdocumac", keys[29])

	seen := map[string]bool{}
	for _, k := range keys {
		assert.False(t, seen[k], "duplicate key %s", k)
		seen[k] = true
		for _, r := range k {
			assert.True(t, r >= 'a' && r <= 'z' || r >= '0' && r <= '9', "key %q", k)
		}
	}
}

func TestLetterSuffix(t *testing.T) {
	tests := map[int]string{1: "a", 26: "z", 27: "aa", 52: "az", 53: "ba", 702: "zz", 703: "aaa"}
	for n, want := range tests {
		assert.Equal(t, want, letterSuffix(n), "n=%d", n)
	}
}

func TestBibKeyWithoutAuthors(t *testing.T) {
	assert.Equal(t, "paperdeep", bibKey(types.Paper{Title: "Deep Residual Learning"}))
}

func TestExportUnknownFormat(t *testing.T) {
	_, err := Export(sampleSnapshot(), Format("pdf"), exportedAt)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
