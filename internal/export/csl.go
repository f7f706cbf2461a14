// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"encoding/json"
	"strings"

	"github.com/pdiddy/paper-library/pkg/types"
)

// cslItem is one entry in CSL-JSON, the citation format read by Pandoc,
// Zotero and most reference managers.
type cslItem struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	Title    string    `json:"title"`
	Author   []cslName `json:"author,omitempty"`
	Abstract string    `json:"abstract,omitempty"`
	Keyword  string    `json:"keyword,omitempty"`
	Issued   *cslDate  `json:"issued,omitempty"`
	URL      string    `json:"URL,omitempty"`
	DOI      string    `json:"DOI,omitempty"`
	Note     string    `json:"note,omitempty"`
}

type cslName struct {
	Family  string `json:"family,omitempty"`
	Given   string `json:"given,omitempty"`
	Literal string `json:"literal,omitempty"`
}

type cslDate struct {
	DateParts [][]int `json:"date-parts"`
}

// toCSL renders papers as a CSL-JSON array. Item ids reuse the BibTeX
// citation keys so both exports cite the same way.
func toCSL(papers []types.Paper) ([]byte, error) {
	keys := citationKeys(papers)
	items := make([]cslItem, len(papers))
	for i, p := range papers {
		items[i] = toCSLItem(keys[i], p)
	}
	return json.MarshalIndent(items, "", "  ")
}

func toCSLItem(key string, p types.Paper) cslItem {
	item := cslItem{
		ID:       key,
		Type:     "article",
		Title:    p.Title,
		Abstract: p.Abstract,
		Keyword:  strings.Join(p.Keywords, ", "),
		URL:      p.SourceURL,
		DOI:      doiFromURL(p.SourceURL),
		Note:     p.Summary,
	}
	for _, a := range p.Authors {
		if n := parseAuthorName(a); n != (cslName{}) {
			item.Author = append(item.Author, n)
		}
	}
	if !p.ProcessedDate.IsZero() {
		d := p.ProcessedDate.UTC()
		item.Issued = &cslDate{DateParts: [][]int{{d.Year(), int(d.Month()), d.Day()}}}
	}
	return item
}

// parseAuthorName splits a full name into CSL family/given parts: the
// last token is the family name. "Family, Given" is honored, and single
// tokens use the literal field.
func parseAuthorName(name string) cslName {
	name = strings.TrimSpace(name)
	if name == "" {
		return cslName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		return cslName{Family: strings.TrimSpace(family), Given: strings.TrimSpace(given)}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return cslName{Literal: name}
	}
	return cslName{Given: strings.TrimSpace(name[:idx]), Family: name[idx+1:]}
}

func doiFromURL(u string) string {
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "https://dx.doi.org/"} {
		if strings.HasPrefix(u, prefix) {
			return strings.TrimPrefix(u, prefix)
		}
	}
	return ""
}
