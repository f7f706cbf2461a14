// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export renders a library snapshot as a downloadable file.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/paper-library/pkg/types"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatBibTeX Format = "bibtex"
	FormatYAML   Format = "yaml"
	FormatCSL    Format = "csl"
)

// ErrUnknownFormat is returned for a format name that is not supported.
var ErrUnknownFormat = errors.New("unsupported export format")

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatCSV, FormatBibTeX, FormatYAML, FormatCSL}

var formatInfo = map[Format]struct{ ext, contentType string }{
	FormatJSON:   {"json", "application/json"},
	FormatCSV:    {"csv", "text/csv"},
	FormatBibTeX: {"bib", "application/x-bibtex"},
	FormatYAML:   {"yaml", "application/yaml"},
	FormatCSL:    {"csl.json", "application/vnd.citationstyles.csl+json"},
}

// ParseFormat validates s, accepting "bib", "yml" and "csl-json" as
// aliases. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case "bib":
		return FormatBibTeX, nil
	case "yml":
		return FormatYAML, nil
	case "csl-json", "csljson":
		return FormatCSL, nil
	default:
		if _, ok := formatInfo[f]; ok {
			return f, nil
		}
		return "", fmt.Errorf("%w %q (want json, csv, bibtex, yaml or csl)", ErrUnknownFormat, s)
	}
}

// Snapshot is the library content to export.
type Snapshot struct {
	Papers   []types.Paper   `json:"papers" yaml:"papers"`
	Clusters []types.Cluster `json:"clusters" yaml:"clusters"`
}

// Result is a rendered export.
type Result struct {
	Data        []byte
	Filename    string
	ContentType string
}

// document is the JSON and YAML export layout.
type document struct {
	ExportedAt time.Time       `json:"exportedAt" yaml:"exported_at"`
	Papers     []types.Paper   `json:"papers" yaml:"papers"`
	Clusters   []types.Cluster `json:"clusters" yaml:"clusters"`
}

// Export renders snap in format f. The file name carries the date of now.
func Export(snap Snapshot, f Format, now time.Time) (Result, error) {
	info, ok := formatInfo[f]
	if !ok {
		return Result{}, fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
	if snap.Papers == nil {
		snap.Papers = []types.Paper{}
	}
	if snap.Clusters == nil {
		snap.Clusters = []types.Cluster{}
	}

	var (
		data []byte
		err  error
	)
	doc := document{ExportedAt: now.UTC(), Papers: snap.Papers, Clusters: snap.Clusters}
	switch f {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	case FormatCSV:
		data, err = toCSV(snap)
	case FormatBibTeX:
		data = toBibTeX(snap.Papers)
	case FormatCSL:
		data, err = toCSL(snap.Papers)
	}
	if err != nil {
		return Result{}, fmt.Errorf("rendering %s export: %w", f, err)
	}

	return Result{
		Data:        data,
		Filename:    fmt.Sprintf("paper-library-%s.%s", now.Format("2006-01-02"), info.ext),
		ContentType: info.contentType,
	}, nil
}

var csvHeader = []string{
	"id", "title", "authors", "keywords", "abstract", "summary",
	"confidence_score", "processed_date", "file_name", "source_url", "clusters",
}

// toCSV writes one row per paper. Multi-valued fields are joined with
// "; ".
func toCSV(snap Snapshot) ([]byte, error) {
	memberOf := map[string][]string{}
	for _, c := range snap.Clusters {
		for _, id := range c.Members {
			memberOf[id] = append(memberOf[id], c.Name)
		}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, p := range snap.Papers {
		processed := ""
		if !p.ProcessedDate.IsZero() {
			processed = p.ProcessedDate.UTC().Format(time.RFC3339)
		}
		row := []string{
			p.ID,
			p.Title,
			strings.Join(p.Authors, "; "),
			strings.Join(p.Keywords, "; "),
			p.Abstract,
			p.Summary,
			strconv.FormatFloat(p.ConfidenceScore, 'f', 2, 64),
			processed,
			p.FileInfo.Name,
			p.SourceURL,
			strings.Join(memberOf[p.ID], "; "),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
