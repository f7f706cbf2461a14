// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package related

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// FormatTable writes a discovery as a human-readable table to w.
func FormatTable(d Discovery, w io.Writer) {
	if d.FromCache {
		fmt.Fprintln(w, "warning: all backends failed, showing cached results")
	}
	if len(d.Papers) == 0 {
		fmt.Fprintln(w, "No related work found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Score", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))

	for i, r := range d.Papers {
		year := ""
		if !r.Date.IsZero() {
			year = fmt.Sprintf("%d", r.Date.Year())
		}
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6.2f  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), year, r.RelevanceScore, r.URL)
	}
	fmt.Fprintf(w, "\n%d results for: %s\n", len(d.Papers), strings.Join(d.Keywords, ", "))
}

// FormatJSON writes the discovered papers as indented JSON to w.
func FormatJSON(d Discovery, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
