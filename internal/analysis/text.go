// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analysis

import (
	"regexp"
	"strings"
)

const (
	summarySentences = 3
	maxTitleLength   = 300
)

var (
	abstractHeading = regexp.MustCompile(`(?i)^\s*abstract\b\s*[:.\-]?\s*`)
	sentenceEnd     = regexp.MustCompile(`[.!?](\s+|$)`)
)

// fillFromText derives title, abstract and summary from the extracted
// text for whichever of them the gateway left empty.
func fillFromText(r Result) Result {
	text := strings.TrimSpace(r.Text)
	if text == "" {
		return r
	}
	if r.Title == "" {
		r.Title = titleFromText(text)
	}
	if r.Abstract == "" {
		r.Abstract = abstractFromText(text)
	}
	if r.Summary == "" {
		source := r.Abstract
		if source == "" {
			source = text
		}
		r.Summary = leadingSentences(source, summarySentences)
	}
	return r
}

// titleFromText returns the first non-empty line.
func titleFromText(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) > maxTitleLength {
			line = line[:maxTitleLength]
		}
		return line
	}
	return ""
}

// abstractFromText returns the paragraph following an "Abstract" heading,
// or the heading line's own text when it runs inline.
func abstractFromText(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		loc := abstractHeading.FindStringIndex(line)
		if loc == nil {
			continue
		}
		var para []string
		if inline := strings.TrimSpace(line[loc[1]:]); inline != "" {
			para = append(para, inline)
		}
		for _, next := range lines[i+1:] {
			next = strings.TrimSpace(next)
			if next == "" {
				if len(para) > 0 {
					break
				}
				continue
			}
			para = append(para, next)
		}
		return strings.Join(para, " ")
	}
	return ""
}

// leadingSentences returns at most n sentences from the start of text.
func leadingSentences(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	ends := sentenceEnd.FindAllStringIndex(text, n)
	if len(ends) < n {
		return text
	}
	return strings.TrimSpace(text[:ends[n-1][1]])
}
