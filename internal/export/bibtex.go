// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/paper-library/pkg/types"
)

// bibFieldOrder fixes the field order of every entry.
var bibFieldOrder = []string{"title", "author", "year", "keywords", "abstract", "url", "note"}

// toBibTeX renders one @misc entry per paper.
func toBibTeX(papers []types.Paper) []byte {
	var sb strings.Builder
	keys := citationKeys(papers)

	for i, p := range papers {
		key := keys[i]
		fields := map[string]string{
			"title":    p.Title,
			"author":   bibAuthors(p.Authors),
			"keywords": strings.Join(p.Keywords, ", "),
			"abstract": p.Abstract,
			"url":      p.SourceURL,
			"note":     p.Summary,
		}
		if !p.ProcessedDate.IsZero() {
			fields["year"] = fmt.Sprintf("%d", p.ProcessedDate.Year())
		}

		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "@misc{%s,\n", key)
		for _, field := range bibFieldOrder {
			if v := fields[field]; v != "" {
				fmt.Fprintf(&sb, "  %s = {%s},\n", field, escapeBibTeX(v))
			}
		}
		sb.WriteString("}\n")
	}
	return []byte(sb.String())
}

// citationKeys returns one bibKey per paper. Colliding keys get a letter
// suffix in order of appearance: a through z, then aa, ab and so on.
func citationKeys(papers []types.Paper) []string {
	keys := make([]string, len(papers))
	taken := make(map[string]bool, len(papers))
	next := map[string]int{}
	for i, p := range papers {
		base := bibKey(p)
		key := base
		for taken[key] {
			next[base]++
			key = base + letterSuffix(next[base])
		}
		taken[key] = true
		keys[i] = key
	}
	return keys
}

// letterSuffix maps 1 to "a", 26 to "z", 27 to "aa".
func letterSuffix(n int) string {
	var out []byte
	for n > 0 {
		n--
		out = append([]byte{byte('a' + n%26)}, out...)
		n /= 26
	}
	return string(out)
}

// bibKey is the first author's surname, the year, and up to five letters
// of the first title word, e.g. "vaswani2017atten".
func bibKey(p types.Paper) string {
	key := "paper"
	if len(p.Authors) > 0 {
		if s := letters(surname(p.Authors[0])); s != "" {
			key = s
		}
	}
	if !p.ProcessedDate.IsZero() {
		key += fmt.Sprintf("%d", p.ProcessedDate.Year())
	}
	if words := strings.Fields(p.Title); len(words) > 0 {
		w := []rune(letters(words[0]))
		if len(w) > 5 {
			w = w[:5]
		}
		key += string(w)
	}
	return key
}

// surname handles "Last, First" and "First Last".
func surname(author string) string {
	author = strings.TrimSpace(author)
	if last, _, ok := strings.Cut(author, ","); ok {
		return last
	}
	parts := strings.Fields(author)
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

func letters(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// bibAuthors formats authors as "Last, First and Last, First".
func bibAuthors(authors []string) string {
	formatted := make([]string, 0, len(authors))
	for _, a := range authors {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		words := strings.Fields(a)
		if strings.Contains(a, ",") || len(words) < 2 {
			formatted = append(formatted, a)
			continue
		}
		formatted = append(formatted, words[len(words)-1]+", "+strings.Join(words[:len(words)-1], " "))
	}
	return strings.Join(formatted, " and ")
}

var bibEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"&", `\&`,
	"%", `\%`,
	"$", `\$`,
	"#", `\#`,
	"_", `\_`,
	"^", `\textasciicircum{}`,
	"~", `\textasciitilde{}`,
)

// escapeBibTeX escapes LaTeX special characters.
func escapeBibTeX(s string) string {
	return bibEscaper.Replace(s)
}
