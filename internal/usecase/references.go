package usecase

import (
	"html"
	"regexp"
	"sort"
	"strings"
)

var (
	attrRefPattern = regexp.MustCompile("(?i)\\b(src|href|poster)\\s*=\\s*(?:\"([^\"]*)\"|'([^']*)'|([^\\s\"'=<>`]+))")
	cssURLPattern  = regexp.MustCompile(`(?i)url\(\s*(?:"([^"]*)"|'([^']*)'|([^)"'\s]*))\s*\)`)
)

// Reference is one asset reference found in markup or a stylesheet.
// Attr is src, href, poster or url (for CSS url(...) tokens).
type Reference struct {
	Value string
	Attr  string
	start int
	end   int
}

// ScanReferences lists the references in text in document order. HTML text
// is scanned for attributes and inline url(...) tokens, CSS only for
// url(...) tokens.
func ScanReferences(text string, isHTML bool) []Reference {
	var refs []Reference
	if isHTML {
		for _, m := range attrRefPattern.FindAllStringSubmatchIndex(text, -1) {
			attr := strings.ToLower(text[m[2]:m[3]])
			if ref, ok := spanFrom(text, m, 2, attr, true); ok {
				refs = append(refs, ref)
			}
		}
	}
	for _, m := range cssURLPattern.FindAllStringSubmatchIndex(text, -1) {
		if ref, ok := spanFrom(text, m, 1, "url", isHTML); ok {
			refs = append(refs, ref)
		}
	}

	sort.SliceStable(refs, func(i, j int) bool { return refs[i].start < refs[j].start })

	// Drop spans nested in an earlier one, e.g. url(...) inside a src value.
	out := refs[:0]
	lastEnd := -1
	for _, r := range refs {
		if r.start < lastEnd {
			continue
		}
		out = append(out, r)
		lastEnd = r.end
	}
	return out
}

// spanFrom picks the first non-empty alternative among the three value
// groups starting at group index first.
func spanFrom(text string, m []int, first int, attr string, unescape bool) (Reference, bool) {
	for g := first; g < first+3; g++ {
		start, end := m[2*g], m[2*g+1]
		if start < 0 {
			continue
		}
		value := text[start:end]
		if unescape {
			value = html.UnescapeString(value)
		}
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if value == "" {
			return Reference{}, false
		}
		return Reference{Value: value, Attr: attr, start: start, end: end}, true
	}
	return Reference{}, false
}

// RewriteReferences replaces each reference value for which fn returns a
// new value. Every occurrence is visited exactly once, so a rewritten value
// is never rewritten again in the same call.
func RewriteReferences(text string, isHTML bool, fn func(Reference) (string, bool)) string {
	refs := ScanReferences(text, isHTML)
	if len(refs) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, r := range refs {
		replacement, ok := fn(r)
		if !ok {
			continue
		}
		b.WriteString(text[last:r.start])
		if isHTML {
			replacement = html.EscapeString(replacement)
		}
		b.WriteString(replacement)
		last = r.end
	}
	b.WriteString(text[last:])
	return b.String()
}

// ReplaceExact substitutes literal occurrences of each key that end at a
// reference boundary (quote, closing paren, whitespace, markup delimiter or
// end of text), so a key that prefixes a longer unknown payload leaves that
// payload intact. At one position the longest matching key wins.
func ReplaceExact(text string, replacements map[string]string) string {
	if len(replacements) == 0 || text == "" {
		return text
	}

	type match struct {
		start, end int
		key        string
	}
	var matches []match
	for key := range replacements {
		if key == "" {
			continue
		}
		for from := 0; from < len(text); {
			i := strings.Index(text[from:], key)
			if i < 0 {
				break
			}
			start := from + i
			end := start + len(key)
			if end == len(text) || isReferenceBoundary(text[end]) {
				matches = append(matches, match{start: start, end: end, key: key})
			}
			from = start + 1
		}
	}
	if len(matches) == 0 {
		return text
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].end > matches[j].end
	})

	var b strings.Builder
	b.Grow(len(text))
	pos := 0
	for _, m := range matches {
		if m.start < pos {
			continue
		}
		b.WriteString(text[pos:m.start])
		b.WriteString(replacements[m.key])
		pos = m.end
	}
	b.WriteString(text[pos:])
	return b.String()
}

func isReferenceBoundary(c byte) bool {
	switch c {
	case '"', '\'', ')', '&', '<', '>', ' ', '\t', '\n', '\r', '\f':
		return true
	}
	return false
}
