package menu

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/dagenslunch/internal/segment"
	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

// Filter applies a source's rules to candidate lines in order. A StopAt
// phrase ends collection at its first occurrence; everything after it
// belongs to another section of the page. The surviving lines keep their
// order and duplicates are kept.
func Filter(lines []string, r Rules) []string {
	min := r.MinLength
	if min <= 0 {
		min = segment.DefaultMinLength
	}
	deny := foldAll(r.Deny, denyKey)
	containing := foldAll(r.DenyContaining, strings.TrimSpace)
	stops := foldAll(r.StopAt, strings.TrimSpace)

	keep := func(line string) bool {
		if line == "" || utf8.RuneCountInString(line) < min {
			return false
		}
		folded := weekday.Normalize(line)
		if _, ok := deny[denyKey(folded)]; ok {
			return false
		}
		for p := range containing {
			if strings.Contains(folded, p) {
				return false
			}
		}
		return true
	}

	var out []string
	for _, raw := range lines {
		line := strings.TrimSpace(strings.ToValidUTF8(raw, ""))
		if cut, stopped := cutAtStop(line, stops); stopped {
			if keep(cut) {
				out = append(out, cut)
			}
			break
		}
		if keep(line) {
			out = append(out, line)
		}
	}
	return out
}

// cutAtStop returns the text before the earliest stop phrase in line.
func cutAtStop(line string, stops map[string]struct{}) (string, bool) {
	if len(stops) == 0 {
		return line, false
	}
	folded := weekday.Normalize(line)
	at := -1
	for p := range stops {
		if i := strings.Index(folded, p); i >= 0 && (at < 0 || i < at) {
			at = i
		}
	}
	if at < 0 {
		return line, false
	}
	return strings.TrimSpace(line[:originalOffset(line, at)]), true
}

// originalOffset maps a byte offset in weekday.Normalize(line) back to line.
// Folding recomposes and lowercases, so byte lengths differ for decomposed
// input; the walk goes one normalization segment at a time.
func originalOffset(line string, folded int) int {
	orig, n := 0, 0
	for orig < len(line) && n < folded {
		seg := norm.NFC.NextBoundaryInString(line[orig:], true)
		if seg <= 0 {
			seg = len(line) - orig
		}
		n += len(weekday.Normalize(line[orig : orig+seg]))
		orig += seg
	}
	return orig
}

func trimPhrase(s string) string {
	return strings.TrimFunc(s, func(r rune) bool { return unicode.IsSpace(r) || unicode.IsPunct(r) })
}

// denyKey is the form deny phrases and lines are compared in. A phrase made
// only of punctuation keeps its punctuation.
func denyKey(s string) string {
	if t := trimPhrase(s); t != "" {
		return t
	}
	return strings.TrimSpace(s)
}

func foldAll(phrases []string, clean func(string) string) map[string]struct{} {
	out := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		if p = clean(weekday.Normalize(p)); p != "" {
			out[p] = struct{}{}
		}
	}
	return out
}
