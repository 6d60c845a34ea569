// Package segment pulls a single day's menu lines out of flattened page text.
//
// Flattened HTML loses its line structure, so the only signals left are the
// weekday labels themselves (which bound a day's block) and recurring
// category words such as "Dagens" or "Soup" (which start a new dish entry).
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

// DefaultMinLength is the shortest line kept when Options.MinLength is zero.
const DefaultMinLength = 5

// Span is the run of text attributed to one weekday.
type Span struct {
	Day  weekday.Weekday
	Text string
}

// Options configures ExtractDayBlock for one source.
type Options struct {
	// Keywords start a new item whenever a word begins with one of them.
	// Matching is case-insensitive and ordered; the first match wins.
	Keywords []string
	// MinLength drops lines with fewer runes. Zero means DefaultMinLength.
	MinLength int
}

func (o Options) minLength() int {
	if o.MinLength <= 0 {
		return DefaultMinLength
	}
	return o.MinLength
}

// token is a whitespace-delimited word and its byte range in the source.
type token struct {
	text       string
	start, end int
}

func tokenize(s string) []token {
	var out []token
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, token{text: s[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, token{text: s[start:], start: start, end: len(s)})
	}
	return out
}

// dayOf reports the weekday a single token names. Surrounding punctuation
// is ignored so "Onsdag:" and "(onsdag)" both anchor.
func dayOf(tok string) (weekday.Weekday, bool) {
	return weekday.Parse(strings.TrimLeftFunc(tok, unicode.IsPunct))
}

// FindSpan locates the first occurrence of day's label and returns the text
// after it, up to the next weekday label of any day or the end of input.
// Reaching the label of day itself again also ends the span.
func FindSpan(text string, day weekday.Weekday) (Span, bool) {
	if !day.Valid() || text == "" {
		return Span{}, false
	}
	text = strings.ToValidUTF8(text, "")
	toks := tokenize(text)
	anchor := -1
	for i, t := range toks {
		if d, ok := dayOf(t.text); ok && d == day {
			anchor = i
			break
		}
	}
	if anchor < 0 {
		return Span{}, false
	}
	from := toks[anchor].end
	to := len(text)
	for _, t := range toks[anchor+1:] {
		if _, ok := dayOf(t.text); ok {
			to = t.start
			break
		}
	}
	return Span{Day: day, Text: strings.TrimSpace(text[from:to])}, true
}

// Split breaks a block into items. Words are streamed left to right; a word
// starting with a keyword closes the current item and opens the next one.
// Multi-word keywords ("today's dish") are matched against the following
// words joined by single spaces.
func Split(block string, keywords []string) []string {
	words := strings.Fields(block)
	if len(words) == 0 {
		return nil
	}
	kws := make([]keyword, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			kws = append(kws, keyword{text: weekday.Normalize(k), words: len(strings.Fields(k))})
		}
	}

	var out []string
	var acc []string
	for i, w := range words {
		if len(acc) > 0 && startsItem(words, i, kws) {
			out = append(out, strings.Join(acc, " "))
			acc = acc[:0]
		}
		acc = append(acc, w)
	}
	if len(acc) > 0 {
		out = append(out, strings.Join(acc, " "))
	}
	return out
}

type keyword struct {
	text  string
	words int
}

func startsItem(words []string, i int, kws []keyword) bool {
	for _, k := range kws {
		end := i + k.words
		if end > len(words) {
			end = len(words)
		}
		if strings.HasPrefix(weekday.Normalize(strings.Join(words[i:end], " ")), k.text) {
			return true
		}
	}
	return false
}

// ExtractDayBlock returns the menu lines for day found in text, in source
// order. A missing anchor yields nil: the page has no menu for that day.
func ExtractDayBlock(text string, day weekday.Weekday, opt Options) []string {
	span, ok := FindSpan(text, day)
	if !ok {
		return nil
	}
	min := opt.minLength()
	var out []string
	for _, line := range Split(span.Text, opt.Keywords) {
		if utf8.RuneCountInString(line) < min {
			continue
		}
		out = append(out, line)
	}
	return out
}
