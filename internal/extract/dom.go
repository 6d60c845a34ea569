package extract

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

// DefaultSectionSelector matches the elements restaurant pages typically use
// for day headings and dish lines.
const DefaultSectionSelector = "h1, h2, h3, h4, h5, h6, p, li, td"

// DefaultImageSelector finds the menu image on a page.
const DefaultImageSelector = "main img, article img, img"

func parse(input []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// headingWords is the longest element text, in words, that is read as a day
// heading when the weekday label is not its first word ("Lunch måndag 12/5").
const headingWords = 4

// DaySections splits a page into per-day line lists. Elements matching
// selector are visited in document order. One whose text begins with a
// weekday label opens that day's section, and the rest of its text is the
// first line. A heading element, or any element of at most headingWords
// words, naming a weekday anywhere also opens a section. Every following
// element is attached to the open section until the next label. Containers
// whose descendants also match are skipped so text is not collected twice.
// Days without a heading are absent from the result.
func DaySections(input []byte, selector string) (map[weekday.Weekday][]string, error) {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultSectionSelector
	}
	doc, err := parse(input)
	if err != nil {
		return nil, err
	}
	doc.Find("script, style, noscript, nav, footer").Remove()

	out := make(map[weekday.Weekday][]string)
	current, open := weekday.Monday, false
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if s.Find(selector).Length() > 0 {
			return
		}
		text := collapseSpaces(s.Text())
		if text == "" {
			return
		}
		words := strings.Fields(text)
		if d, ok := dayWord(words[0]); ok {
			current, open = d, true
			if _, seen := out[d]; !seen {
				out[d] = nil
			}
			if rest := strings.Join(words[1:], " "); rest != "" {
				out[d] = append(out[d], rest)
			}
			return
		}
		if len(words) <= headingWords || s.Is("h1, h2, h3, h4, h5, h6") {
			for _, w := range words[1:] {
				if d, ok := dayWord(w); ok {
					current, open = d, true
					if _, seen := out[d]; !seen {
						out[d] = nil
					}
					return
				}
			}
		}
		if open {
			out[current] = append(out[current], text)
		}
	})
	return out, nil
}

func dayWord(w string) (weekday.Weekday, bool) {
	return weekday.Parse(strings.TrimLeftFunc(w, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) }))
}

// MarkerLines collects, for every element matching selector whose text
// contains marker, that element's text followed by its next sibling's text.
// It serves pages that only ever show today's lunch under a fixed caption.
func MarkerLines(input []byte, marker, selector string) ([]string, error) {
	if strings.TrimSpace(selector) == "" {
		selector = "p"
	}
	doc, err := parse(input)
	if err != nil {
		return nil, err
	}
	needle := weekday.Normalize(strings.TrimSpace(marker))
	if needle == "" {
		return nil, nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := collapseSpaces(s.Text())
		if !strings.Contains(weekday.Normalize(text), needle) {
			return
		}
		out = append(out, text)
		if next := collapseSpaces(s.Next().Text()); next != "" {
			out = append(out, next)
		}
	})
	return out, nil
}

// ImageURL returns the absolute URL of the first image matching selector,
// resolved against the page URL base. Lazy-loading attributes are honoured.
func ImageURL(input []byte, selector string, base *url.URL) (string, bool) {
	if strings.TrimSpace(selector) == "" {
		selector = DefaultImageSelector
	}
	doc, err := parse(input)
	if err != nil {
		return "", false
	}
	img := doc.Find(selector).First()
	var src string
	for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
			src = strings.TrimSpace(v)
			break
		}
	}
	if src == "" {
		return "", false
	}
	ref, err := url.Parse(src)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	return ref.String(), true
}
