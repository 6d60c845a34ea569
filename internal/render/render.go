// Package render turns collected menus into the daily lunch page: Markdown,
// HTML, PDF and a JSON sidecar.
package render

import (
	"strings"
	"time"

	"github.com/hyperifyio/dagenslunch/internal/menu"
	"github.com/hyperifyio/dagenslunch/internal/region"
	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

// Placeholder is shown for a restaurant without a menu for the day.
const Placeholder = "Ingen lunch hittades."

// Card is one restaurant's section of the page.
type Card struct {
	Name  string
	Kind  menu.Kind
	URL   string
	Items []string
	// Image is the cropped menu image path relative to the page.
	Image string
	// ImagePNG holds the cropped image for embedding in the PDF.
	ImagePNG []byte
	Region   *region.Rect
}

// Available reports whether the card shows a menu.
func (c Card) Available() bool { return len(c.Items) > 0 || c.Image != "" }

// FromResult builds a card from a collected result. image and png are the
// written crop, if any.
func FromResult(r menu.Result, url, image string, png []byte) Card {
	return Card{
		Name:     r.Source,
		Kind:     r.Kind,
		URL:      url,
		Items:    r.Items,
		Image:    image,
		ImagePNG: png,
		Region:   r.Region,
	}
}

// Page is the rendered day.
type Page struct {
	Date  time.Time
	Day   weekday.Weekday
	Cards []Card
}

// Title is the page heading, e.g. "Dagens lunch – 2026-10-14".
func (p Page) Title() string {
	return "Dagens lunch – " + p.Date.Format("2006-01-02")
}

// DayLabel is the capitalized Swedish weekday, or "Helg" outside Monday to
// Friday.
func (p Page) DayLabel() string {
	if !p.Day.Valid() {
		return "Helg"
	}
	l := p.Day.Label()
	r := []rune(l)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

// Markdown renders the page as a Markdown document.
func Markdown(p Page) string {
	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(p.Title())
	b.WriteString("\n\n")
	b.WriteString(p.DayLabel())
	b.WriteString("\n")
	for _, c := range p.Cards {
		b.WriteString("\n## ")
		b.WriteString(escape(c.Name))
		b.WriteString("\n\n")
		if !c.Available() {
			b.WriteString("_")
			b.WriteString(Placeholder)
			b.WriteString("_\n")
			continue
		}
		b.WriteString(cardBody(c))
	}
	return b.String()
}

// cardBody is the Markdown for an available card without its heading.
func cardBody(c Card) string {
	var b strings.Builder
	for _, it := range c.Items {
		b.WriteString("- ")
		b.WriteString(escape(it))
		b.WriteString("\n")
	}
	if c.Image != "" {
		if len(c.Items) > 0 {
			b.WriteString("\n")
		}
		b.WriteString("![")
		b.WriteString(escape(c.Name))
		b.WriteString("](<")
		b.WriteString(c.Image)
		b.WriteString(">)\n")
	}
	return b.String()
}

const mdPunct = "\\`*_{}[]()#+-.!<>|~"

// escape backslash-escapes Markdown punctuation so scraped text is shown
// literally.
func escape(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 && strings.ContainsRune(mdPunct, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
