// Package region turns OCR word detections from a weekly menu image into a
// crop rectangle for one day.
package region

import (
	"errors"
	"fmt"
	"image"
	"math"
	"sort"
	"strings"

	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

// Detection is one OCR-recognized word with its pixel bounding box.
type Detection struct {
	Text   string `json:"text" yaml:"text"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
}

// Anchor is the box of the detection that named a weekday.
type Anchor struct {
	Day    weekday.Weekday
	X      int
	Y      int
	Width  int
	Height int
}

// Rect is a crop rectangle in pixels. Right and Bottom are exclusive.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

func (r Rect) Dx() int { return r.Right - r.Left }
func (r Rect) Dy() int { return r.Bottom - r.Top }

// Empty reports whether r encloses no pixels.
func (r Rect) Empty() bool { return r.Left >= r.Right || r.Top >= r.Bottom }

// Image converts r to the standard library rectangle type.
func (r Rect) Image() image.Rectangle { return image.Rect(r.Left, r.Top, r.Right, r.Bottom) }

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d)-(%d,%d)", r.Left, r.Top, r.Right, r.Bottom)
}

// ErrInvalidLayout is returned by Layout.Validate.
var ErrInvalidLayout = errors.New("invalid layout")

// Layout fixes the horizontal crop as fractions of the image width. Menu
// columns run far past the width of a weekday label, so the label box
// itself is not used for the horizontal bounds.
type Layout struct {
	Left  float64 `json:"left" yaml:"left"`
	Right float64 `json:"right" yaml:"right"`
}

// DefaultLayout fits a two-column weekly menu: the left 36% is a gutter
// holding the day labels and the dishes sit in the remainder.
var DefaultLayout = Layout{Left: 0.36, Right: 0.97}

// IsZero reports whether l is unset.
func (l Layout) IsZero() bool { return l.Left == 0 && l.Right == 0 }

// Validate checks 0 <= Left < Right <= 1.
func (l Layout) Validate() error {
	if math.IsNaN(l.Left) || math.IsNaN(l.Right) || l.Left < 0 || l.Right > 1 || l.Left >= l.Right {
		return fmt.Errorf("%w: left=%v right=%v", ErrInvalidLayout, l.Left, l.Right)
	}
	return nil
}

// normalizeLabel lowercases s and strips one trailing colon together with
// the surrounding whitespace.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	return weekday.Normalize(strings.TrimSpace(s))
}

// FindDayAnchors records, for every weekday named in dets, the box of the
// first detection naming it. OCR sometimes repeats a label; the first
// occurrence is taken as the section header.
func FindDayAnchors(dets []Detection) map[weekday.Weekday]Anchor {
	out := make(map[weekday.Weekday]Anchor)
	for _, d := range dets {
		day, ok := weekday.Parse(normalizeLabel(d.Text))
		if !ok {
			continue
		}
		if _, seen := out[day]; seen {
			continue
		}
		out[day] = Anchor{Day: day, X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
	}
	return out
}

// SortedAnchors returns anchors in reading order, top to bottom. Anchors on
// the same row are ordered by weekday.
func SortedAnchors(anchors map[weekday.Weekday]Anchor) []Anchor {
	out := make([]Anchor, 0, len(anchors))
	for _, a := range anchors {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].Day < out[j].Day
	})
	return out
}

// CropRegionFor computes day's crop with DefaultLayout.
func CropRegionFor(day weekday.Weekday, anchors map[weekday.Weekday]Anchor, width, height int) (Rect, bool) {
	return DefaultLayout.CropRegionFor(day, anchors, width, height)
}

// CropRegionFor returns the part of a width×height image belonging to day.
// Vertically it spans from day's anchor to the anchor that follows it in
// reading order, or to the bottom of the image. It reports false when day
// has no anchor or the result would be empty, which is the case for a day
// sharing its row with a later day.
func (l Layout) CropRegionFor(day weekday.Weekday, anchors map[weekday.Weekday]Anchor, width, height int) (Rect, bool) {
	if width <= 0 || height <= 0 {
		return Rect{}, false
	}
	own, ok := anchors[day]
	if !ok {
		return Rect{}, false
	}
	if l.IsZero() {
		l = DefaultLayout
	}
	if l.Validate() != nil {
		return Rect{}, false
	}

	top := own.Y
	bottom := height
	sorted := SortedAnchors(anchors)
	for i, a := range sorted {
		if a.Day == day && i+1 < len(sorted) {
			bottom = sorted[i+1].Y
			break
		}
	}

	r := Rect{
		Left:   clamp(int(math.Round(l.Left*float64(width))), 0, width),
		Top:    clamp(top, 0, height),
		Right:  clamp(int(math.Round(l.Right*float64(width))), 0, width),
		Bottom: clamp(bottom, 0, height),
	}
	if r.Empty() {
		return Rect{}, false
	}
	return r, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
