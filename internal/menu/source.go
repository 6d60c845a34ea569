package menu

import (
	"github.com/hyperifyio/dagenslunch/internal/region"
	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

// Kind selects the extraction strategy for a Source.
type Kind string

const (
	// KindText is a flattened page where weekday labels appear inline.
	KindText Kind = "text"
	// KindStructured is a page whose day sections were already separated.
	KindStructured Kind = "structured"
	// KindImage is a menu image described by OCR word detections.
	KindImage Kind = "image"
)

// Rules is the per-restaurant configuration applied during extraction and
// filtering. Wording differs between restaurants, so nothing here is global.
type Rules struct {
	// Keywords split merged text into items (text sources only).
	Keywords []string `json:"keywords,omitempty" yaml:"keywords"`
	// Deny drops lines that equal one of these phrases, ignoring case.
	Deny []string `json:"deny,omitempty" yaml:"deny"`
	// DenyContaining drops lines containing one of these phrases.
	DenyContaining []string `json:"denyContaining,omitempty" yaml:"denyContaining"`
	// StopAt ends the menu at the first line containing one of these
	// phrases. Text before the phrase on that line is kept.
	StopAt []string `json:"stopAt,omitempty" yaml:"stopAt"`
	// MinLength drops shorter lines. Zero means segment.DefaultMinLength.
	MinLength int `json:"minLength,omitempty" yaml:"minLength"`
	// Layout overrides the horizontal crop for image sources.
	Layout region.Layout `json:"layout,omitempty" yaml:"layout"`
}

// Source is one restaurant's menu content in one of three shapes. Only the
// fields matching Kind are read.
type Source struct {
	Name string
	Kind Kind

	// KindText
	Raw string

	// KindStructured
	Days map[weekday.Weekday][]string

	// KindImage
	Detections  []region.Detection
	ImageWidth  int
	ImageHeight int
	ImageRef    string

	Rules Rules
}

// NewTextSource describes a flattened text page.
func NewTextSource(name, raw string, rules Rules) Source {
	return Source{Name: name, Kind: KindText, Raw: raw, Rules: rules}
}

// NewStructuredSource describes a page already split into day sections.
func NewStructuredSource(name string, days map[weekday.Weekday][]string, rules Rules) Source {
	return Source{Name: name, Kind: KindStructured, Days: days, Rules: rules}
}

// NewImageSource describes a menu image by its OCR detections and size.
// ref identifies the image for the caller that will crop it.
func NewImageSource(name string, dets []region.Detection, width, height int, ref string, rules Rules) Source {
	return Source{
		Name:        name,
		Kind:        KindImage,
		Detections:  dets,
		ImageWidth:  width,
		ImageHeight: height,
		ImageRef:    ref,
		Rules:       rules,
	}
}

// Result is the outcome for one source on one day. Text-bearing sources
// fill Items; image sources fill Region when the day was located.
type Result struct {
	Source   string       `json:"source"`
	Kind     Kind         `json:"kind"`
	Day      string       `json:"day"`
	Items    []string     `json:"items,omitempty"`
	Region   *region.Rect `json:"region,omitempty"`
	ImageRef string       `json:"imageRef,omitempty"`
}

// Available reports whether the source had a menu for the day.
func (r Result) Available() bool {
	if r.Kind == KindImage {
		return r.Region != nil && !r.Region.Empty()
	}
	return len(r.Items) > 0
}
