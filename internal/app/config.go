package app

import (
	"time"

	"github.com/hyperifyio/dagenslunch/internal/menu"
)

// SourceKind names how a restaurant page is turned into a menu source.
type SourceKind string

const (
	// SourceText flattens the page and segments it by inline weekday labels.
	SourceText SourceKind = "text"
	// SourceDOM walks headings and paragraphs into per-day sections.
	SourceDOM SourceKind = "dom"
	// SourceMarker takes the paragraph holding Marker plus its next sibling.
	// Such pages only ever show today's lunch.
	SourceMarker SourceKind = "marker"
	// SourceImage runs OCR on the menu image and crops the day's region.
	SourceImage SourceKind = "image"
)

// Restaurant is one configured lunch source.
type Restaurant struct {
	Name string     `yaml:"name" json:"name"`
	URL  string     `yaml:"url" json:"url"`
	Kind SourceKind `yaml:"kind" json:"kind"`

	// Selector narrows the elements visited by dom and marker sources.
	Selector string `yaml:"selector" json:"selector,omitempty"`
	// Marker is the caption searched for by marker sources.
	Marker string `yaml:"marker" json:"marker,omitempty"`
	// ImageSelector finds the menu image on the page.
	ImageSelector string `yaml:"imageSelector" json:"imageSelector,omitempty"`
	// ImageURL skips the page and fetches the image directly.
	ImageURL string `yaml:"imageURL" json:"imageURL,omitempty"`

	menu.Rules `yaml:",inline"`
}

// Config holds runtime configuration for the application.
type Config struct {
	OutputPath    string
	OutputPDFPath string
	// OutputMarkdownPath optionally writes the page as Markdown. Image links
	// are relative to OutputPath.
	OutputMarkdownPath string
	// Day overrides today's weekday, e.g. "onsdag". Empty means today.
	Day string

	Restaurants []Restaurant

	// Fetch
	UserAgent    string
	FetchTimeout time.Duration
	Concurrency  int

	// OCR. Engine is "tesseract", "vision", "none" or empty for automatic.
	OCREngine     string
	OCRLanguage   string
	TesseractPath string

	// Vision OCR over an OpenAI-compatible endpoint
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool

	// IgnoreRobots skips robots.txt checks.
	IgnoreRobots bool

	Verbose bool
}
