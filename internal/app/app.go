// Package app wires configuration, fetching, extraction, OCR and rendering
// into one lunch page run.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/dagenslunch/internal/cache"
	"github.com/hyperifyio/dagenslunch/internal/extract"
	"github.com/hyperifyio/dagenslunch/internal/fetch"
	"github.com/hyperifyio/dagenslunch/internal/llm"
	"github.com/hyperifyio/dagenslunch/internal/menu"
	"github.com/hyperifyio/dagenslunch/internal/ocr"
	"github.com/hyperifyio/dagenslunch/internal/render"
	"github.com/hyperifyio/dagenslunch/internal/robots"
	"github.com/hyperifyio/dagenslunch/internal/weekday"
)

// ErrNoSources is returned when no restaurant is configured.
var ErrNoSources = errors.New("no restaurants configured")

// ErrDisallowed is returned for a page robots.txt forbids fetching.
var ErrDisallowed = errors.New("disallowed by robots.txt")

// fetcher is the part of fetch.Client the app uses.
type fetcher interface {
	GetPage(ctx context.Context, rawURL string) (fetch.Response, error)
	GetImage(ctx context.Context, rawURL string) (fetch.Response, error)
}

// gate decides whether a URL may be fetched.
type gate interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
}

type App struct {
	cfg     Config
	fetcher fetcher
	robots  gate
	engine  ocr.Engine
	now     func() time.Time
}

func New(ctx context.Context, cfg Config) (*App, error) {
	if len(cfg.Restaurants) == 0 {
		return nil, ErrNoSources
	}
	a := &App{cfg: cfg, now: time.Now}

	var pages *cache.PageCache
	var dets *cache.DetectionCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			_ = cache.ClearDir(cfg.CacheDir)
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.Purge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged cache entries")
			}
		}
		pages = &cache.PageCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
		dets = &cache.DetectionCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	hc := newHTTPClient(cfg.FetchTimeout)
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = userAgentDefault
	}
	a.fetcher = &fetch.Client{
		HTTPClient:        hc,
		UserAgent:         userAgent,
		MaxAttempts:       2,
		PerRequestTimeout: cfg.FetchTimeout,
		Cache:             pages,
		RedirectMaxHops:   5,
		MaxConcurrent:     cfg.Concurrency,
	}
	if !cfg.IgnoreRobots {
		a.robots = &robots.Manager{HTTPClient: hc, Cache: pages, UserAgent: userAgent}
	}

	engine, err := newEngine(ctx, cfg, hc)
	if err != nil {
		return nil, err
	}
	if engine != nil && dets != nil {
		engine = &ocr.Cached{Engine: engine, Cache: dets}
	}
	a.engine = engine
	return a, nil
}

// newEngine picks the OCR engine. Automatic selection prefers a configured
// vision model, then a tesseract binary on PATH, then none.
func newEngine(ctx context.Context, cfg Config, hc *http.Client) (ocr.Engine, error) {
	tess := &ocr.Tesseract{Path: cfg.TesseractPath, Language: cfg.OCRLanguage}
	switch strings.ToLower(strings.TrimSpace(cfg.OCREngine)) {
	case "none":
		return nil, nil
	case "tesseract":
		if !tess.Available() {
			log.Warn().Str("path", cfg.TesseractPath).Msg("tesseract not found; image menus will be unavailable")
		}
		return tess, nil
	case "vision":
		if cfg.LLMModel == "" {
			return nil, fmt.Errorf("%w: vision engine needs a model (set LLM_MODEL)", ocr.ErrNoEngine)
		}
		return newVision(ctx, cfg, hc), nil
	}
	if cfg.LLMModel != "" {
		return newVision(ctx, cfg, hc), nil
	}
	if tess.Available() {
		return tess, nil
	}
	log.Debug().Msg("no OCR engine available")
	return nil, nil
}

func newVision(ctx context.Context, cfg Config, hc *http.Client) *ocr.Vision {
	p := llm.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, hc)
	// Preflight is best-effort; recognition surfaces real failures per image.
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if models, err := p.ListModels(ctx); err != nil {
		log.Warn().Err(err).Msg("LLM model list failed; continuing")
	} else {
		log.Debug().Int("count", len(models.Models)).Msg("LLM models available")
	}
	return &ocr.Vision{Client: p, Model: cfg.LLMModel}
}

// built is a prepared source plus what is needed to render it.
type built struct {
	src   menu.Source
	url   string
	image []byte
}

// Run fetches every restaurant, extracts the day's menus and writes the page.
// A restaurant that cannot be fetched or parsed renders as unavailable.
func (a *App) Run(ctx context.Context) error {
	now := a.now()
	day, err := resolveDay(a.cfg.Day, now)
	if err != nil {
		return err
	}
	if !day.Valid() {
		log.Info().Msg("no lunch on weekends; rendering empty page")
	}

	sources := a.buildSources(ctx, day)
	srcs := make([]menu.Source, len(sources))
	for i, b := range sources {
		srcs[i] = b.src
	}
	results := menu.CollectOrdered(srcs, day)

	page := render.Page{Date: now, Day: day, Cards: a.cards(results, sources)}
	return a.write(page, now)
}

func (a *App) buildSources(ctx context.Context, day weekday.Weekday) []built {
	out := make([]built, len(a.cfg.Restaurants))
	g, gctx := errgroup.WithContext(ctx)
	limit := a.cfg.Concurrency
	if limit <= 0 {
		limit = concurrencyDefault
	}
	g.SetLimit(limit)
	for i, r := range a.cfg.Restaurants {
		i, r := i, r
		g.Go(func() error {
			b, err := a.buildSource(gctx, r, day)
			if err != nil {
				log.Warn().Err(err).Str("restaurant", r.Name).Str("url", r.URL).Msg("source unavailable")
				b = built{src: emptySource(r), url: r.URL}
			}
			out[i] = b
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (a *App) buildSource(ctx context.Context, r Restaurant, day weekday.Weekday) (built, error) {
	b := built{src: emptySource(r), url: r.URL}
	if !day.Valid() {
		return b, nil
	}
	if r.Kind == SourceImage {
		return a.buildImageSource(ctx, r)
	}

	page, err := a.getPage(ctx, r.URL)
	if err != nil {
		return b, err
	}
	switch r.Kind {
	case SourceText:
		doc := extract.Flatten(page.Body)
		b.src = menu.NewTextSource(r.Name, doc.Text, r.Rules)
	case SourceDOM:
		days, err := extract.DaySections(page.Body, r.Selector)
		if err != nil {
			return b, err
		}
		b.src = menu.NewStructuredSource(r.Name, days, r.Rules)
	case SourceMarker:
		lines, err := extract.MarkerLines(page.Body, r.Marker, r.Selector)
		if err != nil {
			return b, err
		}
		b.src = menu.NewStructuredSource(r.Name, map[weekday.Weekday][]string{day: lines}, r.Rules)
	default:
		return b, fmt.Errorf("unknown kind %q", r.Kind)
	}
	return b, nil
}

func (a *App) buildImageSource(ctx context.Context, r Restaurant) (built, error) {
	b := built{src: emptySource(r), url: r.URL}
	if a.engine == nil {
		return b, ocr.ErrNoEngine
	}
	imgURL := r.ImageURL
	if imgURL == "" {
		page, err := a.getPage(ctx, r.URL)
		if err != nil {
			return b, err
		}
		base, err := url.Parse(page.URL)
		if err != nil {
			return b, fmt.Errorf("page url: %w", err)
		}
		var ok bool
		if imgURL, ok = extract.ImageURL(page.Body, r.ImageSelector, base); !ok {
			return b, errors.New("no menu image on page")
		}
	}
	if err := a.permit(ctx, imgURL); err != nil {
		return b, err
	}
	img, err := a.fetcher.GetImage(ctx, imgURL)
	if err != nil {
		return b, err
	}
	w, h, err := ocr.Dimensions(img.Body)
	if err != nil {
		return b, err
	}
	dets, err := a.engine.Detect(ctx, img.Body)
	if err != nil {
		return b, fmt.Errorf("ocr %s: %w", a.engine.Name(), err)
	}
	log.Debug().Str("restaurant", r.Name).Int("detections", len(dets)).Int("width", w).Int("height", h).Msg("recognized menu image")
	b.src = menu.NewImageSource(r.Name, dets, w, h, imgURL, r.Rules)
	b.image = img.Body
	return b, nil
}

func (a *App) getPage(ctx context.Context, rawURL string) (fetch.Response, error) {
	if err := a.permit(ctx, rawURL); err != nil {
		return fetch.Response{}, err
	}
	return a.fetcher.GetPage(ctx, rawURL)
}

// permit consults robots.txt. An unreachable robots.txt does not block the
// fetch; an explicit disallow does.
func (a *App) permit(ctx context.Context, rawURL string) error {
	if a.robots == nil {
		return nil
	}
	ok, err := a.robots.Allowed(ctx, rawURL)
	if err != nil {
		log.Debug().Err(err).Str("url", rawURL).Msg("robots.txt unavailable; fetching anyway")
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrDisallowed, rawURL)
	}
	return nil
}

// emptySource is the unavailable stand-in for a restaurant.
func emptySource(r Restaurant) menu.Source {
	return menu.Source{Name: r.Name, Kind: menuKind(r.Kind), Rules: r.Rules}
}

func menuKind(k SourceKind) menu.Kind {
	switch k {
	case SourceText:
		return menu.KindText
	case SourceImage:
		return menu.KindImage
	default:
		return menu.KindStructured
	}
}

// cards crops located image regions and pairs each result with its source.
func (a *App) cards(results []menu.Result, sources []built) []render.Card {
	absDir, relDir := imageDir(a.cfg.OutputPath)
	cards := make([]render.Card, 0, len(results))
	for i, res := range results {
		b := sources[i]
		var rel string
		var png []byte
		if res.Kind == menu.KindImage && res.Available() && len(b.image) > 0 {
			cropped, err := ocr.Crop(b.image, *res.Region)
			name := slugify(res.Source) + ".png"
			if err == nil {
				err = writeFile(filepath.Join(absDir, name), cropped)
			}
			if err != nil {
				log.Warn().Err(err).Str("restaurant", res.Source).Msg("crop failed")
			} else {
				rel, png = path.Join(relDir, name), cropped
			}
		}
		cards = append(cards, render.FromResult(res, b.url, rel, png))
	}
	return cards
}

func (a *App) write(page render.Page, now time.Time) error {
	html, err := render.HTML(page)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := writeFile(a.cfg.OutputPath, html); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	sidecar, err := render.Sidecar(page, now)
	if err != nil {
		return fmt.Errorf("render sidecar: %w", err)
	}
	if err := writeFile(render.SidecarPath(a.cfg.OutputPath), sidecar); err != nil {
		return fmt.Errorf("write sidecar: %w", err)
	}
	if a.cfg.OutputMarkdownPath != "" {
		if err := writeFile(a.cfg.OutputMarkdownPath, []byte(render.Markdown(page))); err != nil {
			return fmt.Errorf("write markdown: %w", err)
		}
	}
	if a.cfg.OutputPDFPath != "" {
		if err := render.PDF(page, a.cfg.OutputPDFPath); err != nil {
			return fmt.Errorf("write pdf: %w", err)
		}
	}
	available := 0
	for _, c := range page.Cards {
		if c.Available() {
			available++
		}
	}
	log.Info().Str("out", a.cfg.OutputPath).Str("day", page.DayLabel()).
		Int("restaurants", len(page.Cards)).Int("available", available).Msg("wrote lunch page")
	return nil
}
