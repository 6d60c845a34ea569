package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/dagenslunch/internal/region"
	"github.com/hyperifyio/dagenslunch/internal/render"
)

type fakeEngine struct {
	dets []region.Detection
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Detect(context.Context, []byte) ([]region.Detection, error) {
	return f.dets, nil
}

func menuPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 1000, 600))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func lunchServer(t *testing.T, robotsTxt string) *httptest.Server {
	t.Helper()
	img := menuPNG(t)
	mux := http.NewServeMux()
	if robotsTxt != "" {
		mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte(robotsTxt))
		})
	}
	mux.HandleFunc("/madame", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><main>
<p>Tisdag Köttbullar med mos</p>
<p>Onsdag Dagens Fiskgryta med aioli Veckans Vegetarisk lasagne</p>
<p>Torsdag Ärtsoppa</p></main><footer>Kontakt</footer></body></html>`))
	})
	mux.HandleFunc("/gastgivargarden", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body>
<h3>Onsdag</h3><p>Kåldolmar med gräddsås</p><p>Kontakt</p>
<h3>Torsdag</h3><p>Pannbiff</p></body></html>`))
	})
	mux.HandleFunc("/vandalorum", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><p>Dagens lunch 125 kr</p><p>Laxfilé med dillsås</p><p>Välkommen</p></body></html>`))
	})
	mux.HandleFunc("/matkallaren", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><main><img src="/bilder/meny.png" alt="Veckans meny"></main></body></html>`))
	})
	mux.HandleFunc("/bilder/meny.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(img)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	})
	return httptest.NewServer(mux)
}

func testConfig(dir, base string) Config {
	return Config{
		OutputPath:    filepath.Join(dir, "dagens_lunch.html"),
		OutputPDFPath: filepath.Join(dir, "dagens_lunch.pdf"),
		OCREngine:     "none",
		CacheDir:      filepath.Join(dir, "cache"),
		FetchTimeout:  5 * time.Second,
		Restaurants: []Restaurant{
			{Name: "Gästgivargården", URL: base + "/gastgivargarden", Kind: SourceDOM},
			{Name: "Madame", URL: base + "/madame", Kind: SourceText},
			{Name: "Matkällaren", URL: base + "/matkallaren", Kind: SourceImage},
			{Name: "Vandalorum", URL: base + "/vandalorum", Kind: SourceMarker, Marker: "Dagens lunch"},
			{Name: "Stängt", URL: base + "/broken", Kind: SourceText},
		},
	}
}

func readSidecar(t *testing.T, path string) map[string]render.SidecarEntry {
	t.Helper()
	b, err := os.ReadFile(render.SidecarPath(path))
	if err != nil {
		t.Fatalf("read sidecar: %v", err)
	}
	var payload struct {
		Restaurants []render.SidecarEntry `json:"restaurants"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		t.Fatalf("decode sidecar: %v", err)
	}
	out := make(map[string]render.SidecarEntry)
	for _, e := range payload.Restaurants {
		out[e.Name] = e
	}
	return out
}

func TestRun_EndToEnd(t *testing.T) {
	srv := lunchServer(t, "")
	defer srv.Close()
	dir := t.TempDir()
	cfg := testConfig(dir, srv.URL)
	cfg.Restaurants[0].Deny = []string{"Kontakt"}
	cfg.Restaurants[1].Keywords = []string{"Dagens", "Veckans"}
	cfg.OutputMarkdownPath = filepath.Join(dir, "dagens_lunch.md")

	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a.engine = &fakeEngine{dets: []region.Detection{
		{Text: "Onsdag", X: 10, Y: 50, Width: 80, Height: 20},
		{Text: "Torsdag", X: 10, Y: 300, Width: 80, Height: 20},
	}}
	a.now = func() time.Time { return time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC) }

	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := readSidecar(t, cfg.OutputPath)
	if items := got["Gästgivargården"].Items; len(items) != 1 || items[0] != "Kåldolmar med gräddsås" {
		t.Fatalf("dom items %q", items)
	}
	if items := got["Madame"].Items; len(items) != 2 || items[0] != "Dagens Fiskgryta med aioli" || items[1] != "Veckans Vegetarisk lasagne" {
		t.Fatalf("text items %q", items)
	}
	if items := got["Vandalorum"].Items; len(items) != 2 || items[1] != "Laxfilé med dillsås" {
		t.Fatalf("marker items %q", items)
	}
	mk := got["Matkällaren"]
	if !mk.Available || mk.Region == nil || *mk.Region != (region.Rect{Left: 360, Top: 50, Right: 970, Bottom: 300}) {
		t.Fatalf("image entry %+v", mk)
	}
	if got["Stängt"].Available {
		t.Fatalf("failed fetch must render unavailable")
	}

	crop, err := os.ReadFile(filepath.Join(dir, mk.Image))
	if err != nil {
		t.Fatalf("read crop: %v", err)
	}
	cfgImg, err := png.DecodeConfig(bytes.NewReader(crop))
	if err != nil || cfgImg.Width != 610 || cfgImg.Height != 250 {
		t.Fatalf("crop size %dx%d err=%v", cfgImg.Width, cfgImg.Height, err)
	}

	html, err := os.ReadFile(cfg.OutputPath)
	if err != nil {
		t.Fatalf("read html: %v", err)
	}
	for _, want := range []string{"Dagens lunch – 2026-10-14", "<h2>Stängt</h2>\n<p class=\"empty\">Ingen lunch hittades.</p>", "dagens_lunch_bilder/matkallaren.png"} {
		if !strings.Contains(string(html), want) {
			t.Fatalf("html missing %q", want)
		}
	}
	if fi, err := os.Stat(cfg.OutputPDFPath); err != nil || fi.Size() == 0 {
		t.Fatalf("pdf not written: %v", err)
	}
	md, err := os.ReadFile(cfg.OutputMarkdownPath)
	if err != nil {
		t.Fatalf("read markdown: %v", err)
	}
	for _, want := range []string{"# Dagens lunch – 2026-10-14", "- Kåldolmar med gräddsås", "## Stängt\n\n_Ingen lunch hittades._"} {
		if !strings.Contains(string(md), want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestRun_ImageWithoutEngineIsUnavailable(t *testing.T) {
	srv := lunchServer(t, "")
	defer srv.Close()
	cfg := testConfig(t.TempDir(), srv.URL)
	cfg.OutputPDFPath = ""
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a.now = func() time.Time { return time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC) }
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := readSidecar(t, cfg.OutputPath)
	if got["Matkällaren"].Available {
		t.Fatalf("image source without OCR must be unavailable")
	}
	if !got["Madame"].Available {
		t.Fatalf("other sources must still render")
	}
}

func TestRun_WeekendRendersEmptyPageWithoutFetching(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()
	cfg := testConfig(t.TempDir(), srv.URL)
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a.now = func() time.Time { return time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC) }
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if hits != 0 {
		t.Fatalf("weekend run fetched %d pages", hits)
	}
	for name, e := range readSidecar(t, cfg.OutputPath) {
		if e.Available {
			t.Fatalf("%s available on a weekend", name)
		}
	}
}

func TestNew_NoRestaurants(t *testing.T) {
	if _, err := New(context.Background(), Config{OutputPath: "x.html"}); !errors.Is(err, ErrNoSources) {
		t.Fatalf("expected ErrNoSources, got %v", err)
	}
}

func TestRun_RobotsDisallowSkipsRestaurant(t *testing.T) {
	srv := lunchServer(t, "User-agent: *\nDisallow: /madame\n")
	defer srv.Close()
	cfg := testConfig(t.TempDir(), srv.URL)
	cfg.OutputPDFPath = ""
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a.now = func() time.Time { return time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC) }
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	got := readSidecar(t, cfg.OutputPath)
	if got["Madame"].Available {
		t.Fatalf("disallowed page must not be fetched")
	}
	if !got["Gästgivargården"].Available {
		t.Fatalf("allowed pages must still render")
	}

	cfg.IgnoreRobots = true
	a, err = New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	a.now = func() time.Time { return time.Date(2026, 10, 14, 10, 30, 0, 0, time.UTC) }
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !readSidecar(t, cfg.OutputPath)["Madame"].Available {
		t.Fatalf("ignoring robots.txt should fetch the page")
	}
}
