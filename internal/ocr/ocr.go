// Package ocr turns menu images into word detections and crops the region
// chosen for a day.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/dagenslunch/internal/cache"
	"github.com/hyperifyio/dagenslunch/internal/region"
)

// ErrNoEngine is returned when an image source is configured but no
// recognizer is available.
var ErrNoEngine = errors.New("no OCR engine configured")

// Engine recognizes words in an encoded image.
type Engine interface {
	// Name identifies the engine in cache keys and logs.
	Name() string
	Detect(ctx context.Context, img []byte) ([]region.Detection, error)
}

// Cached wraps an Engine with an on-disk detection cache.
type Cached struct {
	Engine Engine
	Cache  *cache.DetectionCache
}

func (c *Cached) Name() string { return c.Engine.Name() }

// Detect returns cached detections for identical image bytes, otherwise
// delegates and stores the result. Cache failures never fail recognition.
func (c *Cached) Detect(ctx context.Context, img []byte) ([]region.Detection, error) {
	if c.Cache == nil {
		return c.Engine.Detect(ctx, img)
	}
	key := c.Cache.Key(c.Engine.Name(), img)
	if dets, ok, err := c.Cache.Get(key); err == nil && ok {
		log.Debug().Str("engine", c.Engine.Name()).Int("detections", len(dets)).Msg("ocr cache hit")
		return dets, nil
	}
	dets, err := c.Engine.Detect(ctx, img)
	if err != nil {
		return nil, err
	}
	if err := c.Cache.Save(key, dets); err != nil {
		log.Warn().Err(err).Msg("ocr cache save failed")
	}
	return dets, nil
}

// Dimensions reports the pixel size of an encoded PNG, JPEG or GIF image.
func Dimensions(img []byte) (width, height int, err error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop cuts r out of img and returns it PNG-encoded.
func Crop(img []byte, r region.Rect) ([]byte, error) {
	if r.Empty() {
		return nil, fmt.Errorf("crop %s: empty rectangle", r)
	}
	src, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	rect := r.Image().Add(src.Bounds().Min).Intersect(src.Bounds())
	if rect.Empty() {
		return nil, fmt.Errorf("crop %s: outside image bounds %v", r, src.Bounds())
	}
	var out image.Image
	if si, ok := src.(subImager); ok {
		out = si.SubImage(rect)
	} else {
		dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
		draw.Draw(dst, dst.Bounds(), src, rect.Min, draw.Src)
		out = dst
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
