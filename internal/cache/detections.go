package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperifyio/dagenslunch/internal/region"
)

// DetectionCache stores OCR word detections keyed by engine name and the
// digest of the image bytes, as <key>.ocr.json.
type DetectionCache struct {
	Dir         string
	StrictPerms bool
}

func (c *DetectionCache) dir() dir { return dir{Path: c.Dir, StrictPerms: c.StrictPerms} }

// Key derives the cache key for an image recognized by engine.
func (c *DetectionCache) Key(engine string, image []byte) string {
	return digest([]byte(engine), image)
}

func (c *DetectionCache) path(key string) string { return filepath.Join(c.Dir, key+".ocr.json") }

// Get returns cached detections. A miss is not an error.
func (c *DetectionCache) Get(key string) ([]region.Detection, bool, error) {
	if err := c.dir().ensure(); err != nil {
		return nil, false, err
	}
	p := c.path(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	var dets []region.Detection
	if err := json.Unmarshal(b, &dets); err != nil {
		// A corrupt entry is treated as a miss and overwritten later.
		return nil, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return dets, true, nil
}

// Save writes detections for key.
func (c *DetectionCache) Save(key string, dets []region.Detection) error {
	d := c.dir()
	if err := d.ensure(); err != nil {
		return err
	}
	if dets == nil {
		dets = []region.Detection{}
	}
	b, err := json.Marshal(dets)
	if err != nil {
		return err
	}
	return d.writeAtomic(c.path(key), b)
}
