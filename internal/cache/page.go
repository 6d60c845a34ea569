package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PageEntry holds what is needed to revalidate a cached response.
type PageEntry struct {
	URL          string    `json:"url"`
	ContentType  string    `json:"content_type"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"last_modified"`
	SavedAt      time.Time `json:"saved_at"`
}

// PageCache stores responses as <key>.meta.json and <key>.body where key is
// sha256(url). There is no eviction beyond Purge.
type PageCache struct {
	Dir         string
	StrictPerms bool
}

func (c *PageCache) dir() dir { return dir{Path: c.Dir, StrictPerms: c.StrictPerms} }

func (c *PageCache) key(url string) string { return digest([]byte(url)) }

func (c *PageCache) metaPath(key string) string { return filepath.Join(c.Dir, key+".meta.json") }
func (c *PageCache) bodyPath(key string) string { return filepath.Join(c.Dir, key+".body") }

// LoadMeta returns the stored entry for url.
func (c *PageCache) LoadMeta(url string) (*PageEntry, error) {
	if err := c.dir().ensure(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(c.metaPath(c.key(url)))
	if err != nil {
		return nil, err
	}
	var e PageEntry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// LoadBody returns the stored body for url.
func (c *PageCache) LoadBody(url string) ([]byte, error) {
	if err := c.dir().ensure(); err != nil {
		return nil, err
	}
	return os.ReadFile(c.bodyPath(c.key(url)))
}

// Save stores body and its revalidation headers. The body is written before
// the metadata so a present meta file always has a body.
func (c *PageCache) Save(url, contentType, etag, lastModified string, body []byte) error {
	d := c.dir()
	if err := d.ensure(); err != nil {
		return err
	}
	key := c.key(url)
	if err := d.writeAtomic(c.bodyPath(key), body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	meta, err := json.Marshal(PageEntry{
		URL:          url,
		ContentType:  contentType,
		ETag:         etag,
		LastModified: lastModified,
		SavedAt:      time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode meta: %w", err)
	}
	return d.writeAtomic(c.metaPath(key), meta)
}
