package render

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"

	"github.com/hyperifyio/dagenslunch/internal/menu"
	"github.com/hyperifyio/dagenslunch/internal/region"
)

// SidecarEntry is the machine-readable record of one card.
type SidecarEntry struct {
	Name      string       `json:"name"`
	Kind      menu.Kind    `json:"kind"`
	URL       string       `json:"url,omitempty"`
	Available bool         `json:"available"`
	Items     []string     `json:"items"`
	Image     string       `json:"image,omitempty"`
	Region    *region.Rect `json:"region,omitempty"`
	// SHA256 digests the items so consumers can spot menu changes.
	SHA256 string `json:"sha256"`
}

// SidecarMeta describes the run.
type SidecarMeta struct {
	Date        string    `json:"date"`
	Day         string    `json:"day"`
	Restaurants int       `json:"restaurants"`
	Available   int       `json:"available"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Sidecar encodes the page as indented JSON.
func Sidecar(p Page, generatedAt time.Time) ([]byte, error) {
	meta := SidecarMeta{
		Date:        p.Date.Format("2006-01-02"),
		Day:         p.DayLabel(),
		Restaurants: len(p.Cards),
		GeneratedAt: generatedAt.UTC(),
	}
	entries := make([]SidecarEntry, 0, len(p.Cards))
	for _, c := range p.Cards {
		items := c.Items
		if items == nil {
			items = []string{}
		}
		e := SidecarEntry{
			Name:      c.Name,
			Kind:      c.Kind,
			URL:       c.URL,
			Available: c.Available(),
			Items:     items,
			Image:     c.Image,
			Region:    c.Region,
			SHA256:    digest(items),
		}
		if e.Available {
			meta.Available++
		}
		entries = append(entries, e)
	}
	payload := struct {
		Meta        SidecarMeta    `json:"meta"`
		Restaurants []SidecarEntry `json:"restaurants"`
	}{Meta: meta, Restaurants: entries}
	return json.MarshalIndent(payload, "", "  ")
}

// SidecarPath returns the JSON path next to the HTML output.
func SidecarPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, ".html") + ".json"
}

func digest(items []string) string {
	h := sha256.Sum256([]byte(strings.Join(items, "\n")))
	return hex.EncodeToString(h[:])
}
