// Package cache keeps fetched pages and OCR detections on disk between runs
// so a re-render on the same day neither re-downloads nor re-recognizes.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
)

// dir is the shared directory handling for both cache kinds.
type dir struct {
	Path string
	// StrictPerms enforces 0700 directories and 0600 files.
	StrictPerms bool
}

func (d dir) ensure() error {
	if d.Path == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if d.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(d.Path, perm); err != nil {
		return err
	}
	if d.StrictPerms {
		if info, err := os.Stat(d.Path); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(d.Path, 0o700)
		}
	}
	return nil
}

func (d dir) fileMode() os.FileMode {
	if d.StrictPerms {
		return 0o600
	}
	return 0o644
}

// writeAtomic writes data to a temp file and renames it into place.
func (d dir) writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, d.fileMode()); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func digest(parts ...[]byte) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}
