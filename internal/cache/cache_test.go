package cache

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/hyperifyio/dagenslunch/internal/region"
)

func TestPageCache_SaveAndLoad(t *testing.T) {
	c := &PageCache{Dir: t.TempDir()}
	url := "https://example.se/lunch"
	if err := c.Save(url, "text/html", `"v1"`, "Mon, 02 Jan 2006 15:04:05 GMT", []byte("<p>Måndag</p>")); err != nil {
		t.Fatalf("save: %v", err)
	}
	meta, err := c.LoadMeta(url)
	if err != nil {
		t.Fatalf("load meta: %v", err)
	}
	if meta.ETag != `"v1"` || meta.ContentType != "text/html" || meta.URL != url {
		t.Fatalf("unexpected meta %+v", meta)
	}
	body, err := c.LoadBody(url)
	if err != nil || string(body) != "<p>Måndag</p>" {
		t.Fatalf("body %q err %v", body, err)
	}
	if _, err := c.LoadMeta("https://example.se/other"); err == nil {
		t.Fatalf("expected miss for unknown url")
	}
}

func TestPageCache_StrictPerms(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pages")
	c := &PageCache{Dir: dir, StrictPerms: true}
	if err := c.Save("https://example.se", "text/html", "", "", []byte("x")); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o700 {
		t.Fatalf("dir perm %o", info.Mode().Perm())
	}
	fi, err := os.Stat(filepath.Join(dir, c.key("https://example.se")+".body"))
	if err != nil {
		t.Fatalf("stat body: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("file perm %o", fi.Mode().Perm())
	}
}

func TestDetectionCache_RoundTripAndKey(t *testing.T) {
	c := &DetectionCache{Dir: t.TempDir()}
	img := []byte{0x89, 'P', 'N', 'G'}
	k1 := c.Key("tesseract", img)
	if k1 == c.Key("vision", img) {
		t.Fatalf("engine must be part of the key")
	}
	if _, ok, err := c.Get(k1); ok || err != nil {
		t.Fatalf("expected clean miss, ok=%v err=%v", ok, err)
	}
	dets := []region.Detection{{Text: "Måndag", X: 10, Y: 20, Width: 30, Height: 8}}
	if err := c.Save(k1, dets); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := c.Get(k1)
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(got, dets) {
		t.Fatalf("got %+v", got)
	}
}

func TestDetectionCache_CorruptIsMiss(t *testing.T) {
	dir := t.TempDir()
	c := &DetectionCache{Dir: dir}
	key := c.Key("e", []byte("img"))
	if err := os.WriteFile(filepath.Join(dir, key+".ocr.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("corrupt entry should be a miss, ok=%v err=%v", ok, err)
	}
}

func TestPurge_RemovesOnlyExpired(t *testing.T) {
	dir := t.TempDir()
	pages := &PageCache{Dir: dir}
	dets := &DetectionCache{Dir: dir}
	if err := pages.Save("https://fresh", "text/html", "", "", []byte("a")); err != nil {
		t.Fatal(err)
	}
	old := dets.Key("e", []byte("old"))
	if err := dets.Save(old, nil); err != nil {
		t.Fatal(err)
	}
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, old+".ocr.json"), past, past); err != nil {
		t.Fatal(err)
	}
	n, err := Purge(dir, 24*time.Hour)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if n != 1 {
		t.Fatalf("removed %d, want 1", n)
	}
	if _, err := pages.LoadBody("https://fresh"); err != nil {
		t.Fatalf("fresh page should survive: %v", err)
	}
}

func TestPurge_MissingDirAndZeroAge(t *testing.T) {
	if n, err := Purge(filepath.Join(t.TempDir(), "nope"), time.Hour); n != 0 || err != nil {
		t.Fatalf("missing dir: n=%d err=%v", n, err)
	}
	if n, err := Purge(t.TempDir(), 0); n != 0 || err != nil {
		t.Fatalf("zero age: n=%d err=%v", n, err)
	}
}

func TestClearDir(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "x.body"), []byte("x"), 0o644)
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected empty dir, got %d entries err=%v", len(entries), err)
	}
	if err := ClearDir("  "); err == nil {
		t.Fatalf("expected error for blank dir")
	}
}
