package app

import (
    "os"
    "path/filepath"
    "regexp"
    "strings"
    "unicode"

    "golang.org/x/text/runes"
    "golang.org/x/text/transform"
    "golang.org/x/text/unicode/norm"
)

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify maps a restaurant name to a file-safe name, folding å, ä and ö to
// their base letters: "Matkällaren" becomes "matkallaren".
func slugify(s string) string {
    t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
    folded, _, err := transform.String(t, strings.ToLower(strings.TrimSpace(s)))
    if err != nil {
        folded = strings.ToLower(s)
    }
    folded = strings.Trim(nonSlug.ReplaceAllString(folded, "-"), "-")
    if folded == "" { folded = "restaurang" }
    return folded
}

// imageDir returns the directory for cropped menu images next to the HTML
// output and its name relative to that output.
func imageDir(outputPath string) (abs, rel string) {
    stem := strings.TrimSuffix(filepath.Base(outputPath), filepath.Ext(outputPath))
    rel = stem + "_bilder"
    return filepath.Join(filepath.Dir(outputPath), rel), rel
}

func writeFile(path string, data []byte) error {
    if dir := filepath.Dir(path); dir != "" {
        if err := os.MkdirAll(dir, 0o755); err != nil { return err }
    }
    return os.WriteFile(path, data, 0o644)
}
