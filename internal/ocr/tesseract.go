package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hyperifyio/dagenslunch/internal/region"
)

// Tesseract shells out to the tesseract CLI and reads its TSV word boxes.
type Tesseract struct {
	// Path to the binary. Empty means "tesseract" on PATH.
	Path string
	// Language passed with -l. Empty means "swe".
	Language string
}

func (t *Tesseract) Name() string { return "tesseract:" + t.language() }

func (t *Tesseract) language() string {
	if t.Language == "" {
		return "swe"
	}
	return t.Language
}

// Available reports whether the binary can be found.
func (t *Tesseract) Available() bool {
	_, err := exec.LookPath(t.path())
	return err == nil
}

func (t *Tesseract) path() string {
	if t.Path == "" {
		return "tesseract"
	}
	return t.Path
}

func (t *Tesseract) Detect(ctx context.Context, img []byte) ([]region.Detection, error) {
	cmd := exec.CommandContext(ctx, t.path(), "stdin", "stdout", "-l", t.language(), "tsv")
	cmd.Stdin = bytes.NewReader(img)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return parseTSV(out)
}

// parseTSV reads tesseract's TSV output, keeping word-level rows (level 5)
// that carry text. Columns: level page block par line word left top width
// height conf text.
func parseTSV(out []byte) ([]region.Detection, error) {
	var dets []region.Detection
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	header := true
	for sc.Scan() {
		if header {
			header = false
			if strings.HasPrefix(sc.Text(), "level") {
				continue
			}
		}
		cols := strings.Split(sc.Text(), "\t")
		if len(cols) < 12 || cols[0] != "5" {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[11:], "\t"))
		if text == "" {
			continue
		}
		var box [4]int
		for i := range box {
			v, err := strconv.Atoi(cols[6+i])
			if err != nil {
				return nil, fmt.Errorf("tsv column %d: %w", 6+i, err)
			}
			box[i] = v
		}
		dets = append(dets, region.Detection{Text: text, X: box[0], Y: box[1], Width: box[2], Height: box[3]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return dets, nil
}
