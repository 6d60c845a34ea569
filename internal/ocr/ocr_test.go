package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"reflect"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/dagenslunch/internal/cache"
	"github.com/hyperifyio/dagenslunch/internal/region"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDimensions(t *testing.T) {
	w, h, err := Dimensions(pngOf(t, 40, 25))
	if err != nil || w != 40 || h != 25 {
		t.Fatalf("got %dx%d err=%v", w, h, err)
	}
	if _, _, err := Dimensions([]byte("not an image")); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}

func TestCrop(t *testing.T) {
	src := pngOf(t, 100, 60)
	out, err := Crop(src, region.Rect{Left: 36, Top: 10, Right: 97, Bottom: 50})
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 61 || img.Bounds().Dy() != 40 {
		t.Fatalf("cropped size %v", img.Bounds())
	}
	r, g, _, _ := img.At(img.Bounds().Min.X, img.Bounds().Min.Y).RGBA()
	if r>>8 != 36 || g>>8 != 10 {
		t.Fatalf("top-left pixel came from (%d,%d)", r>>8, g>>8)
	}
	if _, err := Crop(src, region.Rect{}); err == nil {
		t.Fatalf("expected error for empty rect")
	}
}

func TestParseTSV(t *testing.T) {
	tsv := strings.Join([]string{
		"level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext",
		"1\t1\t0\t0\t0\t0\t0\t0\t1000\t600\t-1\t",
		"5\t1\t1\t1\t1\t1\t10\t50\t80\t20\t96.1\tOnsdag",
		"5\t1\t1\t1\t1\t2\t100\t52\t40\t18\t91.0\t ",
		"5\t1\t1\t1\t2\t1\t10\t300\t80\t20\t95.5\tTorsdag",
	}, "\n")
	got, err := parseTSV([]byte(tsv))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []region.Detection{
		{Text: "Onsdag", X: 10, Y: 50, Width: 80, Height: 20},
		{Text: "Torsdag", X: 10, Y: 300, Width: 80, Height: 20},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
	if _, err := parseTSV([]byte("5\t1\t1\t1\t1\t1\tx\t50\t80\t20\t96\tOnsdag")); err == nil {
		t.Fatalf("expected error for non-numeric box")
	}
}

type fakeEngine struct {
	calls int
	dets  []region.Detection
	err   error
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Detect(context.Context, []byte) ([]region.Detection, error) {
	f.calls++
	return f.dets, f.err
}

func TestCached_DetectsOncePerImage(t *testing.T) {
	eng := &fakeEngine{dets: []region.Detection{{Text: "Fredag", X: 1, Y: 2, Width: 3, Height: 4}}}
	c := &Cached{Engine: eng, Cache: &cache.DetectionCache{Dir: t.TempDir()}}
	img := []byte("image-bytes")
	for i := 0; i < 3; i++ {
		got, err := c.Detect(context.Background(), img)
		if err != nil {
			t.Fatalf("detect: %v", err)
		}
		if !reflect.DeepEqual(got, eng.dets) {
			t.Fatalf("got %+v", got)
		}
	}
	if eng.calls != 1 {
		t.Fatalf("engine called %d times, want 1", eng.calls)
	}
	if _, err := c.Detect(context.Background(), []byte("other")); err != nil || eng.calls != 2 {
		t.Fatalf("different image should miss: calls=%d err=%v", eng.calls, err)
	}
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	eng := &fakeEngine{err: errors.New("boom")}
	c := &Cached{Engine: eng, Cache: &cache.DetectionCache{Dir: t.TempDir()}}
	for i := 0; i < 2; i++ {
		if _, err := c.Detect(context.Background(), []byte("x")); err == nil {
			t.Fatalf("expected error")
		}
	}
	if eng.calls != 2 {
		t.Fatalf("engine called %d times, want 2", eng.calls)
	}
}

type fakeChat struct {
	req     openai.ChatCompletionRequest
	content string
}

func (f *fakeChat) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{
		{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: f.content}},
	}}, nil
}

func TestVision_SendsImageAndParsesReply(t *testing.T) {
	chat := &fakeChat{content: "```json\n{\"detections\":[{\"text\":\"Måndag\",\"x\":10,\"y\":40,\"width\":80,\"height\":20},{\"text\":\"\",\"x\":0,\"y\":0,\"width\":1,\"height\":1}]}\n```"}
	v := &Vision{Client: chat, Model: "gpt-4o-mini"}
	got, err := v.Detect(context.Background(), pngOf(t, 4, 4))
	if err != nil {
		t.Fatalf("detect: %v", err)
	}
	want := []region.Detection{{Text: "Måndag", X: 10, Y: 40, Width: 80, Height: 20}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
	parts := chat.req.Messages[1].MultiContent
	if len(parts) != 2 || parts[1].ImageURL == nil || !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Fatalf("image not sent as png data URL: %+v", parts)
	}
}

func TestVision_NoClient(t *testing.T) {
	if _, err := (&Vision{}).Detect(context.Background(), nil); !errors.Is(err, ErrNoEngine) {
		t.Fatalf("expected ErrNoEngine, got %v", err)
	}
}
