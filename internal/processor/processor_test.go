package processor

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"testing"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

func sourceJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8(x + y), 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode source: %v", err)
	}
	return buf.Bytes()
}

// panicRand fails the test if jitter is drawn.
type panicRand struct{ t *testing.T }

func (r panicRand) Float64() float64 {
	r.t.Fatal("random source used without drift")
	return 0
}

func TestTranscodeWithoutDriftIsDeterministic(t *testing.T) {
	src := sourceJPEG(t, 300, 200)
	opts := Options{Format: model.FormatJPG, Quality: 80, ResizeMaxW: 150}

	p := New(panicRand{t})
	first, err := p.Transcode(context.Background(), src, p.Plan(opts))
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	second, err := p.Transcode(context.Background(), src, p.Plan(opts))
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}

	if !bytes.Equal(first.Data, second.Data) {
		t.Fatal("outputs differ without drift")
	}
	if first.Width != 150 || first.Height != 100 {
		t.Fatalf("size = %dx%d, want 150x100", first.Width, first.Height)
	}
}

func TestResizeDriftBounds(t *testing.T) {
	p := New(rand.New(rand.NewSource(42)))
	opts := Options{Format: model.FormatJPG, Quality: 80, ResizeMaxW: 800, ResizeDrift: 10}

	for i := 0; i < 500; i++ {
		plan := p.Plan(opts)
		if plan.TargetWidth < 720 || plan.TargetWidth > 880 {
			t.Fatalf("target width %d outside [720, 880]", plan.TargetWidth)
		}
	}
}

func TestNeverUpscales(t *testing.T) {
	src := sourceJPEG(t, 120, 80)
	p := New(rand.New(rand.NewSource(1)))

	res, err := p.Transcode(context.Background(), src, p.Plan(Options{
		Format: model.FormatPNG, Quality: 50, ResizeMaxW: 800, ResizeDrift: 10,
	}))
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if res.Width != 120 {
		t.Fatalf("width = %d, want source width 120", res.Width)
	}
}

func TestQualityDriftClamped(t *testing.T) {
	p := New(rand.New(rand.NewSource(3)))
	for i := 0; i < 200; i++ {
		plan := p.Plan(Options{Format: model.FormatJPG, Quality: 100, ColorDrift: 10})
		if plan.Quality < 90 || plan.Quality > 100 {
			t.Fatalf("quality %d outside [90, 100]", plan.Quality)
		}
	}
}

func TestEncodesEveryFormat(t *testing.T) {
	src := sourceJPEG(t, 64, 48)
	p := New(panicRand{t})

	magic := map[model.Format]func([]byte) bool{
		model.FormatJPG: func(b []byte) bool { return bytes.HasPrefix(b, []byte{0xFF, 0xD8}) },
		model.FormatPNG: func(b []byte) bool { return bytes.HasPrefix(b, []byte("\x89PNG")) },
		model.FormatWebP: func(b []byte) bool {
			return len(b) > 12 && string(b[:4]) == "RIFF" && string(b[8:12]) == "WEBP"
		},
		model.FormatAVIF: func(b []byte) bool { return len(b) > 12 && string(b[4:8]) == "ftyp" },
	}

	for f, ok := range magic {
		res, err := p.Transcode(context.Background(), src, p.Plan(Options{Format: f, Quality: 70}))
		if err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		if !ok(res.Data) {
			t.Errorf("%s: unexpected header % x", f, res.Data[:min(12, len(res.Data))])
		}
	}
}

func TestTranscodeErrors(t *testing.T) {
	p := New(panicRand{t})
	ctx := context.Background()

	_, err := p.Transcode(ctx, sourceJPEG(t, 8, 8), p.Plan(Options{Format: model.FormatHEIC, Quality: 80}))
	if !errors.Is(err, model.ErrUnsupportedFormat) {
		t.Errorf("heic: err = %v", err)
	}

	_, err = p.Transcode(ctx, []byte("not an image"), p.Plan(Options{Format: model.FormatJPG, Quality: 80}))
	if !errors.Is(err, model.ErrDecodeFailure) {
		t.Errorf("garbage: err = %v", err)
	}
}

func TestWatermarkKeepsSize(t *testing.T) {
	src := sourceJPEG(t, 200, 100)
	p := New(panicRand{t})

	res, err := p.Transcode(context.Background(), src, p.Plan(Options{Format: model.FormatJPG, Quality: 80, Watermark: "sample"}))
	if err != nil {
		t.Fatalf("transcode: %v", err)
	}
	if res.Width != 200 || res.Height != 100 {
		t.Fatalf("size = %dx%d", res.Width, res.Height)
	}
}
