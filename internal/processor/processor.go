// Package processor decodes source images and re-encodes them into the
// output format of a batch.
package processor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"golang.org/x/image/font/basicfont"
	_ "golang.org/x/image/webp"

	"github.com/YALOKGARua/PhotoUnikalizer/internal/model"
)

const (
	watermarkMargin = 10.0
	webpMethod      = 4
	avifSpeed       = 8
)

// Rand is the source of resize and quality jitter.
type Rand interface {
	Float64() float64
}

// Options are the per-batch transcoding parameters.
type Options struct {
	Format      model.Format
	Quality     int     // nominal quality, 1..100
	ResizeMaxW  int     // 0 disables resizing
	ColorDrift  float64 // quality jitter in percent
	ResizeDrift float64 // width jitter in percent
	Watermark   string
}

// Plan is the resolved encoding of one file. Jitter has already been
// applied, so transcoding a plan is deterministic.
type Plan struct {
	Format      model.Format
	Quality     int
	TargetWidth int // 0 keeps the source width
	Watermark   string
}

// Result is an encoded image without metadata.
type Result struct {
	Data    []byte
	Width   int
	Height  int
	Quality int
}

// Processor is responsible for resizing, watermarking and re-encoding
// source images.
type Processor struct {
	rng Rand
}

// New creates a new Processor drawing jitter from rng.
func New(rng Rand) *Processor {
	return &Processor{rng: rng}
}

// Plan resolves the jittered width and quality of the next file.
// With zero drift the random source is not consulted.
func (p *Processor) Plan(opts Options) Plan {
	plan := Plan{
		Format:    opts.Format,
		Quality:   clampQuality(opts.Quality),
		Watermark: opts.Watermark,
	}

	if opts.ResizeMaxW > 0 {
		plan.TargetWidth = max(1, p.jitter(opts.ResizeMaxW, opts.ResizeDrift))
	}
	if opts.ColorDrift > 0 {
		plan.Quality = clampQuality(p.jitter(opts.Quality, opts.ColorDrift))
	}

	return plan
}

// jitter perturbs v by a uniform factor in [-pct%, +pct%].
func (p *Processor) jitter(v int, pct float64) int {
	if pct <= 0 {
		return v
	}
	u := p.rng.Float64()*2 - 1
	return int(math.Round(float64(v) * (1 + u*pct/100)))
}

// Transcode decodes src and encodes it according to plan. Failures carry
// the model error kind of the step that failed.
func (p *Processor) Transcode(ctx context.Context, src []byte, plan Plan) (Result, error) {
	if !Supported(plan.Format) {
		return Result{}, fmt.Errorf("%w: %s", model.ErrUnsupportedFormat, plan.Format)
	}

	// Decode into an image object, upright.
	img, err := imaging.Decode(bytes.NewReader(src), imaging.AutoOrientation(true))
	if err != nil {
		return Result{}, fmt.Errorf("%w: failed to decode image: %w", model.ErrDecodeFailure, err)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Downscale only; a narrower source keeps its size.
	if plan.TargetWidth > 0 && img.Bounds().Dx() > plan.TargetWidth {
		img = imaging.Resize(img, plan.TargetWidth, 0, imaging.Lanczos)
	}

	if plan.Watermark != "" {
		img = watermark(img, plan.Watermark)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	// Encode into the target format.
	buf := new(bytes.Buffer)
	if err := encode(buf, img, plan); err != nil {
		return Result{}, fmt.Errorf("%w: failed to encode %s: %w", model.ErrEncodeFailure, plan.Format, err)
	}

	b := img.Bounds()
	return Result{
		Data:    buf.Bytes(),
		Width:   b.Dx(),
		Height:  b.Dy(),
		Quality: plan.Quality,
	}, nil
}

// Supported reports whether f can be encoded.
func Supported(f model.Format) bool {
	switch f {
	case model.FormatJPG, model.FormatPNG, model.FormatWebP, model.FormatAVIF:
		return true
	default:
		return false
	}
}

func encode(buf *bytes.Buffer, img image.Image, plan Plan) error {
	switch plan.Format {
	case model.FormatJPG:
		return imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(plan.Quality))
	case model.FormatPNG:
		return imaging.Encode(buf, img, imaging.PNG, imaging.PNGCompressionLevel(pngLevel(plan.Quality)))
	case model.FormatWebP:
		return webp.Encode(buf, img, webp.Options{Quality: plan.Quality, Method: webpMethod})
	case model.FormatAVIF:
		return avif.Encode(buf, img, avif.Options{Quality: plan.Quality, Speed: avifSpeed})
	default:
		return fmt.Errorf("no encoder for %s", plan.Format)
	}
}

// watermark draws text in the bottom-right corner.
func watermark(img image.Image, text string) image.Image {
	dc := gg.NewContextForImage(img)
	dc.SetFontFace(basicfont.Face7x13)

	x := float64(dc.Width()) - watermarkMargin
	y := float64(dc.Height()) - watermarkMargin

	// Shadow, then the text.
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(text, x+1, y+1, 1, 0)
	dc.SetColor(color.White)
	dc.DrawStringAnchored(text, x, y, 1, 0)

	return dc.Image()
}

// pngLevel maps quality onto a zlib level. Higher quality compresses less.
func pngLevel(q int) png.CompressionLevel {
	switch {
	case q <= 33:
		return png.BestCompression
	case q <= 66:
		return png.DefaultCompression
	default:
		return png.BestSpeed
	}
}

func clampQuality(q int) int {
	return min(100, max(1, q))
}
