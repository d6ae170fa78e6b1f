// Package export renders the cropped region of a source into an image file.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"math"
	"strings"

	"golang.org/x/image/draw"

	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/source"
)

// Format selects the output encoding.
type Format string

const (
	// FormatPNG encodes lossless PNG output.
	FormatPNG Format = "png"
	// FormatJPEG encodes JPEG output with adjustable quality.
	FormatJPEG Format = "jpeg"
)

// Options describe the requested export rendering.
type Options struct {
	Format  Format
	Width   int
	Height  int
	Quality int
	MaxDim  int
}

// ParseFormat maps a query value onto a known format. Anything unrecognized
// exports as PNG.
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "jpg", "jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// CropRect maps the crop selection onto the source pixel grid. The selection
// lives in the controller's content space, so only its fractions of the
// outer box carry over.
func CropRect(snap cropbox.Snapshot, src image.Rectangle) image.Rectangle {
	outer := snap.Outer
	if outer.Empty() || src.Empty() {
		return src
	}
	sx := float64(src.Dx()) / outer.Width()
	sy := float64(src.Dy()) / outer.Height()
	rel := snap.Inner.RelativeTo(outer)
	x0 := src.Min.X + int(math.Round(rel.Left*sx))
	y0 := src.Min.Y + int(math.Round(rel.Top*sy))
	x1 := src.Min.X + int(math.Round(rel.Right*sx))
	y1 := src.Min.Y + int(math.Round(rel.Bottom*sy))
	r := image.Rect(x0, y0, x1, y1).Intersect(src)
	if r.Empty() {
		x0 = clampInt(x0, src.Min.X, src.Max.X-1)
		y0 = clampInt(y0, src.Min.Y, src.Max.Y-1)
		return image.Rect(x0, y0, x0+1, y0+1)
	}
	return r
}

// Render produces the cropped, optionally rescaled image for a source.
func Render(ctx context.Context, src source.Source, snap cropbox.Snapshot, opts Options) (image.Image, error) {
	frame, err := src.Frame(ctx)
	if err != nil {
		return nil, fmt.Errorf("export frame: %w", err)
	}
	bounds := frame.Bounds()
	if bounds.Empty() {
		return nil, errors.New("export: source frame is empty")
	}
	crop := CropRect(snap, bounds)
	outW, outH := outputSize(crop, opts)
	dst := image.NewRGBA(image.Rect(0, 0, outW, outH))
	if outW == crop.Dx() && outH == crop.Dy() {
		draw.Copy(dst, image.Point{}, frame, crop, draw.Src, nil)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), frame, crop, draw.Src, nil)
	}
	return dst, nil
}

// Encode writes the image in the requested format. JPEG quality outside
// 1..100 becomes 90.
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	switch format {
	case FormatJPEG:
		if quality <= 0 || quality > 100 {
			quality = 90
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	default:
		return png.Encode(w, img)
	}
}

// outputSize resolves the destination dimensions from the options, deriving
// a missing side from the crop aspect and capping both at MaxDim.
func outputSize(crop image.Rectangle, opts Options) (int, int) {
	w, h := opts.Width, opts.Height
	cw, ch := crop.Dx(), crop.Dy()
	if w <= 0 && h <= 0 {
		w, h = cw, ch
	} else if w <= 0 {
		w = int(math.Round(float64(h) * float64(cw) / float64(ch)))
	} else if h <= 0 {
		h = int(math.Round(float64(w) * float64(ch) / float64(cw)))
	}
	if opts.MaxDim > 0 {
		if w > opts.MaxDim {
			h = int(math.Round(float64(h) * float64(opts.MaxDim) / float64(w)))
			w = opts.MaxDim
		}
		if h > opts.MaxDim {
			w = int(math.Round(float64(w) * float64(opts.MaxDim) / float64(h)))
			h = opts.MaxDim
		}
	}
	return maxInt(w, 1), maxInt(h, 1)
}

// clampInt bounds an integer to the inclusive range.
func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// maxInt returns the larger integer.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
