// Package source provides the content being cropped.
package source

import (
	"context"
	"image"
	"image/color"

	"github.com/croprig/croprig/internal/geom"
)

// Pattern is a generated color-bar test card. It stands in for real content
// when no image or screen is configured.
type Pattern struct {
	img    *image.RGBA
	bounds geom.Rect
}

var barColors = []color.RGBA{
	{R: 235, G: 235, B: 235, A: 255},
	{R: 235, G: 235, B: 16, A: 255},
	{R: 16, G: 235, B: 235, A: 255},
	{R: 16, G: 235, B: 16, A: 255},
	{R: 235, G: 16, B: 235, A: 255},
	{R: 235, G: 16, B: 16, A: 255},
	{R: 16, G: 16, B: 235, A: 255},
}

// NewPattern renders a test card of the given size. Non-positive dimensions
// fall back to 1280x720.
func NewPattern(w, h int) *Pattern {
	if w <= 0 || h <= 0 {
		w, h = 1280, 720
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	barTop := h * 3 / 4
	for y := 0; y < barTop; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, barColors[x*len(barColors)/w])
		}
	}
	for y := barTop; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8(x * 255 / maxInt(w-1, 1))
			img.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return &Pattern{
		img:    img,
		bounds: geom.FromSize(0, 0, float64(w), float64(h)),
	}
}

// Kind names the source flavor.
func (s *Pattern) Kind() string {
	return "pattern"
}

// Bounds returns the card dimensions anchored at the origin.
func (s *Pattern) Bounds() geom.Rect {
	return s.bounds
}

// Frame returns the rendered card.
func (s *Pattern) Frame(context.Context) (image.Image, error) {
	return s.img, nil
}

// maxInt returns the larger integer.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
