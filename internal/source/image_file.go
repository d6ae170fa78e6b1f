// Package source provides the content being cropped.
package source

import (
	"context"
	"fmt"
	"image"
	"os"

	"github.com/croprig/croprig/internal/geom"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageFile is a still image loaded from disk.
type ImageFile struct {
	path   string
	img    image.Image
	bounds geom.Rect
}

// OpenImage loads and decodes an image file. PNG, JPEG, GIF, BMP, and WebP
// are recognized.
func OpenImage(path string) (*ImageFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode source image %s: %w", path, err)
	}
	b := img.Bounds()
	return &ImageFile{
		path:   path,
		img:    img,
		bounds: geom.FromSize(0, 0, float64(b.Dx()), float64(b.Dy())),
	}, nil
}

// Kind names the source flavor.
func (s *ImageFile) Kind() string {
	return "image"
}

// Bounds returns the image dimensions anchored at the origin.
func (s *ImageFile) Bounds() geom.Rect {
	return s.bounds
}

// Frame returns the decoded image.
func (s *ImageFile) Frame(context.Context) (image.Image, error) {
	return s.img, nil
}

// Path returns the file the image was loaded from.
func (s *ImageFile) Path() string {
	return s.path
}
