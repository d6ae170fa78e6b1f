// Package source provides the content being cropped.
package source

import (
	"context"
	"image"

	"github.com/croprig/croprig/internal/geom"
)

// Source is a crop subject: something with fixed bounds that can yield a
// still frame for preview and export.
type Source interface {
	// Kind names the source flavor for logs and the state API.
	Kind() string
	// Bounds returns the content box in source pixels.
	Bounds() geom.Rect
	// Frame returns the current content image.
	Frame(ctx context.Context) (image.Image, error)
}
