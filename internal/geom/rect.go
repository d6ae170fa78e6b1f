// Package geom provides the float64 rectangle math used by the crop engine.
package geom

import (
	"image"
	"math"
)

// Rect describes a rectangle by its four edge coordinates.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// FromSize builds a rectangle from a top-left origin and size.
func FromSize(left, top, width, height float64) Rect {
	return Rect{Left: left, Top: top, Right: left + width, Bottom: top + height}
}

// Width returns the horizontal extent.
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent.
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Right <= r.Left || r.Bottom <= r.Top
}

// Equal reports whether both rectangles have identical edges.
func (r Rect) Equal(o Rect) bool {
	return r == o
}

// Contains reports whether o lies fully inside r (edges inclusive).
func (r Rect) Contains(o Rect) bool {
	return o.Left >= r.Left && o.Top >= r.Top && o.Right <= r.Right && o.Bottom <= r.Bottom
}

// ContainsPoint reports whether the point is inside the rectangle (edges inclusive).
func (r Rect) ContainsPoint(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Top && y <= r.Bottom
}

// Canon returns the rectangle with its edges swapped into ascending order.
func (r Rect) Canon() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

// Translate returns the rectangle shifted by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// RelativeTo re-expresses the rectangle with origin's top-left corner as (0,0).
func (r Rect) RelativeTo(origin Rect) Rect {
	return r.Translate(-origin.Left, -origin.Top)
}

// ImageRect converts the rectangle to image coordinates, rounding each edge
// to the nearest pixel.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(
		int(math.Round(r.Left)),
		int(math.Round(r.Top)),
		int(math.Round(r.Right)),
		int(math.Round(r.Bottom)),
	)
}
