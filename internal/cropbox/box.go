// Package cropbox implements the nested-rectangle constraint engine behind
// the crop selection.
package cropbox

import "github.com/croprig/croprig/internal/geom"

// Box owns an inner rectangle nested inside a fixed outer rectangle. Every
// move keeps the inner rectangle contained and no smaller than the minimum
// size. The outer rectangle never changes for the life of the instance;
// owners replace the whole box when the observed bounds change.
type Box struct {
	outer     geom.Rect
	inner     geom.Rect
	minWidth  float64
	minHeight float64
}

// Snapshot is an independent copy of the box state handed to consumers.
type Snapshot struct {
	Inner geom.Rect
	Outer geom.Rect
}

// New builds a box for the given outer bounds. Minimum sizes are clamped
// into [0, outer width] and [0, outer height] so the constraints stay
// satisfiable. The inner rectangle starts equal to outer; when off is
// non-nil it is applied as four ordered clamped edge moves.
func New(outer geom.Rect, minWidth, minHeight float64, off *Offset) *Box {
	outer = outer.Canon()
	b := &Box{
		outer:     outer,
		inner:     outer,
		minWidth:  clampSize(minWidth, outer.Width()),
		minHeight: clampSize(minHeight, outer.Height()),
	}
	if off != nil {
		b.applyOffset(*off)
	}
	return b
}

// applyOffset places the inner rectangle per the descriptor. Each edge move
// clamps against the state left by the previous one, so the order is fixed:
// left, top, right, bottom.
func (b *Box) applyOffset(off Offset) {
	left, top, width, height := off.resolve(b.outer)
	b.MoveLeftEdge(b.outer.Left + left)
	b.MoveTopEdge(b.outer.Top + top)
	b.MoveRightEdge(b.outer.Left + left + width)
	b.MoveBottomEdge(b.outer.Top + top + height)
}

// MoveLeftEdge sets the inner left edge to x, clamped so the box stays
// inside the outer bounds and keeps at least the minimum width.
func (b *Box) MoveLeftEdge(x float64) {
	upper := b.inner.Right - b.minWidth
	if upper < b.outer.Left {
		upper = b.outer.Left
	}
	b.inner.Left = clamp(x, b.outer.Left, upper)
}

// MoveTopEdge sets the inner top edge to y, clamped like MoveLeftEdge on the
// vertical axis.
func (b *Box) MoveTopEdge(y float64) {
	upper := b.inner.Bottom - b.minHeight
	if upper < b.outer.Top {
		upper = b.outer.Top
	}
	b.inner.Top = clamp(y, b.outer.Top, upper)
}

// MoveRightEdge sets the inner right edge to x, clamped so the box stays
// inside the outer bounds and keeps at least the minimum width.
func (b *Box) MoveRightEdge(x float64) {
	lower := b.inner.Left + b.minWidth
	if lower > b.outer.Right {
		lower = b.outer.Right
	}
	b.inner.Right = clamp(x, lower, b.outer.Right)
}

// MoveBottomEdge sets the inner bottom edge to y, clamped like MoveRightEdge
// on the vertical axis.
func (b *Box) MoveBottomEdge(y float64) {
	lower := b.inner.Top + b.minHeight
	if lower > b.outer.Bottom {
		lower = b.outer.Bottom
	}
	b.inner.Bottom = clamp(y, lower, b.outer.Bottom)
}

// MoveX shifts the inner rectangle horizontally by dx. The delta itself is
// capped against the slack between inner and outer, so the size never
// changes even when the move is cut short.
func (b *Box) MoveX(dx float64) {
	if dx > 0 {
		if slack := b.outer.Right - b.inner.Right; dx > slack {
			dx = slack
		}
	} else if dx < 0 {
		if slack := b.outer.Left - b.inner.Left; dx < slack {
			dx = slack
		}
	}
	if dx == 0 {
		return
	}
	b.inner.Left += dx
	b.inner.Right += dx
}

// MoveY shifts the inner rectangle vertically by dy, capped like MoveX.
func (b *Box) MoveY(dy float64) {
	if dy > 0 {
		if slack := b.outer.Bottom - b.inner.Bottom; dy > slack {
			dy = slack
		}
	} else if dy < 0 {
		if slack := b.outer.Top - b.inner.Top; dy < slack {
			dy = slack
		}
	}
	if dy == 0 {
		return
	}
	b.inner.Top += dy
	b.inner.Bottom += dy
}

// Inner returns a copy of the inner rectangle.
func (b *Box) Inner() geom.Rect {
	return b.inner
}

// Outer returns a copy of the outer rectangle.
func (b *Box) Outer() geom.Rect {
	return b.outer
}

// MinWidth returns the minimum width after the construction clamp.
func (b *Box) MinWidth() float64 {
	return b.minWidth
}

// MinHeight returns the minimum height after the construction clamp.
func (b *Box) MinHeight() float64 {
	return b.minHeight
}

// Snapshot returns an independent copy of the inner and outer rectangles.
func (b *Box) Snapshot() Snapshot {
	return Snapshot{Inner: b.inner, Outer: b.outer}
}

// clamp keeps v inside [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// clampSize keeps a minimum size inside [0, limit].
func clampSize(v, limit float64) float64 {
	if v < 0 {
		return 0
	}
	if v > limit {
		return limit
	}
	return v
}
