package cropbox

import (
	"testing"

	"github.com/croprig/croprig/internal/geom"
)

// TestOffset_PercentPlacement verifies percent values resolve against the
// outer dimensions and land on whole pixels.
func TestOffset_PercentPlacement(t *testing.T) {
	off := &Offset{Left: 25, Top: 25, Width: 50, Height: 50, Unit: UnitPercent}
	b := New(geom.Rect{Left: 0, Top: 0, Right: 200, Bottom: 100}, 0, 0, off)
	want := geom.Rect{Left: 50, Top: 25, Right: 150, Bottom: 75}
	if !b.Inner().Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, b.Inner())
	}
}

// TestOffset_PercentRounding verifies fractional percent results round to
// the nearest pixel.
func TestOffset_PercentRounding(t *testing.T) {
	off := &Offset{Left: 33.3333, Top: 0, Width: 33.3333, Height: 100, Unit: UnitPercent}
	b := New(geom.Rect{Left: 0, Top: 0, Right: 100, Bottom: 10}, 0, 0, off)
	in := b.Inner()
	if in.Left != 33 || in.Right != 66 {
		t.Fatalf("expected rounded edges 33 and 66, got %+v", in)
	}
}

// TestOffset_PixelPlacement verifies pixel values apply as-is against a
// non-zero outer origin.
func TestOffset_PixelPlacement(t *testing.T) {
	off := &Offset{Left: 10, Top: 20, Width: 30, Height: 40, Unit: UnitPx}
	b := New(geom.Rect{Left: 100, Top: 200, Right: 300, Bottom: 400}, 0, 0, off)
	want := geom.Rect{Left: 110, Top: 220, Right: 140, Bottom: 260}
	if !b.Inner().Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, b.Inner())
	}
}

// TestOffset_UnknownUnitFallsBackToPixels verifies any other unit string is
// read as pixels.
func TestOffset_UnknownUnitFallsBackToPixels(t *testing.T) {
	off := &Offset{Left: 5, Top: 5, Width: 10, Height: 10, Unit: "em"}
	b := New(geom.Rect{Left: 0, Top: 0, Right: 100, Bottom: 100}, 0, 0, off)
	want := geom.Rect{Left: 5, Top: 5, Right: 15, Bottom: 15}
	if !b.Inner().Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, b.Inner())
	}
}

// TestOffset_OversizeDegradesGracefully verifies an offset larger than the
// outer box clamps instead of failing.
func TestOffset_OversizeDegradesGracefully(t *testing.T) {
	off := &Offset{Left: -50, Top: -50, Width: 500, Height: 500, Unit: UnitPx}
	b := New(geom.Rect{Left: 0, Top: 0, Right: 200, Bottom: 100}, 0, 0, off)
	if !b.Inner().Equal(b.Outer()) {
		t.Fatalf("expected inner to fill outer, got %+v", b.Inner())
	}
}

// TestOffset_OrderMatters verifies the right edge clamps against the
// already-moved left edge, not the original one.
func TestOffset_OrderMatters(t *testing.T) {
	off := &Offset{Left: 150, Top: 0, Width: 200, Height: 100, Unit: UnitPx}
	b := New(geom.Rect{Left: 0, Top: 0, Right: 200, Bottom: 100}, 80, 0, off)
	in := b.Inner()
	if in.Left != 120 {
		t.Fatalf("expected left edge held at 120 by the minimum width, got %+v", in)
	}
	if in.Right != 200 {
		t.Fatalf("expected right edge clamped to the outer bound, got %+v", in)
	}
}
