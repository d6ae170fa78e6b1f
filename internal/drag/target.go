// Package drag turns raw pointer gestures into clamped crop box moves and
// lifecycle notifications.
package drag

import "github.com/croprig/croprig/internal/cropbox"

// Target identifies what part of the crop box a gesture manipulates: one of
// the eight resize handles, the whole area, or nothing.
type Target string

const (
	// TargetNone means no gesture is active.
	TargetNone Target = ""
	// TargetLeft drags the left edge.
	TargetLeft Target = "left"
	// TargetTop drags the top edge.
	TargetTop Target = "top"
	// TargetRight drags the right edge.
	TargetRight Target = "right"
	// TargetBottom drags the bottom edge.
	TargetBottom Target = "bottom"
	// TargetLeftTop drags the top-left corner.
	TargetLeftTop Target = "left-top"
	// TargetRightTop drags the top-right corner.
	TargetRightTop Target = "right-top"
	// TargetLeftBottom drags the bottom-left corner.
	TargetLeftBottom Target = "left-bottom"
	// TargetRightBottom drags the bottom-right corner.
	TargetRightBottom Target = "right-bottom"
	// TargetArea drags the whole rectangle.
	TargetArea Target = "area"
)

// edgeMove applies one absolute pointer coordinate to one box edge.
type edgeMove func(b *cropbox.Box, x, y float64)

// targetEdges decomposes each handle into its constituent edge moves.
// Corners carry two entries; TargetArea is absent because translation goes
// through the delta path instead.
var targetEdges = map[Target][]edgeMove{
	TargetLeft:        {moveLeft},
	TargetTop:         {moveTop},
	TargetRight:       {moveRight},
	TargetBottom:      {moveBottom},
	TargetLeftTop:     {moveLeft, moveTop},
	TargetRightTop:    {moveRight, moveTop},
	TargetLeftBottom:  {moveLeft, moveBottom},
	TargetRightBottom: {moveRight, moveBottom},
}

// moveLeft applies the pointer x to the left edge.
func moveLeft(b *cropbox.Box, x, _ float64) { b.MoveLeftEdge(x) }

// moveTop applies the pointer y to the top edge.
func moveTop(b *cropbox.Box, _, y float64) { b.MoveTopEdge(y) }

// moveRight applies the pointer x to the right edge.
func moveRight(b *cropbox.Box, x, _ float64) { b.MoveRightEdge(x) }

// moveBottom applies the pointer y to the bottom edge.
func moveBottom(b *cropbox.Box, _, y float64) { b.MoveBottomEdge(y) }

// ParseTarget maps a wire token to a Target. Unknown tokens report false.
func ParseTarget(s string) (Target, bool) {
	t := Target(s)
	if t == TargetArea {
		return t, true
	}
	if _, ok := targetEdges[t]; ok {
		return t, true
	}
	return TargetNone, false
}

// String returns the wire token for the target.
func (t Target) String() string {
	return string(t)
}
