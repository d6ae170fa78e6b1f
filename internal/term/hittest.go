package term

import (
	"github.com/croprig/croprig/internal/drag"
	"github.com/croprig/croprig/internal/geom"
)

// HitTest resolves which drag target a point lands on: a corner when it is
// within band of two adjacent edges, an edge when within band of one, the
// area when inside the rectangle, and none otherwise.
func HitTest(inner geom.Rect, x, y, band float64) drag.Target {
	nearLeft := near(x, inner.Left, band)
	nearRight := near(x, inner.Right, band)
	nearTop := near(y, inner.Top, band)
	nearBottom := near(y, inner.Bottom, band)
	alongX := x >= inner.Left-band && x <= inner.Right+band
	alongY := y >= inner.Top-band && y <= inner.Bottom+band

	switch {
	case nearLeft && nearTop:
		return drag.TargetLeftTop
	case nearRight && nearTop:
		return drag.TargetRightTop
	case nearLeft && nearBottom:
		return drag.TargetLeftBottom
	case nearRight && nearBottom:
		return drag.TargetRightBottom
	case nearLeft && alongY:
		return drag.TargetLeft
	case nearRight && alongY:
		return drag.TargetRight
	case nearTop && alongX:
		return drag.TargetTop
	case nearBottom && alongX:
		return drag.TargetBottom
	case inner.ContainsPoint(x, y):
		return drag.TargetArea
	default:
		return drag.TargetNone
	}
}

// near reports whether v is within band of edge.
func near(v, edge, band float64) bool {
	d := v - edge
	return d >= -band && d <= band
}
