package cropbox

import (
	"math"

	"github.com/croprig/croprig/internal/geom"
)

// Unit selects how the offset values are interpreted.
type Unit string

const (
	// UnitPx takes offset values as device pixels.
	UnitPx Unit = "px"
	// UnitPercent resolves offset values against the outer box dimensions.
	UnitPercent Unit = "%"
)

// Offset places the initial inner rectangle within the outer box. Left and
// Top measure from the outer box origin, Width and Height give the intended
// inner size.
type Offset struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Unit   Unit    `json:"unit" yaml:"unit"`
}

// resolve converts the descriptor into pixel values against the outer box.
// Percent values are rounded to the nearest whole pixel; any unit other
// than percent is treated as pixels.
func (o Offset) resolve(outer geom.Rect) (left, top, width, height float64) {
	if o.Unit == UnitPercent {
		return math.Round(outer.Width() * o.Left / 100),
			math.Round(outer.Height() * o.Top / 100),
			math.Round(outer.Width() * o.Width / 100),
			math.Round(outer.Height() * o.Height / 100)
	}
	return o.Left, o.Top, o.Width, o.Height
}
