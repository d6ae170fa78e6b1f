// Package monitor describes display geometry and enumeration.
package monitor

import (
	"errors"
	"image"
)

// ErrUnsupported marks platforms without native display enumeration.
// Callers fall back to configured screen dimensions.
var ErrUnsupported = errors.New("display enumeration unsupported on this platform")

// Monitor describes a display and its bounds in the virtual desktop.
type Monitor struct {
	Index   int
	X       int
	Y       int
	W       int
	H       int
	Primary bool
}

// Rect returns the monitor-local pixel grid anchored at the origin. Crop
// selections map onto this grid; the capture pipeline re-applies X and Y.
func (m Monitor) Rect() image.Rectangle {
	return image.Rect(0, 0, m.W, m.H)
}

// GetMonitorByIndex returns the monitor matching the 1-based index.
func GetMonitorByIndex(list []Monitor, idx int) (Monitor, bool) {
	for _, m := range list {
		if m.Index == idx {
			return m, true
		}
	}
	return Monitor{}, false
}

// Primary returns the primary monitor, falling back to the first entry.
func Primary(list []Monitor) (Monitor, bool) {
	for _, m := range list {
		if m.Primary {
			return m, true
		}
	}
	if len(list) > 0 {
		return list[0], true
	}
	return Monitor{}, false
}
