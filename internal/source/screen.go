// Package source provides the content being cropped.
package source

import (
	"context"
	"fmt"
	"image"

	"github.com/croprig/croprig/internal/geom"
	"github.com/croprig/croprig/internal/monitor"
)

// FrameGrabber captures a single still from the display pipeline.
type FrameGrabber func(ctx context.Context) (image.Image, error)

// Screen is a live display used as crop content. Bounds come from the
// monitor layout; stills are delegated to the capture pipeline.
type Screen struct {
	mon  monitor.Monitor
	grab FrameGrabber
}

// NewScreen wraps a monitor and an optional still grabber.
func NewScreen(mon monitor.Monitor, grab FrameGrabber) *Screen {
	return &Screen{mon: mon, grab: grab}
}

// Kind names the source flavor.
func (s *Screen) Kind() string {
	return "screen"
}

// Bounds returns the monitor rectangle anchored at the origin. Crop
// coordinates stay monitor-local; the capture pipeline re-applies the
// monitor offset.
func (s *Screen) Bounds() geom.Rect {
	return geom.FromSize(0, 0, float64(s.mon.W), float64(s.mon.H))
}

// Monitor returns the underlying display.
func (s *Screen) Monitor() monitor.Monitor {
	return s.mon
}

// Frame captures a still via the grabber.
func (s *Screen) Frame(ctx context.Context) (image.Image, error) {
	if s.grab == nil {
		return nil, fmt.Errorf("screen source has no still grabber")
	}
	return s.grab(ctx)
}
