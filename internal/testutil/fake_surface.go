package testutil

import "github.com/croprig/croprig/internal/drag"

// FakeSurface implements drag.Surface and lets tests feed pointer events to
// the captured hooks by hand.
type FakeSurface struct {
	Captures int
	Releases int
	gen      int
	held     bool
	hooks    drag.GestureHooks
}

// Ensure FakeSurface implements the interface.
var _ drag.Surface = (*FakeSurface)(nil)

// CaptureGesture stores the hooks and returns a release that detaches them.
// A stale release from an earlier capture does nothing.
func (s *FakeSurface) CaptureGesture(hooks drag.GestureHooks) func() {
	s.Captures++
	s.gen++
	gen := s.gen
	s.held = true
	s.hooks = hooks
	return func() {
		if !s.held || s.gen != gen {
			return
		}
		s.held = false
		s.hooks = drag.GestureHooks{}
		s.Releases++
	}
}

// Held reports whether a gesture currently holds the surface.
func (s *FakeSurface) Held() bool {
	return s.held
}

// Move feeds a pointer move to the captured hooks.
func (s *FakeSurface) Move(ev drag.PointerEvent) {
	if s.held && s.hooks.Move != nil {
		s.hooks.Move(ev)
	}
}

// Up feeds a pointer release to the captured hooks.
func (s *FakeSurface) Up(ev drag.PointerEvent) {
	if s.held && s.hooks.Up != nil {
		s.hooks.Up(ev)
	}
}

// Down feeds an extra pointer press to the captured hooks.
func (s *FakeSurface) Down(ev drag.PointerEvent) {
	if s.held && s.hooks.Down != nil {
		s.hooks.Down(ev)
	}
}
