package drag

import (
	"testing"

	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/geom"
)

// fakeSurface drives the captured hooks by hand.
type fakeSurface struct {
	captures int
	releases int
	held     bool
	hooks    GestureHooks
}

// CaptureGesture stores the hooks and returns a release that detaches them.
func (s *fakeSurface) CaptureGesture(hooks GestureHooks) func() {
	s.captures++
	s.held = true
	s.hooks = hooks
	return func() {
		if !s.held {
			return
		}
		s.held = false
		s.hooks = GestureHooks{}
		s.releases++
	}
}

// move feeds a pointer move while the surface is held.
func (s *fakeSurface) move(ev PointerEvent) {
	if s.hooks.Move != nil {
		s.hooks.Move(ev)
	}
}

// up feeds a pointer release while the surface is held.
func (s *fakeSurface) up(ev PointerEvent) {
	if s.hooks.Up != nil {
		s.hooks.Up(ev)
	}
}

// down feeds an extra pointer press while the surface is held.
func (s *fakeSurface) down(ev PointerEvent) {
	if s.hooks.Down != nil {
		s.hooks.Down(ev)
	}
}

// fakeFrames collects scheduled fires for manual frame advancement. Cancel
// only counts; it deliberately leaves the function queued so tests prove
// the dragger's own armed gate, not the scheduler's cancellation.
type fakeFrames struct {
	scheduled int
	cancelled int
	pending   []func()
}

// Schedule queues fn until the next fire.
func (f *fakeFrames) Schedule(fn func()) func() {
	f.scheduled++
	f.pending = append(f.pending, fn)
	done := false
	return func() {
		if !done {
			done = true
			f.cancelled++
		}
	}
}

// fire runs everything queued so far as one frame boundary.
func (f *fakeFrames) fire() {
	pending := f.pending
	f.pending = nil
	for _, fn := range pending {
		fn()
	}
}

// hookRecord collects lifecycle callback firings.
type hookRecord struct {
	starts []Target
	drags  []geom.Rect
	ends   []geom.Rect
}

// hooks returns Hooks wired to the record.
func (r *hookRecord) hooks() Hooks {
	return Hooks{
		Start: func(t Target) { r.starts = append(r.starts, t) },
		Drag:  func(rc geom.Rect) { r.drags = append(r.drags, rc) },
		End:   func(rc geom.Rect) { r.ends = append(r.ends, rc) },
	}
}

// newTestDragger builds a dragger over a 200x100 outer box with the inner
// box placed at {50,25,150,75}.
func newTestDragger(t *testing.T) (*Dragger, *cropbox.Box, *fakeSurface, *fakeFrames, *hookRecord) {
	t.Helper()
	off := &cropbox.Offset{Left: 25, Top: 25, Width: 50, Height: 50, Unit: cropbox.UnitPercent}
	box := cropbox.New(geom.Rect{Left: 0, Top: 0, Right: 200, Bottom: 100}, 0, 0, off)
	surface := &fakeSurface{}
	frames := &fakeFrames{}
	rec := &hookRecord{}
	d := NewDragger(box, surface, frames, rec.hooks())
	return d, box, surface, frames, rec
}

// TestDragger_LazyStartAndSyncDrag verifies start waits for the first move
// and the drag callback fires on every applied move.
func TestDragger_LazyStartAndSyncDrag(t *testing.T) {
	d, box, surface, _, rec := newTestDragger(t)
	d.Begin(TargetRight, PointerEvent{ID: 1, X: 150, Y: 50})
	if len(rec.starts) != 0 {
		t.Fatalf("expected no start on press, got %#v", rec.starts)
	}
	surface.move(PointerEvent{ID: 1, X: 160, Y: 50})
	if len(rec.starts) != 1 || rec.starts[0] != TargetRight {
		t.Fatalf("expected one start for the right handle, got %#v", rec.starts)
	}
	if box.Inner().Right != 160 {
		t.Fatalf("expected right edge at 160, got %+v", box.Inner())
	}
	surface.move(PointerEvent{ID: 1, X: 170, Y: 50})
	if len(rec.starts) != 1 {
		t.Fatalf("expected start to fire once, got %#v", rec.starts)
	}
	if len(rec.drags) != 2 {
		t.Fatalf("expected a drag callback per move, got %d", len(rec.drags))
	}
}

// TestDragger_ClickWithoutMove verifies a press and release with no move in
// between fires neither start nor end but still releases the surface.
func TestDragger_ClickWithoutMove(t *testing.T) {
	d, _, surface, _, rec := newTestDragger(t)
	d.Begin(TargetArea, PointerEvent{ID: 1, X: 100, Y: 50})
	surface.up(PointerEvent{ID: 1, X: 100, Y: 50})
	if len(rec.starts) != 0 || len(rec.ends) != 0 {
		t.Fatalf("expected no notifications for a plain click, got %#v %#v", rec.starts, rec.ends)
	}
	if surface.releases != 1 {
		t.Fatalf("expected the capture to be released, got %d", surface.releases)
	}
	if d.Target() != TargetNone {
		t.Fatalf("expected idle state, got %q", d.Target())
	}
}

// TestDragger_SecondBeginIgnored verifies a drag start during an active
// gesture changes neither the target nor the tracked origin.
func TestDragger_SecondBeginIgnored(t *testing.T) {
	d, box, surface, _, _ := newTestDragger(t)
	d.Begin(TargetArea, PointerEvent{ID: 1, X: 100, Y: 50})
	d.Begin(TargetRight, PointerEvent{ID: 9, X: 0, Y: 0})
	if d.Target() != TargetArea {
		t.Fatalf("expected the first target to win, got %q", d.Target())
	}
	if surface.captures != 1 {
		t.Fatalf("expected a single capture, got %d", surface.captures)
	}
	surface.move(PointerEvent{ID: 1, X: 110, Y: 60})
	want := geom.Rect{Left: 60, Top: 35, Right: 160, Bottom: 85}
	if !box.Inner().Equal(want) {
		t.Fatalf("expected delta from the first origin, want %+v got %+v", want, box.Inner())
	}
}

// TestDragger_AreaUsesDeltas verifies area drags translate by incremental
// pointer deltas.
func TestDragger_AreaUsesDeltas(t *testing.T) {
	d, box, surface, _, _ := newTestDragger(t)
	d.Begin(TargetArea, PointerEvent{ID: 1, X: 100, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 120, Y: 40})
	want := geom.Rect{Left: 70, Top: 15, Right: 170, Bottom: 65}
	if !box.Inner().Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, box.Inner())
	}
	surface.move(PointerEvent{ID: 1, X: 115, Y: 45})
	want = geom.Rect{Left: 65, Top: 20, Right: 165, Bottom: 70}
	if !box.Inner().Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, box.Inner())
	}
}

// TestDragger_CornerMovesTwoEdges verifies a corner handle drives both of
// its edges and leaves the others alone.
func TestDragger_CornerMovesTwoEdges(t *testing.T) {
	d, box, surface, _, _ := newTestDragger(t)
	d.Begin(TargetLeftTop, PointerEvent{ID: 1, X: 50, Y: 25})
	surface.move(PointerEvent{ID: 1, X: 70, Y: 40})
	want := geom.Rect{Left: 70, Top: 40, Right: 150, Bottom: 75}
	if !box.Inner().Equal(want) {
		t.Fatalf("expected %+v, got %+v", want, box.Inner())
	}
}

// TestDragger_EdgeUsesAbsoluteCoordinate verifies edge handles take the
// pointer position itself, clamped, not a delta.
func TestDragger_EdgeUsesAbsoluteCoordinate(t *testing.T) {
	d, box, surface, _, _ := newTestDragger(t)
	d.Begin(TargetRight, PointerEvent{ID: 1, X: 150, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 10, Y: 50})
	if box.Inner().Right != 50 {
		t.Fatalf("expected right edge clamped to the left edge, got %+v", box.Inner())
	}
}

// TestDragger_UpEndsGestureOnce verifies release fires a single end with
// the final rectangle and returns the machine to idle.
func TestDragger_UpEndsGestureOnce(t *testing.T) {
	d, box, surface, _, rec := newTestDragger(t)
	d.Begin(TargetRight, PointerEvent{ID: 1, X: 150, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 160, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 170, Y: 50})
	surface.up(PointerEvent{ID: 1, X: 170, Y: 50})
	if len(rec.ends) != 1 {
		t.Fatalf("expected one end, got %d", len(rec.ends))
	}
	want := box.Inner().RelativeTo(box.Outer())
	if !rec.ends[0].Equal(want) {
		t.Fatalf("expected end with %+v, got %+v", want, rec.ends[0])
	}
	if surface.releases != 1 || d.Target() != TargetNone {
		t.Fatalf("expected released idle machine, got releases=%d target=%q", surface.releases, d.Target())
	}
}

// TestDragger_IgnoresOtherPointers verifies moves and releases from a
// pointer other than the one that started the gesture do nothing.
func TestDragger_IgnoresOtherPointers(t *testing.T) {
	d, box, surface, _, rec := newTestDragger(t)
	d.Begin(TargetRight, PointerEvent{ID: 1, X: 150, Y: 50})
	before := box.Inner()
	surface.move(PointerEvent{ID: 2, X: 10, Y: 10})
	if !box.Inner().Equal(before) || len(rec.drags) != 0 {
		t.Fatalf("expected foreign move to be ignored, got %+v", box.Inner())
	}
	surface.up(PointerEvent{ID: 2, X: 10, Y: 10})
	if d.Target() != TargetRight {
		t.Fatalf("expected gesture to survive a foreign release, got %q", d.Target())
	}
	surface.up(PointerEvent{ID: 1, X: 150, Y: 50})
	if d.Target() != TargetNone {
		t.Fatalf("expected idle after the tracked pointer released")
	}
}

// TestDragger_SecondTouchAborts verifies an extra press mid-drag forces a
// release with exactly one end and no further drag callbacks.
func TestDragger_SecondTouchAborts(t *testing.T) {
	d, _, surface, _, rec := newTestDragger(t)
	d.Begin(TargetArea, PointerEvent{ID: 1, X: 100, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 110, Y: 50})
	stale := surface.hooks
	surface.down(PointerEvent{ID: 2, X: 5, Y: 5})
	if len(rec.ends) != 1 {
		t.Fatalf("expected exactly one end, got %d", len(rec.ends))
	}
	if surface.releases != 1 || d.Target() != TargetNone {
		t.Fatalf("expected released idle machine, got releases=%d target=%q", surface.releases, d.Target())
	}
	stale.Move(PointerEvent{ID: 1, X: 120, Y: 50})
	if len(rec.drags) != 1 {
		t.Fatalf("expected no drags after the abort, got %d", len(rec.drags))
	}
	d.Begin(TargetArea, PointerEvent{ID: 3, X: 100, Y: 50})
	if surface.captures != 2 {
		t.Fatalf("expected a fresh capture to work, got %d", surface.captures)
	}
}

// TestDragger_FrameCoalescing verifies a burst of moves arms one frame and
// the fire carries the state of the last move.
func TestDragger_FrameCoalescing(t *testing.T) {
	d, box, surface, frames, _ := newTestDragger(t)
	var snaps []cropbox.Snapshot
	d.Subscribe(func(s cropbox.Snapshot) { snaps = append(snaps, s) })
	d.Begin(TargetRight, PointerEvent{ID: 1, X: 150, Y: 50})
	for x := 151; x <= 155; x++ {
		surface.move(PointerEvent{ID: 1, X: float64(x), Y: 50})
	}
	if frames.scheduled != 1 {
		t.Fatalf("expected one armed frame for the burst, got %d", frames.scheduled)
	}
	frames.fire()
	if len(snaps) != 1 {
		t.Fatalf("expected one coalesced snapshot, got %d", len(snaps))
	}
	if !snaps[0].Inner.Equal(box.Inner()) {
		t.Fatalf("expected the last state %+v, got %+v", box.Inner(), snaps[0].Inner)
	}
	surface.move(PointerEvent{ID: 1, X: 160, Y: 50})
	if frames.scheduled != 2 {
		t.Fatalf("expected a new frame after the fire, got %d", frames.scheduled)
	}
}

// TestDragger_EndDisarmsPendingFrame verifies a fire arriving after the
// gesture ended publishes nothing.
func TestDragger_EndDisarmsPendingFrame(t *testing.T) {
	d, _, surface, frames, _ := newTestDragger(t)
	var snaps []cropbox.Snapshot
	d.Subscribe(func(s cropbox.Snapshot) { snaps = append(snaps, s) })
	d.Begin(TargetRight, PointerEvent{ID: 1, X: 150, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 160, Y: 50})
	surface.up(PointerEvent{ID: 1, X: 160, Y: 50})
	if frames.cancelled != 1 {
		t.Fatalf("expected the armed frame to be cancelled, got %d", frames.cancelled)
	}
	frames.fire()
	if len(snaps) != 0 {
		t.Fatalf("expected no snapshot after the gesture ended, got %d", len(snaps))
	}
}

// TestDragger_CancelActsLikeRelease verifies a host-side cancel matches the
// pointer-up teardown.
func TestDragger_CancelActsLikeRelease(t *testing.T) {
	d, _, surface, _, rec := newTestDragger(t)
	d.Begin(TargetArea, PointerEvent{ID: 1, X: 100, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 110, Y: 55})
	d.Cancel()
	if len(rec.ends) != 1 {
		t.Fatalf("expected one end from cancel, got %d", len(rec.ends))
	}
	if surface.releases != 1 || d.Target() != TargetNone {
		t.Fatalf("expected released idle machine, got releases=%d target=%q", surface.releases, d.Target())
	}
	d.Cancel()
	if len(rec.ends) != 1 {
		t.Fatalf("expected cancel on idle to do nothing, got %d ends", len(rec.ends))
	}
}

// TestDragger_CloseSilencesEverything verifies nothing fires after close
// and new gestures are refused.
func TestDragger_CloseSilencesEverything(t *testing.T) {
	d, _, surface, frames, rec := newTestDragger(t)
	var snaps []cropbox.Snapshot
	d.Subscribe(func(s cropbox.Snapshot) { snaps = append(snaps, s) })
	d.Begin(TargetRight, PointerEvent{ID: 1, X: 150, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 160, Y: 50})
	d.Close()
	if len(rec.ends) != 1 {
		t.Fatalf("expected the active gesture to end during close, got %d", len(rec.ends))
	}
	frames.fire()
	if len(snaps) != 0 {
		t.Fatalf("expected no snapshot after close, got %d", len(snaps))
	}
	d.Begin(TargetArea, PointerEvent{ID: 2, X: 100, Y: 50})
	if surface.captures != 1 {
		t.Fatalf("expected no capture after close, got %d", surface.captures)
	}
}

// TestDragger_RelativeRect verifies lifecycle callbacks re-express the
// inner rectangle against the outer origin.
func TestDragger_RelativeRect(t *testing.T) {
	box := cropbox.New(geom.Rect{Left: 100, Top: 200, Right: 300, Bottom: 400}, 0, 0, nil)
	surface := &fakeSurface{}
	rec := &hookRecord{}
	d := NewDragger(box, surface, &fakeFrames{}, rec.hooks())
	d.Begin(TargetLeft, PointerEvent{ID: 1, X: 100, Y: 300})
	surface.move(PointerEvent{ID: 1, X: 150, Y: 300})
	want := geom.Rect{Left: 50, Top: 0, Right: 200, Bottom: 200}
	if len(rec.drags) != 1 || !rec.drags[0].Equal(want) {
		t.Fatalf("expected relative rect %+v, got %#v", want, rec.drags)
	}
}

// TestDragger_UnsubscribeStopsSnapshots verifies a removed listener misses
// later frames.
func TestDragger_UnsubscribeStopsSnapshots(t *testing.T) {
	d, _, surface, frames, _ := newTestDragger(t)
	var snaps int
	unsub := d.Subscribe(func(cropbox.Snapshot) { snaps++ })
	d.Begin(TargetRight, PointerEvent{ID: 1, X: 150, Y: 50})
	surface.move(PointerEvent{ID: 1, X: 160, Y: 50})
	frames.fire()
	unsub()
	surface.move(PointerEvent{ID: 1, X: 170, Y: 50})
	frames.fire()
	if snaps != 1 {
		t.Fatalf("expected one snapshot before unsubscribe, got %d", snaps)
	}
}

// TestDragger_BeginRejectsUnknownTarget verifies TargetNone and garbage
// never capture the surface.
func TestDragger_BeginRejectsUnknownTarget(t *testing.T) {
	d, _, surface, _, _ := newTestDragger(t)
	d.Begin(TargetNone, PointerEvent{ID: 1, X: 0, Y: 0})
	d.Begin(Target("diagonal"), PointerEvent{ID: 1, X: 0, Y: 0})
	if surface.captures != 0 {
		t.Fatalf("expected no capture for invalid targets, got %d", surface.captures)
	}
}
