package drag

import (
	"github.com/croprig/croprig/internal/broadcast"
	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/frame"
	"github.com/croprig/croprig/internal/geom"
)

// PointerEvent is one pointer sample handed in by an input surface.
type PointerEvent struct {
	ID int64
	X  float64
	Y  float64
}

// GestureHooks receives the pointer traffic of one captured gesture. Down
// reports additional presses that appear while the gesture is held.
type GestureHooks struct {
	Move func(PointerEvent)
	Up   func(PointerEvent)
	Down func(PointerEvent)
}

// Surface is the input capability a host lends to the drag machine. Capture
// scopes the hooks to one gesture; the returned release detaches them and
// must be safe to call more than once.
type Surface interface {
	CaptureGesture(hooks GestureHooks) (release func())
}

// Hooks are the owner's lifecycle callbacks. Start fires on the first move
// of a gesture, not on the press. Drag fires synchronously on every applied
// move and End exactly once per started gesture; both carry the inner
// rectangle relative to the outer origin. Any field may be nil.
type Hooks struct {
	Start func(Target)
	Drag  func(geom.Rect)
	End   func(geom.Rect)
}

// Dragger is the drag state machine: idle until Begin, then dragging until
// the pointer is released, the gesture is aborted by a second press, or the
// host cancels. All crop box mutation funnels through here.
//
// A Dragger is not safe for concurrent use. The host serializes Begin,
// Cancel, Close, the surface hooks, and scheduled frame fires on one
// goroutine or under one lock.
type Dragger struct {
	box     *cropbox.Box
	surface Surface
	frames  frame.Scheduler
	hooks   Hooks
	events  *broadcast.Channel[cropbox.Snapshot]

	tracker     Tracker
	moves       []edgeMove
	pointer     int64
	release     func()
	started     bool
	frameArmed  bool
	cancelFrame func()
	pending     cropbox.Snapshot
	closed      bool
}

// NewDragger wires the state machine to its box, input surface and frame
// scheduler. A nil scheduler falls back to the default timer interval.
func NewDragger(box *cropbox.Box, surface Surface, frames frame.Scheduler, hooks Hooks) *Dragger {
	if frames == nil {
		frames = frame.NewInterval(frame.DefaultInterval)
	}
	return &Dragger{
		box:     box,
		surface: surface,
		frames:  frames,
		hooks:   hooks,
		events:  broadcast.New[cropbox.Snapshot](),
	}
}

// Subscribe registers a listener for frame-throttled snapshots of the box.
func (d *Dragger) Subscribe(fn func(cropbox.Snapshot)) func() {
	return d.events.Subscribe(fn)
}

// Target returns the target of the active gesture, or TargetNone when idle.
func (d *Dragger) Target() Target {
	return d.tracker.Target()
}

// Begin starts a gesture for target at the pressed pointer position. It is
// ignored while another gesture is active, after Close, and for targets
// that are not a handle or the area. The start notification waits for the
// first move so a plain click never counts as a drag.
func (d *Dragger) Begin(target Target, ev PointerEvent) {
	if d.closed || d.tracker.Target() != TargetNone {
		return
	}
	if _, ok := ParseTarget(string(target)); !ok {
		return
	}
	d.tracker.Start(target, ev.X, ev.Y)
	d.moves = targetEdges[target]
	d.pointer = ev.ID
	d.started = false
	d.release = d.surface.CaptureGesture(GestureHooks{
		Move: d.handleMove,
		Up:   d.handleUp,
		Down: d.handleDown,
	})
}

// Cancel aborts the active gesture as if the pointer had been released.
func (d *Dragger) Cancel() {
	d.finish()
}

// Close cancels any gesture and shuts the snapshot channel. No callback or
// broadcast fires after Close returns.
func (d *Dragger) Close() {
	d.finish()
	d.closed = true
	d.events.Close()
}

// handleMove applies one pointer sample to the box and notifies consumers.
func (d *Dragger) handleMove(ev PointerEvent) {
	target := d.tracker.Target()
	if target == TargetNone || ev.ID != d.pointer {
		return
	}
	if !d.started {
		d.started = true
		if d.hooks.Start != nil {
			d.hooks.Start(target)
		}
	}
	dx, dy := d.tracker.Move(ev.X, ev.Y)
	if target == TargetArea {
		d.box.MoveX(dx)
		d.box.MoveY(dy)
	} else {
		for _, mv := range d.moves {
			mv(d.box, ev.X, ev.Y)
		}
	}
	if d.hooks.Drag != nil {
		d.hooks.Drag(d.relativeInner())
	}
	d.armBroadcast()
}

// handleUp ends the gesture when the tracked pointer is released.
func (d *Dragger) handleUp(ev PointerEvent) {
	if d.tracker.Target() == TargetNone || ev.ID != d.pointer {
		return
	}
	d.finish()
}

// handleDown aborts the gesture when another press arrives mid-drag. A
// second concurrent touch is rejected, not merged.
func (d *Dragger) handleDown(ev PointerEvent) {
	if d.tracker.Target() == TargetNone {
		return
	}
	d.finish()
}

// finish releases the capture, disarms the pending frame and, for a gesture
// that actually moved, fires the end notification exactly once.
func (d *Dragger) finish() {
	if d.tracker.Target() == TargetNone {
		return
	}
	d.disarmFrame()
	if d.release != nil {
		d.release()
		d.release = nil
	}
	started := d.started
	d.started = false
	d.moves = nil
	d.tracker.Reset()
	if started && d.hooks.End != nil {
		d.hooks.End(d.relativeInner())
	}
}

// armBroadcast stores the latest snapshot and schedules at most one frame
// fire for it.
func (d *Dragger) armBroadcast() {
	d.pending = d.box.Snapshot()
	if d.frameArmed {
		return
	}
	d.frameArmed = true
	d.cancelFrame = d.frames.Schedule(d.fireFrame)
}

// fireFrame publishes the pending snapshot unless the frame was disarmed in
// the meantime; the armed flag is the exact gate, scheduler cancellation is
// only best effort.
func (d *Dragger) fireFrame() {
	if !d.frameArmed {
		return
	}
	d.frameArmed = false
	d.cancelFrame = nil
	d.events.Notify(d.pending)
}

// disarmFrame cancels the pending frame fire.
func (d *Dragger) disarmFrame() {
	d.frameArmed = false
	if d.cancelFrame != nil {
		d.cancelFrame()
		d.cancelFrame = nil
	}
}

// relativeInner returns the inner rectangle re-expressed against the outer
// origin, the shape the lifecycle callbacks carry.
func (d *Dragger) relativeInner() geom.Rect {
	return d.box.Inner().RelativeTo(d.box.Outer())
}
