// Package session owns the shared crop state and serializes every mutation
// of the box and drag machine behind one lock.
package session

import (
	"sync"

	"github.com/croprig/croprig/internal/broadcast"
	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/drag"
	"github.com/croprig/croprig/internal/frame"
	"github.com/croprig/croprig/internal/geom"
)

// EventKind labels a crop session event.
type EventKind string

const (
	// EventState announces a rebuilt box, on startup, new outer bounds, or
	// an applied placement.
	EventState EventKind = "state"
	// EventStart announces a gesture that began moving.
	EventStart EventKind = "start"
	// EventDrag carries a frame-throttled snapshot mid-gesture.
	EventDrag EventKind = "drag"
	// EventEnd announces a finished gesture.
	EventEnd EventKind = "end"
)

// Event carries a crop state change to subscribers. Listeners run inside
// the session lock and must not call back into the session.
type Event struct {
	Kind     EventKind
	Target   drag.Target
	Snapshot cropbox.Snapshot
}

// State is a read-only view of the current crop session.
type State struct {
	Authenticated bool
	Target        drag.Target
	MinWidth      float64
	MinHeight     float64
	Snapshot      cropbox.Snapshot
}

// Options configure a new session.
type Options struct {
	Password  string
	Outer     geom.Rect
	MinWidth  float64
	MinHeight float64
	Initial   *cropbox.Offset
	Frames    frame.Scheduler
}

// Session owns the crop box and its drag machine. All pointer traffic, box
// replacement, and scheduled frame fires funnel through the session lock,
// which is what lets the lock-free core stay single-writer.
type Session struct {
	mu        sync.RWMutex
	password  string
	authed    bool
	minWidth  float64
	minHeight float64
	initial   *cropbox.Offset
	frames    frame.Scheduler
	hub       hub
	box       *cropbox.Box
	dragger   *drag.Dragger
	unsub     func()
	events    *broadcast.Channel[Event]
	closed    bool
}

// New builds a session around an initial outer box.
func New(opts Options) *Session {
	frames := opts.Frames
	if frames == nil {
		frames = frame.NewInterval(frame.DefaultInterval)
	}
	s := &Session{
		password:  opts.Password,
		minWidth:  opts.MinWidth,
		minHeight: opts.MinHeight,
		initial:   opts.Initial,
		frames:    frames,
		events:    broadcast.New[Event](),
	}
	s.rebuildLocked(opts.Outer, opts.Initial)
	return s
}

// rebuildLocked replaces the box and dragger wholesale. An active gesture
// ends first, so subscribers always see end before the new state.
func (s *Session) rebuildLocked(outer geom.Rect, off *cropbox.Offset) {
	if s.dragger != nil {
		if s.unsub != nil {
			s.unsub()
			s.unsub = nil
		}
		s.dragger.Close()
	}
	s.box = cropbox.New(outer, s.minWidth, s.minHeight, off)
	d := drag.NewDragger(s.box, &s.hub, lockedFrames{s: s, inner: s.frames}, drag.Hooks{
		Start: func(t drag.Target) {
			s.events.Notify(Event{Kind: EventStart, Target: t, Snapshot: s.box.Snapshot()})
		},
		End: func(geom.Rect) {
			s.events.Notify(Event{Kind: EventEnd, Snapshot: s.box.Snapshot()})
		},
	})
	s.unsub = d.Subscribe(func(snap cropbox.Snapshot) {
		s.events.Notify(Event{Kind: EventDrag, Snapshot: snap})
	})
	s.dragger = d
	s.events.Notify(Event{Kind: EventState, Snapshot: s.box.Snapshot()})
}

// Subscribe registers a listener for session events.
func (s *Session) Subscribe(fn func(Event)) func() {
	return s.events.Subscribe(fn)
}

// SetOuter replaces the crop box when the announced bounds differ from the
// current ones, re-applying the configured placement. It reports whether a
// rebuild happened.
func (s *Session) SetOuter(outer geom.Rect) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if s.box.Outer().Equal(outer.Canon()) {
		return false
	}
	s.rebuildLocked(outer, s.initial)
	return true
}

// ApplyOffset rebuilds the box over the same outer bounds with a new
// placement, e.g. when the controller picks a preset. The placement also
// becomes the one re-applied on future outer changes.
func (s *Session) ApplyOffset(off cropbox.Offset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	o := off
	s.initial = &o
	s.rebuildLocked(s.box.Outer(), s.initial)
}

// PointerDown begins a gesture on target, or aborts the active gesture
// when a second pointer presses mid-drag.
func (s *Session) PointerDown(target drag.Target, id int64, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	ev := drag.PointerEvent{ID: id, X: x, Y: y}
	if s.hub.held {
		if s.hub.hooks.Down != nil {
			s.hub.hooks.Down(ev)
		}
		return
	}
	s.dragger.Begin(target, ev)
}

// PointerMove feeds a pointer sample to the captured gesture. Moves while
// idle are dropped, which is the scoped-listener contract: nothing listens
// between gestures.
func (s *Session) PointerMove(id int64, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.hub.held && s.hub.hooks.Move != nil {
		s.hub.hooks.Move(drag.PointerEvent{ID: id, X: x, Y: y})
	}
}

// PointerUp releases the captured gesture.
func (s *Session) PointerUp(id int64, x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.hub.held && s.hub.hooks.Up != nil {
		s.hub.hooks.Up(drag.PointerEvent{ID: id, X: x, Y: y})
	}
}

// CancelGesture aborts the active gesture, e.g. when the controller
// disconnects mid-drag.
func (s *Session) CancelGesture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.dragger.Cancel()
}

// State returns a copy of the current crop state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Authenticated: s.authed,
		Target:        s.dragger.Target(),
		MinWidth:      s.box.MinWidth(),
		MinHeight:     s.box.MinHeight(),
		Snapshot:      s.box.Snapshot(),
	}
}

// Snapshot returns a copy of the current inner and outer rectangles.
func (s *Session) Snapshot() cropbox.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.box.Snapshot()
}

// Authenticate validates the password and marks the session as authenticated.
func (s *Session) Authenticate(pass string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pass != "" && pass == s.password {
		s.authed = true
		return true
	}
	s.authed = false
	return false
}

// Logout clears authentication state.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authed = false
}

// IsAuthenticated reports whether the session is authenticated.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authed
}

// Close tears the session down. An active gesture ends first; no event
// fires after Close returns.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.dragger.Close()
	s.events.Close()
	s.closed = true
}

// hub is the input surface lent to the dragger. Capture, release, and the
// pointer feeds all run under the session lock, so per-gesture hook scoping
// is plain field assignment.
type hub struct {
	held  bool
	gen   int
	hooks drag.GestureHooks
}

// CaptureGesture attaches the hooks for one gesture. A stale release from
// an earlier capture does nothing.
func (h *hub) CaptureGesture(hooks drag.GestureHooks) func() {
	h.gen++
	gen := h.gen
	h.held = true
	h.hooks = hooks
	return func() {
		if !h.held || h.gen != gen {
			return
		}
		h.held = false
		h.hooks = drag.GestureHooks{}
	}
}

// lockedFrames re-enters the session lock before running a scheduled fire,
// keeping dragger state single-writer even with a timer-backed scheduler.
type lockedFrames struct {
	s     *Session
	inner frame.Scheduler
}

// Schedule wraps the fire with the session lock.
func (l lockedFrames) Schedule(fn func()) func() {
	return l.inner.Schedule(func() {
		l.s.mu.Lock()
		defer l.s.mu.Unlock()
		if l.s.closed {
			return
		}
		fn()
	})
}
