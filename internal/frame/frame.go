// Package frame schedules deferred work on frame boundaries, decoupling
// per-move state updates from per-frame delivery.
package frame

import "time"

// DefaultInterval approximates one display frame.
const DefaultInterval = 16 * time.Millisecond

// Scheduler runs a function at the next frame boundary. Cancel is best
// effort: an already-fired or in-flight function may still run, so callers
// keep their own armed flag and ignore stale fires.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// SchedulerFunc adapts a plain function to the Scheduler interface.
type SchedulerFunc func(fn func()) (cancel func())

// Schedule calls the wrapped function.
func (f SchedulerFunc) Schedule(fn func()) (cancel func()) {
	return f(fn)
}

// Interval is a timer-backed scheduler. Scheduled functions fire on the
// timer goroutine; hosts that need single-threaded delivery wrap the
// scheduler so fires re-enter their own loop.
type Interval struct {
	d time.Duration
}

// NewInterval returns a scheduler firing after d. A non-positive d falls
// back to DefaultInterval.
func NewInterval(d time.Duration) *Interval {
	if d <= 0 {
		d = DefaultInterval
	}
	return &Interval{d: d}
}

// Schedule arms a timer for the next frame boundary.
func (i *Interval) Schedule(fn func()) (cancel func()) {
	t := time.AfterFunc(i.d, fn)
	return func() { t.Stop() }
}
