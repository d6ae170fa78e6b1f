package testutil

import "github.com/croprig/croprig/internal/frame"

// frameEntry is one scheduled fire waiting for the next fake frame.
type frameEntry struct {
	id int
	fn func()
}

// FakeScheduler implements frame.Scheduler with manual frame advancement so
// tests control exactly when a frame boundary happens.
type FakeScheduler struct {
	Scheduled int
	Cancelled int
	nextID    int
	pending   []frameEntry
}

// Ensure FakeScheduler implements the interface.
var _ frame.Scheduler = (*FakeScheduler)(nil)

// Schedule queues fn for the next Fire and returns its cancel.
func (s *FakeScheduler) Schedule(fn func()) func() {
	s.Scheduled++
	s.nextID++
	id := s.nextID
	s.pending = append(s.pending, frameEntry{id: id, fn: fn})
	return func() {
		for i, e := range s.pending {
			if e.id == id {
				s.pending = append(s.pending[:i], s.pending[i+1:]...)
				s.Cancelled++
				return
			}
		}
	}
}

// Fire runs everything scheduled so far as one frame boundary.
func (s *FakeScheduler) Fire() {
	pending := s.pending
	s.pending = nil
	for _, e := range pending {
		e.fn()
	}
}

// Pending returns how many fires are armed.
func (s *FakeScheduler) Pending() int {
	return len(s.pending)
}
