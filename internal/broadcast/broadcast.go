// Package broadcast provides a minimal synchronous publish/subscribe channel.
package broadcast

import "sync"

// Channel fans values out to the current subscribers. Notify delivers
// synchronously in subscription order; there is no buffering and no history,
// so a subscriber only sees values published while it is subscribed.
type Channel[T any] struct {
	mu     sync.Mutex
	nextID int
	subs   []subscriber[T]
	closed bool
}

// subscriber pairs a listener with its registration id.
type subscriber[T any] struct {
	id int
	fn func(T)
}

// New returns an empty channel ready for subscribers.
func New[T any]() *Channel[T] {
	return &Channel[T]{}
}

// Subscribe registers fn and returns the matching unsubscribe function.
// Unsubscribing twice is harmless. Subscribing to a closed channel returns
// an unsubscribe that does nothing.
func (c *Channel[T]) Subscribe(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return func() {}
	}
	c.nextID++
	id := c.nextID
	c.subs = append(c.subs, subscriber[T]{id: id, fn: fn})
	return func() { c.unsubscribe(id) }
}

// unsubscribe drops the listener registered under id, if still present.
func (c *Channel[T]) unsubscribe(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, sub := range c.subs {
		if sub.id == id {
			c.subs = append(c.subs[:i], c.subs[i+1:]...)
			return
		}
	}
}

// Notify delivers v to every listener subscribed at the moment of the call.
// Listeners run outside the channel lock, so they may subscribe or
// unsubscribe freely; such changes take effect on the next notify. Notify
// on a closed channel is a no-op.
func (c *Channel[T]) Notify(v T) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	list := make([]func(T), len(c.subs))
	for i, sub := range c.subs {
		list[i] = sub.fn
	}
	c.mu.Unlock()

	for _, fn := range list {
		fn(v)
	}
}

// Len returns the number of current subscribers.
func (c *Channel[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}

// Close drops all subscribers and turns later notifies into no-ops.
// Closing twice is harmless.
func (c *Channel[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.subs = nil
}
