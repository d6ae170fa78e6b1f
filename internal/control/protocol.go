// Package control handles the crop control websocket protocol.
package control

import (
	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/geom"
	"github.com/croprig/croprig/internal/session"
)

// Rect is the wire form of a rectangle, in the client's content coordinates.
type Rect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Offset is the wire form of an initial placement descriptor.
type Offset struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Unit   string  `json:"unit"`
}

// Message is a control websocket payload. Clients send outer, offset,
// preset, down, move, up, and cancel; the server pushes state, start,
// drag, and end.
type Message struct {
	T      string  `json:"t"`
	ID     int64   `json:"id,omitempty"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Target string  `json:"target,omitempty"`
	Name   string  `json:"name,omitempty"`
	Offset *Offset `json:"offset,omitempty"`
	Inner  *Rect   `json:"inner,omitempty"`
	Outer  *Rect   `json:"outer,omitempty"`
}

// rect converts the wire rectangle into a geometry rectangle.
func (r *Rect) rect() geom.Rect {
	return geom.Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}

// wireRect converts a geometry rectangle into its wire form.
func wireRect(r geom.Rect) *Rect {
	return &Rect{Left: r.Left, Top: r.Top, Right: r.Right, Bottom: r.Bottom}
}

// offset converts the wire descriptor into a crop box placement.
func (o *Offset) offset() cropbox.Offset {
	return cropbox.Offset{
		Left:   o.Left,
		Top:    o.Top,
		Width:  o.Width,
		Height: o.Height,
		Unit:   cropbox.Unit(o.Unit),
	}
}

// eventMessage converts a session event into its wire message. The second
// return is false for event kinds that have no wire form.
func eventMessage(e session.Event) (Message, bool) {
	switch e.Kind {
	case session.EventState:
		return Message{
			T:      "state",
			Target: string(e.Target),
			Inner:  wireRect(e.Snapshot.Inner),
			Outer:  wireRect(e.Snapshot.Outer),
		}, true
	case session.EventStart:
		return Message{T: "start", Target: string(e.Target)}, true
	case session.EventDrag:
		return Message{
			T:     "drag",
			Inner: wireRect(e.Snapshot.Inner),
			Outer: wireRect(e.Snapshot.Outer),
		}, true
	case session.EventEnd:
		return Message{
			T:     "end",
			Inner: wireRect(e.Snapshot.Inner),
			Outer: wireRect(e.Snapshot.Outer),
		}, true
	default:
		return Message{}, false
	}
}
