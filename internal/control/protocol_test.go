package control

import (
	"encoding/json"
	"testing"

	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/drag"
	"github.com/croprig/croprig/internal/geom"
	"github.com/croprig/croprig/internal/session"
)

// TestProtocol_Down verifies decoding a down message.
func TestProtocol_Down(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"t":"down","id":1,"x":120.5,"y":64,"target":"left-top"}`), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.T != "down" || msg.ID != 1 || msg.X != 120.5 || msg.Y != 64 || msg.Target != "left-top" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

// TestProtocol_Outer verifies decoding an outer bounds announcement.
func TestProtocol_Outer(t *testing.T) {
	var msg Message
	payload := `{"t":"outer","outer":{"left":8,"top":120,"right":648,"bottom":600}}`
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.T != "outer" || msg.Outer == nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
	want := geom.Rect{Left: 8, Top: 120, Right: 648, Bottom: 600}
	if got := msg.Outer.rect(); !got.Equal(want) {
		t.Fatalf("expected rect %+v, got %+v", want, got)
	}
}

// TestProtocol_Offset verifies decoding a placement descriptor.
func TestProtocol_Offset(t *testing.T) {
	var msg Message
	payload := `{"t":"offset","offset":{"left":25,"top":25,"width":50,"height":50,"unit":"%"}}`
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.T != "offset" || msg.Offset == nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
	want := cropbox.Offset{Left: 25, Top: 25, Width: 50, Height: 50, Unit: cropbox.UnitPercent}
	if got := msg.Offset.offset(); got != want {
		t.Fatalf("expected offset %+v, got %+v", want, got)
	}
}

// TestProtocol_Preset verifies decoding a preset message.
func TestProtocol_Preset(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"t":"preset","name":"center"}`), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.T != "preset" || msg.Name != "center" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

// TestEventMessage_Drag verifies the wire form of a drag snapshot event.
func TestEventMessage_Drag(t *testing.T) {
	e := session.Event{
		Kind: session.EventDrag,
		Snapshot: cropbox.Snapshot{
			Inner: geom.Rect{Left: 50, Top: 25, Right: 150, Bottom: 75},
			Outer: geom.Rect{Left: 0, Top: 0, Right: 200, Bottom: 100},
		},
	}
	msg, ok := eventMessage(e)
	if !ok {
		t.Fatalf("expected a wire message for %+v", e)
	}
	if msg.T != "drag" || msg.Inner == nil || msg.Outer == nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if got := msg.Inner.rect(); !got.Equal(e.Snapshot.Inner) {
		t.Fatalf("expected inner %+v, got %+v", e.Snapshot.Inner, got)
	}
	if got := msg.Outer.rect(); !got.Equal(e.Snapshot.Outer) {
		t.Fatalf("expected outer %+v, got %+v", e.Snapshot.Outer, got)
	}
}

// TestEventMessage_Start verifies a start event carries only the handle name.
func TestEventMessage_Start(t *testing.T) {
	msg, ok := eventMessage(session.Event{Kind: session.EventStart, Target: drag.TargetArea})
	if !ok {
		t.Fatalf("expected a wire message")
	}
	if msg.T != "start" || msg.Target != "area" || msg.Inner != nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

// TestEventMessage_State verifies a state event carries handle and rects.
func TestEventMessage_State(t *testing.T) {
	e := session.Event{
		Kind:   session.EventState,
		Target: drag.TargetNone,
		Snapshot: cropbox.Snapshot{
			Inner: geom.Rect{Left: 0, Top: 0, Right: 200, Bottom: 100},
			Outer: geom.Rect{Left: 0, Top: 0, Right: 200, Bottom: 100},
		},
	}
	msg, ok := eventMessage(e)
	if !ok {
		t.Fatalf("expected a wire message")
	}
	if msg.T != "state" || msg.Target != "" || msg.Inner == nil || msg.Outer == nil {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

// TestEventMessage_UnknownKind verifies unrecognized kinds produce nothing.
func TestEventMessage_UnknownKind(t *testing.T) {
	if msg, ok := eventMessage(session.Event{Kind: "poke"}); ok {
		t.Fatalf("expected no wire message, got %+v", msg)
	}
}
