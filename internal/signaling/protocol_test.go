package signaling

import (
	"encoding/json"
	"testing"
)

// TestMessage_DecodeOffer verifies an offer payload decodes off the wire.
func TestMessage_DecodeOffer(t *testing.T) {
	var msg Message
	if err := json.Unmarshal([]byte(`{"t":"offer","sdp":"v=0"}`), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.T != "offer" || msg.SDP != "v=0" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.Candidate != nil {
		t.Fatalf("expected no candidate on an offer, got %+v", msg.Candidate)
	}
}

// TestMessage_DecodeICE verifies a trickle candidate decodes into the pion type.
func TestMessage_DecodeICE(t *testing.T) {
	var msg Message
	payload := `{"t":"ice","candidate":{"candidate":"candidate:1 1 UDP 2122252543 192.0.2.3 54400 typ host"}}`
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if msg.T != "ice" || msg.Candidate == nil || msg.Candidate.Candidate == "" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

// TestMessage_EncodeRestart verifies optional fields stay off the wire.
func TestMessage_EncodeRestart(t *testing.T) {
	data, err := json.Marshal(Message{T: "restart"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `{"t":"restart"}` {
		t.Fatalf("unexpected encoding: %s", data)
	}
}
