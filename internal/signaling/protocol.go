// Package signaling negotiates WebRTC viewer sessions for the crop preview
// stream over a websocket.
package signaling

import "github.com/pion/webrtc/v3"

// Message is a signaling websocket payload. Viewers send offer and ice;
// the server replies with answer, ice, and restart when the capture
// pipeline comes back with a new crop.
type Message struct {
	T         string                   `json:"t"`
	SDP       string                   `json:"sdp,omitempty"`
	Candidate *webrtc.ICECandidateInit `json:"candidate,omitempty"`
}
