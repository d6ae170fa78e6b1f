// Package webrtc publishes the capture stream and crop updates to viewers.
package webrtc

import "sync/atomic"

// debugRTP gates the verbose RTP forwarding logs.
var debugRTP atomic.Bool

// SetDebugLogging toggles verbose RTP forwarding logs.
func SetDebugLogging(enabled bool) {
	debugRTP.Store(enabled)
}

// debugRTPEnabled reports whether RTP debug logs are on.
func debugRTPEnabled() bool {
	return debugRTP.Load()
}
