// Package webrtc publishes the capture stream and crop updates to viewers.
package webrtc

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"
)

const (
	// nominalTSStep is one frame at 30fps on the 90kHz RTP clock.
	nominalTSStep = 3000
	// maxTSStep bounds a forwarded timestamp delta to half a second. The
	// capture process restarts on every crop change, and each restart
	// resets the source clock.
	maxTSStep = 45000
)

// rtpWriteParams optionally override packet header fields on forward.
type rtpWriteParams struct {
	payloadType uint8
	ssrc        uint32
}

// rtpRewriter renumbers forwarded packets so viewers see one continuous
// stream across capture restarts: contiguous sequence numbers, grouped
// timestamps per input frame, and bounded monotonic timestamp advances.
type rtpRewriter struct {
	initialized bool
	lastInTS    uint32
	lastOutTS   uint32
	outSeq      uint16
}

// Apply rewrites the packet header in place.
func (rw *rtpRewriter) Apply(p *rtp.Packet, params rtpWriteParams) {
	if !rw.initialized {
		rw.initialized = true
		rw.outSeq = p.SequenceNumber
		rw.lastInTS = p.Timestamp
		rw.lastOutTS = p.Timestamp
	} else {
		rw.outSeq++
		if p.Timestamp != rw.lastInTS {
			delta := p.Timestamp - rw.lastInTS
			if delta == 0 || delta > maxTSStep {
				delta = nominalTSStep
			}
			rw.lastOutTS += delta
			rw.lastInTS = p.Timestamp
		}
	}
	p.SequenceNumber = rw.outSeq
	p.Timestamp = rw.lastOutTS
	if params.payloadType != 0 {
		p.PayloadType = params.payloadType
	}
	if params.ssrc != 0 {
		p.SSRC = params.ssrc
	}
}

type rtpListener struct {
	mu       sync.Mutex
	conn     *net.UDPConn
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
	rewriter rtpRewriter
}

// newRTPListener binds a UDP port for RTP ingestion.
func newRTPListener(port int) (*rtpListener, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return nil, err
	}
	return &rtpListener{conn: conn}, nil
}

// start begins forwarding RTP packets into the provided track.
func (l *rtpListener) start(track *webrtc.TrackLocalStaticRTP) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn == nil {
		return fmt.Errorf("rtp listener not initialized")
	}
	if l.running {
		return nil
	}
	l.ctx, l.cancel = context.WithCancel(context.Background())
	l.running = true
	go l.loop(l.ctx, track)
	return nil
}

// stop cancels the forward loop.
func (l *rtpListener) stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.running = false
}

// close stops forwarding and closes the UDP socket.
func (l *rtpListener) close() {
	l.stop()
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.conn != nil {
		_ = l.conn.Close()
		l.conn = nil
	}
}

// loop reads RTP packets and forwards them to the track. The read deadline
// keeps cancellation responsive while the capture process is down.
func (l *rtpListener) loop(ctx context.Context, track *webrtc.TrackLocalStaticRTP) {
	buf := make([]byte, 1600)
	forwarded := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		l.mu.Lock()
		conn := l.conn
		l.mu.Unlock()
		if conn == nil {
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		n, _, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}
		var pkt rtp.Packet
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			continue
		}
		l.rewriter.Apply(&pkt, rtpWriteParams{})
		_ = track.WriteRTP(&pkt)
		forwarded++
		if debugRTPEnabled() && forwarded%500 == 0 {
			log.Printf("webrtc: forwarded %d rtp packets (seq %d ts %d)", forwarded, pkt.SequenceNumber, pkt.Timestamp)
		}
	}
}
