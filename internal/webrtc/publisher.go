// Package webrtc publishes the capture stream and crop updates to viewers.
package webrtc

import (
	"fmt"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v3"
)

// cropChannelLabel names the data channel carrying crop rectangle updates.
const cropChannelLabel = "croprect"

// Publisher manages the viewer peer connection, the H264 video track, and
// the crop update data channel.
type Publisher struct {
	mu       sync.Mutex
	api      *webrtc.API
	peer     *webrtc.PeerConnection
	track    *webrtc.TrackLocalStaticRTP
	crop     *webrtc.DataChannel
	lastCrop []byte

	rtpListener *rtpListener
}

// NewPublisher initializes a WebRTC publisher with default codecs and
// interceptors.
func NewPublisher() (*Publisher, error) {
	media := &webrtc.MediaEngine{}
	if err := media.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	interceptors := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(media, interceptors); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(media),
		webrtc.WithInterceptorRegistry(interceptors),
	)

	return &Publisher{api: api}, nil
}

// Track returns the H264 RTP track, creating it if needed.
func (p *Publisher) Track() (*webrtc.TrackLocalStaticRTP, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ensureTrack()
}

// NewPeer creates a peer connection with the video track and the croprect
// data channel attached. Any previous peer is closed first.
func (p *Publisher) NewPeer() (*webrtc.PeerConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.peer != nil {
		_ = p.peer.Close()
		p.peer = nil
		p.crop = nil
	}

	peer, err := p.api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, err
	}

	track, err := p.ensureTrack()
	if err != nil {
		_ = peer.Close()
		return nil, err
	}

	sender, err := peer.AddTrack(track)
	if err != nil {
		_ = peer.Close()
		return nil, err
	}

	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, rtcpErr := sender.Read(buf); rtcpErr != nil {
				return
			}
		}
	}()

	crop, err := peer.CreateDataChannel(cropChannelLabel, nil)
	if err != nil {
		_ = peer.Close()
		return nil, err
	}
	crop.OnOpen(func() {
		p.mu.Lock()
		last := p.lastCrop
		p.mu.Unlock()
		if len(last) > 0 {
			_ = crop.Send(last)
		}
	})

	p.peer = peer
	p.crop = crop
	return peer, nil
}

// ClosePeer closes the current peer connection.
func (p *Publisher) ClosePeer() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.peer != nil {
		_ = p.peer.Close()
		p.peer = nil
		p.crop = nil
	}
}

// SendCropUpdate pushes a crop state payload to the viewer. The payload is
// remembered so a viewer joining mid-session gets the current rectangle on
// channel open.
func (p *Publisher) SendCropUpdate(payload []byte) {
	p.mu.Lock()
	p.lastCrop = append([]byte(nil), payload...)
	crop := p.crop
	p.mu.Unlock()
	if crop == nil || crop.ReadyState() != webrtc.DataChannelStateOpen {
		return
	}
	_ = crop.Send(payload)
}

// AttachRTP binds a local UDP port for RTP ingest.
func (p *Publisher) AttachRTP(port int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rtpListener != nil {
		p.rtpListener.close()
		p.rtpListener = nil
	}

	listener, err := newRTPListener(port)
	if err != nil {
		return err
	}
	p.rtpListener = listener
	return nil
}

// StartForwarding begins forwarding RTP packets into the WebRTC track.
func (p *Publisher) StartForwarding() error {
	p.mu.Lock()
	listener := p.rtpListener
	track := p.track
	p.mu.Unlock()

	if listener == nil || track == nil {
		return fmt.Errorf("rtp listener or track not ready")
	}
	return listener.start(track)
}

// StopForwarding stops RTP forwarding without closing the listener.
func (p *Publisher) StopForwarding() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.rtpListener != nil {
		p.rtpListener.stop()
	}
}

// Close tears down the peer and the RTP listener.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.peer != nil {
		_ = p.peer.Close()
		p.peer = nil
		p.crop = nil
	}
	if p.rtpListener != nil {
		p.rtpListener.close()
		p.rtpListener = nil
	}
}

// ensureTrack initializes the track if it does not already exist.
func (p *Publisher) ensureTrack() (*webrtc.TrackLocalStaticRTP, error) {
	if p.track != nil {
		return p.track, nil
	}
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeH264},
		"video",
		"croprig",
	)
	if err != nil {
		return nil, err
	}
	p.track = track
	return track, nil
}
