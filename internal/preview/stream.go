// Package preview streams MJPEG frames of the current crop selection.
package preview

import (
	"bytes"
	"image"
	"image/jpeg"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const boundary = "croprigframe"

// Stream fans JPEG frames out to connected HTTP clients with publish-side
// throttling. The most recent frame is kept for late joiners and keepalives.
type Stream struct {
	mu          sync.RWMutex
	clients     map[chan []byte]struct{}
	last        []byte
	minInterval time.Duration
	nextPush    time.Time
	closed      bool
}

// NewStream creates a stream with a minimum publish interval.
func NewStream(minInterval time.Duration) *Stream {
	return &Stream{
		clients:     make(map[chan []byte]struct{}),
		minInterval: minInterval,
	}
}

// Publish distributes a JPEG frame. Frames arriving before the interval
// elapses replace the stored frame without waking clients.
func (s *Stream) Publish(jpg []byte) {
	frame := append([]byte(nil), jpg...)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.last = frame
	if s.minInterval > 0 && now.Before(s.nextPush) {
		return
	}
	s.nextPush = now.Add(s.minInterval)
	for ch := range s.clients {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- frame:
		default:
		}
	}
}

// ClientCount reports the number of connected preview clients.
func (s *Stream) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects all clients and drops further frames.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for ch := range s.clients {
		delete(s.clients, ch)
		close(ch)
	}
}

// Handler serves the MJPEG multipart stream to one HTTP client.
func (s *Stream) Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")

	fl, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, ok := s.attach()
	if !ok {
		http.Error(w, "stream closed", http.StatusServiceUnavailable)
		return
	}
	defer s.detach(ch)

	keep := time.NewTicker(1 * time.Second)
	defer keep.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case jpg, open := <-ch:
			if !open {
				return
			}
			if err := s.writePart(w, jpg); err != nil {
				return
			}
			fl.Flush()
		case <-keep.C:
			s.mu.RLock()
			jpg := append([]byte(nil), s.last...)
			s.mu.RUnlock()
			if len(jpg) > 0 {
				if err := s.writePart(w, jpg); err != nil {
					return
				}
				fl.Flush()
			}
		}
	}
}

// attach registers a client channel, seeding it with the last frame.
func (s *Stream) attach() (chan []byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, false
	}
	ch := make(chan []byte, 1)
	s.clients[ch] = struct{}{}
	if len(s.last) > 0 {
		ch <- append([]byte(nil), s.last...)
	}
	return ch, true
}

// detach removes a client channel unless Close already did.
func (s *Stream) detach(ch chan []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[ch]; !ok {
		return
	}
	delete(s.clients, ch)
	close(ch)
}

// writePart writes one JPEG frame into the multipart response.
func (s *Stream) writePart(w http.ResponseWriter, jpg []byte) error {
	if _, err := w.Write([]byte("\r\n--" + boundary + "\r\nContent-Type: image/jpeg\r\nContent-Length: " + strconv.Itoa(len(jpg)) + "\r\n\r\n")); err != nil {
		return err
	}
	_, err := w.Write(jpg)
	return err
}

// EncodeRGBToJPEG packs raw RGB24 bytes into a JPEG buffer. Short input
// yields nil.
func EncodeRGBToJPEG(rgb []byte, w, h, quality int) []byte {
	if w <= 0 || h <= 0 || len(rgb) < w*h*3 {
		return nil
	}
	if quality <= 0 || quality > 100 {
		quality = 60
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		row := rgb[y*w*3 : (y+1)*w*3]
		di := y * img.Stride
		for x := 0; x < w; x++ {
			img.Pix[di+0] = row[x*3+0]
			img.Pix[di+1] = row[x*3+1]
			img.Pix[di+2] = row[x*3+2]
			img.Pix[di+3] = 255
			di += 4
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil
	}
	return buf.Bytes()
}
