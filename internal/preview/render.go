// Package preview streams MJPEG frames of the current crop selection.
package preview

import (
	"bytes"
	"context"
	"log"
	"sync"
	"time"

	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/export"
	"github.com/croprig/croprig/internal/source"
)

const (
	renderTimeout = 5 * time.Second
	errorBackoff  = 2 * time.Second
)

// Renderer turns crop snapshots into preview frames for still sources. A
// single worker renders the newest pending snapshot, so bursts of drag
// updates coalesce instead of queueing.
type Renderer struct {
	src    source.Source
	stream *Stream
	opts   export.Options

	mu      sync.Mutex
	pending *cropbox.Snapshot
	closed  bool
	wake    chan struct{}
	done    chan struct{}
}

// NewRenderer starts the render worker. maxDim caps preview frame size and
// quality sets the JPEG encode quality.
func NewRenderer(src source.Source, stream *Stream, maxDim, quality int) *Renderer {
	r := &Renderer{
		src:    src,
		stream: stream,
		opts: export.Options{
			Format:  export.FormatJPEG,
			Quality: quality,
			MaxDim:  maxDim,
		},
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go r.loop()
	return r
}

// Update queues a snapshot for rendering, replacing any pending one. Safe
// to call from a session event listener.
func (r *Renderer) Update(snap cropbox.Snapshot) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.pending = &snap
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// Close stops the render worker.
func (r *Renderer) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	close(r.done)
}

// loop renders pending snapshots until closed.
func (r *Renderer) loop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.wake:
		}
		snap, ok := r.take()
		if !ok {
			continue
		}
		if err := r.render(snap); err != nil {
			log.Printf("preview: render error: %v", err)
			select {
			case <-r.done:
				return
			case <-time.After(errorBackoff):
			}
		}
	}
}

// take claims the pending snapshot.
func (r *Renderer) take() (cropbox.Snapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pending == nil {
		return cropbox.Snapshot{}, false
	}
	snap := *r.pending
	r.pending = nil
	return snap, true
}

// render produces one preview frame and publishes it.
func (r *Renderer) render(snap cropbox.Snapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
	defer cancel()
	img, err := export.Render(ctx, r.src, snap, r.opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := export.Encode(&buf, img, export.FormatJPEG, r.opts.Quality); err != nil {
		return err
	}
	r.stream.Publish(buf.Bytes())
	return nil
}
