package preview

import (
	"bytes"
	"testing"
	"time"

	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/geom"
	"github.com/croprig/croprig/internal/source"
)

// TestRenderer_PublishesFrameOnUpdate verifies a queued snapshot turns into
// a JPEG preview frame.
func TestRenderer_PublishesFrameOnUpdate(t *testing.T) {
	stream := NewStream(0)
	r := NewRenderer(source.NewPattern(32, 16), stream, 64, 60)
	defer r.Close()

	ch, ok := stream.attach()
	if !ok {
		t.Fatal("attach failed")
	}
	defer stream.detach(ch)

	r.Update(cropbox.Snapshot{
		Inner: geom.Rect{Left: 0, Top: 0, Right: 16, Bottom: 16},
		Outer: geom.Rect{Left: 0, Top: 0, Right: 32, Bottom: 16},
	})

	select {
	case jpg := <-ch:
		if !bytes.HasPrefix(jpg, []byte{0xFF, 0xD8}) {
			t.Fatalf("expected a jpeg frame, got %d bytes", len(jpg))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for preview frame")
	}
}

// TestRenderer_CloseStopsWorker verifies updates after close publish nothing.
func TestRenderer_CloseStopsWorker(t *testing.T) {
	stream := NewStream(0)
	r := NewRenderer(source.NewPattern(16, 16), stream, 64, 60)

	ch, ok := stream.attach()
	if !ok {
		t.Fatal("attach failed")
	}
	defer stream.detach(ch)

	r.Close()
	r.Update(cropbox.Snapshot{
		Inner: geom.Rect{Left: 0, Top: 0, Right: 16, Bottom: 16},
		Outer: geom.Rect{Left: 0, Top: 0, Right: 16, Bottom: 16},
	})

	select {
	case <-ch:
		t.Fatal("expected no frame after close")
	case <-time.After(100 * time.Millisecond):
	}
}
