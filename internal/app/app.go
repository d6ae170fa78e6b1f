// Package app wires the crop session, content source, preview pipeline, and
// HTTP surface together.
package app

import (
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/croprig/croprig/internal/config"
	"github.com/croprig/croprig/internal/control"
	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/export"
	"github.com/croprig/croprig/internal/ffmpeg"
	"github.com/croprig/croprig/internal/preset"
	"github.com/croprig/croprig/internal/preview"
	"github.com/croprig/croprig/internal/session"
	"github.com/croprig/croprig/internal/signaling"
	"github.com/croprig/croprig/internal/source"
	"github.com/croprig/croprig/internal/webrtc"
)

// App owns every long-lived service around the crop session: the control and
// signaling websockets, the MJPEG preview lane, and the optional ffmpeg
// capture pipeline for screen sources.
type App struct {
	mu        sync.Mutex
	cfg       config.Config
	session   *session.Session
	src       source.Source
	presets   *preset.Set
	publisher *webrtc.Publisher
	runner    *ffmpeg.Runner
	signaling *signaling.Server
	control   *control.Server
	stream    *preview.Stream
	renderer  *preview.Renderer
	capture   *ffmpeg.Preview
	unsub     func()
	started   bool
}

// New wires an application. publisher and runner are optional; without them
// the WebRTC lane stays off and only the MJPEG preview runs.
func New(cfg config.Config, sess *session.Session, src source.Source, presets *preset.Set, publisher *webrtc.Publisher, runner *ffmpeg.Runner, policy signaling.ViewerPolicy) (*App, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if src == nil {
		return nil, errors.New("source is required")
	}
	if presets == nil {
		presets = preset.Defaults()
	}

	a := &App{
		cfg:       cfg,
		session:   sess,
		src:       src,
		presets:   presets,
		publisher: publisher,
		runner:    runner,
	}

	a.control = control.NewServer(sess, presets)
	if publisher != nil {
		a.signaling = signaling.NewServer(publisher, policy, sess.IsAuthenticated)
	}
	if cfg.MJPEGEnabled {
		a.stream = preview.NewStream(time.Duration(cfg.MJPEGIntervalMs) * time.Millisecond)
		if a.screenPipeline() {
			a.capture = ffmpeg.NewPreview(a.stream, cfg.MJPEGQuality)
		} else {
			a.renderer = preview.NewRenderer(src, a.stream, previewMaxDim, cfg.MJPEGQuality)
		}
	}

	return a, nil
}

// previewMaxDim caps the MJPEG preview frame size for still sources.
const previewMaxDim = 960

// Start subscribes to the session and brings up the preview pipelines.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.started {
		return nil
	}
	a.started = true

	a.unsub = a.session.Subscribe(a.handleEvent)
	snap := a.session.Snapshot()
	if a.renderer != nil {
		a.renderer.Update(snap)
	}
	if a.screenPipeline() {
		if err := a.restartPipelineLocked("startup", snap); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears down the pipelines in reverse order of Start.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	a.started = false

	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.capture != nil {
		if err := a.capture.Stop(); err != nil {
			log.Printf("app: capture stop: %v", err)
		}
	}
	var firstErr error
	if a.runner != nil {
		if a.publisher != nil {
			a.publisher.StopForwarding()
		}
		if err := a.runner.Stop(); err != nil {
			firstErr = err
		}
	}
	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.stream != nil {
		a.stream.Close()
	}
	return firstErr
}

// Control returns the crop control websocket handler.
func (a *App) Control() *control.Server {
	return a.control
}

// Signaling returns the WebRTC signaling handler, nil when disabled.
func (a *App) Signaling() *signaling.Server {
	return a.signaling
}

// PreviewStream returns the MJPEG stream, nil when disabled.
func (a *App) PreviewStream() *preview.Stream {
	return a.stream
}

// screenPipeline reports whether the ffmpeg capture lane applies.
func (a *App) screenPipeline() bool {
	_, ok := a.src.(*source.Screen)
	return ok && a.cfg.FFmpegEnabled && a.runner != nil
}

// handleEvent fans a session event out to the preview and WebRTC lanes. It
// runs inside the session lock, so everything here must stay non-blocking
// and must never call back into the session.
func (a *App) handleEvent(e session.Event) {
	if a.renderer != nil {
		a.renderer.Update(e.Snapshot)
	}
	if a.publisher != nil {
		if payload := cropPayload(e); payload != nil {
			a.publisher.SendCropUpdate(payload)
		}
	}
	if e.Kind == session.EventEnd && a.screenPipeline() {
		// The capture process bakes the crop into its filter chain, so a
		// finished gesture needs a restart with the new rectangle.
		snap := e.Snapshot
		go func() {
			if err := a.RestartPipeline("crop changed", snap); err != nil {
				log.Printf("app: pipeline restart: %v", err)
			}
		}()
	}
}

// RestartPipeline restarts the ffmpeg capture and RTP forwarding around the
// crop in snap.
func (a *App) RestartPipeline(reason string, snap cropbox.Snapshot) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.started {
		return nil
	}
	return a.restartPipelineLocked(reason, snap)
}

// restartPipelineLocked does the restart while holding the app lock.
func (a *App) restartPipelineLocked(reason string, snap cropbox.Snapshot) error {
	scr, ok := a.src.(*source.Screen)
	if !ok || a.runner == nil {
		return nil
	}
	m := scr.Monitor()
	crop := export.CropRect(snap, m.Rect())
	opts := ffmpeg.Options{
		FFmpegPath:    a.cfg.FFmpegPath,
		FPS:           a.cfg.FPS,
		BitrateKbps:   a.cfg.BitrateKbps,
		CaptureDriver: a.cfg.CaptureDriver,
	}

	log.Printf("app: restarting capture pipeline (%s)", reason)
	if a.publisher != nil {
		a.publisher.StopForwarding()
	}
	port, err := a.runner.Restart(m, crop, opts)
	if err != nil {
		return err
	}
	if a.publisher != nil {
		if err := a.publisher.AttachRTP(port); err != nil {
			return err
		}
		if err := a.publisher.StartForwarding(); err != nil {
			return err
		}
	}
	if a.signaling != nil {
		a.signaling.NotifyRestart()
	}
	if a.capture != nil {
		if err := a.capture.Start(m, crop, opts); err != nil {
			log.Printf("app: capture preview: %v", err)
		}
	}
	return nil
}

// wireRect is the JSON shape of a rectangle on the data channel and the
// state API.
type wireRect struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// toWire converts a snapshot rectangle pair for JSON output.
func toWire(snap cropbox.Snapshot) (wireRect, wireRect) {
	inner := wireRect{Left: snap.Inner.Left, Top: snap.Inner.Top, Right: snap.Inner.Right, Bottom: snap.Inner.Bottom}
	outer := wireRect{Left: snap.Outer.Left, Top: snap.Outer.Top, Right: snap.Outer.Right, Bottom: snap.Outer.Bottom}
	return inner, outer
}

// cropPayload renders a session event for the croprect data channel, nil
// for kinds viewers do not care about.
func cropPayload(e session.Event) []byte {
	switch e.Kind {
	case session.EventState, session.EventDrag, session.EventEnd:
	default:
		return nil
	}
	inner, outer := toWire(e.Snapshot)
	data, err := json.Marshal(struct {
		T     string   `json:"t"`
		Inner wireRect `json:"inner"`
		Outer wireRect `json:"outer"`
	}{T: string(e.Kind), Inner: inner, Outer: outer})
	if err != nil {
		return nil
	}
	return data
}
