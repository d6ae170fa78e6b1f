// Package ffmpeg drives the ffmpeg capture pipelines for screen sources.
package ffmpeg

import (
	"errors"
	"image"
	"io"
	"log"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/croprig/croprig/internal/monitor"
	"github.com/croprig/croprig/internal/preview"
)

const previewRestartBackoff = 2 * time.Second

// Preview captures raw frames via ffmpeg and publishes them as MJPEG. For
// screen sources this replaces the still-image render path; the crop filter
// is baked into the process args, so crop changes go through Start again.
type Preview struct {
	mu      sync.Mutex
	cmd     *exec.Cmd
	stdout  io.ReadCloser
	stream  *preview.Stream
	quality int
	w       int
	h       int
	closed  bool
	path    string
	args    []string
}

// NewPreview returns a preview pipeline bound to the given MJPEG stream.
func NewPreview(stream *preview.Stream, quality int) *Preview {
	if quality <= 0 || quality > 100 {
		quality = 60
	}
	return &Preview{
		stream:  stream,
		quality: quality,
	}
}

// Start launches the preview of the monitor, restricted to crop when it is
// non-empty. A running preview is replaced.
func (p *Preview) Start(m monitor.Monitor, crop image.Rectangle, opts Options) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = false
	if err := p.stopLocked(); err != nil {
		return err
	}
	if opts.FFmpegPath == "" {
		return errors.New("FFmpegPath is required")
	}

	useD3D11 := opts.CaptureDriver == "" || strings.EqualFold(opts.CaptureDriver, "d3d11grab")
	args := BuildPreviewArgs(m, crop, opts, useD3D11)

	outW, outH := m.W, m.H
	if !crop.Empty() {
		aligned := EvenAlign(crop, m)
		outW, outH = aligned.Dx(), aligned.Dy()
	}

	p.path = opts.FFmpegPath
	p.args = args
	p.w = outW
	p.h = outH

	log.Printf("ffmpeg: preview %s %s", p.path, strings.Join(args, " "))
	if err := p.startProcessLocked(); err != nil {
		return err
	}
	go p.loop(p.stdout, p.w, p.h)
	return nil
}

// Stop terminates the preview process.
func (p *Preview) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return p.stopLocked()
}

// startProcessLocked launches ffmpeg while holding the preview lock.
func (p *Preview) startProcessLocked() error {
	cmd := exec.Command(p.path, append([]string{"-hide_banner", "-loglevel", "error"}, p.args...)...)
	configureCmd(cmd)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	p.cmd = cmd
	p.stdout = stdout
	return nil
}

// stopLocked stops any running ffmpeg process while holding the preview lock.
func (p *Preview) stopLocked() error {
	if p.stdout != nil {
		_ = p.stdout.Close()
		p.stdout = nil
	}
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		_, _ = p.cmd.Process.Wait()
	}
	p.cmd = nil
	return nil
}

// loop reads raw frames and publishes them to the MJPEG stream. It exits
// when its pipe is replaced or the preview stops.
func (p *Preview) loop(stdout io.ReadCloser, w, h int) {
	raw := make([]byte, w*h*3)
	for {
		p.mu.Lock()
		current := p.stdout
		closed := p.closed
		p.mu.Unlock()
		if closed || current != stdout {
			return
		}
		if _, err := io.ReadFull(stdout, raw); err != nil {
			stdout = p.recoverPipe(stdout, err)
			if stdout == nil {
				return
			}
			continue
		}
		if jpg := preview.EncodeRGBToJPEG(raw, w, h, p.quality); jpg != nil {
			p.stream.Publish(jpg)
		}
	}
}

// recoverPipe restarts ffmpeg after a read failure and returns the new
// stdout pipe, or nil when the preview should stop.
func (p *Preview) recoverPipe(old io.ReadCloser, err error) io.ReadCloser {
	p.mu.Lock()
	if p.closed || p.stdout != old {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	log.Printf("ffmpeg: preview read error: %v (restart in %s)", err, previewRestartBackoff)
	time.Sleep(previewRestartBackoff)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.stdout != old {
		return nil
	}
	if err := p.stopLocked(); err != nil {
		log.Printf("ffmpeg: preview stop error: %v", err)
		return nil
	}
	if err := p.startProcessLocked(); err != nil {
		log.Printf("ffmpeg: preview restart error: %v", err)
		return nil
	}
	return p.stdout
}
