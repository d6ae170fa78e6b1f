// Package ffmpeg drives the ffmpeg capture pipelines for screen sources.
package ffmpeg

import (
	"fmt"
	"image"

	"github.com/croprig/croprig/internal/monitor"
)

// Options describes ffmpeg runtime parameters.
type Options struct {
	FFmpegPath    string
	FPS           int
	BitrateKbps   int
	CaptureDriver string
}

// BuildStreamArgs returns ffmpeg args for RTP H.264 output of the monitor,
// restricted to crop when it is non-empty.
func BuildStreamArgs(m monitor.Monitor, crop image.Rectangle, opts Options, port int, useD3D11 bool) []string {
	input := buildInputArgs(m, opts, useD3D11)
	output := buildStreamOutputArgs(opts, port, cropFilter(crop, m))
	return append(input, output...)
}

// BuildPreviewArgs returns ffmpeg args for raw RGB24 frames on stdout,
// restricted to crop when it is non-empty.
func BuildPreviewArgs(m monitor.Monitor, crop image.Rectangle, opts Options, useD3D11 bool) []string {
	args := buildInputArgs(m, opts, useD3D11)
	if filter := cropFilter(crop, m); filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args, "-an", "-pix_fmt", "rgb24", "-f", "rawvideo", "-")
}

// cropFilter renders the even-aligned crop filter, or empty for a full
// frame.
func cropFilter(crop image.Rectangle, m monitor.Monitor) string {
	if crop.Empty() {
		return ""
	}
	crop = EvenAlign(crop, m)
	return fmt.Sprintf("crop=%d:%d:%d:%d", crop.Dx(), crop.Dy(), crop.Min.X, crop.Min.Y)
}

// buildInputArgs builds the capture-side arguments for the monitor.
func buildInputArgs(m monitor.Monitor, opts Options, useD3D11 bool) []string {
	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	driver := opts.CaptureDriver
	if driver == "" {
		driver = "gdigrab"
	}
	if driver == "x11grab" {
		return []string{
			"-f", "x11grab",
			"-framerate", fmt.Sprintf("%d", fps),
			"-video_size", fmt.Sprintf("%dx%d", m.W, m.H),
			"-i", fmt.Sprintf(":0.0+%d,%d", m.X, m.Y),
		}
	}
	if driver == "gdigrab" && useD3D11 {
		driver = "d3d11grab"
	}
	return []string{
		"-f", driver,
		"-framerate", fmt.Sprintf("%d", fps),
		"-offset_x", fmt.Sprintf("%d", m.X),
		"-offset_y", fmt.Sprintf("%d", m.Y),
		"-video_size", fmt.Sprintf("%dx%d", m.W, m.H),
		"-i", "desktop",
	}
}

// buildStreamOutputArgs builds the encode and RTP output arguments.
func buildStreamOutputArgs(opts Options, port int, filter string) []string {
	// Frequent keyframes help decoders recover quickly after crop restarts.
	keyint := opts.FPS
	if keyint <= 0 {
		keyint = 30
	}
	if keyint < 15 {
		keyint = 15
	}
	bitrate := opts.BitrateKbps
	if bitrate <= 0 {
		bitrate = 6000
	}
	args := []string{"-an"}
	if filter != "" {
		args = append(args, "-vf", filter)
	}
	return append(args,
		"-vcodec", "libx264",
		"-preset", "ultrafast",
		"-tune", "zerolatency",
		"-profile:v", "baseline",
		"-g", fmt.Sprintf("%d", keyint),
		"-keyint_min", fmt.Sprintf("%d", keyint),
		"-bf", "0",
		"-x264-params", "scenecut=0:repeat-headers=1",
		"-pix_fmt", "yuv420p",
		"-b:v", fmt.Sprintf("%dk", bitrate),
		"-payload_type", "96",
		"-f", "rtp",
		fmt.Sprintf("rtp://127.0.0.1:%d?pkt_size=1200", port),
	)
}

// EvenAlign shrinks a crop rectangle to even offsets and sizes inside the
// monitor, which yuv420p encoding requires.
func EvenAlign(r image.Rectangle, m monitor.Monitor) image.Rectangle {
	limitW := maxInt(m.W&^1, 2)
	limitH := maxInt(m.H&^1, 2)
	w := maxInt(r.Dx()&^1, 2)
	h := maxInt(r.Dy()&^1, 2)
	if w > limitW {
		w = limitW
	}
	if h > limitH {
		h = limitH
	}
	x := maxInt(r.Min.X&^1, 0)
	y := maxInt(r.Min.Y&^1, 0)
	if x+w > m.W {
		x = maxInt((m.W-w)&^1, 0)
	}
	if y+h > m.H {
		y = maxInt((m.H-h)&^1, 0)
	}
	return image.Rect(x, y, x+w, y+h)
}

// maxInt returns the larger integer.
func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
