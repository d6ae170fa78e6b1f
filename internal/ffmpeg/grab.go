// Package ffmpeg drives the ffmpeg capture pipelines for screen sources.
package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"

	"github.com/croprig/croprig/internal/monitor"
)

// GrabStill captures a single full-monitor frame as an image. Exports and
// still previews of screen sources go through here.
func GrabStill(ctx context.Context, m monitor.Monitor, opts Options) (image.Image, error) {
	if opts.FFmpegPath == "" {
		return nil, errors.New("FFmpegPath is required")
	}
	args := append([]string{"-hide_banner", "-loglevel", "error"}, buildInputArgs(m, opts, false)...)
	args = append(args, "-frames:v", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	cmd := exec.CommandContext(ctx, opts.FFmpegPath, args...)
	configureCmd(cmd)
	var out bytes.Buffer
	var errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg still: %w (%s)", err, bytes.TrimSpace(errOut.Bytes()))
	}

	img, err := png.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode still: %w", err)
	}
	return img, nil
}
