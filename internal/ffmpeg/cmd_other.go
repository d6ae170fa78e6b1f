//go:build !windows

// Package ffmpeg drives the ffmpeg capture pipelines for screen sources.
package ffmpeg

import "os/exec"

// configureCmd is a no-op outside Windows.
func configureCmd(cmd *exec.Cmd) {
	_ = cmd
}
