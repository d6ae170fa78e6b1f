// Package ffmpeg drives the ffmpeg capture pipelines for screen sources.
package ffmpeg

import (
	"errors"
	"fmt"
	"image"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/croprig/croprig/internal/monitor"
)

// Runner manages the RTP capture process lifecycle. Each (re)start picks a
// fresh local port, so callers re-read Port after Restart.
type Runner struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	waitCh chan error
	port   int
}

// NewRunner returns a new Runner instance.
func NewRunner() *Runner {
	return &Runner{}
}

// Start launches RTP capture of the monitor, restricted to crop when it is
// non-empty, and returns the local RTP port.
func (r *Runner) Start(m monitor.Monitor, crop image.Rectangle, opts Options) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.startLocked(m, crop, opts)
}

// Restart stops the current process and starts a new one with the crop.
func (r *Runner) Restart(m monitor.Monitor, crop image.Rectangle, opts Options) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.stopLocked(); err != nil {
		return 0, err
	}
	return r.startLocked(m, crop, opts)
}

// Stop terminates any running ffmpeg process.
func (r *Runner) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

// Port returns the RTP port of the running process, zero when stopped.
func (r *Runner) Port() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.port
}

// startLocked starts ffmpeg while holding the runner lock.
func (r *Runner) startLocked(m monitor.Monitor, crop image.Rectangle, opts Options) (int, error) {
	if opts.FFmpegPath == "" {
		return 0, errors.New("FFmpegPath is required")
	}

	port, err := allocatePort()
	if err != nil {
		return 0, err
	}

	args := BuildStreamArgs(m, crop, opts, port, true)
	cmd, waitCh, err := startWithFallback(opts.FFmpegPath, args, func() []string {
		return BuildStreamArgs(m, crop, opts, port, false)
	})
	if err != nil {
		return 0, err
	}

	r.cmd = cmd
	r.waitCh = waitCh
	r.port = port
	return port, nil
}

// stopLocked stops the current ffmpeg process without acquiring the lock.
func (r *Runner) stopLocked() error {
	if r.cmd == nil || r.cmd.Process == nil {
		r.cmd = nil
		r.waitCh = nil
		r.port = 0
		return nil
	}
	if err := r.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	if r.waitCh != nil {
		<-r.waitCh
	}
	r.cmd = nil
	r.waitCh = nil
	r.port = 0
	return nil
}

// startCmd launches ffmpeg with the provided args.
func startCmd(path string, args []string) (*exec.Cmd, error) {
	cmd := exec.Command(path, args...)
	configureCmd(cmd)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// startWithFallback launches ffmpeg and retries with fallback args if the
// process exits early, which is how unsupported capture drivers fail.
func startWithFallback(path string, args []string, fallback func() []string) (*exec.Cmd, chan error, error) {
	cmd, err := startCmd(path, args)
	if err != nil {
		return nil, nil, err
	}
	waitCh := make(chan error, 1)
	go func() {
		waitCh <- cmd.Wait()
	}()

	exited, exitErr := waitForExit(waitCh, 700*time.Millisecond)
	if exited {
		_ = cmd.Process.Kill()
		cmd, err = startCmd(path, fallback())
		if err != nil {
			if exitErr != nil {
				return nil, nil, fmt.Errorf("ffmpeg exited early: %w", exitErr)
			}
			return nil, nil, err
		}
		waitCh = make(chan error, 1)
		go func() {
			waitCh <- cmd.Wait()
		}()
	}

	return cmd, waitCh, nil
}

// waitForExit waits for a process to exit or times out.
func waitForExit(waitCh <-chan error, timeout time.Duration) (bool, error) {
	select {
	case err := <-waitCh:
		return true, err
	case <-time.After(timeout):
		return false, nil
	}
}

// allocatePort reserves a local UDP port and returns it.
func allocatePort() (int, error) {
	addr := &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return 0, err
	}
	port := conn.LocalAddr().(*net.UDPAddr).Port
	if err := conn.Close(); err != nil {
		return 0, err
	}
	return port, nil
}
