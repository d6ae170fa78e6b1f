// Package main starts the croprig server.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/croprig/croprig/internal/app"
	"github.com/croprig/croprig/internal/config"
	"github.com/croprig/croprig/internal/cropbox"
	"github.com/croprig/croprig/internal/ffmpeg"
	"github.com/croprig/croprig/internal/frame"
	"github.com/croprig/croprig/internal/geom"
	"github.com/croprig/croprig/internal/monitor"
	"github.com/croprig/croprig/internal/preset"
	"github.com/croprig/croprig/internal/session"
	"github.com/croprig/croprig/internal/signaling"
	"github.com/croprig/croprig/internal/source"
	"github.com/croprig/croprig/internal/term"
	"github.com/croprig/croprig/internal/webrtc"
)

// run wires the application and blocks until shutdown.
func run(debug, termMode bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	webrtc.SetDebugLogging(debug)
	if debug {
		log.Printf("debug: enabled")
	}

	presets, err := preset.Load(cfg.PresetPath)
	if err != nil {
		return err
	}
	initial := initialOffset(cfg, presets)

	if termMode {
		return runTerm(cfg, initial)
	}
	logStartup(cfg)

	src, err := buildSource(cfg)
	if err != nil {
		return err
	}
	log.Printf("source: %s (%.0fx%.0f)", src.Kind(), src.Bounds().Width(), src.Bounds().Height())

	sess := session.New(session.Options{
		Password:  cfg.UIPassword,
		Outer:     src.Bounds(),
		MinWidth:  cfg.MinCropWidth,
		MinHeight: cfg.MinCropHeight,
		Initial:   initial,
		Frames:    frame.NewInterval(time.Duration(cfg.FrameIntervalMs) * time.Millisecond),
	})
	defer sess.Close()

	var (
		publisher *webrtc.Publisher
		runner    *ffmpeg.Runner
	)
	if cfg.FFmpegEnabled {
		publisher, err = webrtc.NewPublisher()
		if err != nil {
			return err
		}
		runner = ffmpeg.NewRunner()
	}

	appInstance, err := app.New(cfg, sess, src, presets, publisher, runner, signaling.ViewerReplace)
	if err != nil {
		return err
	}
	if err := appInstance.Start(); err != nil {
		return err
	}
	defer func() {
		if err := appInstance.Stop(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	mux := http.NewServeMux()
	appInstance.RegisterRoutes(mux, "")
	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// runTerm runs the local terminal crop host. The host announces the real
// terminal size on startup, so the placeholder outer box never shows.
func runTerm(cfg config.Config, initial *cropbox.Offset) error {
	sess := session.New(session.Options{
		Password:  cfg.UIPassword,
		Outer:     geom.FromSize(0, 0, 80, 24),
		MinWidth:  term.DefaultMinWidth,
		MinHeight: term.DefaultMinHeight,
		Initial:   initial,
		Frames:    frame.NewInterval(time.Duration(cfg.FrameIntervalMs) * time.Millisecond),
	})
	defer sess.Close()
	return term.Run(sess)
}

// buildSource constructs the configured content source. Screen sources fall
// back to the test pattern on platforms without display enumeration.
func buildSource(cfg config.Config) (source.Source, error) {
	switch cfg.SourceKind {
	case "image":
		return source.OpenImage(cfg.SourcePath)
	case "screen":
		monitors, err := monitor.ListMonitors()
		if err != nil {
			if errors.Is(err, monitor.ErrUnsupported) {
				log.Printf("source: %v, using test pattern", err)
				return source.NewPattern(cfg.PatternWidth, cfg.PatternHeight), nil
			}
			return nil, err
		}
		m, ok := monitor.GetMonitorByIndex(monitors, cfg.MonitorIndex)
		if !ok {
			if m, ok = monitor.Primary(monitors); !ok {
				return nil, fmt.Errorf("monitor %d not found", cfg.MonitorIndex)
			}
			log.Printf("source: monitor %d not found, using monitor %d", cfg.MonitorIndex, m.Index)
		}
		grab := stillGrabber(cfg, m)
		return source.NewScreen(m, grab), nil
	default:
		return source.NewPattern(cfg.PatternWidth, cfg.PatternHeight), nil
	}
}

// stillGrabber returns the ffmpeg still-capture hook for a monitor, nil when
// the capture pipeline is disabled.
func stillGrabber(cfg config.Config, m monitor.Monitor) source.FrameGrabber {
	if !cfg.FFmpegEnabled {
		return nil
	}
	opts := ffmpeg.Options{
		FFmpegPath:    cfg.FFmpegPath,
		FPS:           cfg.FPS,
		CaptureDriver: cfg.CaptureDriver,
	}
	return func(ctx context.Context) (image.Image, error) {
		return ffmpeg.GrabStill(ctx, m, opts)
	}
}

// logFatal prints and exits for startup failures.
func logFatal(err error) {
	log.Printf("fatal: %v", err)
	os.Exit(1)
}

// logStartup prints startup checks and connection info.
func logStartup(cfg config.Config) {
	log.Printf("croprig starting")
	logEnvStatus(cfg)
	if cfg.FFmpegEnabled {
		logFFmpegStatus(cfg.FFmpegPath)
		log.Printf("capture driver: %s", cfg.CaptureDriver)
	}
	logListenStatus(cfg.ListenAddr)
}

// logEnvStatus reports whether a .env file was found and the password is set.
func logEnvStatus(cfg config.Config) {
	envPath := filepath.Join(cfg.DataDir, ".env")
	if fileExists(envPath) {
		log.Printf("env check: ok (%s)", envPath)
	} else {
		log.Printf("env check: missing (%s)", envPath)
	}
	if strings.TrimSpace(os.Getenv("UI_PASSWORD")) == "" {
		log.Printf("env UI_PASSWORD: missing")
	} else {
		log.Printf("env UI_PASSWORD: set")
	}
}

// logFFmpegStatus reports whether the ffmpeg binary is discoverable.
func logFFmpegStatus(path string) {
	resolved := path
	ok := false
	note := ""

	if filepath.IsAbs(path) {
		info, err := os.Stat(path)
		switch {
		case err == nil && !info.IsDir():
			ok = true
		case err != nil:
			note = err.Error()
		default:
			note = "path is a directory"
		}
	} else {
		found, err := exec.LookPath(path)
		switch {
		case err == nil:
			ok = true
			resolved = found
		case errors.Is(err, exec.ErrDot):
			note = "found relative to current dir; use absolute path"
		default:
			note = err.Error()
		}
	}

	if ok {
		log.Printf("ffmpeg check: ok (%s)", resolved)
		return
	}
	if note != "" {
		log.Printf("ffmpeg check: missing (%s)", note)
		return
	}
	log.Printf("ffmpeg check: missing")
}

// logListenStatus reports the listen address and a local URL helper.
func logListenStatus(addr string) {
	log.Printf("listen addr: %s", addr)
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	log.Printf("local url: http://%s", net.JoinHostPort(host, port))
}

// fileExists reports whether a path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// initialOffset resolves the configured startup preset, nil when unset or
// unknown.
func initialOffset(cfg config.Config, presets *preset.Set) *cropbox.Offset {
	if cfg.InitialPreset == "" {
		return nil
	}
	off, ok := presets.Get(cfg.InitialPreset)
	if !ok {
		log.Printf("preset: %q not found, starting with the full box", cfg.InitialPreset)
		return nil
	}
	return &off
}
