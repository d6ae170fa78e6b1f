// Package config loads environment configuration for croprig.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	defaultListenAddr      = "0.0.0.0:8790"
	defaultDataDir         = "./data"
	defaultSourceKind      = "pattern"
	defaultPatternWidth    = 1280
	defaultPatternHeight   = 720
	defaultMinCropWidth    = 20
	defaultMinCropHeight   = 20
	defaultFrameIntervalMs = 16
	defaultMJPEGEnabled    = true
	defaultMJPEGIntervalMs = 120
	defaultMJPEGQuality    = 60
	defaultExportMaxDim    = 4096
	defaultFFmpegPath      = "ffmpeg"
	defaultCapture         = "gdigrab"
	defaultFPS             = 30
	defaultBitrateKbps     = 6000
	defaultMonitorIdx      = 1
)

// Config holds runtime configuration values.
type Config struct {
	ListenAddr      string
	UIPassword      string
	DataDir         string
	PresetPath      string
	InitialPreset   string
	SourceKind      string
	SourcePath      string
	PatternWidth    int
	PatternHeight   int
	MonitorIndex    int
	MinCropWidth    float64
	MinCropHeight   float64
	FrameIntervalMs int
	MJPEGEnabled    bool
	MJPEGIntervalMs int
	MJPEGQuality    int
	ExportMaxDim    int
	FFmpegEnabled   bool
	FFmpegPath      string
	CaptureDriver   string
	FPS             int
	BitrateKbps     int
}

// Load reads configuration from ./data/.env and environment variables.
func Load() (Config, error) {
	cfg := Config{
		ListenAddr:      defaultListenAddr,
		DataDir:         defaultDataDir,
		PresetPath:      filepath.Join(defaultDataDir, "presets.yaml"),
		SourceKind:      defaultSourceKind,
		PatternWidth:    defaultPatternWidth,
		PatternHeight:   defaultPatternHeight,
		MonitorIndex:    defaultMonitorIdx,
		MinCropWidth:    defaultMinCropWidth,
		MinCropHeight:   defaultMinCropHeight,
		FrameIntervalMs: defaultFrameIntervalMs,
		MJPEGEnabled:    defaultMJPEGEnabled,
		MJPEGIntervalMs: defaultMJPEGIntervalMs,
		MJPEGQuality:    defaultMJPEGQuality,
		ExportMaxDim:    defaultExportMaxDim,
		FFmpegPath:      defaultFFmpegPath,
		CaptureDriver:   defaultCapture,
		FPS:             defaultFPS,
		BitrateKbps:     defaultBitrateKbps,
	}

	if err := loadEnvFile(filepath.Join(cfg.DataDir, ".env")); err != nil {
		return Config{}, err
	}

	cfg.ListenAddr = envString("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DataDir = envString("DATA_DIR", cfg.DataDir)
	cfg.PresetPath = envString("PRESET_PATH", filepath.Join(cfg.DataDir, "presets.yaml"))
	cfg.InitialPreset = envString("INITIAL_PRESET", cfg.InitialPreset)
	cfg.SourceKind = normalizeSourceKind(envString("SOURCE_KIND", cfg.SourceKind))
	cfg.SourcePath = envString("SOURCE_PATH", cfg.SourcePath)
	cfg.UIPassword = strings.TrimSpace(os.Getenv("UI_PASSWORD"))

	patternWidth, err := envInt("PATTERN_WIDTH", cfg.PatternWidth)
	if err != nil {
		return Config{}, err
	}
	if patternWidth <= 0 {
		return Config{}, fmt.Errorf("PATTERN_WIDTH must be > 0")
	}
	cfg.PatternWidth = patternWidth

	patternHeight, err := envInt("PATTERN_HEIGHT", cfg.PatternHeight)
	if err != nil {
		return Config{}, err
	}
	if patternHeight <= 0 {
		return Config{}, fmt.Errorf("PATTERN_HEIGHT must be > 0")
	}
	cfg.PatternHeight = patternHeight

	monitorIdx, err := envInt("MONITOR_INDEX", cfg.MonitorIndex)
	if err != nil {
		return Config{}, err
	}
	cfg.MonitorIndex = monitorIdx

	minCropWidth, err := envFloat("MIN_CROP_WIDTH", cfg.MinCropWidth)
	if err != nil {
		return Config{}, err
	}
	if minCropWidth < 0 {
		return Config{}, fmt.Errorf("MIN_CROP_WIDTH must be >= 0")
	}
	cfg.MinCropWidth = minCropWidth

	minCropHeight, err := envFloat("MIN_CROP_HEIGHT", cfg.MinCropHeight)
	if err != nil {
		return Config{}, err
	}
	if minCropHeight < 0 {
		return Config{}, fmt.Errorf("MIN_CROP_HEIGHT must be >= 0")
	}
	cfg.MinCropHeight = minCropHeight

	frameInterval, err := envInt("FRAME_INTERVAL_MS", cfg.FrameIntervalMs)
	if err != nil {
		return Config{}, err
	}
	if frameInterval <= 0 {
		return Config{}, fmt.Errorf("FRAME_INTERVAL_MS must be > 0")
	}
	cfg.FrameIntervalMs = frameInterval

	cfg.MJPEGEnabled = envBool("MJPEG_ENABLED", cfg.MJPEGEnabled)

	mjpegInterval, err := envInt("MJPEG_INTERVAL_MS", cfg.MJPEGIntervalMs)
	if err != nil {
		return Config{}, err
	}
	cfg.MJPEGIntervalMs = mjpegInterval

	mjpegQuality, err := envInt("MJPEG_QUALITY", cfg.MJPEGQuality)
	if err != nil {
		return Config{}, err
	}
	if mjpegQuality <= 0 || mjpegQuality > 100 {
		return Config{}, fmt.Errorf("MJPEG_QUALITY must be 1-100")
	}
	cfg.MJPEGQuality = mjpegQuality

	exportMaxDim, err := envInt("EXPORT_MAX_DIM", cfg.ExportMaxDim)
	if err != nil {
		return Config{}, err
	}
	if exportMaxDim <= 0 {
		return Config{}, fmt.Errorf("EXPORT_MAX_DIM must be > 0")
	}
	cfg.ExportMaxDim = exportMaxDim

	cfg.FFmpegEnabled = envBool("FFMPEG_ENABLED", cfg.FFmpegEnabled)
	cfg.FFmpegPath = envString("FFMPEG_PATH", cfg.FFmpegPath)
	cfg.CaptureDriver = normalizeCaptureDriver(envString("CAPTURE_DRIVER", cfg.CaptureDriver))

	fps, err := envInt("FPS", cfg.FPS)
	if err != nil {
		return Config{}, err
	}
	cfg.FPS = fps

	bitrate, err := envInt("BITRATE_KBPS", cfg.BitrateKbps)
	if err != nil {
		return Config{}, err
	}
	cfg.BitrateKbps = bitrate

	if cfg.SourceKind == "image" && cfg.SourcePath == "" {
		return Config{}, errors.New("SOURCE_PATH is required when SOURCE_KIND=image")
	}
	if cfg.UIPassword == "" {
		return Config{}, errors.New("UI_PASSWORD is required")
	}

	return cfg, nil
}

// normalizeSourceKind ensures a supported content source value.
func normalizeSourceKind(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "image":
		return "image"
	case "screen":
		return "screen"
	default:
		return "pattern"
	}
}

// normalizeCaptureDriver ensures a supported capture driver value.
func normalizeCaptureDriver(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "d3d11grab":
		return "d3d11grab"
	default:
		return "gdigrab"
	}
}

// envString returns an env override when present, otherwise a default.
func envString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// envInt returns an int env override when present, otherwise a default.
func envInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return value, nil
}

// envFloat returns a float env override when present, otherwise a default.
func envFloat(key string, def float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", key, err)
	}
	return value, nil
}

// envBool returns a bool env override when present, otherwise a default.
func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	switch strings.ToLower(raw) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

// loadEnvFile loads KEY=VALUE pairs from a .env file.
func loadEnvFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := parseEnvLine(line)
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); !exists {
			if err := os.Setenv(key, value); err != nil {
				return err
			}
		}
	}

	return nil
}

// parseEnvLine parses a single .env line into key/value.
func parseEnvLine(line string) (string, string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}
	if strings.HasPrefix(line, "export ") {
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
	}
	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", false
	}
	value = strings.Trim(value, `"'`)
	return key, value, true
}
