// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Loader applies the configuration layers in order.
type Loader struct {
	configPath string
	version    string
	// ConsumedEnvKeys records every environment key the loader read.
	ConsumedEnvKeys map[string]struct{}
}

// NewLoader creates a loader for the YAML file at configPath ("" for
// environment-only configuration).
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// Path returns the configured file path.
func (l *Loader) Path() string { return l.configPath }

// Load builds the effective configuration: defaults, file, env, validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}
	l.mergeEnv(&cfg)

	cfg.FFmpeg.FFprobeBin = ResolveFFprobeBin(cfg.FFmpeg.FFprobeBin, cfg.FFmpeg.Bin)
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.Recording.Dir == "" {
		cfg.Recording.Dir = filepath.Join(cfg.DataDir, "recordings")
	}
	cfg.Tele = cfg.Tele.Clamp()
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadFile decodes the YAML file over cfg. Unknown keys, multiple documents
// and non-YAML extensions are rejected.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}
	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := newStrictDecoder(bytes.NewReader(data))
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if isUnknownFieldError(err) {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func (l *Loader) envString(key, def string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, def)
}

func (l *Loader) envInt(key string, def int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, def)
}

func (l *Loader) envFloat(key string, def float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, def)
}

func (l *Loader) envBool(key string, def bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, def)
}

func (l *Loader) envDuration(key string, def time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, def)
}

// mergeEnv applies FUTUREME_* overrides, the highest-priority layer.
func (l *Loader) mergeEnv(cfg *AppConfig) {
	p := EnvPrefix
	cfg.ListenAddr = l.envString(p+"LISTEN_ADDR", cfg.ListenAddr)
	cfg.DataDir = l.envString(p+"DATA_DIR", cfg.DataDir)
	cfg.Log.Level = l.envString(p+"LOG_LEVEL", cfg.Log.Level)

	cfg.Tele.WordsPerMinute = l.envInt(p+"WPM", cfg.Tele.WordsPerMinute)
	cfg.Tele.FontSize = l.envInt(p+"FONT_SIZE", cfg.Tele.FontSize)
	cfg.Tele.LineHeight = l.envFloat(p+"LINE_HEIGHT", cfg.Tele.LineHeight)
	cfg.Tele.Mirror = l.envBool(p+"MIRROR", cfg.Tele.Mirror)
	cfg.Tele.PIPSizePercent = l.envInt(p+"PIP_SIZE", cfg.Tele.PIPSizePercent)
	cfg.Tele.CameraOffsetPercent = l.envInt(p+"CAMERA_OFFSET", cfg.Tele.CameraOffsetPercent)
	cfg.Tele.AutoStart = l.envBool(p+"AUTOSTART", cfg.Tele.AutoStart)

	cfg.Render.FPS = l.envInt(p+"RENDER_FPS", cfg.Render.FPS)

	cfg.Capture.Provider = l.envString(p+"CAPTURE_PROVIDER", cfg.Capture.Provider)
	cfg.Capture.Camera = l.envString(p+"CAMERA", cfg.Capture.Camera)
	cfg.Capture.Microphone = l.envString(p+"MICROPHONE", cfg.Capture.Microphone)
	cfg.Capture.CountdownSeconds = l.envInt(p+"COUNTDOWN_SECONDS", cfg.Capture.CountdownSeconds)
	cfg.Capture.AutoStartDelay = l.envDuration(p+"AUTOSTART_DELAY", cfg.Capture.AutoStartDelay)

	cfg.FFmpeg.Bin = l.envString(p+"FFMPEG_BIN", cfg.FFmpeg.Bin)
	cfg.FFmpeg.FFprobeBin = l.envString(p+"FFPROBE_BIN", cfg.FFmpeg.FFprobeBin)

	cfg.Recording.Save = l.envBool(p+"RECORDING_SAVE", cfg.Recording.Save)
	cfg.Recording.Dir = l.envString(p+"RECORDING_DIR", cfg.Recording.Dir)
	cfg.Recording.StopTimeout = l.envDuration(p+"RECORDING_STOP_TIMEOUT", cfg.Recording.StopTimeout)

	cfg.Remote.Backend = l.envString(p+"REMOTE_BACKEND", cfg.Remote.Backend)
	cfg.Remote.Redis.Addr = l.envString(p+"REDIS_ADDR", cfg.Remote.Redis.Addr)
	cfg.Remote.Redis.Password = l.envString(p+"REDIS_PASSWORD", cfg.Remote.Redis.Password)
	cfg.Remote.Redis.DB = l.envInt(p+"REDIS_DB", cfg.Remote.Redis.DB)

	cfg.Telemetry.Enabled = l.envBool(p+"TRACING_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString(p+"TRACING_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString(p+"OTLP_ENDPOINT", cfg.Telemetry.Endpoint)

	cfg.RateLimit.Enabled = l.envBool(p+"RATELIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RPM = l.envInt(p+"RATELIMIT_RPM", cfg.RateLimit.RPM)
}
