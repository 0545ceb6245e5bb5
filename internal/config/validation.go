// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"
)

// Validate reports every problem with cfg at once. The result wraps
// ErrInvalidConfig.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if _, _, err := net.SplitHostPort(cfg.ListenAddr); err != nil {
		add("listen_addr %q: %v", cfg.ListenAddr, err)
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		add("data_dir must be set")
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level)); err != nil {
		add("log.level %q: %v", cfg.Log.Level, err)
	}
	if cfg.Render.FPS < 1 || cfg.Render.FPS > 60 {
		add("render.fps must be in [1,60], got %d", cfg.Render.FPS)
	}

	switch cfg.Capture.Provider {
	case "ffmpeg", "synthetic":
	default:
		add("capture.provider must be ffmpeg or synthetic, got %q", cfg.Capture.Provider)
	}
	if cfg.Capture.CountdownSeconds < 0 || cfg.Capture.CountdownSeconds > 10 {
		add("capture.countdown_seconds must be in [0,10], got %d", cfg.Capture.CountdownSeconds)
	}
	if cfg.Capture.AutoStartDelay < 0 {
		add("capture.autostart_delay must not be negative")
	}
	if cfg.Capture.Width < 64 || cfg.Capture.Height < 64 {
		add("capture resolution too small: %dx%d", cfg.Capture.Width, cfg.Capture.Height)
	}
	if cfg.Capture.SampleRate <= 0 || cfg.Capture.Channels < 1 || cfg.Capture.Channels > 2 {
		add("capture audio must have a positive sample rate and 1 or 2 channels")
	}

	if strings.TrimSpace(cfg.FFmpeg.Bin) == "" {
		add("ffmpeg.bin must be set")
	}
	if cfg.Recording.ChunkBytes < 4096 {
		add("recording.chunk_bytes must be at least 4096, got %d", cfg.Recording.ChunkBytes)
	}
	if cfg.Recording.StopTimeout <= 0 {
		add("recording.stop_timeout must be positive")
	}

	switch cfg.Remote.Backend {
	case "memory", "none":
	case "redis":
		if cfg.Remote.Redis.Addr == "" {
			add("remote.redis.addr is required for the redis backend")
		}
	default:
		add("remote.backend must be memory, redis or none, got %q", cfg.Remote.Backend)
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Exporter != "grpc" && cfg.Telemetry.Exporter != "http" {
			add("telemetry.exporter must be grpc or http, got %q", cfg.Telemetry.Exporter)
		}
		if cfg.Telemetry.Endpoint == "" {
			add("telemetry.endpoint is required when tracing is enabled")
		}
		if cfg.Telemetry.SampleRate < 0 || cfg.Telemetry.SampleRate > 1 {
			add("telemetry.sample_rate must be in [0,1]")
		}
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RPM <= 0 {
		add("ratelimit.rpm must be positive when enabled")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
