// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package config loads the daemon configuration: defaults, then a strict YAML
// file, then FUTUREME_* environment overrides, then validation.
package config

import (
	"time"

	"github.com/ManuGH/futureme/internal/settings"
)

// AppConfig is the effective configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	ListenAddr string `yaml:"listen_addr"`
	DataDir    string `yaml:"data_dir"`

	Log       LogConfig             `yaml:"log"`
	Tele      settings.TeleSettings `yaml:"tele"`
	Render    RenderConfig          `yaml:"render"`
	Capture   CaptureConfig         `yaml:"capture"`
	FFmpeg    FFmpegConfig          `yaml:"ffmpeg"`
	Recording RecordingConfig       `yaml:"recording"`
	Remote    RemoteConfig          `yaml:"remote"`
	Telemetry TelemetryConfig       `yaml:"telemetry"`
	RateLimit RateLimitConfig       `yaml:"ratelimit"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RenderConfig struct {
	FPS int `yaml:"fps"`
}

// CaptureConfig selects devices and the countdown before recording.
type CaptureConfig struct {
	// Provider is "ffmpeg" for real devices or "synthetic" for generated
	// test sources.
	Provider         string        `yaml:"provider"`
	Camera           string        `yaml:"camera"`
	Microphone       string        `yaml:"microphone"`
	CountdownSeconds int           `yaml:"countdown_seconds"`
	AutoStartDelay   time.Duration `yaml:"autostart_delay"`
	Width            int           `yaml:"width"`
	Height           int           `yaml:"height"`
	FPS              int           `yaml:"fps"`
	SampleRate       int           `yaml:"sample_rate"`
	Channels         int           `yaml:"channels"`
}

type FFmpegConfig struct {
	Bin        string `yaml:"bin"`
	FFprobeBin string `yaml:"ffprobe_bin"`
}

// RecordingConfig tunes the encoder and the on-disk copy.
type RecordingConfig struct {
	Save             bool          `yaml:"save"`
	Dir              string        `yaml:"dir"`
	VideoBitrate     string        `yaml:"video_bitrate"`
	AudioBitrate     string        `yaml:"audio_bitrate"`
	ChunkBytes       int           `yaml:"chunk_bytes"`
	StopTimeout      time.Duration `yaml:"stop_timeout"`
	PauseUnsupported bool          `yaml:"pause_unsupported"`
}

// RemoteConfig selects the broadcast channel backend.
type RemoteConfig struct {
	// Backend is "memory", "redis" or "none".
	Backend string      `yaml:"backend"`
	Redis   RedisConfig `yaml:"redis"`
	// WSRate is the per-connection command rate for WebSocket controllers.
	WSRate  float64 `yaml:"ws_rate"`
	WSBurst int     `yaml:"ws_burst"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type TelemetryConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

type RateLimitConfig struct {
	Enabled bool `yaml:"enabled"`
	// RPM is requests per minute per client IP.
	RPM int `yaml:"rpm"`
}
