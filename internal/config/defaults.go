// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"time"

	"github.com/ManuGH/futureme/internal/settings"
)

// Defaults returns the configuration used when nothing overrides it.
func Defaults() AppConfig {
	return AppConfig{
		ListenAddr: ":8088",
		DataDir:    "./data",
		Log:        LogConfig{Level: "info"},
		Tele:       settings.Defaults(),
		Render:     RenderConfig{FPS: 30},
		Capture: CaptureConfig{
			Provider:         "ffmpeg",
			Camera:           "default",
			Microphone:       "default",
			CountdownSeconds: 3,
			AutoStartDelay:   time.Second,
			Width:            1280,
			Height:           720,
			FPS:              30,
			SampleRate:       48000,
			Channels:         1,
		},
		FFmpeg: FFmpegConfig{Bin: "ffmpeg"},
		Recording: RecordingConfig{
			Save:         true,
			VideoBitrate: "2M",
			AudioBitrate: "96k",
			ChunkBytes:   256 << 10,
			StopTimeout:  10 * time.Second,
		},
		Remote: RemoteConfig{
			Backend: "memory",
			WSRate:  10,
			WSBurst: 5,
		},
		Telemetry: TelemetryConfig{
			Exporter:    "grpc",
			Endpoint:    "localhost:4317",
			ServiceName: "futureme",
			SampleRate:  1.0,
		},
		RateLimit: RateLimitConfig{Enabled: true, RPM: 600},
	}
}
