// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/futureme/internal/settings"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "futureme.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_DefaultsOnly(t *testing.T) {
	cfg, err := NewLoader("", "v1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.2.3", cfg.Version)
	assert.Equal(t, ":8088", cfg.ListenAddr)
	assert.True(t, filepath.IsAbs(cfg.DataDir))
	assert.Equal(t, filepath.Join(cfg.DataDir, "recordings"), cfg.Recording.Dir)
	assert.Equal(t, settings.Defaults(), cfg.Tele)
	assert.Equal(t, 3, cfg.Capture.CountdownSeconds)
	assert.Equal(t, "memory", cfg.Remote.Backend)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
listen_addr: "127.0.0.1:9000"
data_dir: `+dir+`
tele:
  wpm: 150
  mirror: true
  pip_size_percent: 90
capture:
  provider: synthetic
  countdown_seconds: 5
  autostart_delay: 2s
remote:
  backend: redis
  redis:
    addr: localhost:6379
`)
	t.Setenv("FUTUREME_WPM", "180")
	t.Setenv("FUTUREME_COUNTDOWN_SECONDS", "0")

	l := NewLoader(path, "test")
	cfg, err := l.Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, 180, cfg.Tele.WordsPerMinute)
	assert.True(t, cfg.Tele.Mirror)
	assert.Equal(t, settings.MaxPIPPercent, cfg.Tele.PIPSizePercent, "tele values are clamped")
	assert.Equal(t, settings.Defaults().LineHeight, cfg.Tele.LineHeight, "unset keys keep defaults")
	assert.Equal(t, "synthetic", cfg.Capture.Provider)
	assert.Equal(t, 0, cfg.Capture.CountdownSeconds)
	assert.Equal(t, 2*time.Second, cfg.Capture.AutoStartDelay)
	assert.Equal(t, "localhost:6379", cfg.Remote.Redis.Addr)
	assert.Contains(t, l.ConsumedEnvKeys, "FUTUREME_WPM")
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "tele:\n  words_per_minute: 100\n")
	_, err := NewLoader(path, "").Load()
	require.ErrorIs(t, err, ErrUnknownConfigField)
}

func TestLoad_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "listen_addr: \":1\"\n---\nlisten_addr: \":2\"\n")
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoad_RejectsNonYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "futureme.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))
	_, err := NewLoader(path, "").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only YAML")
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "")
	cfg, err := NewLoader(path, "").Load()
	require.NoError(t, err)
	assert.Equal(t, ":8088", cfg.ListenAddr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
		msg    string
	}{
		{"bad listen addr", func(c *AppConfig) { c.ListenAddr = "nope" }, "listen_addr"},
		{"bad level", func(c *AppConfig) { c.Log.Level = "loud" }, "log.level"},
		{"fps", func(c *AppConfig) { c.Render.FPS = 0 }, "render.fps"},
		{"provider", func(c *AppConfig) { c.Capture.Provider = "webcam" }, "capture.provider"},
		{"countdown", func(c *AppConfig) { c.Capture.CountdownSeconds = 60 }, "countdown_seconds"},
		{"redis addr", func(c *AppConfig) { c.Remote.Backend = "redis" }, "remote.redis.addr"},
		{"backend", func(c *AppConfig) { c.Remote.Backend = "carrier-pigeon" }, "remote.backend"},
		{"exporter", func(c *AppConfig) { c.Telemetry.Enabled = true; c.Telemetry.Exporter = "zipkin" }, "telemetry.exporter"},
		{"chunk", func(c *AppConfig) { c.Recording.ChunkBytes = 10 }, "chunk_bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
	require.NoError(t, Validate(Defaults()))
}

func TestValidate_ReportsAllProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Render.FPS = 0
	cfg.Capture.Provider = ""
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render.fps")
	assert.Contains(t, err.Error(), "capture.provider")
}
