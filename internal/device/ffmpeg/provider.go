// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package ffmpeg opens V4L2 cameras and ALSA microphones through ffmpeg
// child processes.
package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/futureme/internal/capture"
	ff "github.com/ManuGH/futureme/internal/infra/ffmpeg"
	xglog "github.com/ManuGH/futureme/internal/log"
)

// Config tunes the capture processes.
type Config struct {
	Binary     string
	Width      int
	Height     int
	FPS        int
	SampleRate int
	Channels   int

	// ReadyTimeout bounds how long OpenCamera waits for the first frame.
	ReadyTimeout time.Duration
	// StopGrace is the SIGTERM grace before SIGKILL on Close.
	StopGrace time.Duration

	// Roots for enumeration; overridable in tests.
	DevGlob    string
	SysfsRoot  string
	AsoundPath string
}

// Provider implements capture.DeviceProvider.
type Provider struct {
	cfg    Config
	logger zerolog.Logger
}

var _ capture.DeviceProvider = (*Provider)(nil)

// New returns a provider with defaults filled in.
func New(cfg Config) *Provider {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 640, 480
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.ReadyTimeout <= 0 {
		cfg.ReadyTimeout = 5 * time.Second
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = 2 * time.Second
	}
	if cfg.DevGlob == "" {
		cfg.DevGlob = "/dev/video*"
	}
	if cfg.SysfsRoot == "" {
		cfg.SysfsRoot = "/sys/class/video4linux"
	}
	if cfg.AsoundPath == "" {
		cfg.AsoundPath = "/proc/asound/cards"
	}
	return &Provider{cfg: cfg, logger: xglog.WithComponent("device")}
}

// Devices enumerates V4L2 nodes and ALSA cards. The ALSA "default" device is
// always listed.
func (p *Provider) Devices(_ context.Context) ([]capture.Device, error) {
	var out []capture.Device

	nodes, err := filepath.Glob(p.cfg.DevGlob)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", p.cfg.DevGlob, err)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		label := node
		if b, err := os.ReadFile(filepath.Join(p.cfg.SysfsRoot, filepath.Base(node), "name")); err == nil {
			if name := strings.TrimSpace(string(b)); name != "" {
				label = name
			}
		}
		out = append(out, capture.Device{ID: node, Label: label, Kind: capture.KindCamera})
	}

	out = append(out, capture.Device{ID: "default", Label: "Default microphone", Kind: capture.KindMicrophone})
	cards, err := readALSACards(p.cfg.AsoundPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		p.logger.Warn().Err(err).Msg("reading ALSA card list failed")
	}
	out = append(out, cards...)
	return out, nil
}

// readALSACards parses /proc/asound/cards lines such as
// " 0 [PCH            ]: HDA-Intel - HDA Intel PCH".
func readALSACards(path string) ([]capture.Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var out []capture.Device
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] != ' ' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		idx := fields[0]
		if _, err := fmt.Sscanf(idx, "%d", new(int)); err != nil {
			continue
		}
		label := "Card " + idx
		if i := strings.Index(line, " - "); i >= 0 {
			label = strings.TrimSpace(line[i+3:])
		}
		out = append(out, capture.Device{ID: "hw:" + idx, Label: label, Kind: capture.KindMicrophone})
	}
	return out, scanner.Err()
}

// OpenCamera starts a capture process and waits for the first frame so
// permission and busy errors surface here instead of mid-recording.
func (p *Provider) OpenCamera(ctx context.Context, id string) (capture.VideoSource, error) {
	if id == "" {
		nodes, _ := filepath.Glob(p.cfg.DevGlob)
		sort.Strings(nodes)
		if len(nodes) == 0 {
			return nil, &capture.DeviceError{Kind: capture.DeviceNotFound, Device: "camera", Err: errors.New("no video devices")}
		}
		id = nodes[0]
	}
	if err := probeNode(id); err != nil {
		return nil, err
	}

	proc, err := ff.Start(ctx, ff.Options{
		Binary: p.cfg.Binary,
		Args: ff.CameraArgs(ff.CameraSpec{
			Device: id,
			Width:  p.cfg.Width,
			Height: p.cfg.Height,
			FPS:    p.cfg.FPS,
		}),
		Stdout: true,
		Logger: p.logger,
	})
	if err != nil {
		return nil, &capture.DeviceError{Kind: capture.DeviceUnavailable, Device: id, Err: err}
	}

	cam := newCamera(proc, id, p.cfg.Width, p.cfg.Height, p.cfg.StopGrace, p.logger)
	if err := cam.waitReady(ctx, p.cfg.ReadyTimeout); err != nil {
		_ = cam.Close()
		return nil, err
	}
	p.logger.Info().Str(xglog.FieldDevice, id).
		Str(xglog.FieldResolution, fmt.Sprintf("%dx%d", p.cfg.Width, p.cfg.Height)).
		Msg("camera opened")
	return cam, nil
}

// OpenMicrophone starts an ALSA capture process producing s16le PCM.
func (p *Provider) OpenMicrophone(ctx context.Context, id string) (capture.AudioSource, error) {
	if id == "" {
		id = "default"
	}
	proc, err := ff.Start(ctx, ff.Options{
		Binary: p.cfg.Binary,
		Args: ff.MicrophoneArgs(ff.MicrophoneSpec{
			Device:     id,
			SampleRate: p.cfg.SampleRate,
			Channels:   p.cfg.Channels,
		}),
		Stdout: true,
		Logger: p.logger,
	})
	if err != nil {
		return nil, &capture.DeviceError{Kind: capture.DeviceUnavailable, Device: id, Err: err}
	}

	mic := &microphone{
		proc:       proc,
		id:         id,
		sampleRate: p.cfg.SampleRate,
		channels:   p.cfg.Channels,
		grace:      p.cfg.StopGrace,
	}
	// ALSA open errors make ffmpeg exit immediately.
	select {
	case <-proc.Done():
		err := classify(id, proc.Diagnostics(), proc.Err())
		_ = mic.Close()
		return nil, err
	case <-time.After(200 * time.Millisecond):
	case <-ctx.Done():
		_ = mic.Close()
		return nil, ctx.Err()
	}
	p.logger.Info().Str(xglog.FieldDevice, id).Msg("microphone opened")
	return mic, nil
}

// probeNode maps open(2) errors on the device node to device error kinds.
func probeNode(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err == nil {
		return f.Close()
	}
	return &capture.DeviceError{Kind: kindForErrno(err), Device: path, Err: err}
}

func kindForErrno(err error) capture.DeviceErrorKind {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return capture.DeviceNotFound
	case errors.Is(err, fs.ErrPermission):
		return capture.DeviceDenied
	case errors.Is(err, syscall.EBUSY):
		return capture.DeviceBusy
	default:
		return capture.DeviceUnavailable
	}
}

// classify turns an early ffmpeg exit into a device error using its stderr.
func classify(device string, stderr []string, exitErr error) error {
	text := strings.ToLower(strings.Join(stderr, "\n"))
	kind := capture.DeviceUnavailable
	switch {
	case strings.Contains(text, "permission denied"):
		kind = capture.DeviceDenied
	case strings.Contains(text, "device or resource busy"):
		kind = capture.DeviceBusy
	case strings.Contains(text, "no such file"), strings.Contains(text, "no such device"):
		kind = capture.DeviceNotFound
	}
	if exitErr == nil {
		exitErr = errors.New("capture process exited")
	}
	if len(stderr) > 0 {
		exitErr = fmt.Errorf("%w: %s", exitErr, stderr[len(stderr)-1])
	}
	return &capture.DeviceError{Kind: kind, Device: device, Err: exitErr}
}
