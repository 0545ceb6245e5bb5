// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package synthetic provides a device provider without hardware: a moving
// test pattern camera and a real-time paced silent microphone.
package synthetic

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/ManuGH/futureme/internal/capture"
)

const (
	CameraID     = "synthetic:camera"
	MicrophoneID = "synthetic:microphone"
)

// Config sizes the synthetic sources. The Deny flags simulate a refused
// permission prompt.
type Config struct {
	Width      int
	Height     int
	SampleRate int
	Channels   int

	DenyCamera     bool
	DenyMicrophone bool
}

// Provider implements capture.DeviceProvider.
type Provider struct {
	cfg Config

	openCams atomic.Int32
	openMics atomic.Int32
}

var _ capture.DeviceProvider = (*Provider)(nil)

func New(cfg Config) *Provider {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		cfg.Width, cfg.Height = 640, 480
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	return &Provider{cfg: cfg}
}

func (p *Provider) Devices(context.Context) ([]capture.Device, error) {
	return []capture.Device{
		{ID: CameraID, Label: "Test pattern", Kind: capture.KindCamera},
		{ID: MicrophoneID, Label: "Silence", Kind: capture.KindMicrophone},
	}, nil
}

func (p *Provider) OpenCamera(_ context.Context, id string) (capture.VideoSource, error) {
	if p.cfg.DenyCamera {
		return nil, &capture.DeviceError{Kind: capture.DeviceDenied, Device: deviceName(id, CameraID)}
	}
	p.openCams.Add(1)
	return &Camera{w: p.cfg.Width, h: p.cfg.Height, open: &p.openCams}, nil
}

func (p *Provider) OpenMicrophone(_ context.Context, id string) (capture.AudioSource, error) {
	if p.cfg.DenyMicrophone {
		return nil, &capture.DeviceError{Kind: capture.DeviceDenied, Device: deviceName(id, MicrophoneID)}
	}
	p.openMics.Add(1)
	return NewMicrophone(p.cfg.SampleRate, p.cfg.Channels, &p.openMics), nil
}

// Open reports how many cameras and microphones are currently held.
func (p *Provider) Open() (cameras, microphones int) {
	return int(p.openCams.Load()), int(p.openMics.Load())
}

func deviceName(id, fallback string) string {
	if id == "" {
		return fallback
	}
	return id
}

// Camera renders colour bars with a bar sweeping one step per frame.
type Camera struct {
	w, h      int
	tick      atomic.Int64
	open      *atomic.Int32
	closeOnce sync.Once
}

var bars = []color.RGBA{
	{R: 192, G: 192, B: 192, A: 255},
	{R: 192, G: 192, B: 0, A: 255},
	{R: 0, G: 192, B: 192, A: 255},
	{R: 0, G: 192, B: 0, A: 255},
	{R: 192, G: 0, B: 192, A: 255},
	{R: 192, G: 0, B: 0, A: 255},
	{R: 0, G: 0, B: 192, A: 255},
}

func (c *Camera) Frame() (image.Image, bool) {
	n := c.tick.Add(1)
	img := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
	sweep := int(n) % c.w
	for y := 0; y < c.h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+c.w*4]
		for x := 0; x < c.w; x++ {
			col := bars[x*len(bars)/c.w]
			if x == sweep {
				col = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			i := x * 4
			row[i], row[i+1], row[i+2], row[i+3] = col.R, col.G, col.B, col.A
		}
	}
	return img, true
}

func (c *Camera) Close() error {
	c.closeOnce.Do(func() {
		if c.open != nil {
			c.open.Add(-1)
		}
	})
	return nil
}

// Microphone yields s16le silence no faster than real time.
type Microphone struct {
	sampleRate int
	channels   int
	limiter    *rate.Limiter
	burst      int

	ctx       context.Context
	cancel    context.CancelFunc
	open      *atomic.Int32
	closeOnce sync.Once
}

// NewMicrophone returns a paced silent source. open may be nil.
func NewMicrophone(sampleRate, channels int, open *atomic.Int32) *Microphone {
	bytesPerSec := sampleRate * channels * 2
	burst := bytesPerSec / 50
	if burst < 2 {
		burst = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Microphone{
		sampleRate: sampleRate,
		channels:   channels,
		limiter:    rate.NewLimiter(rate.Limit(bytesPerSec), burst),
		burst:      burst,
		ctx:        ctx,
		cancel:     cancel,
		open:       open,
	}
}

func (m *Microphone) Read(p []byte) (int, error) {
	n := len(p)
	if n > m.burst {
		n = m.burst
	}
	// Keep whole samples.
	n -= n % 2
	if n == 0 {
		return 0, io.ErrShortBuffer
	}
	if err := m.limiter.WaitN(m.ctx, n); err != nil {
		if errors.Is(err, context.Canceled) {
			return 0, io.EOF
		}
		return 0, err
	}
	clear(p[:n])
	return n, nil
}

func (m *Microphone) SampleRate() int { return m.sampleRate }
func (m *Microphone) Channels() int   { return m.channels }

func (m *Microphone) Close() error {
	m.closeOnce.Do(func() {
		m.cancel()
		if m.open != nil {
			m.open.Add(-1)
		}
	})
	return nil
}
