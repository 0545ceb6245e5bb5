// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/futureme/internal/capture"
	ff "github.com/ManuGH/futureme/internal/infra/ffmpeg"
	xglog "github.com/ManuGH/futureme/internal/log"
)

// camera reads fixed-size RGBA frames from ffmpeg and keeps the newest.
type camera struct {
	proc   *ff.Process
	id     string
	w, h   int
	grace  time.Duration
	logger zerolog.Logger

	latest atomic.Pointer[image.RGBA]
	ready  chan struct{}
	readyO sync.Once
	readWG sync.WaitGroup
	ended  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

func newCamera(proc *ff.Process, id string, w, h int, grace time.Duration, logger zerolog.Logger) *camera {
	c := &camera{
		proc:   proc,
		id:     id,
		w:      w,
		h:      h,
		grace:  grace,
		logger: logger,
		ready:  make(chan struct{}),
		ended:  make(chan struct{}),
	}
	c.readWG.Add(1)
	go c.readFrames()
	return c
}

var _ capture.StreamEnder = (*camera)(nil)

func (c *camera) readFrames() {
	defer c.readWG.Done()
	defer close(c.ended)
	size := c.w * c.h * 4
	for {
		img := image.NewRGBA(image.Rect(0, 0, c.w, c.h))
		if _, err := io.ReadFull(c.proc.Stdout, img.Pix[:size]); err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, os.ErrClosed) {
				c.logger.Debug().Err(err).Str(xglog.FieldDevice, c.id).Msg("camera read stopped")
			}
			return
		}
		c.latest.Store(img)
		c.readyO.Do(func() { close(c.ready) })
	}
}

func (c *camera) waitReady(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-c.ready:
		return nil
	case <-c.proc.Done():
		return classify(c.id, c.proc.Diagnostics(), c.proc.Err())
	case <-timer.C:
		return &capture.DeviceError{Kind: capture.DeviceUnavailable, Device: c.id, Err: fmt.Errorf("no frame within %s", timeout)}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Frame returns the newest frame. Frames are never mutated after Store. Once
// the ffmpeg stream has ended no stale frame is served.
func (c *camera) Frame() (image.Image, bool) {
	select {
	case <-c.ended:
		return nil, false
	default:
	}
	img := c.latest.Load()
	if img == nil {
		return nil, false
	}
	return img, true
}

// Ended is closed when the capture process stops delivering frames.
func (c *camera) Ended() <-chan struct{} { return c.ended }

func (c *camera) Close() error {
	c.closeOnce.Do(func() {
		err := c.proc.Stop(c.grace)
		_ = c.proc.Stdout.Close()
		c.readWG.Wait()
		var exitErr interface{ ExitCode() int }
		if err != nil && !errors.As(err, &exitErr) {
			c.closeErr = err
		}
	})
	return c.closeErr
}

type microphone struct {
	proc       *ff.Process
	id         string
	sampleRate int
	channels   int
	grace      time.Duration

	closeOnce sync.Once
	closeErr  error
}

func (m *microphone) Read(p []byte) (int, error) { return m.proc.Stdout.Read(p) }
func (m *microphone) SampleRate() int            { return m.sampleRate }
func (m *microphone) Channels() int              { return m.channels }

func (m *microphone) Close() error {
	m.closeOnce.Do(func() {
		err := m.proc.Stop(m.grace)
		_ = m.proc.Stdout.Close()
		var exitErr interface{ ExitCode() int }
		if err != nil && !errors.As(err, &exitErr) {
			m.closeErr = err
		}
	})
	return m.closeErr
}
