// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package recording

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

type fakeFrames struct {
	w, h int
	ok   bool
}

func (f *fakeFrames) CopyTo(dst *image.RGBA) (*image.RGBA, uint64, bool) {
	if !f.ok {
		return dst, 0, false
	}
	if dst == nil || dst.Bounds().Dx() != f.w || dst.Bounds().Dy() != f.h {
		dst = image.NewRGBA(image.Rect(0, 0, f.w, f.h))
	}
	dst.Set(0, 0, color.RGBA{R: 255, A: 255})
	return dst, 1, true
}

type fakeEncoder struct {
	payload  []byte
	startErr error
	availErr error

	mu       sync.Mutex
	sessions []*fakeSession
}

func (e *fakeEncoder) Start(_ context.Context, spec EncodeSpec) (EncoderSession, error) {
	if e.startErr != nil {
		return nil, e.startErr
	}
	pr, pw := io.Pipe()
	s := &fakeSession{spec: spec, payload: e.payload, out: pr, outW: pw, done: make(chan struct{})}
	e.mu.Lock()
	e.sessions = append(e.sessions, s)
	e.mu.Unlock()
	return s, nil
}

func (e *fakeEncoder) Available() error { return e.availErr }

func (e *fakeEncoder) last() *fakeSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[len(e.sessions)-1]
}

type fakeSession struct {
	spec    EncodeSpec
	payload []byte
	out     *io.PipeReader
	outW    *io.PipeWriter
	done    chan struct{}
	once    sync.Once

	frames   atomic.Int64
	finished atomic.Bool

	audioMu sync.Mutex
	audio   bytes.Buffer
}

func (s *fakeSession) WriteFrame(pix []byte) error {
	if s.finished.Load() {
		return errors.New("stdin closed")
	}
	if len(pix) != s.spec.Width*s.spec.Height*4 {
		return errors.New("bad frame size")
	}
	s.frames.Add(1)
	return nil
}

type lockedWriter struct{ s *fakeSession }

func (w lockedWriter) Write(p []byte) (int, error) {
	w.s.audioMu.Lock()
	defer w.s.audioMu.Unlock()
	return w.s.audio.Write(p)
}

func (s *fakeSession) Audio() io.Writer {
	if !s.spec.Audio {
		return nil
	}
	return lockedWriter{s}
}

func (s *fakeSession) audioBytes() int {
	s.audioMu.Lock()
	defer s.audioMu.Unlock()
	return s.audio.Len()
}

func (s *fakeSession) Output() io.Reader     { return s.out }
func (s *fakeSession) Done() <-chan struct{} { return s.done }
func (s *fakeSession) Diagnostics() []string { return []string{"encoder log line"} }
func (s *fakeSession) Abort() error          { s.crash(); return nil }

func (s *fakeSession) Finish(context.Context) error {
	s.once.Do(func() {
		s.finished.Store(true)
		if len(s.payload) > 0 {
			_, _ = s.outW.Write(s.payload)
		}
		_ = s.outW.Close()
		close(s.done)
	})
	return nil
}

// crash simulates the encoder process dying mid-recording.
func (s *fakeSession) crash() {
	s.once.Do(func() {
		_ = s.outW.Close()
		close(s.done)
	})
}

type fakeMic struct {
	closed atomic.Bool
}

func (m *fakeMic) Read(p []byte) (int, error) {
	if m.closed.Load() {
		return 0, io.EOF
	}
	time.Sleep(5 * time.Millisecond)
	n := min(len(p), 960)
	clear(p[:n])
	return n, nil
}

func (m *fakeMic) SampleRate() int { return 48000 }
func (m *fakeMic) Channels() int   { return 1 }
func (m *fakeMic) Close() error    { m.closed.Store(true); return nil }
