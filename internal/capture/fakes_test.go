// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

import (
	"context"
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"time"
)

type fakeClock struct {
	mu      sync.Mutex
	now     time.Time
	waiters []clockWaiter
}

type clockWaiter struct {
	at time.Time
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.waiters = append(c.waiters, clockWaiter{at: c.now.Add(d), ch: ch})
	return ch
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	kept := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.at.After(c.now) {
			w.ch <- c.now
			continue
		}
		kept = append(kept, w)
	}
	c.waiters = kept
}

func (c *fakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.waiters)
}

type fakeCamera struct {
	closed  atomic.Int32
	ended   chan struct{}
	endOnce sync.Once
}

func (f *fakeCamera) Ended() <-chan struct{} { return f.ended }

// end simulates the capture process dying.
func (f *fakeCamera) end() { f.endOnce.Do(func() { close(f.ended) }) }

func (f *fakeCamera) Frame() (image.Image, bool) {
	return image.NewRGBA(image.Rect(0, 0, 4, 4)), true
}

func (f *fakeCamera) Close() error {
	f.closed.Add(1)
	return nil
}

type fakeMic struct {
	closed atomic.Int32
}

func (f *fakeMic) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func (f *fakeMic) SampleRate() int { return 48000 }
func (f *fakeMic) Channels() int   { return 1 }

func (f *fakeMic) Close() error {
	f.closed.Add(1)
	return nil
}

type fakeProvider struct {
	mu        sync.Mutex
	devices   []Device
	camErr    error
	micErr    error
	cams      []*fakeCamera
	mics      []*fakeMic
	cameraIDs []string
	micIDs    []string
}

func (p *fakeProvider) Devices(context.Context) ([]Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Device(nil), p.devices...), nil
}

func (p *fakeProvider) OpenCamera(_ context.Context, id string) (VideoSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cameraIDs = append(p.cameraIDs, id)
	if p.camErr != nil {
		return nil, p.camErr
	}
	c := &fakeCamera{ended: make(chan struct{})}
	p.cams = append(p.cams, c)
	return c, nil
}

func (p *fakeProvider) OpenMicrophone(_ context.Context, id string) (AudioSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.micIDs = append(p.micIDs, id)
	if p.micErr != nil {
		return nil, p.micErr
	}
	m := &fakeMic{}
	p.mics = append(p.mics, m)
	return m, nil
}

func (p *fakeProvider) camera(i int) *fakeCamera {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cams[i]
}

func (p *fakeProvider) cameraOpens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.cameraIDs)
}

// openHandles counts camera and microphone handles that were opened and
// not yet closed.
func (p *fakeProvider) openHandles() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.cams {
		if c.closed.Load() == 0 {
			n++
		}
	}
	for _, m := range p.mics {
		if m.closed.Load() == 0 {
			n++
		}
	}
	return n
}

type fakeRecorder struct {
	mu             sync.Mutex
	startErr       error
	pauseErr       error
	availErr       error
	starts         int
	stops          int
	discards       int
	paused         bool
	done           chan error
	output         *Output
	revokedOutputs int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{}
}

func (r *fakeRecorder) Start(context.Context, AudioSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.startErr != nil {
		return r.startErr
	}
	r.starts++
	r.done = make(chan error, 1)
	return nil
}

func (r *fakeRecorder) Available() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.availErr
}

func (r *fakeRecorder) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pauseErr != nil {
		return r.pauseErr
	}
	r.paused = true
	return nil
}

func (r *fakeRecorder) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = false
	return nil
}

func (r *fakeRecorder) Stop(context.Context) (*Output, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stops++
	if r.output != nil {
		r.revokedOutputs++
	}
	r.output = &Output{
		ID:       "rec-1",
		URL:      "/artifacts/rec-1",
		Filename: "futureme-test.webm",
		MIME:     "video/webm",
		Size:     1024,
	}
	return r.output, nil
}

func (r *fakeRecorder) Discard(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.discards++
	if r.output != nil {
		r.revokedOutputs++
		r.output = nil
	}
	return nil
}

func (r *fakeRecorder) Done() <-chan error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.done
}

func (r *fakeRecorder) fail(err error) {
	r.mu.Lock()
	ch := r.done
	r.mu.Unlock()
	ch <- err
}

var errBoom = errors.New("boom")
