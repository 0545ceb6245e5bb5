// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

import (
	"context"
	"image"
	"io"
	"time"
)

// DeviceKind distinguishes cameras from microphones.
type DeviceKind string

const (
	KindCamera     DeviceKind = "camera"
	KindMicrophone DeviceKind = "microphone"
)

// Device is one enumerated input device. An empty ID selects the platform default.
type Device struct {
	ID    string     `json:"id"`
	Label string     `json:"label"`
	Kind  DeviceKind `json:"kind"`
}

// DeviceProvider enumerates and opens capture devices.
type DeviceProvider interface {
	Devices(ctx context.Context) ([]Device, error)
	OpenCamera(ctx context.Context, id string) (VideoSource, error)
	OpenMicrophone(ctx context.Context, id string) (AudioSource, error)
}

// VideoSource exposes the most recent camera frame. Frame reports false until
// the first frame has arrived.
type VideoSource interface {
	Frame() (image.Image, bool)
	Close() error
}

// StreamEnder is implemented by sources that can end on their own, such as a
// camera whose capture process exited. Ended is closed once no further data
// will arrive.
type StreamEnder interface {
	Ended() <-chan struct{}
}

// AudioSource is a live PCM stream (signed 16-bit little endian).
type AudioSource interface {
	io.Reader
	SampleRate() int
	Channels() int
	Close() error
}

// Output describes the finished recording exposed to clients.
type Output struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Filename  string    `json:"filename"`
	MIME      string    `json:"mime"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// Recorder is the recording pipeline as seen by the session. Stop must be
// idempotent; Discard revokes the last output reference, if any.
type Recorder interface {
	Start(ctx context.Context, mic AudioSource) error
	Pause() error
	Resume() error
	Stop(ctx context.Context) (*Output, error)
	Discard(ctx context.Context) error
	// Done delivers at most one error when the recorder dies on its own.
	Done() <-chan error
}

// AvailabilityChecker is implemented by recorders that can tell, before any
// device is opened, whether recording is possible at all.
type AvailabilityChecker interface {
	Available() error
}

// Clock abstracts time for the timing anchor and countdowns.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }
