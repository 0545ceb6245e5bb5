// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition = errors.New("illegal capture transition")
	ErrBusy              = errors.New("capture start already in progress")
	ErrDeviceAccess      = errors.New("device access failed")
	ErrPauseUnsupported  = errors.New("pause not supported by recorder")
	ErrRecorderStart     = errors.New("recorder failed to start")
	ErrRecorderFailed    = errors.New("recorder failed mid-recording")
	ErrClosed            = errors.New("capture session closed")
	ErrStreamEnded       = errors.New("camera stream ended")

	// ErrRecordingUnsupported is returned by Start, before any device is
	// opened, when the host cannot record at all.
	ErrRecordingUnsupported = errors.New("recording is not supported on this host")
)

// DeviceErrorKind classifies device-access failures for messages and metrics.
type DeviceErrorKind string

const (
	DeviceDenied      DeviceErrorKind = "permission_denied"
	DeviceBusy        DeviceErrorKind = "busy"
	DeviceNotFound    DeviceErrorKind = "not_found"
	DeviceUnavailable DeviceErrorKind = "unavailable"
)

// DeviceError is returned by device providers when a camera or microphone
// cannot be opened. It matches ErrDeviceAccess with errors.Is.
type DeviceError struct {
	Kind   DeviceErrorKind
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("device %q %s: %v", e.Device, e.Kind, e.Err)
	}
	return fmt.Sprintf("device %q %s", e.Device, e.Kind)
}

func (e *DeviceError) Unwrap() error { return e.Err }

func (e *DeviceError) Is(target error) bool { return target == ErrDeviceAccess }

// DeviceErrorKindOf returns the device error classification, or "" when err
// is not a device error.
func DeviceErrorKindOf(err error) DeviceErrorKind {
	var de *DeviceError
	if errors.As(err, &de) {
		return de.Kind
	}
	if errors.Is(err, ErrDeviceAccess) {
		return DeviceUnavailable
	}
	return ""
}

func illegal(from State, ev EventKind) error {
	d := DecisionFor(from, ev)
	return fmt.Errorf("%w: %s", ErrIllegalTransition, d.Reason)
}
