// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package capture owns the capture session: the recording state machine,
// camera and microphone handles, and the pause-aware timing anchor.
package capture

// State is the capture state of a session. Exactly one is active at a time.
type State string

const (
	StateIdle      State = "idle"
	StateCountdown State = "countdown"
	StateRecording State = "recording"
	StatePaused    State = "paused"
	StateFinishing State = "finishing"
	StateFinished  State = "finished"
)

// IsActive reports whether a recorder is running in this state.
func (s State) IsActive() bool {
	return s == StateRecording || s == StatePaused
}

// HoldsDevices reports whether camera/microphone handles may be held.
func (s State) HoldsDevices() bool {
	switch s {
	case StateCountdown, StateRecording, StatePaused, StateFinishing:
		return true
	default:
		return false
	}
}

// EventKind is an input to the capture state machine.
type EventKind int

const (
	EvUnknown EventKind = iota
	EvStart
	EvCountdownElapsed
	EvStartFailed
	EvPauseResume
	EvFinish
	EvRecorderFailed
	EvFinalized
	EvReset
)

func (e EventKind) String() string {
	switch e {
	case EvStart:
		return "start"
	case EvCountdownElapsed:
		return "countdown_elapsed"
	case EvStartFailed:
		return "start_failed"
	case EvPauseResume:
		return "pause_resume"
	case EvFinish:
		return "finish"
	case EvRecorderFailed:
		return "recorder_failed"
	case EvFinalized:
		return "finalized"
	case EvReset:
		return "reset"
	default:
		return "unknown"
	}
}
