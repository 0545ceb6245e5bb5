// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

// Transition is a single allowed edge in the capture state machine.
type Transition struct {
	From  State
	To    State
	Event EventKind
}

// Decision records whether an event is allowed in a state and why not.
type Decision struct {
	Allowed bool
	Reason  string
}

var transitionsTable = []Transition{
	// Start path
	{From: StateIdle, To: StateCountdown, Event: EvStart},
	{From: StateCountdown, To: StateRecording, Event: EvCountdownElapsed},
	{From: StateCountdown, To: StateIdle, Event: EvStartFailed},
	{From: StateCountdown, To: StateIdle, Event: EvFinish},

	// Pause toggling
	{From: StateRecording, To: StatePaused, Event: EvPauseResume},
	{From: StatePaused, To: StateRecording, Event: EvPauseResume},

	// Finish path (explicit or implicit after a recorder failure)
	{From: StateRecording, To: StateFinishing, Event: EvFinish},
	{From: StatePaused, To: StateFinishing, Event: EvFinish},
	{From: StateRecording, To: StateFinishing, Event: EvRecorderFailed},
	{From: StatePaused, To: StateFinishing, Event: EvRecorderFailed},
	{From: StateFinishing, To: StateFinished, Event: EvFinalized},

	// Reset
	{From: StateFinished, To: StateIdle, Event: EvReset},
	{From: StateIdle, To: StateIdle, Event: EvReset},
}

var forbiddenReasons = map[State]string{
	StateIdle:      "no capture running; only start or reset is accepted",
	StateCountdown: "countdown in progress; only finish cancels it",
	StateRecording: "recording; pause/resume or finish expected",
	StatePaused:    "paused; pause/resume or finish expected",
	StateFinishing: "recording is being finalized",
	StateFinished:  "session finished; reset before starting again",
}

// TransitionFor returns the allowed transition for a given state+event.
func TransitionFor(from State, ev EventKind) (Transition, bool) {
	for _, tr := range transitionsTable {
		if tr.From == from && tr.Event == ev {
			return tr, true
		}
	}
	return Transition{}, false
}

// DecisionFor explains whether ev is accepted in state from.
func DecisionFor(from State, ev EventKind) Decision {
	if _, ok := TransitionFor(from, ev); ok {
		return Decision{Allowed: true}
	}
	reason, ok := forbiddenReasons[from]
	if !ok {
		reason = "unknown state"
	}
	return Decision{Allowed: false, Reason: ev.String() + " rejected: " + reason}
}
