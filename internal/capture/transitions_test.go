// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransitionFor_Table(t *testing.T) {
	tests := []struct {
		from State
		ev   EventKind
		to   State
		ok   bool
	}{
		{StateIdle, EvStart, StateCountdown, true},
		{StateCountdown, EvCountdownElapsed, StateRecording, true},
		{StateCountdown, EvStartFailed, StateIdle, true},
		{StateCountdown, EvFinish, StateIdle, true},
		{StateRecording, EvPauseResume, StatePaused, true},
		{StatePaused, EvPauseResume, StateRecording, true},
		{StateRecording, EvFinish, StateFinishing, true},
		{StatePaused, EvFinish, StateFinishing, true},
		{StateRecording, EvRecorderFailed, StateFinishing, true},
		{StateFinishing, EvFinalized, StateFinished, true},
		{StateFinished, EvReset, StateIdle, true},
		{StateIdle, EvReset, StateIdle, true},

		{StateIdle, EvPauseResume, "", false},
		{StateIdle, EvFinish, "", false},
		{StateCountdown, EvPauseResume, "", false},
		{StateRecording, EvStart, "", false},
		{StateFinishing, EvFinish, "", false},
		{StateFinishing, EvReset, "", false},
		{StateFinished, EvStart, "", false},
		{StateFinished, EvPauseResume, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+tt.ev.String(), func(t *testing.T) {
			tr, ok := TransitionFor(tt.from, tt.ev)
			require.Equal(t, tt.ok, ok)
			if ok {
				require.Equal(t, tt.to, tr.To)
			}
			d := DecisionFor(tt.from, tt.ev)
			require.Equal(t, tt.ok, d.Allowed)
			if !tt.ok {
				require.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestTransitions_DevicesHeldOnlyInActiveStates(t *testing.T) {
	for _, tr := range transitionsTable {
		if tr.To == StateIdle || tr.To == StateFinished {
			require.False(t, tr.To.HoldsDevices(), "%s must not hold devices", tr.To)
		}
	}
	require.True(t, StateFinishing.HoldsDevices())
	require.False(t, StateFinishing.IsActive())
}
