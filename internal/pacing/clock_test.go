// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package pacing

import (
	"testing"
	"time"

	"github.com/ManuGH/futureme/internal/script"
	"github.com/stretchr/testify/require"
)

func TestLineIndexScenario(t *testing.T) {
	s := script.Tokenize("Line one.\nLine two.\nLine three.")
	cum := s.Cumulative()
	require.Equal(t, []int{2, 4, 6}, cum)

	tests := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 0},
		{1999 * time.Millisecond, 0},
		{2 * time.Second, 1},
		{2500 * time.Millisecond, 1},
		{4 * time.Second, 2},
		{10 * time.Second, 2},
		{time.Hour, 2},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, LineIndex(tt.elapsed, 60, cum), "elapsed=%s", tt.elapsed)
	}
}

func TestLineIndexDegenerateInputs(t *testing.T) {
	require.Equal(t, 0, LineIndex(time.Minute, 0, []int{1, 2}))
	require.Equal(t, 0, LineIndex(time.Minute, -5, []int{1, 2}))
	require.Equal(t, 0, LineIndex(time.Minute, 120, nil))
	require.Equal(t, 0, LineIndex(-time.Second, 120, []int{3, 6}))
}

func TestLineIndexMonotonicAndBounded(t *testing.T) {
	s := script.Tokenize("I am strong\nI am kind and patient with myself\nToday\nI finish what I start, one step at a time\nAmen")
	cum := s.Cumulative()
	for _, wpm := range []int{20, 80, 130, 260} {
		prev := 0
		for ms := 0; ms <= 120000; ms += 37 {
			idx := LineIndex(time.Duration(ms)*time.Millisecond, wpm, cum)
			require.GreaterOrEqual(t, idx, prev, "wpm=%d ms=%d", wpm, ms)
			require.Less(t, idx, len(cum))
			prev = idx
		}
		require.Equal(t, len(cum)-1, prev, "wpm=%d should reach the last line", wpm)
	}
}

func TestScriptDuration(t *testing.T) {
	require.Equal(t, 6*time.Second, ScriptDuration(6, 60))
	require.Equal(t, 30*time.Second, ScriptDuration(65, 130))
	require.Equal(t, time.Second, ScriptDuration(0, 60))
	require.Equal(t, time.Duration(0), ScriptDuration(10, 0))
}

func TestProgressClamped(t *testing.T) {
	require.InDelta(t, 0.5, Progress(3*time.Second, 60, 6), 1e-9)
	require.Equal(t, 1.0, Progress(time.Minute, 60, 6))
	require.Equal(t, 0.0, Progress(0, 60, 6))
}
