// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimingAnchor_PauseRoundTrip(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	var a TimingAnchor
	require.Zero(t, a.Elapsed(t0))

	a.Begin(t0)
	require.Equal(t, 10*time.Second, a.Elapsed(t0.Add(10*time.Second)))

	a.Pause(t0.Add(10 * time.Second))
	a.Pause(t0.Add(20 * time.Second))
	require.Equal(t, 10*time.Second, a.Elapsed(t0.Add(45*time.Second)))

	a.Resume(t0.Add(40 * time.Second))
	a.Resume(t0.Add(50 * time.Second))
	require.Equal(t, 30*time.Second, a.PausedTotal)
	require.Equal(t, 15*time.Second, a.Elapsed(t0.Add(45*time.Second)))

	a.Stop(t0.Add(60 * time.Second))
	require.Equal(t, 30*time.Second, a.Elapsed(t0.Add(10*time.Minute)))
}

func TestTimingAnchor_StopWhilePausedCountsPauseOnce(t *testing.T) {
	t0 := time.Unix(1_700_000_000, 0)
	var a TimingAnchor
	a.Begin(t0)
	a.Pause(t0.Add(5 * time.Second))
	a.Stop(t0.Add(25 * time.Second))
	require.Equal(t, 5*time.Second, a.Elapsed(t0.Add(time.Hour)))
	require.Equal(t, 20*time.Second, a.PausedTotal)
}
