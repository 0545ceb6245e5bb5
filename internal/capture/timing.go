// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package capture

import "time"

// TimingAnchor tracks active recording time excluding pauses.
type TimingAnchor struct {
	Start       time.Time
	PausedTotal time.Duration
	PauseStart  *time.Time
	StoppedAt   *time.Time
}

// Begin resets the anchor to start at now.
func (a *TimingAnchor) Begin(now time.Time) {
	*a = TimingAnchor{Start: now}
}

// Pause records the pause instant. A second Pause without Resume is ignored
// so pause time is never double counted.
func (a *TimingAnchor) Pause(now time.Time) {
	if a.PauseStart != nil {
		return
	}
	t := now
	a.PauseStart = &t
}

// Resume adds the pause interval exactly once.
func (a *TimingAnchor) Resume(now time.Time) {
	if a.PauseStart == nil {
		return
	}
	if d := now.Sub(*a.PauseStart); d > 0 {
		a.PausedTotal += d
	}
	a.PauseStart = nil
}

// Stop freezes the anchor at now.
func (a *TimingAnchor) Stop(now time.Time) {
	a.Resume(now)
	t := now
	a.StoppedAt = &t
}

// Elapsed returns active time at now. While paused it is frozen at the pause
// instant; once stopped it is frozen at the stop instant.
func (a TimingAnchor) Elapsed(now time.Time) time.Duration {
	if a.Start.IsZero() {
		return 0
	}
	end := now
	switch {
	case a.StoppedAt != nil:
		end = *a.StoppedAt
	case a.PauseStart != nil:
		end = *a.PauseStart
	}
	d := end.Sub(a.Start) - a.PausedTotal
	if d < 0 {
		return 0
	}
	return d
}
