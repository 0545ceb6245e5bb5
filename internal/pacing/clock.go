// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package pacing maps elapsed reading time to the line currently being spoken.
package pacing

import (
	"sort"
	"time"
)

// LineIndex returns the index of the line being spoken after elapsed active
// time at the given words-per-minute rate. cumulative holds the running word
// totals per line. The result is clamped to the last line; a non-positive
// rate or an empty sequence yields 0.
func LineIndex(elapsed time.Duration, wpm int, cumulative []int) int {
	if wpm <= 0 || len(cumulative) == 0 {
		return 0
	}
	spoken := WordsSpoken(elapsed, wpm)
	// First index whose cumulative count exceeds the spoken estimate.
	idx := sort.Search(len(cumulative), func(i int) bool {
		return float64(cumulative[i]) > spoken
	})
	if idx >= len(cumulative) {
		return len(cumulative) - 1
	}
	return idx
}

// WordsSpoken is the fractional number of words read after elapsed at wpm.
func WordsSpoken(elapsed time.Duration, wpm int) float64 {
	if wpm <= 0 || elapsed <= 0 {
		return 0
	}
	wordsPerMs := float64(wpm) / 60000.0
	return wordsPerMs * float64(elapsed.Milliseconds())
}

// ScriptDuration estimates how long reading totalWords takes at wpm.
func ScriptDuration(totalWords, wpm int) time.Duration {
	if wpm <= 0 {
		return 0
	}
	if totalWords < 1 {
		totalWords = 1
	}
	ms := float64(totalWords) / float64(wpm) * 60000.0
	return time.Duration(ms) * time.Millisecond
}

// Progress returns the spoken fraction of the script in [0,1].
func Progress(elapsed time.Duration, wpm, totalWords int) float64 {
	if totalWords < 1 {
		totalWords = 1
	}
	p := WordsSpoken(elapsed, wpm) / float64(totalWords)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	default:
		return p
	}
}
