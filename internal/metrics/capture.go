// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package metrics declares the Prometheus instruments used across futureme.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CaptureTransitionsTotal counts state machine transitions.
	CaptureTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_capture_transitions_total",
		Help: "Total capture state transitions",
	}, []string{"from", "to"})

	// CaptureRejectedTotal counts events rejected by the state machine.
	CaptureRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_capture_rejected_total",
		Help: "Total capture events rejected in the current state",
	}, []string{"state", "event"})

	// CaptureState exposes the current state as a one-hot gauge.
	CaptureState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "futureme_capture_state",
		Help: "Current capture state (1 = active)",
	}, []string{"state"})

	// DeviceErrorsTotal counts camera/microphone acquisition failures.
	DeviceErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_device_errors_total",
		Help: "Total device acquisition failures",
	}, []string{"kind", "reason"})

	// CleanupErrorsTotal counts swallowed best-effort cleanup failures.
	CleanupErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_cleanup_errors_total",
		Help: "Total best-effort cleanup failures (logged and swallowed)",
	}, []string{"resource"})

	// RecordedSeconds observes the active duration of finished recordings.
	RecordedSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "futureme_recorded_seconds",
		Help:    "Active duration of finished recordings",
		Buckets: prometheus.ExponentialBuckets(5, 2, 8), // 5s to ~10min
	})
)

var captureStates = []string{"idle", "countdown", "recording", "paused", "finishing", "finished"}

// SetCaptureState marks state as the only active capture state.
func SetCaptureState(state string) {
	for _, s := range captureStates {
		v := 0.0
		if s == state {
			v = 1
		}
		CaptureState.WithLabelValues(s).Set(v)
	}
}

// IncDeviceError records a device acquisition failure.
func IncDeviceError(kind, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	DeviceErrorsTotal.WithLabelValues(kind, reason).Inc()
}

// IncCleanupError records a swallowed cleanup failure.
func IncCleanupError(resource string) {
	CleanupErrorsTotal.WithLabelValues(resource).Inc()
}
