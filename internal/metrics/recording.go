// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecordingBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "futureme_recording_bytes_total",
		Help: "Total encoded bytes buffered by the recorder",
	})

	RecordingFramesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_recording_frames_total",
		Help: "Total frames handed to the encoder, by result",
	}, []string{"result"})

	EncoderExitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_encoder_exit_total",
		Help: "Total encoder process exits",
	}, []string{"reason"})

	ArtifactsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "futureme_artifacts_live",
		Help: "Recording artifacts currently referenced",
	})

	ArtifactsRevokedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "futureme_artifacts_revoked_total",
		Help: "Total revoked recording artifact references",
	})
)

var (
	procSignalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_proc_signals_total",
		Help: "Signals sent to helper process groups",
	}, []string{"signal", "result"})

	procExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_proc_exits_total",
		Help: "Helper process exits observed during termination",
	}, []string{"result"})
)

// IncProcSignal counts a signal sent to a helper process group.
func IncProcSignal(signal, result string) {
	procSignalsTotal.WithLabelValues(signal, result).Inc()
}

// IncProcExit counts how a terminated helper process exited.
func IncProcExit(result string) {
	procExitsTotal.WithLabelValues(result).Inc()
}
