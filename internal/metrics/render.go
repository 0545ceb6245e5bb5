// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesRenderedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "futureme_frames_rendered_total",
		Help: "Total composited frames",
	})

	FramePanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "futureme_frame_panics_total",
		Help: "Total frames aborted by a recovered panic",
	})

	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "futureme_render_duration_seconds",
		Help:    "Time spent compositing one frame",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2.0, 10), // 0.5ms to ~250ms
	})

	CurrentLine = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "futureme_current_line",
		Help: "Index of the highlighted script line",
	})
)
