// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemoteCommandsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_remote_commands_total",
		Help: "Total remote-control commands by type and result",
	}, []string{"type", "result"})

	BusDroppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "futureme_bus_dropped_total",
		Help: "Total bus message drops by topic and reason",
	}, []string{"topic", "reason"})
)

// IncRemoteCommand records one remote command outcome.
func IncRemoteCommand(typ, result string) {
	if typ == "" {
		typ = "unknown"
	}
	RemoteCommandsTotal.WithLabelValues(typ, result).Inc()
}

// IncBusDropReason records a dropped bus message with a concrete reason.
func IncBusDropReason(topic, reason string) {
	if topic == "" {
		topic = "unknown"
	}
	if reason == "" {
		reason = "unknown"
	}
	BusDroppedTotal.WithLabelValues(topic, reason).Inc()
}
