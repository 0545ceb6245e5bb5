// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, g.Write(m))
	return m.GetGauge().GetValue()
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, c.Write(m))
	return m.GetCounter().GetValue()
}

func TestSetCaptureStateIsOneHot(t *testing.T) {
	SetCaptureState("paused")
	for _, s := range captureStates {
		want := 0.0
		if s == "paused" {
			want = 1
		}
		require.Equal(t, want, gaugeValue(t, CaptureState.WithLabelValues(s)), s)
	}
}

func TestIncDeviceErrorDefaultsReason(t *testing.T) {
	before := counterValue(t, DeviceErrorsTotal.WithLabelValues("camera", "unknown"))
	IncDeviceError("camera", "")
	require.Equal(t, before+1, counterValue(t, DeviceErrorsTotal.WithLabelValues("camera", "unknown")))
}

func TestIncBusDropReasonDefaults(t *testing.T) {
	before := counterValue(t, BusDroppedTotal.WithLabelValues("unknown", "unknown"))
	IncBusDropReason("", "")
	require.Equal(t, before+1, counterValue(t, BusDroppedTotal.WithLabelValues("unknown", "unknown")))
}
