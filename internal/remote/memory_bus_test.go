// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package remote

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/futureme/internal/metrics"
)

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	metric := &dto.Metric{}
	require.NoError(t, counter.Write(metric))
	return metric.GetCounter().GetValue()
}

func TestMemoryBusBroadcastsToAllSubscribers(t *testing.T) {
	b := NewMemoryBus()
	ctx := context.Background()
	a, err := b.Subscribe(ctx, Channel)
	require.NoError(t, err)
	c, err := b.Subscribe(ctx, Channel)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(); _ = c.Close() })

	require.NoError(t, b.Publish(ctx, Channel, Command{Type: CmdStart}))
	require.Equal(t, CmdStart, (<-a.C()).Type)
	require.Equal(t, CmdStart, (<-c.C()).Type)
}

func TestMemoryBusPublishContextTimeoutIncrementsDropMetrics(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Close() })

	for i := 0; i < cap(sub.C()); i++ {
		require.NoError(t, b.Publish(context.Background(), "topic", Command{Type: CmdFinish}))
	}

	before := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("topic", "timeout"))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = b.Publish(ctx, "topic", Command{Type: CmdFinish})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	after := getCounterValue(t, metrics.BusDroppedTotal.WithLabelValues("topic", "timeout"))
	require.Greater(t, after, before)
}

func TestMemoryBusPublishRejectsNilContext(t *testing.T) {
	b := NewMemoryBus()
	//nolint:staticcheck // nil context is the case under test
	err := b.Publish(nil, "topic", Command{Type: CmdStart})
	require.Error(t, err)
	require.Contains(t, err.Error(), "context is nil")
}

func TestMemoryBusCloseIsIdempotent(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), Channel)
	require.NoError(t, err)
	require.NoError(t, sub.Close())
	require.NoError(t, sub.Close())
	_, ok := <-sub.C()
	require.False(t, ok)
	require.NoError(t, b.Publish(context.Background(), Channel, Command{Type: CmdStart}))
}

func TestMemoryBusCloseDuringBlockedPublishDoesNotPanic(t *testing.T) {
	b := NewMemoryBus()
	sub, err := b.Subscribe(context.Background(), "topic")
	require.NoError(t, err)
	for i := 0; i < cap(sub.C()); i++ {
		require.NoError(t, b.Publish(context.Background(), "topic", Command{Type: CmdFinish}))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	published := make(chan error, 1)
	go func() { published <- b.Publish(ctx, "topic", Command{Type: CmdFinish}) }()

	// Wait until the publisher holds the read lock.
	require.Eventually(t, func() bool {
		if b.mu.TryLock() {
			b.mu.Unlock()
			return false
		}
		return true
	}, time.Second, time.Millisecond)

	closed := make(chan struct{})
	go func() {
		_ = sub.Close()
		close(closed)
	}()

	require.ErrorIs(t, <-published, context.DeadlineExceeded)
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber close stayed blocked after publish gave up")
	}
}
