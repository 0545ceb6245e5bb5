// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *manager {
	t.Helper()
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	m, err := NewManager(DefaultServerConfig("127.0.0.1:0"), h, zerolog.Nop())
	require.NoError(t, err)
	return m.(*manager)
}

func TestNewManager_RequiresHandler(t *testing.T) {
	_, err := NewManager(DefaultServerConfig(":0"), nil, zerolog.Nop())
	assert.ErrorIs(t, err, ErrMissingAPIHandler)
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	m := newTestManager(t)
	assert.ErrorIs(t, m.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_ServesAndRunsHooksInReverse(t *testing.T) {
	m := newTestManager(t)
	var order []string
	m.RegisterShutdownHook("first", func(context.Context) error { order = append(order, "first"); return nil })
	m.RegisterShutdownHook("second", func(context.Context) error { order = append(order, "second"); return errors.New("boom") })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	actx, acancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer acancel()
	addr, err := m.Addr(actx)
	require.NoError(t, err)

	resp, err := http.Get(fmt.Sprintf("http://%s/", addr))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "second: boom")
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}
	assert.Equal(t, []string{"second", "first"}, order)

	// Second shutdown is a no-op.
	assert.NoError(t, m.Shutdown(context.Background()))
}

func TestManager_StartTwice(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	_, err := m.Addr(context.Background())
	require.NoError(t, err)

	assert.Error(t, m.Start(ctx))
	cancel()
	require.NoError(t, <-done)
}
