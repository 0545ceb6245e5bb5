// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package remote

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newRedisBus(t *testing.T) (*RedisBus, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	b, err := NewRedisBus(context.Background(), RedisConfig{Addr: mr.Addr()}, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b, mr
}

func TestRedisBus_RoundTrip(t *testing.T) {
	b, _ := newRedisBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, Channel)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	require.NoError(t, b.Publish(ctx, Channel, NumberCommand(CmdFont, 64)))
	select {
	case cmd := <-sub.C():
		require.Equal(t, CmdFont, cmd.Type)
		v, ok := cmd.Number()
		require.True(t, ok)
		require.Equal(t, 64.0, v)
	case <-time.After(2 * time.Second):
		t.Fatal("command not delivered")
	}
}

func TestRedisBus_SkipsUndecodablePayloads(t *testing.T) {
	b, mr := newRedisBus(t)
	ctx := context.Background()

	sub, err := b.Subscribe(ctx, Channel)
	require.NoError(t, err)
	defer func() { _ = sub.Close() }()

	mr.Publish(Channel, "not json")
	require.NoError(t, b.Publish(ctx, Channel, Command{Type: CmdFinish}))

	select {
	case cmd := <-sub.C():
		require.Equal(t, CmdFinish, cmd.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("command not delivered")
	}
}

func TestNewRedisBus_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := NewRedisBus(ctx, RedisConfig{Addr: addr}, zerolog.Nop())
	require.Error(t, err)
}
