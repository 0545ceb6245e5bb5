// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package synthetic

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ManuGH/futureme/internal/capture"
)

func TestProvider_OpenAndRelease(t *testing.T) {
	p := New(Config{Width: 32, Height: 16})
	ctx := context.Background()

	cam, err := p.OpenCamera(ctx, "")
	require.NoError(t, err)
	mic, err := p.OpenMicrophone(ctx, MicrophoneID)
	require.NoError(t, err)

	cams, mics := p.Open()
	require.Equal(t, 1, cams)
	require.Equal(t, 1, mics)

	img, ok := cam.Frame()
	require.True(t, ok)
	require.Equal(t, 32, img.Bounds().Dx())
	require.Equal(t, 16, img.Bounds().Dy())

	require.NoError(t, cam.Close())
	require.NoError(t, cam.Close())
	require.NoError(t, mic.Close())
	cams, mics = p.Open()
	require.Zero(t, cams)
	require.Zero(t, mics)
}

func TestProvider_DeniedCamera(t *testing.T) {
	p := New(Config{DenyCamera: true})
	_, err := p.OpenCamera(context.Background(), "")
	require.ErrorIs(t, err, capture.ErrDeviceAccess)
	require.Equal(t, capture.DeviceDenied, capture.DeviceErrorKindOf(err))
}

func TestMicrophone_PacedSilenceEndsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	m := NewMicrophone(8000, 1, nil)

	buf := make([]byte, 4096)
	start := time.Now()
	total := 0
	for total < 8000 {
		n, err := m.Read(buf)
		require.NoError(t, err)
		require.Zero(t, n%2)
		total += n
	}
	// 8000 bytes is half a second of 8 kHz mono s16le.
	require.GreaterOrEqual(t, time.Since(start), 300*time.Millisecond)

	require.NoError(t, m.Close())
	_, err := m.Read(buf)
	require.ErrorIs(t, err, io.EOF)
}
