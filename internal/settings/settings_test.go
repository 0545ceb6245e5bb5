// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package settings

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	s := TeleSettings{
		WordsPerMinute:      5,
		FontSize:            500,
		LineHeight:          0.4,
		PIPSizePercent:      80,
		CameraOffsetPercent: -90,
		Viewport:            Viewport{Width: 10, Height: 99999},
	}.Clamp()

	require.Equal(t, MinWPM, s.WordsPerMinute)
	require.Equal(t, MaxFontSize, s.FontSize)
	require.Equal(t, MinLineHeight, s.LineHeight)
	require.Equal(t, MaxPIPPercent, s.PIPSizePercent)
	require.Equal(t, MinCameraOffset, s.CameraOffsetPercent)
	require.Equal(t, Viewport{Width: MinViewportSide, Height: MaxViewportSide}, s.Viewport)
}

func TestClampKeepsFitSentinel(t *testing.T) {
	s := Defaults()
	s.FontSize = FitToScreen
	require.True(t, s.Clamp().IsFit())
}

func TestPatchApply(t *testing.T) {
	wpm := 300
	mirror := true
	font := 40
	got := Patch{WordsPerMinute: &wpm, Mirror: &mirror, FontSize: &font}.Apply(Defaults())
	require.Equal(t, MaxWPM, got.WordsPerMinute)
	require.True(t, got.Mirror)
	require.Equal(t, 40, got.FontSize)
	require.Equal(t, Defaults().PIPSizePercent, got.PIPSizePercent)
}

func TestStoreNotifiesListeners(t *testing.T) {
	st := NewStore(Defaults())
	ch := make(chan TeleSettings, 1)
	st.Subscribe(ch)

	st.Update(func(s *TeleSettings) { s.PIPSizePercent = 2 })
	got := <-ch
	require.Equal(t, MinPIPPercent, got.PIPSizePercent)
	require.Equal(t, got, st.Get())

	// A full listener never blocks writers.
	st.Update(func(s *TeleSettings) { s.Mirror = true })
	st.Update(func(s *TeleSettings) { s.Mirror = false })
	require.False(t, st.Get().Mirror)
}
