// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compositor

import (
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ManuGH/futureme/internal/script"
	"github.com/ManuGH/futureme/internal/settings"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func testSettings(font int) settings.TeleSettings {
	s := settings.Defaults()
	s.FontSize = font
	s.Viewport = settings.Viewport{Width: 640, Height: 360}
	return s
}

func canvas(s settings.TeleSettings) *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, s.Viewport.Width, s.Viewport.Height))
}

func testCamera() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.SetRGBA(x, y, color.RGBA{R: uint8(x), G: uint8(y * 2), B: 90, A: 255})
		}
	}
	return img
}

func TestRender_FontFitShrinksWideLine(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(72)
	sc := script.Tokenize("short\n" + strings.Repeat("a considerably longer line ", 6) + "\nend")

	lay := r.Render(canvas(set), Input{Script: sc, Settings: set})
	require.Less(t, lay.FontSize, 72)
	require.LessOrEqual(t, lay.WidestLine, lay.TextWidth)
	require.Equal(t, r.widestLine(sc.Lines, lay.FontSize), lay.WidestLine)
}

func TestRender_FontNeverEnlarges(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(40)
	lay := r.Render(canvas(set), Input{Script: script.Tokenize("hi"), Settings: set})
	require.Equal(t, 40, lay.FontSize)
}

func TestRender_FitToScreenUsesLargestFittingSize(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(settings.FitToScreen)

	lay := r.Render(canvas(set), Input{Script: script.Tokenize("hi"), Settings: set})
	require.Equal(t, settings.MaxFontSize, lay.FontSize)

	long := script.Tokenize(strings.Repeat("word ", 40))
	lay = r.Render(canvas(set), Input{Script: long, Settings: set})
	require.Less(t, lay.FontSize, settings.MaxFontSize)
	require.LessOrEqual(t, lay.WidestLine, lay.TextWidth)
}

func TestRender_MirrorIsHorizontalFlip(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(36)
	in := Input{
		Script:   script.Tokenize("first line\nsecond line\nthird"),
		Settings: set,
		Line:     1,
		Camera:   testCamera(),
		Phase:    PhaseRecording,
	}

	plain := canvas(set)
	r.Render(plain, in)

	in.Settings.Mirror = true
	mirrored := canvas(set)
	lay := r.Render(mirrored, in)
	require.True(t, lay.Mirrored)

	flipHorizontal(plain)
	require.Equal(t, plain.Pix, mirrored.Pix)
}

func TestRender_EmptyScriptDoesNotPanic(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(settings.FitToScreen)

	require.NotPanics(t, func() {
		lay := r.Render(canvas(set), Input{Script: script.Script{}, Settings: set, Line: 5})
		require.Equal(t, 0, lay.Current)
		require.Equal(t, 0, lay.First)
		require.Equal(t, 0, lay.Last)
	})
	require.NotPanics(t, func() {
		r.Render(canvas(set), Input{Script: script.Tokenize(""), Settings: set, Line: -3})
	})
	require.NotPanics(t, func() {
		r.Render(image.NewRGBA(image.Rect(0, 0, 0, 0)), Input{Settings: set})
	})
}

func TestRender_SkipsMissingCamera(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(36)
	dst := canvas(set)

	lay := r.Render(dst, Input{Script: script.Tokenize("line"), Settings: set})
	require.False(t, lay.CameraDrawn)
	c := lay.PIP.Min.Add(lay.PIP.Size().Div(2))
	require.Equal(t, colorBackground, dst.RGBAAt(c.X, c.Y))

	lay = r.Render(dst, Input{Script: script.Tokenize("line"), Settings: set, Camera: testCamera()})
	require.True(t, lay.CameraDrawn)
	require.NotEqual(t, colorBackground, dst.RGBAAt(c.X, c.Y))
}

func TestRender_PIPSizeFollowsPercent(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(36)
	set.PIPSizePercent = 35
	lay := r.Render(canvas(set), Input{Script: script.Tokenize("x"), Settings: set, Camera: testCamera()})
	require.Equal(t, 640*35/100, lay.PIP.Dx())
	require.Equal(t, lay.PIP.Dx()*120/160, lay.PIP.Dy())
	require.Equal(t, 640-lay.Margin, lay.PIP.Max.X)
}

func TestRender_AnchorAndVisibleBand(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(32)
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = "line"
	}
	sc := script.Tokenize(strings.Join(lines, "\n"))

	lay := r.Render(canvas(set), Input{Script: sc, Settings: set, Line: 100})
	height := 360
	require.Equal(t, int(float64(height)*AnchorRatio), lay.AnchorY)
	require.Equal(t, 100, lay.Current)
	require.Less(t, lay.First, lay.Current)
	require.Greater(t, lay.Last, lay.Current)

	// Every line intersecting the frame is inside the drawn range.
	for i := 0; i < sc.Len(); i++ {
		cy := lay.AnchorY + (i-lay.Current)*lay.LineHeight
		if cy+lay.LineHeight/2 >= 0 && cy-lay.LineHeight/2 <= lay.Height {
			require.GreaterOrEqual(t, i, lay.First, "line %d visible", i)
			require.LessOrEqual(t, i, lay.Last, "line %d visible", i)
		}
	}
	// The band is bounded: far-away lines are skipped.
	require.Less(t, lay.Last-lay.First, 40)
}

func TestRender_LineClampedToLast(t *testing.T) {
	r := newTestRenderer(t)
	set := testSettings(32)
	lay := r.Render(canvas(set), Input{Script: script.Tokenize("a\nb\nc"), Settings: set, Line: 99})
	require.Equal(t, 2, lay.Current)
	require.Equal(t, 2, lay.Last)
}

func TestCameraCrop_Offset(t *testing.T) {
	src := image.Rect(0, 0, 400, 300)
	dst := image.Rect(0, 0, 160, 120)

	center := cameraCrop(src, dst, 0)
	require.Equal(t, 320, center.Dx())
	require.Equal(t, 240, center.Dy())
	require.Equal(t, 30, center.Min.Y)

	down := cameraCrop(src, dst, 40)
	require.Equal(t, src.Max.Y, down.Max.Y)
	up := cameraCrop(src, dst, -40)
	require.Equal(t, src.Min.Y, up.Min.Y)

	require.True(t, down.In(src))
	require.True(t, up.In(src))
}

func TestFlipHorizontal_Involution(t *testing.T) {
	img := testCamera()
	orig := append([]uint8(nil), img.Pix...)
	flipHorizontal(img)
	require.Equal(t, color.RGBA{R: 159, G: 0, B: 90, A: 255}, img.RGBAAt(0, 0))
	flipHorizontal(img)
	require.Equal(t, orig, img.Pix)
}
