// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package compositor draws teleprompter frames: background, the camera as a
// rounded picture-in-picture inset, and the script with the current line
// highlighted and scrolled to a fixed anchor.
package compositor

import (
	"image"
	"image/color"
	"image/draw"
	"strconv"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/ManuGH/futureme/internal/script"
	"github.com/ManuGH/futureme/internal/settings"
)

const (
	// AnchorRatio places the current line's centre slightly above the middle
	// so upcoming lines stay visible below it.
	AnchorRatio = 0.42
	// OverscanLines are drawn beyond the visible band on each side.
	OverscanLines = 1

	// cameraZoom leaves vertical room in the source for the camera offset.
	cameraZoom = 0.8
)

var (
	colorBackground = color.RGBA{R: 12, G: 12, B: 16, A: 255}
	colorText       = color.RGBA{R: 150, G: 150, B: 160, A: 255}
	colorCurrent    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	colorHighlight  = color.NRGBA{R: 255, G: 196, B: 64, A: 56}
	colorRecording  = color.RGBA{R: 230, G: 40, B: 40, A: 255}
	colorShade      = color.NRGBA{R: 0, G: 0, B: 0, A: 140}
)

// Phase is the capture phase shown by the status overlay.
type Phase string

const (
	PhaseIdle      Phase = ""
	PhaseCountdown Phase = "countdown"
	PhaseRecording Phase = "recording"
	PhasePaused    Phase = "paused"
	PhaseFinished  Phase = "finished"
)

// Input is everything one frame depends on.
type Input struct {
	Script   script.Script
	Settings settings.TeleSettings
	Line     int
	// Camera is the latest camera frame; nil when no camera is ready.
	Camera image.Image

	Phase Phase
	// Countdown is the number of whole seconds left while counting down.
	Countdown int
}

// Layout reports the geometry used for a frame.
type Layout struct {
	Width       int
	Height      int
	Margin      int
	TextWidth   int
	FontSize    int
	WidestLine  int
	LineHeight  int
	AnchorY     int
	Current     int
	First, Last int
	PIP         image.Rectangle
	CameraDrawn bool
	Mirrored    bool
}

// Renderer draws frames. It is not safe for concurrent use.
type Renderer struct {
	regular *faceCache
	bold    *faceCache

	// widest-line widths per size for the last script seen
	memoLines  *string
	memoLen    int
	memoWidths map[int]int

	pipScratch *image.RGBA
	pipMask    *image.Alpha
}

// NewRenderer loads the embedded fonts.
func NewRenderer() (*Renderer, error) {
	regular, bold, err := loadFonts()
	if err != nil {
		return nil, err
	}
	return &Renderer{regular: regular, bold: bold}, nil
}

// Close releases cached font faces.
func (r *Renderer) Close() {
	r.regular.Close()
	r.bold.Close()
}

// Render draws one frame into dst and returns its layout. It never panics on
// an empty script or a missing camera frame.
func (r *Renderer) Render(dst *image.RGBA, in Input) Layout {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	lay := Layout{Width: w, Height: h, Mirrored: in.Settings.Mirror}

	draw.Draw(dst, b, image.NewUniform(colorBackground), image.Point{}, draw.Src)
	if w <= 0 || h <= 0 {
		return lay
	}

	lay.Margin = max(12, min(w, h)/30)
	lay.TextWidth = max(1, w-2*lay.Margin)

	lay.PIP = pipRect(b, in.Settings.PIPSizePercent, lay.Margin, in.Camera)
	if in.Camera != nil && !in.Camera.Bounds().Empty() {
		r.drawCamera(dst, lay.PIP, in.Camera, in.Settings.CameraOffsetPercent)
		lay.CameraDrawn = true
	}

	lines := in.Script.Lines
	if len(lines) == 0 {
		lines = []string{script.Placeholder}
	}
	lay.FontSize, lay.WidestLine = r.fitFontSize(lines, in.Settings, lay.TextWidth)
	lineHeight := in.Settings.LineHeight
	if lineHeight < settings.MinLineHeight {
		lineHeight = settings.MinLineHeight
	}
	lay.LineHeight = max(1, int(float64(lay.FontSize)*lineHeight+0.5))
	lay.AnchorY = int(float64(h) * AnchorRatio)
	lay.Current = clampIndex(in.Line, len(lines))
	lay.First, lay.Last = visibleRange(lay.Current, len(lines), lay.AnchorY, h, lay.LineHeight)

	r.drawLines(dst, lines, lay)
	r.drawStatus(dst, in, lay)

	// Mirroring the finished frame flips text and inset together.
	if in.Settings.Mirror {
		flipHorizontal(dst)
	}
	return lay
}

// pipRect places the inset in the top-right corner. Its aspect follows the
// camera frame when one is available, 4:3 otherwise.
func pipRect(b image.Rectangle, percent, margin int, cam image.Image) image.Rectangle {
	percent = settings.ClampInt(percent, settings.MinPIPPercent, settings.MaxPIPPercent)
	pw := b.Dx() * percent / 100
	ph := pw * 3 / 4
	if cam != nil {
		if cb := cam.Bounds(); cb.Dx() > 0 && cb.Dy() > 0 {
			ph = pw * cb.Dy() / cb.Dx()
		}
	}
	if limit := b.Dy() - 2*margin; ph > limit {
		ph = max(1, limit)
	}
	x1 := b.Max.X - margin
	y0 := b.Min.Y + margin
	return image.Rect(x1-pw, y0, x1, y0+ph)
}

// cameraCrop picks the source region: a centred cover-fit crop zoomed by
// cameraZoom, shifted vertically by offsetPercent of the source height.
func cameraCrop(src image.Rectangle, dst image.Rectangle, offsetPercent int) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw <= 0 || sh <= 0 || dw <= 0 || dh <= 0 {
		return src
	}
	cw, ch := sw, sw*dh/dw
	if ch > sh {
		ch, cw = sh, sh*dw/dh
	}
	cw = max(1, int(float64(cw)*cameraZoom))
	ch = max(1, int(float64(ch)*cameraZoom))

	offsetPercent = settings.ClampInt(offsetPercent, settings.MinCameraOffset, settings.MaxCameraOffset)
	x0 := src.Min.X + (sw-cw)/2
	y0 := src.Min.Y + (sh-ch)/2 + sh*offsetPercent/100
	if y0 < src.Min.Y {
		y0 = src.Min.Y
	}
	if y0+ch > src.Max.Y {
		y0 = src.Max.Y - ch
	}
	return image.Rect(x0, y0, x0+cw, y0+ch)
}

func (r *Renderer) drawCamera(dst *image.RGBA, pip image.Rectangle, cam image.Image, offset int) {
	pw, ph := pip.Dx(), pip.Dy()
	if pw <= 0 || ph <= 0 {
		return
	}
	if r.pipScratch == nil || r.pipScratch.Bounds().Dx() != pw || r.pipScratch.Bounds().Dy() != ph {
		r.pipScratch = image.NewRGBA(image.Rect(0, 0, pw, ph))
		r.pipMask = roundedMask(pw, ph, float32(pw)/12)
	}
	crop := cameraCrop(cam.Bounds(), pip, offset)
	xdraw.ApproxBiLinear.Scale(r.pipScratch, r.pipScratch.Bounds(), cam, crop, xdraw.Src, nil)
	draw.DrawMask(dst, pip, r.pipScratch, image.Point{}, r.pipMask, image.Point{}, draw.Over)
}

// fitFontSize returns the effective font size and the widest line width at
// that size. A fixed size only ever shrinks; fit-to-screen starts from the
// largest allowed size.
func (r *Renderer) fitFontSize(lines []string, s settings.TeleSettings, avail int) (size, widest int) {
	size = s.FontSize
	if s.IsFit() {
		size = settings.MaxFontSize
	}
	size = max(1, size)

	widest = r.widestLine(lines, size)
	if widest <= avail {
		return size, widest
	}
	next := int(float64(size) * float64(avail) / float64(widest))
	if next >= size {
		next = size - 1
	}
	for next > 1 {
		widest = r.widestLine(lines, next)
		if widest <= avail {
			return next, widest
		}
		next--
	}
	return 1, r.widestLine(lines, 1)
}

func (r *Renderer) widestLine(lines []string, size int) int {
	if len(lines) == 0 {
		return 0
	}
	// Tokenized scripts are immutable, so the backing array identifies them.
	if r.memoLines != &lines[0] || r.memoLen != len(lines) {
		r.memoLines, r.memoLen = &lines[0], len(lines)
		r.memoWidths = make(map[int]int)
	}
	if w, ok := r.memoWidths[size]; ok {
		return w
	}
	widest := 0
	for _, l := range lines {
		widest = max(widest, r.regular.measure(size, l))
	}
	r.memoWidths[size] = widest
	return widest
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// visibleRange returns the lines whose band intersects the frame plus the
// overscan on each side.
func visibleRange(current, n, anchorY, height, lineHeight int) (first, last int) {
	if n == 0 {
		return 0, -1
	}
	above := (anchorY + lineHeight/2 + lineHeight - 1) / lineHeight
	below := (height - anchorY + lineHeight/2 + lineHeight - 1) / lineHeight
	first = max(0, current-above-OverscanLines)
	last = min(n-1, current+below+OverscanLines)
	return first, last
}

func (r *Renderer) drawLines(dst *image.RGBA, lines []string, lay Layout) {
	face := r.regular.face(lay.FontSize)
	m := face.Metrics()
	baselineShift := (m.Ascent - m.Descent).Round() / 2

	top := lay.AnchorY - lay.LineHeight/2
	hl := image.Rect(lay.Margin, top, lay.Width-lay.Margin, top+lay.LineHeight)
	fillRounded(dst, hl, float32(lay.LineHeight)/5, colorHighlight)

	dim := image.NewUniform(colorText)
	bright := image.NewUniform(colorCurrent)
	for i := lay.First; i <= lay.Last; i++ {
		cy := lay.AnchorY + (i-lay.Current)*lay.LineHeight
		line := lines[i]
		x := (lay.Width - r.regular.measure(lay.FontSize, line)) / 2
		src := dim
		if i == lay.Current {
			src = bright
		}
		d := font.Drawer{
			Dst:  dst,
			Src:  src,
			Face: face,
			Dot:  fixed.P(x, cy+baselineShift),
		}
		d.DrawString(line)
	}
}

func (r *Renderer) drawStatus(dst *image.RGBA, in Input, lay Layout) {
	switch in.Phase {
	case PhaseCountdown:
		draw.Draw(dst, dst.Bounds(), image.NewUniform(colorShade), image.Point{}, draw.Over)
		size := max(12, lay.Height/3)
		label := strconv.Itoa(max(in.Countdown, 0))
		tw := r.bold.measure(size, label)
		face := r.bold.face(size)
		m := face.Metrics()
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(colorCurrent),
			Face: face,
			Dot:  fixed.P((lay.Width-tw)/2, lay.Height/2+(m.Ascent-m.Descent).Round()/2),
		}
		d.DrawString(label)
	case PhaseRecording, PhasePaused:
		dot := max(8, lay.Margin)
		x0, y0 := lay.Margin, lay.Margin
		c := color.Color(colorRecording)
		label := "REC"
		if in.Phase == PhasePaused {
			c = colorText
			label = "PAUSED"
		}
		fillRounded(dst, image.Rect(x0, y0, x0+dot, y0+dot), float32(dot)/2, c)
		size := max(10, dot)
		face := r.bold.face(size)
		d := font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(c),
			Face: face,
			Dot:  fixed.P(x0+dot+dot/2, y0+dot-dot/8),
		}
		d.DrawString(label)
	}
}
