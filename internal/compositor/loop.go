// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/futureme/internal/capture"
	xglog "github.com/ManuGH/futureme/internal/log"
	"github.com/ManuGH/futureme/internal/metrics"
	"github.com/ManuGH/futureme/internal/pacing"
	"github.com/ManuGH/futureme/internal/script"
	"github.com/ManuGH/futureme/internal/settings"
)

var (
	// ErrAlreadyRunning is returned when a second Run is attempted.
	ErrAlreadyRunning = errors.New("render loop already running")
	// ErrFramePanic marks a frame aborted by a recovered panic.
	ErrFramePanic = errors.New("frame render panicked")
)

// SessionView is the read-only part of the capture session the loop needs.
type SessionView interface {
	Snapshot() capture.Snapshot
	Camera() capture.VideoSource
}

// ScriptSource yields the current tokenized script.
type ScriptSource interface {
	Current() script.Script
}

// SettingsSource yields the current display settings.
type SettingsSource interface {
	Get() settings.TeleSettings
}

// LoopConfig wires the render loop.
type LoopConfig struct {
	FPS      int
	Renderer *Renderer
	Session  SessionView
	Script   ScriptSource
	Settings SettingsSource
	Slot     *FrameSlot
	Now      func() time.Time
	Logger   *zerolog.Logger
}

// Status is the outcome of the most recent frame.
type Status struct {
	Seq      uint64        `json:"seq"`
	Line     int           `json:"line"`
	Lines    int           `json:"lines"`
	Elapsed  time.Duration `json:"-"`
	Progress float64       `json:"progress"`
	State    capture.State `json:"state"`
	Layout   Layout        `json:"-"`
}

// Loop owns the backing canvas and renders at a fixed rate until its
// context is cancelled.
type Loop struct {
	cfg    LoopConfig
	logger zerolog.Logger

	canvas  *image.RGBA
	running atomic.Bool
	status  atomic.Pointer[Status]
}

// NewLoop validates cfg and fills defaults.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if cfg.Renderer == nil || cfg.Session == nil || cfg.Script == nil || cfg.Settings == nil || cfg.Slot == nil {
		return nil, fmt.Errorf("compositor: incomplete loop config")
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	logger := xglog.WithComponent("compositor")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}
	return &Loop{cfg: cfg, logger: logger}, nil
}

// Run renders frames until ctx is done. Only one Run may be active.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer l.running.Store(false)

	interval := time.Second / time.Duration(l.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	l.logger.Info().Int(xglog.FieldFPS, l.cfg.FPS).Msg("render loop started")
	defer l.logger.Info().Msg("render loop stopped")

	for {
		// Cancellation wins over a pending tick.
		if ctx.Err() != nil {
			return nil
		}
		if _, err := l.Tick(); err != nil && !errors.Is(err, ErrFramePanic) {
			l.logger.Warn().Err(err).Msg("frame failed")
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Tick renders and publishes one frame. A panic inside the frame is
// recovered, counted and reported as ErrFramePanic; the loop continues.
func (l *Loop) Tick() (st Status, err error) {
	defer func() {
		if r := recover(); r != nil {
			metrics.FramePanicsTotal.Inc()
			l.logger.Error().Interface("panic", r).Str(xglog.FieldEvent, "render.panic").Msg("frame render panicked")
			err = fmt.Errorf("%w: %v", ErrFramePanic, r)
		}
	}()

	start := time.Now()
	now := l.cfg.Now()
	snap := l.cfg.Session.Snapshot()
	set := l.cfg.Settings.Get()
	sc := l.cfg.Script.Current()

	line := pacing.LineIndex(snap.Elapsed, set.WordsPerMinute, sc.Cumulative())

	l.ensureCanvas(set.Viewport)

	in := Input{
		Script:   sc,
		Settings: set,
		Line:     line,
		Phase:    phaseOf(snap.State),
	}
	if cam := l.cfg.Session.Camera(); cam != nil {
		if img, ok := cam.Frame(); ok && img != nil {
			in.Camera = img
		}
	}
	if snap.CountdownEndsAt != nil {
		in.Countdown = int(math.Ceil(snap.CountdownEndsAt.Sub(now).Seconds()))
	}

	lay := l.cfg.Renderer.Render(l.canvas, in)
	seq := l.cfg.Slot.Publish(l.canvas, now)

	st = Status{
		Seq:      seq,
		Line:     lay.Current,
		Lines:    sc.Len(),
		Elapsed:  snap.Elapsed,
		Progress: pacing.Progress(snap.Elapsed, set.WordsPerMinute, sc.TotalWords()),
		State:    snap.State,
		Layout:   lay,
	}
	l.status.Store(&st)

	metrics.FramesRenderedTotal.Inc()
	metrics.CurrentLine.Set(float64(lay.Current))
	metrics.RenderDuration.Observe(time.Since(start).Seconds())
	return st, nil
}

// Status returns the most recent frame status, if any frame was rendered.
func (l *Loop) Status() (Status, bool) {
	st := l.status.Load()
	if st == nil {
		return Status{}, false
	}
	return *st, true
}

// ensureCanvas reallocates the backing image when the viewport changes so
// output is never stretched.
func (l *Loop) ensureCanvas(v settings.Viewport) {
	w := settings.ClampInt(v.Width, settings.MinViewportSide, settings.MaxViewportSide)
	h := settings.ClampInt(v.Height, settings.MinViewportSide, settings.MaxViewportSide)
	if l.canvas != nil && l.canvas.Bounds().Dx() == w && l.canvas.Bounds().Dy() == h {
		return
	}
	if l.canvas != nil {
		l.logger.Debug().Str(xglog.FieldResolution, fmt.Sprintf("%dx%d", w, h)).Msg("canvas resized")
	}
	l.canvas = image.NewRGBA(image.Rect(0, 0, w, h))
}

func phaseOf(s capture.State) Phase {
	switch s {
	case capture.StateCountdown:
		return PhaseCountdown
	case capture.StateRecording:
		return PhaseRecording
	case capture.StatePaused:
		return PhasePaused
	case capture.StateFinished, capture.StateFinishing:
		return PhaseFinished
	default:
		return PhaseIdle
	}
}
