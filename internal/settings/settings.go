// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// Package settings holds the teleprompter display settings read by the
// compositor every frame.
package settings

import "sync"

// Bounds enforced by the settings surface and by remote-control commands.
const (
	MinWPM = 20
	MaxWPM = 260

	MinFontSize = 28
	MaxFontSize = 96
	// FitToScreen is the font size sentinel: the compositor picks the largest
	// size at which the widest line fits the frame.
	FitToScreen = 0

	MinLineHeight = 1.0
	MaxLineHeight = 3.0

	MinPIPPercent = 10
	MaxPIPPercent = 35

	MinCameraOffset = -40
	MaxCameraOffset = 40

	MinViewportSide = 64
	MaxViewportSide = 3840
)

// Viewport is the pixel size of the composited frame.
type Viewport struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// TeleSettings configures what the compositor draws.
type TeleSettings struct {
	WordsPerMinute      int      `json:"wpm" yaml:"wpm"`
	FontSize            int      `json:"font_size" yaml:"font_size"`
	LineHeight          float64  `json:"line_height" yaml:"line_height"`
	Mirror              bool     `json:"mirror" yaml:"mirror"`
	PIPSizePercent      int      `json:"pip_size_percent" yaml:"pip_size_percent"`
	CameraOffsetPercent int      `json:"camera_offset_percent" yaml:"camera_offset_percent"`
	AutoStart           bool     `json:"autostart" yaml:"autostart"`
	Viewport            Viewport `json:"viewport" yaml:"viewport"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() TeleSettings {
	return TeleSettings{
		WordsPerMinute:      130,
		FontSize:            FitToScreen,
		LineHeight:          1.35,
		PIPSizePercent:      22,
		CameraOffsetPercent: 0,
		Viewport:            Viewport{Width: 1280, Height: 720},
	}
}

// IsFit reports whether the font size is the fit-to-screen sentinel.
func (s TeleSettings) IsFit() bool {
	return s.FontSize == FitToScreen
}

// Clamp returns a copy with every field forced into its allowed range.
func (s TeleSettings) Clamp() TeleSettings {
	s.WordsPerMinute = ClampInt(s.WordsPerMinute, MinWPM, MaxWPM)
	if s.FontSize != FitToScreen {
		s.FontSize = ClampInt(s.FontSize, MinFontSize, MaxFontSize)
	}
	if s.LineHeight < MinLineHeight {
		s.LineHeight = MinLineHeight
	}
	if s.LineHeight > MaxLineHeight {
		s.LineHeight = MaxLineHeight
	}
	s.PIPSizePercent = ClampInt(s.PIPSizePercent, MinPIPPercent, MaxPIPPercent)
	s.CameraOffsetPercent = ClampInt(s.CameraOffsetPercent, MinCameraOffset, MaxCameraOffset)
	s.Viewport.Width = ClampInt(s.Viewport.Width, MinViewportSide, MaxViewportSide)
	s.Viewport.Height = ClampInt(s.Viewport.Height, MinViewportSide, MaxViewportSide)
	return s
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	WordsPerMinute      *int      `json:"wpm,omitempty"`
	FontSize            *int      `json:"font_size,omitempty"`
	LineHeight          *float64  `json:"line_height,omitempty"`
	Mirror              *bool     `json:"mirror,omitempty"`
	PIPSizePercent      *int      `json:"pip_size_percent,omitempty"`
	CameraOffsetPercent *int      `json:"camera_offset_percent,omitempty"`
	AutoStart           *bool     `json:"autostart,omitempty"`
	Viewport            *Viewport `json:"viewport,omitempty"`
}

// Apply merges p into s and clamps the result.
func (p Patch) Apply(s TeleSettings) TeleSettings {
	if p.WordsPerMinute != nil {
		s.WordsPerMinute = *p.WordsPerMinute
	}
	if p.FontSize != nil {
		s.FontSize = *p.FontSize
	}
	if p.LineHeight != nil {
		s.LineHeight = *p.LineHeight
	}
	if p.Mirror != nil {
		s.Mirror = *p.Mirror
	}
	if p.PIPSizePercent != nil {
		s.PIPSizePercent = *p.PIPSizePercent
	}
	if p.CameraOffsetPercent != nil {
		s.CameraOffsetPercent = *p.CameraOffsetPercent
	}
	if p.AutoStart != nil {
		s.AutoStart = *p.AutoStart
	}
	if p.Viewport != nil {
		s.Viewport = *p.Viewport
	}
	return s.Clamp()
}

// Store is the single mutable home of TeleSettings. Writers are the settings
// API, remote-control commands and config reloads; the compositor reads a
// snapshot per frame.
type Store struct {
	mu        sync.RWMutex
	cur       TeleSettings
	listeners []chan<- TeleSettings
}

// NewStore creates a store holding the clamped initial settings.
func NewStore(initial TeleSettings) *Store {
	return &Store{cur: initial.Clamp()}
}

// Get returns the current settings.
func (s *Store) Get() TeleSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

// Set replaces the settings (clamped) and returns what was stored.
func (s *Store) Set(next TeleSettings) TeleSettings {
	next = next.Clamp()
	s.mu.Lock()
	s.cur = next
	ls := append([]chan<- TeleSettings(nil), s.listeners...)
	s.mu.Unlock()
	notify(ls, next)
	return next
}

// Update applies fn to a copy of the current settings and stores the clamped result.
func (s *Store) Update(fn func(*TeleSettings)) TeleSettings {
	s.mu.Lock()
	next := s.cur
	fn(&next)
	next = next.Clamp()
	s.cur = next
	ls := append([]chan<- TeleSettings(nil), s.listeners...)
	s.mu.Unlock()
	notify(ls, next)
	return next
}

// Patch applies a partial update.
func (s *Store) Patch(p Patch) TeleSettings {
	return s.Update(func(ts *TeleSettings) { *ts = p.Apply(*ts) })
}

// Subscribe registers ch for change notifications. Sends never block.
func (s *Store) Subscribe(ch chan<- TeleSettings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, ch)
}

func notify(ls []chan<- TeleSettings, v TeleSettings) {
	for _, ch := range ls {
		select {
		case ch <- v:
		default:
		}
	}
}
