// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compositor

import (
	"image"
	"sync"
	"time"
)

// FrameSlot is a single-slot mailbox holding the latest composited frame.
// Publishing overwrites the previous frame; readers never block the
// producer for longer than one copy.
type FrameSlot struct {
	mu  sync.RWMutex
	buf *image.RGBA
	seq uint64
	at  time.Time
}

// NewFrameSlot returns an empty slot.
func NewFrameSlot() *FrameSlot {
	return &FrameSlot{}
}

// Publish copies img into the slot and returns the new sequence number.
func (s *FrameSlot) Publish(img *image.RGBA, at time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = copyRGBA(s.buf, img)
	s.seq++
	s.at = at
	return s.seq
}

// CopyTo copies the latest frame into dst, reallocating dst when the frame
// size changed. ok is false while nothing has been published.
func (s *FrameSlot) CopyTo(dst *image.RGBA) (out *image.RGBA, seq uint64, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.buf == nil {
		return dst, 0, false
	}
	return copyRGBA(dst, s.buf), s.seq, true
}

// Snapshot returns a private copy of the latest frame and when it was made.
func (s *FrameSlot) Snapshot() (img *image.RGBA, seq uint64, at time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.buf == nil {
		return nil, 0, time.Time{}, false
	}
	return copyRGBA(nil, s.buf), s.seq, s.at, true
}

// LastPublished reports when the latest frame was rendered.
func (s *FrameSlot) LastPublished() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.at, s.buf != nil
}

// Seq returns the sequence number of the latest frame (0 when empty).
func (s *FrameSlot) Seq() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

func copyRGBA(dst, src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	if dst == nil || dst.Bounds().Dx() != b.Dx() || dst.Bounds().Dy() != b.Dy() {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	if src.Stride == dst.Stride && b.Min == (image.Point{}) && len(src.Pix) == len(dst.Pix) {
		copy(dst.Pix, src.Pix)
		return dst
	}
	rowLen := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		so := src.PixOffset(b.Min.X, b.Min.Y+y)
		do := dst.PixOffset(0, y)
		copy(dst.Pix[do:do+rowLen], src.Pix[so:so+rowLen])
	}
	return dst
}
