// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compositor

import (
	"fmt"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// faceCache builds font faces per integer pixel size on demand.
type faceCache struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[int]font.Face
}

func newFaceCache(ttf []byte) (*faceCache, error) {
	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &faceCache{font: f, faces: make(map[int]font.Face)}, nil
}

func (c *faceCache) face(size int) font.Face {
	if size < 1 {
		size = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if f, ok := c.faces[size]; ok {
		return f
	}
	f, err := opentype.NewFace(c.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		// The embedded Go fonts accept every positive size.
		panic(fmt.Sprintf("compositor: face size %d: %v", size, err))
	}
	c.faces[size] = f
	return f
}

// measure returns the advance width of s in whole pixels.
func (c *faceCache) measure(size int, s string) int {
	return font.MeasureString(c.face(size), s).Ceil()
}

func (c *faceCache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, f := range c.faces {
		_ = f.Close()
		delete(c.faces, k)
	}
}

func loadFonts() (regular, bold *faceCache, err error) {
	regular, err = newFaceCache(goregular.TTF)
	if err != nil {
		return nil, nil, err
	}
	bold, err = newFaceCache(gobold.TTF)
	if err != nil {
		return nil, nil, err
	}
	return regular, bold, nil
}
