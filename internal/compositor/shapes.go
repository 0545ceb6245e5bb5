// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package compositor

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/vector"
)

// roundedMask rasterizes a w×h rounded rectangle into an alpha mask.
func roundedMask(w, h int, radius float32) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return mask
	}
	z := vector.NewRasterizer(w, h)
	roundedPath(z, 0, 0, float32(w), float32(h), radius)
	z.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	return mask
}

// fillRounded fills r on dst with c, blending over existing pixels.
func fillRounded(dst draw.Image, r image.Rectangle, radius float32, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	mask := roundedMask(r.Dx(), r.Dy(), radius)
	draw.DrawMask(dst, r, image.NewUniform(c), image.Point{}, mask, image.Point{}, draw.Over)
}

func roundedPath(z *vector.Rasterizer, x0, y0, x1, y1, r float32) {
	if maxR := min(x1-x0, y1-y0) / 2; r > maxR {
		r = maxR
	}
	if r < 0 {
		r = 0
	}
	z.MoveTo(x0+r, y0)
	z.LineTo(x1-r, y0)
	z.QuadTo(x1, y0, x1, y0+r)
	z.LineTo(x1, y1-r)
	z.QuadTo(x1, y1, x1-r, y1)
	z.LineTo(x0+r, y1)
	z.QuadTo(x0, y1, x0, y1-r)
	z.LineTo(x0, y0+r)
	z.QuadTo(x0, y0, x0+r, y0)
	z.ClosePath()
}

// flipHorizontal mirrors img in place.
func flipHorizontal(img *image.RGBA) {
	b := img.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		row := img.Pix[off : off+w*4]
		for l, r := 0, w-1; l < r; l, r = l+1, r-1 {
			li, ri := l*4, r*4
			row[li], row[ri] = row[ri], row[li]
			row[li+1], row[ri+1] = row[ri+1], row[li+1]
			row[li+2], row[ri+2] = row[ri+2], row[li+2]
			row[li+3], row[ri+3] = row[ri+3], row[li+3]
		}
	}
}
