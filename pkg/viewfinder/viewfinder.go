// Package viewfinder computes scan region geometry: the centered box that is
// actually sampled and decoded, the shading rectangles that darken everything
// outside it, and the coordinate mapping between rendered and native pixels.
package viewfinder

import (
	"image"
	"math"
)

// Rect is an axis-aligned rectangle in pixel coordinates.
type Rect struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// ImageRect converts to the stdlib image.Rectangle form.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Region returns the centered square scan region for a frame of the given
// rendered size. The side is min(frameW, frameH) * ratio, clamped to maxSide
// (0 = no cap) and never larger than the frame itself.
func Region(frameW, frameH int, ratio float64, maxSide int) Rect {
	if frameW < 1 || frameH < 1 {
		return Rect{}
	}
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}

	short := frameW
	if frameH < short {
		short = frameH
	}

	side := int(math.Round(float64(short) * ratio))
	if maxSide > 0 && side > maxSide {
		side = maxSide
	}
	if side < 1 {
		side = 1
	}

	return Rect{
		X: (frameW - side) / 2,
		Y: (frameH - side) / 2,
		W: side,
		H: side,
	}
}

// Bounded returns a centered region of at most boxW x boxH, clamped to the
// frame. Used when the caller wants a non-square viewfinder.
func Bounded(frameW, frameH, boxW, boxH int) Rect {
	if boxW > frameW {
		boxW = frameW
	}
	if boxH > frameH {
		boxH = frameH
	}
	if boxW < 1 {
		boxW = 1
	}
	if boxH < 1 {
		boxH = 1
	}
	return Rect{
		X: (frameW - boxW) / 2,
		Y: (frameH - boxH) / 2,
		W: boxW,
		H: boxH,
	}
}

// Shades returns up to four rectangles (left, right, top, bottom) that
// exactly tile the frame area outside the region. Zero-area rectangles are
// omitted, so a region covering the full frame yields none.
func Shades(frameW, frameH int, region Rect) []Rect {
	candidates := []Rect{
		{X: 0, Y: 0, W: region.X, H: frameH},
		{X: region.X + region.W, Y: 0, W: frameW - region.X - region.W, H: frameH},
		{X: region.X, Y: 0, W: region.W, H: region.Y},
		{X: region.X, Y: region.Y + region.H, W: region.W, H: frameH - region.Y - region.H},
	}

	shades := make([]Rect, 0, 4)
	for _, c := range candidates {
		if !c.Empty() {
			shades = append(shades, c)
		}
	}
	return shades
}

// Zoom shrinks a region about its center by the zoom factor. At level 2 the
// sampled area has half the side length; the canvas target stays fixed, so
// the result is a 2x digital zoom. Levels <= 1 return the region unchanged.
func Zoom(region Rect, level float64) Rect {
	if level <= 1 {
		return region
	}

	w := int(math.Round(float64(region.W) / level))
	h := int(math.Round(float64(region.H) / level))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	return Rect{
		X: region.X + (region.W-w)/2,
		Y: region.Y + (region.H-h)/2,
		W: w,
		H: h,
	}
}

// SourceRect maps a region expressed in rendered (display) coordinates to
// native pixel coordinates, correcting for the ratio between the source's
// native resolution and its rendered size. The result is clamped to the
// native frame and guaranteed at least 1x1.
func SourceRect(region Rect, renderedW, renderedH, nativeW, nativeH int) Rect {
	if renderedW < 1 || renderedH < 1 {
		return Clamp(region, nativeW, nativeH)
	}

	sx := float64(nativeW) / float64(renderedW)
	sy := float64(nativeH) / float64(renderedH)

	mapped := Rect{
		X: int(math.Round(float64(region.X) * sx)),
		Y: int(math.Round(float64(region.Y) * sy)),
		W: int(math.Round(float64(region.W) * sx)),
		H: int(math.Round(float64(region.H) * sy)),
	}
	return Clamp(mapped, nativeW, nativeH)
}

// Clamp restricts a rectangle to frame bounds and guarantees at least 1x1.
func Clamp(r Rect, frameW, frameH int) Rect {
	if r.X < 0 {
		r.X = 0
	}
	if r.Y < 0 {
		r.Y = 0
	}
	if r.X >= frameW {
		r.X = frameW - 1
	}
	if r.Y >= frameH {
		r.Y = frameH - 1
	}
	if r.X+r.W > frameW {
		r.W = frameW - r.X
	}
	if r.Y+r.H > frameH {
		r.H = frameH - r.Y
	}
	if r.W < 1 {
		r.W = 1
	}
	if r.H < 1 {
		r.H = 1
	}
	return r
}

// ContainFit scales (w, h) down so both dimensions fit within (maxW, maxH),
// preserving aspect ratio. It never scales up. The fit is refined
// recursively: constrain the width, then the height, until both fit.
func ContainFit(w, h, maxW, maxH int) (int, int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w <= maxW && h <= maxH {
		return w, h
	}

	if w > maxW {
		h = scaleDim(h, maxW, w)
		return ContainFit(maxW, h, maxW, maxH)
	}

	w = scaleDim(w, maxH, h)
	return ContainFit(w, maxH, maxW, maxH)
}

// scaleDim scales dim by num/den, rounding, with a 1px floor.
func scaleDim(dim, num, den int) int {
	scaled := int(math.Round(float64(dim) * float64(num) / float64(den)))
	if scaled < 1 {
		scaled = 1
	}
	return scaled
}
