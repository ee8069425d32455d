package scanner

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/pixelgrove/qrscan/pkg/viewfinder"
)

// renderRegion copies the src sub-rectangle of the frame onto a fresh canvas
// of the given size, scaling to fill it. This is the live-path draw: the
// viewfinder region always lands on the same fixed-size decode surface.
func renderRegion(frame image.Image, src viewfinder.Rect, canvasW, canvasH int) *image.RGBA {
	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	srcRect := src.ImageRect().Add(frame.Bounds().Min)
	xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), frame, srcRect, draw.Src, nil)
	return canvas
}

// fitImage draws the whole image onto a canvas using containment fit:
// downscaled (never upscaled) to fit, aspect preserved, centered on a white
// background. This is the still-image draw.
func fitImage(img image.Image, canvasW, canvasH int) *image.RGBA {
	b := img.Bounds()
	w, h := viewfinder.ContainFit(b.Dx(), b.Dy(), canvasW, canvasH)

	canvas := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	draw.Draw(canvas, canvas.Bounds(), image.White, image.Point{}, draw.Src)

	dst := image.Rect(0, 0, w, h).Add(image.Pt((canvasW-w)/2, (canvasH-h)/2))
	xdraw.ApproxBiLinear.Scale(canvas, dst, img, b, draw.Src, nil)
	return canvas
}
