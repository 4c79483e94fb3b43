// Package imaging implements the image-cleanup primitives used by the
// preprocessing stage: grayscale conversion, Gaussian denoising,
// thresholding and deskewing.
package imaging

import (
	"image"
	"image/draw"
)

// Grayscale converts img to 8-bit grayscale. Images that are already
// grayscale are returned as-is.
func Grayscale(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

func toNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
