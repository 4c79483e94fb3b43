package imaging

import (
	"image"
	"math"
)

// Rotate rotates img by angle degrees about its center, positive being
// clockwise in image coordinates. The output keeps the source dimensions;
// samples are interpolated bilinearly and edge pixels are replicated for
// coordinates falling outside the source.
func Rotate(img image.Image, angle float64) image.Image {
	theta := angle * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)

	if g, ok := img.(*image.Gray); ok {
		return rotateGray(g, cos, sin)
	}
	return rotateNRGBA(toNRGBA(img), cos, sin)
}

func rotateGray(src *image.Gray, cos, sin float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	cx, cy := float64(w-1)/2, float64(h-1)/2
	for y := 0; y < h; y++ {
		dy := float64(y) - cy
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			sx := dx*cos + dy*sin + cx
			sy := -dx*sin + dy*cos + cy
			out.Pix[y*out.Stride+x] = sampleGray(src, w, h, sx, sy)
		}
	}
	return out
}

func rotateNRGBA(src *image.NRGBA, cos, sin float64) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(b)
	cx, cy := float64(w-1)/2, float64(h-1)/2
	for y := 0; y < h; y++ {
		dy := float64(y) - cy
		for x := 0; x < w; x++ {
			dx := float64(x) - cx
			sx := dx*cos + dy*sin + cx
			sy := -dx*sin + dy*cos + cy
			o := y*out.Stride + x*4
			sampleNRGBA(src, w, h, sx, sy, out.Pix[o:o+4])
		}
	}
	return out
}

func sampleGray(src *image.Gray, w, h int, sx, sy float64) uint8 {
	x0 := int(math.Floor(sx))
	y0 := int(math.Floor(sy))
	fx := sx - float64(x0)
	fy := sy - float64(y0)
	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)

	v00 := float64(src.Pix[y0*src.Stride+x0])
	v10 := float64(src.Pix[y0*src.Stride+x1])
	v01 := float64(src.Pix[y1*src.Stride+x0])
	v11 := float64(src.Pix[y1*src.Stride+x1])
	top := v00 + (v10-v00)*fx
	bot := v01 + (v11-v01)*fx
	return uint8(top + (bot-top)*fy + 0.5)
}

func sampleNRGBA(src *image.NRGBA, w, h int, sx, sy float64, dst []uint8) {
	x0 := int(math.Floor(sx))
	y0 := int(math.Floor(sy))
	fx := sx - float64(x0)
	fy := sy - float64(y0)
	x1 := clamp(x0+1, 0, w-1)
	y1 := clamp(y0+1, 0, h-1)
	x0 = clamp(x0, 0, w-1)
	y0 = clamp(y0, 0, h-1)

	o00 := y0*src.Stride + x0*4
	o10 := y0*src.Stride + x1*4
	o01 := y1*src.Stride + x0*4
	o11 := y1*src.Stride + x1*4
	for c := 0; c < 4; c++ {
		v00 := float64(src.Pix[o00+c])
		v10 := float64(src.Pix[o10+c])
		v01 := float64(src.Pix[o01+c])
		v11 := float64(src.Pix[o11+c])
		top := v00 + (v10-v00)*fx
		bot := v01 + (v11-v01)*fx
		dst[c] = uint8(top + (bot-top)*fy + 0.5)
	}
}
