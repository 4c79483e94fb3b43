package imaging

import (
	"fmt"
	"image"
	"math"
)

// GaussianBlur denoises img with a separable Gaussian kernel of the given
// width and height. Both dimensions must be odd and positive. Sigma is
// derived from the kernel size using the same rule OpenCV applies when no
// sigma is given.
func GaussianBlur(img image.Image, kw, kh int) (image.Image, error) {
	if kw < 1 || kh < 1 || kw%2 == 0 || kh%2 == 0 {
		return nil, fmt.Errorf("gaussian kernel size must be odd and positive, got %dx%d", kw, kh)
	}
	kx := gaussianKernel(kw)
	ky := gaussianKernel(kh)
	if g, ok := img.(*image.Gray); ok {
		return convolveGrayV(convolveGrayH(g, kx), ky), nil
	}
	n := toNRGBA(img)
	return convolveNRGBAV(convolveNRGBAH(n, kx), ky), nil
}

// gaussianKernel builds a normalized 1D Gaussian of the given odd size,
// sigma = 0.3*((size-1)*0.5 - 1) + 0.8.
func gaussianKernel(size int) []float64 {
	sigma := 0.3*((float64(size)-1)*0.5-1) + 0.8
	k := make([]float64, size)
	center := float64(size-1) / 2
	var sum float64
	for i := range k {
		d := float64(i) - center
		k[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += k[i]
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

func convolveGrayH(src *image.Gray, k []float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	r := len(k) / 2
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w]
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range k {
				acc += kv * float64(row[clamp(x+i-r, 0, w-1)])
			}
			out.Pix[y*out.Stride+x] = uint8(acc + 0.5)
		}
	}
	return out
}

func convolveGrayV(src *image.Gray, k []float64) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	r := len(k) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc float64
			for i, kv := range k {
				sy := clamp(y+i-r, 0, h-1)
				acc += kv * float64(src.Pix[sy*src.Stride+x])
			}
			out.Pix[y*out.Stride+x] = uint8(acc + 0.5)
		}
	}
	return out
}

func convolveNRGBAH(src *image.NRGBA, k []float64) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(b)
	r := len(k) / 2
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		for x := 0; x < w; x++ {
			var cr, cg, cb, ca float64
			for i, kv := range k {
				o := clamp(x+i-r, 0, w-1) * 4
				cr += kv * float64(row[o])
				cg += kv * float64(row[o+1])
				cb += kv * float64(row[o+2])
				ca += kv * float64(row[o+3])
			}
			o := y*out.Stride + x*4
			out.Pix[o] = uint8(cr + 0.5)
			out.Pix[o+1] = uint8(cg + 0.5)
			out.Pix[o+2] = uint8(cb + 0.5)
			out.Pix[o+3] = uint8(ca + 0.5)
		}
	}
	return out
}

func convolveNRGBAV(src *image.NRGBA, k []float64) *image.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(b)
	r := len(k) / 2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var cr, cg, cb, ca float64
			for i, kv := range k {
				o := clamp(y+i-r, 0, h-1)*src.Stride + x*4
				cr += kv * float64(src.Pix[o])
				cg += kv * float64(src.Pix[o+1])
				cb += kv * float64(src.Pix[o+2])
				ca += kv * float64(src.Pix[o+3])
			}
			o := y*out.Stride + x*4
			out.Pix[o] = uint8(cr + 0.5)
			out.Pix[o+1] = uint8(cg + 0.5)
			out.Pix[o+2] = uint8(cb + 0.5)
			out.Pix[o+3] = uint8(ca + 0.5)
		}
	}
	return out
}
