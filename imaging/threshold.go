package imaging

import (
	"errors"
	"fmt"
	"image"
)

// ThresholdMethod selects a binarization algorithm.
type ThresholdMethod string

const (
	ThresholdAdaptiveGaussian ThresholdMethod = "adaptive_gaussian"
	ThresholdOtsu             ThresholdMethod = "otsu"
	ThresholdSimple           ThresholdMethod = "simple"
)

// ErrUnknownThresholdMethod reports a threshold method outside the
// supported set. Unlike an unrecognized filter type, this is a fatal
// configuration error.
var ErrUnknownThresholdMethod = errors.New("unknown threshold method")

// ParseThresholdMethod resolves a configured method name. The empty string
// defaults to adaptive_gaussian.
func ParseThresholdMethod(name string) (ThresholdMethod, error) {
	switch ThresholdMethod(name) {
	case "":
		return ThresholdAdaptiveGaussian, nil
	case ThresholdAdaptiveGaussian, ThresholdOtsu, ThresholdSimple:
		return ThresholdMethod(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownThresholdMethod, name)
}

// ThresholdParams carries the per-method parameters.
type ThresholdParams struct {
	Method ThresholdMethod
	// BlockSize is the adaptive_gaussian window; must be odd and > 1.
	BlockSize int
	// C is subtracted from the local weighted mean (adaptive_gaussian).
	C float64
	// Value is the fixed cutoff for the simple method.
	Value int
}

// DefaultThresholdParams mirrors the configuration defaults: adaptive
// Gaussian with an 11-pixel window and C=2; fixed cutoff 127.
func DefaultThresholdParams() ThresholdParams {
	return ThresholdParams{
		Method:    ThresholdAdaptiveGaussian,
		BlockSize: 11,
		C:         2,
		Value:     127,
	}
}

// Threshold binarizes img (converted to grayscale first) with the selected
// method. Pixels above the cutoff become 255, the rest 0.
func Threshold(img image.Image, p ThresholdParams) (*image.Gray, error) {
	gray := Grayscale(img)
	switch p.Method {
	case "", ThresholdAdaptiveGaussian:
		return adaptiveGaussianThreshold(gray, p.BlockSize, p.C)
	case ThresholdOtsu:
		return fixedThreshold(gray, otsuLevel(gray)), nil
	case ThresholdSimple:
		return fixedThreshold(gray, p.Value), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownThresholdMethod, p.Method)
}

func fixedThreshold(gray *image.Gray, level int) *image.Gray {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if int(gray.Pix[y*gray.Stride+x]) > level {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}

// otsuLevel finds the cutoff maximizing between-class variance of the
// grayscale histogram.
func otsuLevel(gray *image.Gray) int {
	var hist [256]int64
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			hist[gray.Pix[y*gray.Stride+x]]++
		}
	}
	total := int64(w) * int64(h)
	if total == 0 {
		return 0
	}
	var sum float64
	for i, c := range hist {
		sum += float64(i) * float64(c)
	}
	var sumB, wB float64
	best, bestVar := 0, -1.0
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		v := wB * wF * (mB - mF) * (mB - mF)
		if v > bestVar {
			bestVar = v
			best = t
		}
	}
	return best
}

// adaptiveGaussianThreshold compares each pixel against the Gaussian
// weighted mean of its blockSize neighborhood minus c.
func adaptiveGaussianThreshold(gray *image.Gray, blockSize int, c float64) (*image.Gray, error) {
	if blockSize < 3 || blockSize%2 == 0 {
		return nil, fmt.Errorf("adaptive threshold block size must be odd and > 1, got %d", blockSize)
	}
	k := gaussianKernel(blockSize)
	mean := convolveGrayV(convolveGrayH(gray, k), k)
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(b)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			cutoff := float64(mean.Pix[y*mean.Stride+x]) - c
			if float64(gray.Pix[y*gray.Stride+x]) > cutoff {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out, nil
}
