package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestGrayscale(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.NRGBA{R: 255, A: 255})
	img.Set(2, 2, color.NRGBA{R: 255, G: 255, B: 255, A: 255})

	gray := Grayscale(img)
	if gray.GrayAt(2, 2).Y != 255 {
		t.Fatalf("white pixel should stay white, got %d", gray.GrayAt(2, 2).Y)
	}
	if v := gray.GrayAt(1, 1).Y; v == 0 || v == 255 {
		t.Fatalf("red pixel should map to a midtone, got %d", v)
	}
	if Grayscale(gray) != gray {
		t.Fatalf("grayscale input should be returned unchanged")
	}
}

func TestGaussianBlurRejectsEvenKernel(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	if _, err := GaussianBlur(img, 4, 5); err == nil {
		t.Fatalf("expected error for even kernel width")
	}
	if _, err := GaussianBlur(img, 5, 0); err == nil {
		t.Fatalf("expected error for zero kernel height")
	}
}

func TestGaussianBlurSpreadsImpulse(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 9, 9))
	img.SetGray(4, 4, color.Gray{Y: 255})

	out, err := GaussianBlur(img, 5, 5)
	if err != nil {
		t.Fatalf("blur: %v", err)
	}
	gray := out.(*image.Gray)
	center := gray.GrayAt(4, 4).Y
	side := gray.GrayAt(3, 4).Y
	if center == 255 || center == 0 {
		t.Fatalf("center should be attenuated, got %d", center)
	}
	if side == 0 || side >= center {
		t.Fatalf("energy should spread outward: center=%d side=%d", center, side)
	}
	if gray.GrayAt(0, 0).Y != 0 {
		t.Fatalf("far corner should stay black")
	}
}

func TestGaussianBlurPreservesFlatRegions(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	out, err := GaussianBlur(img, 3, 3)
	if err != nil {
		t.Fatalf("blur: %v", err)
	}
	for _, p := range out.(*image.Gray).Pix {
		if p != 200 {
			t.Fatalf("flat image should be unchanged, got %d", p)
		}
	}
}

func gradientGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * 16)})
		}
	}
	return img
}

func TestParseThresholdMethod(t *testing.T) {
	cases := []struct {
		in   string
		want ThresholdMethod
		ok   bool
	}{
		{"", ThresholdAdaptiveGaussian, true},
		{"adaptive_gaussian", ThresholdAdaptiveGaussian, true},
		{"otsu", ThresholdOtsu, true},
		{"simple", ThresholdSimple, true},
		{"magic", "", false},
	}
	for _, c := range cases {
		got, err := ParseThresholdMethod(c.in)
		if c.ok {
			if err != nil || got != c.want {
				t.Fatalf("ParseThresholdMethod(%q) = %v, %v", c.in, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("ParseThresholdMethod(%q) should fail", c.in)
		}
	}
}

func TestThresholdSimple(t *testing.T) {
	p := DefaultThresholdParams()
	p.Method = ThresholdSimple
	p.Value = 127
	out, err := Threshold(gradientGray(), p)
	if err != nil {
		t.Fatalf("threshold: %v", err)
	}
	if out.GrayAt(0, 0).Y != 0 || out.GrayAt(15, 0).Y != 255 {
		t.Fatalf("extremes misclassified: %d %d", out.GrayAt(0, 0).Y, out.GrayAt(15, 0).Y)
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := out.GrayAt(x, y).Y
			want := uint8(0)
			if x*16 > 127 {
				want = 255
			}
			if v != want {
				t.Fatalf("pixel (%d,%d) = %d, want %d", x, y, v, want)
			}
		}
	}
}

func TestThresholdOtsuDiffersFromSimple(t *testing.T) {
	// Bimodal image with modes at 40 and 90: otsu splits between them,
	// simple at 127 sends everything to black.
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			v := uint8(40)
			if x >= 8 {
				v = 90
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	simple, err := Threshold(img, ThresholdParams{Method: ThresholdSimple, Value: 127})
	if err != nil {
		t.Fatalf("simple: %v", err)
	}
	otsu, err := Threshold(img, ThresholdParams{Method: ThresholdOtsu})
	if err != nil {
		t.Fatalf("otsu: %v", err)
	}
	if simple.GrayAt(12, 4).Y != 0 {
		t.Fatalf("simple should classify 90 as background")
	}
	if otsu.GrayAt(12, 4).Y != 255 || otsu.GrayAt(3, 4).Y != 0 {
		t.Fatalf("otsu should split the two modes")
	}
}

func TestThresholdUnknownMethod(t *testing.T) {
	_, err := Threshold(gradientGray(), ThresholdParams{Method: "magic"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestThresholdAdaptiveIdempotent(t *testing.T) {
	p := DefaultThresholdParams()
	once, err := Threshold(gradientGray(), p)
	if err != nil {
		t.Fatalf("first pass: %v", err)
	}
	twice, err := Threshold(once, p)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	for i := range once.Pix {
		if once.Pix[i] != twice.Pix[i] {
			t.Fatalf("binary image not stable at %d: %d vs %d", i, once.Pix[i], twice.Pix[i])
		}
	}
}

func TestAdaptiveThresholdBadBlockSize(t *testing.T) {
	p := DefaultThresholdParams()
	p.BlockSize = 10
	if _, err := Threshold(gradientGray(), p); err == nil {
		t.Fatalf("expected error for even block size")
	}
}

func TestNormalizeSkewAngle(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-50, -40},
		{-10, 10},
		{-90, 0},
		{-45, 45},
		{0, 0},
	}
	for _, c := range cases {
		if got := NormalizeSkewAngle(c.in); math.Abs(got-c.want) > 1e-9 {
			t.Fatalf("NormalizeSkewAngle(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

// rotatedRectPoints builds the corners (densified along edges) of a w x h
// rectangle rotated clockwise by deg around the origin, in image
// coordinates.
func rotatedRectPoints(w, h float64, deg float64) []image.Point {
	theta := deg * math.Pi / 180
	cos, sin := math.Cos(theta), math.Sin(theta)
	var pts []image.Point
	corners := [][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}}
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%4]
		for s := 0.0; s < 1.0; s += 0.05 {
			x := a[0] + (b[0]-a[0])*s
			y := a[1] + (b[1]-a[1])*s
			rx := x*cos - y*sin
			ry := x*sin + y*cos
			pts = append(pts, image.Pt(int(math.Round(rx+500)), int(math.Round(ry+500))))
		}
	}
	return pts
}

func TestMinAreaRectAngle(t *testing.T) {
	cases := []struct {
		deg  float64
		want float64
	}{
		{0, -90},
		{5, -85},
		{-5, -5},
		{30, -60},
	}
	for _, c := range cases {
		got := MinAreaRectAngle(rotatedRectPoints(200, 80, c.deg))
		if math.Abs(got-c.want) > 1.0 {
			t.Fatalf("angle for %v-degree rect = %v, want ~%v", c.deg, got, c.want)
		}
	}
}

// skewedBar draws a dark page with a light bar rotated by deg.
func skewedBar(deg float64) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	bar := image.NewGray(image.Rect(0, 0, 200, 200))
	for y := 90; y < 110; y++ {
		for x := 40; x < 160; x++ {
			bar.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	rotated := Rotate(bar, deg).(*image.Gray)
	copy(img.Pix, rotated.Pix)
	return img
}

func TestDeskewStraightensBar(t *testing.T) {
	for _, deg := range []float64{5, -5} {
		skewed := skewedBar(deg)
		before := NormalizeSkewAngle(MinAreaRectAngle(foregroundExtremes(skewed)))
		if math.Abs(before) < 2 {
			t.Fatalf("test image for %v degrees is not skewed (estimate %v)", deg, before)
		}
		deskewed := Grayscale(Deskew(skewed))
		// Re-binarize to drop interpolation fringe before re-estimating.
		bin, err := Threshold(deskewed, ThresholdParams{Method: ThresholdSimple, Value: 127})
		if err != nil {
			t.Fatalf("threshold: %v", err)
		}
		after := NormalizeSkewAngle(MinAreaRectAngle(foregroundExtremes(bin)))
		if math.Abs(after) > 1.0 {
			t.Fatalf("residual skew after deskew(%v) = %v", deg, after)
		}
	}
}

func TestDeskewNoForeground(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 10, 10))
	if out := Deskew(img); out != img {
		t.Fatalf("image without foreground should pass through")
	}
}

func TestRotateIdentityAtZero(t *testing.T) {
	img := gradientGray()
	out := Rotate(img, 0).(*image.Gray)
	for i := range img.Pix {
		if img.Pix[i] != out.Pix[i] {
			t.Fatalf("zero rotation changed pixel %d", i)
		}
	}
}
