package imageio

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"
)

func testImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}
	return img
}

func TestParseFormat(t *testing.T) {
	cases := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"png", PNG, true},
		{"PNG", PNG, true},
		{"jpg", JPEG, true},
		{"jpeg", JPEG, true},
		{"tif", TIFF, true},
		{"tiff", TIFF, true},
		{"bmp", BMP, true},
		{"gif", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, err := ParseFormat(c.in)
		if c.ok && (err != nil || got != c.want) {
			t.Fatalf("ParseFormat(%q) = %v, %v; want %v", c.in, got, err, c.want)
		}
		if !c.ok && err == nil {
			t.Fatalf("ParseFormat(%q) succeeded, want error", c.in)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, format := range []Format{PNG, TIFF, BMP} {
		path := filepath.Join(dir, "img."+format.Extension())
		if err := SaveAs(path, testImage(), format); err != nil {
			t.Fatalf("save %s: %v", format, err)
		}
		img, err := Load(path)
		if err != nil {
			t.Fatalf("load %s: %v", format, err)
		}
		if got := img.Bounds(); got != image.Rect(0, 0, 8, 8) {
			t.Fatalf("bounds after %s round trip: %v", format, got)
		}
	}
}

func TestSaveCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "img.png")
	if err := Save(path, testImage()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
