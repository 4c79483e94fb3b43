// Package imageio loads and saves raster images in the formats the
// pipeline accepts: png, jpeg, tiff and bmp.
package imageio

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format identifies an output image encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
)

const jpegQuality = 90

// ParseFormat resolves a configuration value such as "png" or "JPG" into a
// Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "tiff", "tif":
		return TIFF, nil
	case "bmp":
		return BMP, nil
	}
	return "", fmt.Errorf("unsupported image format %q", name)
}

// Extension returns the file extension for the format, without the dot.
func (f Format) Extension() string { return string(f) }

// Load decodes the image at path. A missing or undecodable file is an
// error; the pipeline treats it as fatal.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

// Save encodes img at path using the format implied by the path extension.
func Save(path string, img image.Image) error {
	format, err := ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return SaveAs(path, img, format)
}

// SaveAs encodes img to path in the given format, creating the parent
// directory if needed.
func SaveAs(path string, img image.Image, format Format) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Encode(f, img, format); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: jpegQuality})
	case TIFF:
		return tiff.Encode(w, img, nil)
	case BMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("unsupported image format %q", format)
}

// EnsureDir creates the directory (and parents) if it does not exist.
// Concurrent callers may race on the same path; "already exists" is fine.
func EnsureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	return nil
}
