// Package rasterize turns PDF documents into page images. The actual
// rendering is delegated to an external engine behind the Rasterizer
// interface; the default implementation drives poppler's pdftoppm.
package rasterize

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
)

// Options controls page rendering.
type Options struct {
	// DPI is the render resolution; zero falls back to 200.
	DPI int
}

const defaultDPI = 200

// Rasterizer renders every page of a PDF into an image, in page order.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string, opts Options) ([]image.Image, error)
}

// Poppler shells out to pdftoppm, the renderer behind the usual
// pdf-to-image tooling.
type Poppler struct {
	// Command overrides the pdftoppm binary path.
	Command string
}

// NewPoppler returns a Rasterizer using the pdftoppm binary from PATH.
func NewPoppler() *Poppler { return &Poppler{} }

func (p *Poppler) command() string {
	if p.Command != "" {
		return p.Command
	}
	return "pdftoppm"
}

// Rasterize renders each page of the PDF at the configured DPI.
func (p *Poppler) Rasterize(ctx context.Context, pdfPath string, opts Options) ([]image.Image, error) {
	dpi := opts.DPI
	if dpi <= 0 {
		dpi = defaultDPI
	}
	tmp, err := os.MkdirTemp("", "scankit-pages-")
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", pdfPath, err)
	}
	defer os.RemoveAll(tmp)

	prefix := filepath.Join(tmp, "page")
	cmd := exec.CommandContext(ctx, p.command(),
		"-r", strconv.Itoa(dpi),
		"-png",
		pdfPath,
		prefix,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("rasterize %s: %s: %w", pdfPath, string(out), err)
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", pdfPath, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("rasterize %s: renderer produced no pages", pdfPath)
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(matches)

	pages := make([]image.Image, 0, len(matches))
	for _, m := range matches {
		f, err := os.Open(m)
		if err != nil {
			return nil, fmt.Errorf("rasterize %s: %w", pdfPath, err)
		}
		img, err := png.Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("rasterize %s: decode %s: %w", pdfPath, filepath.Base(m), err)
		}
		pages = append(pages, img)
	}
	return pages, nil
}
