package detect

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// NewDetector is the default Factory: it resolves the configured model
// type to an engine. An unknown type is a fatal configuration error.
func NewDetector(cfg Config) (Detector, error) {
	switch cfg.Type {
	case "", "tesseract":
		return NewTesseract(cfg), nil
	}
	return nil, fmt.Errorf("unknown detection model type %q", cfg.Type)
}

// Tesseract detects layout blocks with Tesseract's page segmentation. It
// reports text blocks only; every region carries the label configured for
// class 0. A fresh client is created per call, so concurrent Detect calls
// are safe.
type Tesseract struct {
	cfg           Config
	clientFactory func() *gosseract.Client
}

// NewTesseract builds a Tesseract-backed detector.
func NewTesseract(cfg Config) *Tesseract {
	return &Tesseract{cfg: cfg, clientFactory: gosseract.NewClient}
}

// Detect segments the image into blocks and returns one region per block.
func (t *Tesseract) Detect(ctx context.Context, img image.Image) ([]Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode image for detection: %w", err)
	}

	c := t.clientFactory()
	defer c.Close()
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}
	if len(t.cfg.Languages) > 0 {
		if err := c.SetLanguage(t.cfg.Languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_BLOCK)
	if err != nil {
		return nil, fmt.Errorf("detect blocks: %w", err)
	}

	label := t.cfg.Label(0)
	regions := make([]Region, 0, len(boxes))
	for _, b := range boxes {
		regions = append(regions, Region{
			Box:   [4]int{b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y},
			Type:  label,
			Score: b.Confidence / 100.0,
		})
	}
	return regions, nil
}
