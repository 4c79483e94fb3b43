// Package detect finds layout regions (text blocks, titles, tables, ...)
// in a page image. Detection engines sit behind the Detector interface;
// the bundled implementation uses Tesseract's block segmentation.
package detect

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	"sort"
	"strings"
)

// Region is one detected layout element. Box is {x1, y1, x2, y2} in pixel
// coordinates, Score a confidence in [0, 1].
type Region struct {
	Box   [4]int  `json:"box"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// Detector runs layout inference on one image.
//
// Implementations must be safe for concurrent calls once constructed: the
// layout stage shares a single detector across its worker pool. Engines
// that cannot satisfy this should implement SequentialOnly.
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]Region, error)
}

// SequentialOnly marks detectors that must not run concurrently. The
// layout stage downgrades to a single worker for such engines.
type SequentialOnly interface {
	SequentialOnly() bool
}

// Config selects and parameterizes a detection model.
type Config struct {
	// Type names the model, e.g. "tesseract".
	Type string `yaml:"type"`
	// LabelMap maps model class ids to human-readable region types.
	LabelMap map[int]string `yaml:"label_map"`
	// Languages are hints for text-based engines.
	Languages []string `yaml:"languages"`
}

// DefaultLabelMap mirrors the PubLayNet classes.
func DefaultLabelMap() map[int]string {
	return map[int]string{0: "Text", 1: "Title", 2: "List", 3: "Table", 4: "Figure"}
}

// Label resolves a class id, falling back to the PubLayNet defaults and
// finally to the numeric id.
func (c Config) Label(class int) string {
	if name, ok := c.LabelMap[class]; ok {
		return name
	}
	if name, ok := DefaultLabelMap()[class]; ok {
		return name
	}
	return fmt.Sprintf("class_%d", class)
}

// Hash fingerprints the full configuration. Cache entries are keyed by it
// so that two runs with different model settings never share an instance.
func (c Config) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "type=%s\n", c.Type)
	fmt.Fprintf(h, "languages=%s\n", strings.Join(c.Languages, ","))
	classes := make([]int, 0, len(c.LabelMap))
	for k := range c.LabelMap {
		classes = append(classes, k)
	}
	sort.Ints(classes)
	for _, k := range classes {
		fmt.Fprintf(h, "label_map[%d]=%s\n", k, c.LabelMap[k])
	}
	return hex.EncodeToString(h.Sum(nil))
}
