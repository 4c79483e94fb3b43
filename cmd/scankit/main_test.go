package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/wudi/scankit/config"
	"github.com/wudi/scankit/imageio"
	"github.com/wudi/scankit/normalize"
	"github.com/wudi/scankit/pipeline"
	"github.com/wudi/scankit/preprocess"
	"github.com/wudi/scankit/rasterize"
)

type fakeRasterizer struct {
	pages int
}

func (f *fakeRasterizer) Rasterize(_ context.Context, _ string, _ rasterize.Options) ([]image.Image, error) {
	out := make([]image.Image, f.pages)
	for i := range out {
		out[i] = image.NewNRGBA(image.Rect(0, 0, 8, 8))
	}
	return out, nil
}

// Runs a two-stage pipeline end to end: one two-page PDF in, two grayscale
// PNGs with matching basenames out.
func TestNormalizeThenPreprocess(t *testing.T) {
	inDir := t.TempDir()
	normDir := t.TempDir()
	prepDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(inDir, "scan.pdf"), []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := config.Parse([]byte(fmt.Sprintf(`
app:
  name: test
  pipeline:
    - step_01_normalize_input
    - step_02_preprocess_image
workers:
  enabled: false
step_01_normalize_input:
  input_dir: %s
  output_dir: %s
  pdf_dpi: 150
  output_format: png
step_02_preprocess_image:
  output_dir: %s
  pipeline:
    - type: grayscale
      enabled: true
`, inDir, normDir, prepDir)))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}

	var nc normalize.Config
	if err := cfg.Stage(normalize.StageName, &nc); err != nil {
		t.Fatalf("decode normalize config: %v", err)
	}
	var pc preprocess.Config
	if err := cfg.Stage(preprocess.StageName, &pc); err != nil {
		t.Fatalf("decode preprocess config: %v", err)
	}

	opts := pipeline.Options{Parallel: cfg.Workers.Enabled, Workers: cfg.Workers.Count.Resolve()}
	s1, err := normalize.New(nc, &fakeRasterizer{pages: 2}, opts, nil)
	if err != nil {
		t.Fatalf("normalize stage: %v", err)
	}
	s2, err := preprocess.New(pc, opts, nil)
	if err != nil {
		t.Fatalf("preprocess stage: %v", err)
	}

	out, err := pipeline.NewOrchestrator([]pipeline.Stage{s1, s2}, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []string{
		filepath.Join(prepDir, "scan_page_1.png"),
		filepath.Join(prepDir, "scan_page_2.png"),
	}
	if len(out) != 2 || out[0] != want[0] || out[1] != want[1] {
		t.Fatalf("final frontier: %v, want %v", out, want)
	}
	for _, p := range want {
		img, err := imageio.Load(p)
		if err != nil {
			t.Fatalf("output missing: %v", err)
		}
		if _, ok := img.(*image.Gray); !ok {
			t.Fatalf("%s not grayscale: %T", p, img)
		}
	}
}

func TestBuildStagesRejectsUnknownStage(t *testing.T) {
	cfg, err := config.Parse([]byte(`
app:
  name: test
  pipeline: [step_99_bogus]
step_99_bogus:
  output_dir: out
`))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	_, err = buildStages(cfg, nil)
	var cerr *config.Error
	if !errors.As(err, &cerr) || cerr.Stage != "step_99_bogus" {
		t.Fatalf("expected config error naming the stage, got %v", err)
	}
}
