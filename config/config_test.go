package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const sampleConfig = `
app:
  name: scankit
  pipeline:
    - step_01_normalize_input
    - step_02_preprocess_image

workers:
  enabled: true
  count: auto

step_01_normalize_input:
  input_dir: data/input
  output_dir: data/normalized
  pdf_dpi: 300
  output_format: png

step_02_preprocess_image:
  output_dir: data/preprocessed
  pipeline:
    - type: grayscale
      enabled: true
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sampleConfig))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.App.Name != "scankit" {
		t.Fatalf("app name: %q", cfg.App.Name)
	}
	if len(cfg.App.Pipeline) != 2 || cfg.App.Pipeline[0] != "step_01_normalize_input" {
		t.Fatalf("pipeline: %v", cfg.App.Pipeline)
	}
	if !cfg.Workers.Enabled || cfg.Workers.Count != 0 {
		t.Fatalf("workers: %+v", cfg.Workers)
	}
	if cfg.Workers.Count.Resolve() < 1 {
		t.Fatalf("auto count must resolve to a positive number")
	}

	var step struct {
		InputDir     string `yaml:"input_dir"`
		OutputDir    string `yaml:"output_dir"`
		PDFDPI       int    `yaml:"pdf_dpi"`
		OutputFormat string `yaml:"output_format"`
	}
	if err := cfg.Stage("step_01_normalize_input", &step); err != nil {
		t.Fatalf("stage decode: %v", err)
	}
	if step.PDFDPI != 300 || step.OutputFormat != "png" {
		t.Fatalf("stage config: %+v", step)
	}
}

func TestParseMissingStageBlock(t *testing.T) {
	_, err := Parse([]byte(`
app:
  pipeline: [step_01_normalize_input]
`))
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if cerr.Stage != "step_01_normalize_input" {
		t.Fatalf("error should name the stage: %+v", cerr)
	}
}

func TestParseEmptyPipeline(t *testing.T) {
	_, err := Parse([]byte(`app: {name: x}`))
	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %v", err)
	}
}

func TestWorkerCount(t *testing.T) {
	cfg, err := Parse([]byte(`
app:
  pipeline: [s]
workers:
  enabled: true
  count: 4
s: {}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Workers.Count.Resolve() != 4 {
		t.Fatalf("count: %d", cfg.Workers.Count)
	}

	if _, err := Parse([]byte("app:\n  pipeline: [s]\nworkers:\n  count: -2\ns: {}\n")); err == nil {
		t.Fatalf("negative worker count should fail")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("missing file should fail")
	}
}
