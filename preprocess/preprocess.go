// Package preprocess implements the second pipeline stage: a configured,
// ordered chain of image-cleanup filters applied to every normalized page
// image, with optional snapshots of each intermediate result.
package preprocess

import (
	"context"
	"fmt"
	"image"
	"path/filepath"

	"github.com/wudi/scankit/imageio"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/pipeline"
)

// StageName is the configuration key of this stage.
const StageName = "step_02_preprocess_image"

// Config is the stage's configuration block.
type Config struct {
	OutputDir        string       `yaml:"output_dir"`
	IntermediateDir  string       `yaml:"intermediate_dir"`
	SaveIntermediate bool         `yaml:"save_intermediate_steps"`
	Pipeline         []Descriptor `yaml:"pipeline"`
}

// Stage runs the filter chain over every input image.
type Stage struct {
	cfg   Config
	chain *Chain
	opts  pipeline.Options
	log   observability.Logger
}

// New compiles the filter chain and builds the stage. An unknown
// threshold method or malformed filter parameters fail here, before any
// image is touched.
func New(cfg Config, opts pipeline.Options, log observability.Logger) (*Stage, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("stage %s: output_dir is required", StageName)
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	chain, err := NewChain(cfg.Pipeline, log)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", StageName, err)
	}
	return &Stage{cfg: cfg, chain: chain, opts: opts, log: log}, nil
}

func (s *Stage) Name() string { return StageName }
func (s *Stage) Source() bool { return false }

// Run dispatches the chain over the frontier of normalized images.
func (s *Stage) Run(ctx context.Context, frontier []string) ([]string, error) {
	if err := imageio.EnsureDir(s.cfg.OutputDir); err != nil {
		return nil, err
	}
	if s.snapshotting() {
		if err := imageio.EnsureDir(s.cfg.IntermediateDir); err != nil {
			return nil, err
		}
	}
	return pipeline.Dispatch(ctx, frontier, s.opts, s.processImage)
}

func (s *Stage) snapshotting() bool {
	return s.cfg.SaveIntermediate && s.cfg.IntermediateDir != ""
}

// processImage runs the chain over one image. The final result keeps the
// original filename under OutputDir; snapshots go to
// IntermediateDir/<filter type>/<filename>, overwriting earlier runs.
func (s *Stage) processImage(_ context.Context, path string) (pipeline.Result, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return pipeline.Result{}, err
	}
	filename := filepath.Base(path)

	var snapshot SnapshotFunc
	if s.snapshotting() {
		snapshot = func(filterType string, img image.Image) error {
			return imageio.Save(filepath.Join(s.cfg.IntermediateDir, filterType, filename), img)
		}
	}

	final, err := s.chain.Apply(img, snapshot)
	if err != nil {
		return pipeline.Result{}, err
	}

	target := filepath.Join(s.cfg.OutputDir, filename)
	if err := imageio.Save(target, final); err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.One(target), nil
}
