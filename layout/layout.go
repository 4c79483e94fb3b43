// Package layout implements the third pipeline stage: run layout
// detection over every preprocessed page, write the regions as JSON and
// an annotated visualization image. Only the JSON path flows on; the
// visualization is a terminal artifact.
package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wudi/scankit/annotate"
	"github.com/wudi/scankit/detect"
	"github.com/wudi/scankit/imageio"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/pipeline"
)

// StageName is the configuration key of this stage.
const StageName = "step_03_layout_analysis"

const (
	jsonSubdir = "json"
	vizSubdir  = "visualizations"
)

// Config is the stage's configuration block.
type Config struct {
	OutputDir string        `yaml:"output_dir"`
	Model     detect.Config `yaml:"model_config"`
}

// Stage detects layout regions on every input image. The detector comes
// from a process-wide cache keyed by model configuration, so repeated runs
// in one process reuse the loaded model.
type Stage struct {
	cfg   Config
	cache *detect.Cache
	opts  pipeline.Options
	log   observability.Logger
}

// New builds the stage.
func New(cfg Config, cache *detect.Cache, opts pipeline.Options, log observability.Logger) (*Stage, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("stage %s: output_dir is required", StageName)
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Stage{cfg: cfg, cache: cache, opts: opts, log: log}, nil
}

func (s *Stage) Name() string { return StageName }
func (s *Stage) Source() bool { return false }

// Run resolves the detector and dispatches one analysis per image. When
// the detector is not safe for concurrent use the stage falls back to a
// single worker.
func (s *Stage) Run(ctx context.Context, frontier []string) ([]string, error) {
	det, err := s.cache.Get(s.cfg.Model)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{
		filepath.Join(s.cfg.OutputDir, jsonSubdir),
		filepath.Join(s.cfg.OutputDir, vizSubdir),
	} {
		if err := imageio.EnsureDir(dir); err != nil {
			return nil, err
		}
	}

	opts := s.opts
	if seq, ok := det.(detect.SequentialOnly); ok && seq.SequentialOnly() {
		opts.Parallel = false
	}

	return pipeline.Dispatch(ctx, frontier, opts, func(ctx context.Context, path string) (pipeline.Result, error) {
		jsonPath, _, err := s.analyze(ctx, det, path)
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.One(jsonPath), nil
	})
}

// analyze runs detection on one image and writes both artifacts. It
// returns the JSON path and the visualization path.
func (s *Stage) analyze(ctx context.Context, det detect.Detector, path string) (string, string, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return "", "", err
	}
	regions, err := det.Detect(ctx, img)
	if err != nil {
		return "", "", fmt.Errorf("detect layout of %s: %w", path, err)
	}

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	jsonPath := filepath.Join(s.cfg.OutputDir, jsonSubdir, base+".json")
	vizPath := filepath.Join(s.cfg.OutputDir, vizSubdir, base+".png")

	if err := writeRegions(jsonPath, regions); err != nil {
		return "", "", err
	}
	if err := imageio.SaveAs(vizPath, annotate.Render(img, regions), imageio.PNG); err != nil {
		return "", "", err
	}

	s.log.Info("layout analysis complete",
		observability.String("file", filepath.Base(path)),
		observability.Int(observability.MetricRegionCount, len(regions)))
	return jsonPath, vizPath, nil
}

func writeRegions(path string, regions []detect.Region) error {
	if regions == nil {
		regions = []detect.Region{}
	}
	data, err := json.MarshalIndent(regions, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal regions: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
