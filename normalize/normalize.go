// Package normalize implements the first pipeline stage: discover input
// documents and convert every one of them into the common raster format.
// PDFs fan out into one image per page; images are re-encoded.
package normalize

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/wudi/scankit/imageio"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/pipeline"
	"github.com/wudi/scankit/rasterize"
)

// StageName is the configuration key of this stage.
const StageName = "step_01_normalize_input"

// supportedExtensions is the discovery allow-list; anything else is never
// enqueued.
var supportedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".tiff": true,
	".bmp":  true,
}

// Config is the stage's configuration block.
type Config struct {
	InputDir     string `yaml:"input_dir"`
	OutputDir    string `yaml:"output_dir"`
	PDFDPI       int    `yaml:"pdf_dpi"`
	OutputFormat string `yaml:"output_format"`
}

// Stage discovers documents under InputDir and normalizes each of them.
type Stage struct {
	cfg    Config
	format imageio.Format
	ras    rasterize.Rasterizer
	opts   pipeline.Options
	log    observability.Logger
}

// New validates the stage configuration and builds the stage.
func New(cfg Config, ras rasterize.Rasterizer, opts pipeline.Options, log observability.Logger) (*Stage, error) {
	if cfg.InputDir == "" {
		return nil, fmt.Errorf("stage %s: input_dir is required", StageName)
	}
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("stage %s: output_dir is required", StageName)
	}
	format, err := imageio.ParseFormat(cfg.OutputFormat)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", StageName, err)
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Stage{cfg: cfg, format: format, ras: ras, opts: opts, log: log}, nil
}

func (s *Stage) Name() string { return StageName }

// Source reports that this stage discovers its own input set.
func (s *Stage) Source() bool { return true }

// Run discovers supported files and dispatches one normalization per file.
func (s *Stage) Run(ctx context.Context, _ []string) ([]string, error) {
	files, err := FindFiles(s.cfg.InputDir)
	if err != nil {
		return nil, err
	}
	s.log.Info("discovered input files",
		observability.Int(observability.MetricFilesFound, len(files)),
		observability.String("dir", s.cfg.InputDir))

	if err := imageio.EnsureDir(s.cfg.OutputDir); err != nil {
		return nil, err
	}
	return pipeline.Dispatch(ctx, files, s.opts, s.normalizeFile)
}

// FindFiles walks dir recursively and returns every file whose extension
// is on the allow-list, in walk order.
func FindFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if supportedExtensions[strings.ToLower(filepath.Ext(path))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	return files, nil
}

// normalizeFile converts one document: PDFs render one output per page,
// images re-encode into the target format.
func (s *Stage) normalizeFile(ctx context.Context, path string) (pipeline.Result, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		paths, err := s.normalizePDF(ctx, path)
		if err != nil {
			return pipeline.Result{}, err
		}
		return pipeline.Many(paths), nil
	}
	out, err := s.normalizeImage(path)
	if err != nil {
		return pipeline.Result{}, err
	}
	return pipeline.One(out), nil
}

func (s *Stage) normalizePDF(ctx context.Context, path string) ([]string, error) {
	pages, err := s.ras.Rasterize(ctx, path, rasterize.Options{DPI: s.cfg.PDFDPI})
	if err != nil {
		return nil, err
	}
	base := baseName(path)
	out := make([]string, 0, len(pages))
	for i, page := range pages {
		name := fmt.Sprintf("%s_page_%d.%s", base, i+1, s.format.Extension())
		target := filepath.Join(s.cfg.OutputDir, name)
		if err := imageio.SaveAs(target, page, s.format); err != nil {
			return nil, err
		}
		out = append(out, target)
	}
	s.log.Debug("normalized pdf",
		observability.String("file", path),
		observability.Int("pages", len(pages)))
	return out, nil
}

func (s *Stage) normalizeImage(path string) (string, error) {
	img, err := imageio.Load(path)
	if err != nil {
		return "", err
	}
	target := filepath.Join(s.cfg.OutputDir, baseName(path)+"."+s.format.Extension())
	if err := imageio.SaveAs(target, img, s.format); err != nil {
		return "", err
	}
	return target, nil
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
