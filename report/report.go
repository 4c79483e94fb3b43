// Package report implements the optional final pipeline stage: a per-run
// summary of the detected layout, written as Markdown and rendered to
// HTML.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/wudi/scankit/detect"
	"github.com/wudi/scankit/imageio"
	"github.com/wudi/scankit/observability"
)

// StageName is the configuration key of this stage.
const StageName = "step_04_report"

// Config is the stage's configuration block.
type Config struct {
	OutputDir string `yaml:"output_dir"`
}

// Stage aggregates the layout JSON files of a run into one summary. It is
// an aggregate over the whole frontier, so it always runs sequentially.
type Stage struct {
	cfg Config
	md  goldmark.Markdown
	log observability.Logger
}

// New builds the stage.
func New(cfg Config, log observability.Logger) (*Stage, error) {
	if cfg.OutputDir == "" {
		return nil, fmt.Errorf("stage %s: output_dir is required", StageName)
	}
	if log == nil {
		log = observability.NopLogger{}
	}
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	return &Stage{cfg: cfg, md: md, log: log}, nil
}

func (s *Stage) Name() string { return StageName }
func (s *Stage) Source() bool { return false }

// pageSummary is the aggregated view of one page's layout JSON.
type pageSummary struct {
	name   string
	counts map[string]int
	total  int
}

// Run reads every region file on the frontier and writes summary.md and
// summary.html under OutputDir.
func (s *Stage) Run(_ context.Context, frontier []string) ([]string, error) {
	pages := make([]pageSummary, 0, len(frontier))
	types := map[string]bool{}
	for _, path := range frontier {
		page, err := summarize(path)
		if err != nil {
			return nil, err
		}
		for t := range page.counts {
			types[t] = true
		}
		pages = append(pages, page)
	}

	markdown := renderMarkdown(pages, sortedKeys(types))

	if err := imageio.EnsureDir(s.cfg.OutputDir); err != nil {
		return nil, err
	}
	mdPath := filepath.Join(s.cfg.OutputDir, "summary.md")
	if err := os.WriteFile(mdPath, []byte(markdown), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", mdPath, err)
	}

	var html strings.Builder
	if err := s.md.Convert([]byte(markdown), &html); err != nil {
		return nil, fmt.Errorf("render report html: %w", err)
	}
	htmlPath := filepath.Join(s.cfg.OutputDir, "summary.html")
	if err := os.WriteFile(htmlPath, []byte(html.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write %s: %w", htmlPath, err)
	}

	s.log.Info("report written",
		observability.Int("pages", len(pages)),
		observability.String("dir", s.cfg.OutputDir))
	return []string{mdPath, htmlPath}, nil
}

func summarize(path string) (pageSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pageSummary{}, fmt.Errorf("read regions %s: %w", path, err)
	}
	var regions []detect.Region
	if err := json.Unmarshal(data, &regions); err != nil {
		return pageSummary{}, fmt.Errorf("parse regions %s: %w", path, err)
	}
	page := pageSummary{
		name:   strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		counts: make(map[string]int),
		total:  len(regions),
	}
	for _, r := range regions {
		page.counts[r.Type]++
	}
	return page, nil
}

func renderMarkdown(pages []pageSummary, types []string) string {
	var b strings.Builder
	b.WriteString("# Layout analysis summary\n\n")
	fmt.Fprintf(&b, "Pages analyzed: %d\n\n", len(pages))
	if len(pages) == 0 {
		return b.String()
	}

	b.WriteString("| Page |")
	for _, t := range types {
		fmt.Fprintf(&b, " %s |", t)
	}
	b.WriteString(" Total |\n|---|")
	for range types {
		b.WriteString("---|")
	}
	b.WriteString("---|\n")

	for _, p := range pages {
		fmt.Fprintf(&b, "| %s |", p.name)
		for _, t := range types {
			fmt.Fprintf(&b, " %d |", p.counts[t])
		}
		fmt.Fprintf(&b, " %d |\n", p.total)
	}
	return b.String()
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
