// Command scankit runs the document-image processing pipeline: normalize
// scanned inputs, clean them up with the configured filter chain, detect
// layout regions and optionally emit a run report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/wudi/scankit/config"
	"github.com/wudi/scankit/detect"
	"github.com/wudi/scankit/layout"
	"github.com/wudi/scankit/normalize"
	"github.com/wudi/scankit/observability"
	"github.com/wudi/scankit/pipeline"
	"github.com/wudi/scankit/preprocess"
	"github.com/wudi/scankit/rasterize"
	"github.com/wudi/scankit/report"
)

type options struct {
	configPath string
	logLevel   string
	graphPath  string
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "scankit: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		os.Exit(1)
	}
}

func parseFlags() (options, error) {
	var opts options
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: scankit [flags]\n")
		flag.PrintDefaults()
	}
	flag.StringVar(&opts.configPath, "config", "config.yaml", "Path to the pipeline configuration")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.graphPath, "graph", "", "Write the enabled stage sequence as DOT to this file and exit")
	flag.Parse()

	if flag.NArg() != 0 {
		flag.Usage()
		return options{}, fmt.Errorf("unexpected arguments: %v", flag.Args())
	}
	return opts, nil
}

func run(opts options) error {
	log, err := observability.NewZapLogger(opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scankit: %v\n", err)
		return err
	}

	start := time.Now()
	log.Info("starting document processing pipeline",
		observability.String("config", opts.configPath))
	// The elapsed time is reported on failures too.
	defer func() {
		log.Info("pipeline execution finished",
			observability.Duration("elapsed", time.Since(start)))
	}()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Error("configuration error", observability.Error("error", err))
		return err
	}

	stages, err := buildStages(cfg, log)
	if err != nil {
		log.Error("configuration error", observability.Error("error", err))
		return err
	}

	orch := pipeline.NewOrchestrator(stages, log)

	if opts.graphPath != "" {
		return writeGraph(orch, opts.graphPath, log)
	}

	if _, err := orch.Run(context.Background()); err != nil {
		log.Error("pipeline aborted", observability.Error("error", err))
		return err
	}
	return nil
}

func writeGraph(orch *pipeline.Orchestrator, path string, log observability.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		log.Error("cannot create graph file", observability.Error("error", err))
		return err
	}
	defer f.Close()
	if err := orch.Graph(f); err != nil {
		log.Error("cannot render graph", observability.Error("error", err))
		return err
	}
	log.Info("stage graph written", observability.String("path", path))
	return nil
}

// buildStages instantiates every enabled stage in configured order. The
// stage set is fixed; an unknown name is a configuration error.
func buildStages(cfg *config.Config, log observability.Logger) ([]pipeline.Stage, error) {
	opts := pipeline.Options{
		Parallel: cfg.Workers.Enabled,
		Workers:  cfg.Workers.Count.Resolve(),
	}
	cache := detect.NewCache(detect.NewDetector)

	stages := make([]pipeline.Stage, 0, len(cfg.App.Pipeline))
	for _, name := range cfg.App.Pipeline {
		var (
			stage pipeline.Stage
			err   error
		)
		switch name {
		case normalize.StageName:
			var c normalize.Config
			if err = cfg.Stage(name, &c); err == nil {
				stage, err = normalize.New(c, rasterize.NewPoppler(), opts, log)
			}
		case preprocess.StageName:
			var c preprocess.Config
			if err = cfg.Stage(name, &c); err == nil {
				stage, err = preprocess.New(c, opts, log)
			}
		case layout.StageName:
			var c layout.Config
			if err = cfg.Stage(name, &c); err == nil {
				stage, err = layout.New(c, cache, opts, log)
			}
		case report.StageName:
			var c report.Config
			if err = cfg.Stage(name, &c); err == nil {
				stage, err = report.New(c, log)
			}
		default:
			err = &config.Error{Stage: name, Reason: "unknown stage name"}
		}
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return stages, nil
}
