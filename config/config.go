// Package config loads the pipeline configuration document: the ordered
// list of enabled stages, the worker-pool settings and one opaque block
// per stage, decoded lazily by the stage that owns it.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Error is a configuration error: a missing key, a stage enabled without
// its block, or an invalid value. It is fatal and aborts the run.
type Error struct {
	Stage  string
	Key    string
	Reason string
}

func (e *Error) Error() string {
	switch {
	case e.Stage != "" && e.Key != "":
		return fmt.Sprintf("config: stage %s, key %s: %s", e.Stage, e.Key, e.Reason)
	case e.Stage != "":
		return fmt.Sprintf("config: stage %s: %s", e.Stage, e.Reason)
	}
	return "config: " + e.Reason
}

// App names the run and lists the enabled stages in execution order.
type App struct {
	Name     string   `yaml:"name"`
	Pipeline []string `yaml:"pipeline"`
}

// WorkerCount is a worker total or "auto" (zero value), which resolves to
// one worker per CPU.
type WorkerCount int

func (c *WorkerCount) UnmarshalYAML(node *yaml.Node) error {
	if node.Value == "" || node.Value == "auto" {
		*c = 0
		return nil
	}
	n, err := strconv.Atoi(node.Value)
	if err != nil || n < 1 {
		return &Error{Key: "workers.count", Reason: fmt.Sprintf("want a positive integer or \"auto\", got %q", node.Value)}
	}
	*c = WorkerCount(n)
	return nil
}

// Resolve returns the effective worker count.
func (c WorkerCount) Resolve() int {
	if c > 0 {
		return int(c)
	}
	return runtime.NumCPU()
}

// Workers holds the concurrency settings shared by all stages.
type Workers struct {
	Enabled bool        `yaml:"enabled"`
	Count   WorkerCount `yaml:"count"`
}

// Config is the parsed configuration document. Stage blocks stay as raw
// YAML nodes until the owning stage decodes them.
type Config struct {
	App     App                  `yaml:"app"`
	Workers Workers              `yaml:"workers"`
	Stages  map[string]yaml.Node `yaml:",inline"`
}

// Load reads and validates the YAML configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if len(cfg.App.Pipeline) == 0 {
		return nil, &Error{Key: "app.pipeline", Reason: "no stages enabled"}
	}
	for _, name := range cfg.App.Pipeline {
		if _, ok := cfg.Stages[name]; !ok {
			return nil, &Error{Stage: name, Reason: "enabled stage has no configuration block"}
		}
	}
	return &cfg, nil
}

// Stage decodes the named stage's configuration block into out.
func (c *Config) Stage(name string, out interface{}) error {
	node, ok := c.Stages[name]
	if !ok {
		return &Error{Stage: name, Reason: "enabled stage has no configuration block"}
	}
	if err := node.Decode(out); err != nil {
		return &Error{Stage: name, Reason: err.Error()}
	}
	return nil
}
