// Package pipeline drives the document pipeline: an ordered list of
// configured stages, each run to completion over the previous stage's
// output paths before the next one starts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wudi/scankit/observability"
)

// ErrNoInput reports a stage that was enabled without its predecessor
// producing any output. It is a configuration error: the run aborts
// before the stage is invoked.
var ErrNoInput = errors.New("no input available from previous stage")

// Stage is one named step of the document pipeline.
type Stage interface {
	Name() string
	// Source reports whether the stage discovers its own input set and so
	// may run with an empty frontier.
	Source() bool
	// Run consumes the previous stage's output paths and returns its own.
	Run(ctx context.Context, frontier []string) ([]string, error)
}

// State tracks a stage through the orchestrator's lifecycle.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// Orchestrator runs the enabled stages in order, handing the frontier (the
// output path list) from each completed stage to the next. It is the sole
// owner of the frontier between stages.
type Orchestrator struct {
	stages []Stage
	states []State
	log    observability.Logger
}

// NewOrchestrator builds an orchestrator over the enabled stages in
// configured order.
func NewOrchestrator(stages []Stage, log observability.Logger) *Orchestrator {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Orchestrator{
		stages: stages,
		states: make([]State, len(stages)),
		log:    log,
	}
}

// StageState returns the lifecycle state of the i-th enabled stage.
func (o *Orchestrator) StageState(i int) State { return o.states[i] }

// Run executes every enabled stage in order. The first failure aborts the
// run; later stages are never entered. On success the final frontier is
// returned.
func (o *Orchestrator) Run(ctx context.Context) ([]string, error) {
	start := time.Now()
	var frontier []string
	for i, stage := range o.stages {
		log := o.log.With(observability.String("stage", stage.Name()))
		if !stage.Source() && len(frontier) == 0 {
			o.states[i] = StateAborted
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), ErrNoInput)
		}
		o.states[i] = StateRunning
		log.Info("stage started", observability.Int("inputs", len(frontier)))

		stageStart := time.Now()
		out, err := stage.Run(ctx, frontier)
		if err != nil {
			o.states[i] = StateAborted
			return nil, fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
		o.states[i] = StateCompleted
		log.Info("stage completed",
			observability.Int(observability.MetricStageOutputs, len(out)),
			observability.Duration(observability.MetricStageDuration, time.Since(stageStart)))

		frontier = out
	}
	o.log.Info("pipeline finished",
		observability.Int("stages", len(o.stages)),
		observability.Duration(observability.MetricRunDuration, time.Since(start)))
	return frontier, nil
}
