package pipeline

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Result is the output of one stage-function invocation: a single path or
// an ordered sequence of paths (a PDF fanning out into page images).
type Result struct {
	paths []string
}

// One wraps a single output path.
func One(path string) Result { return Result{paths: []string{path}} }

// Many wraps an ordered sequence of output paths.
func Many(paths []string) Result { return Result{paths: paths} }

// Paths returns the wrapped paths in order.
func (r Result) Paths() []string { return r.paths }

// Options controls per-stage parallelism.
type Options struct {
	// Parallel fans items out across a worker pool; otherwise items run
	// sequentially in input order.
	Parallel bool
	// Workers caps the pool size; zero or negative means one worker per CPU.
	Workers int
}

// PoolSize resolves the effective worker count.
func (o Options) PoolSize() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

// Func transforms one work item into its result.
type Func func(ctx context.Context, item string) (Result, error)

// Dispatch applies fn to every item, optionally in parallel, waits for the
// whole batch, then flattens the per-item results into one ordered list:
// multi-path results are spliced in element by element, in input order.
//
// Any invocation error aborts the batch once it settles; no partial output
// is returned.
func Dispatch(ctx context.Context, items []string, opts Options, fn Func) ([]string, error) {
	results := make([]Result, len(items))

	if opts.Parallel && opts.PoolSize() > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(opts.PoolSize())
		for i, item := range items {
			i, item := i, item
			g.Go(func() error {
				r, err := fn(gctx, item)
				if err != nil {
					return fmt.Errorf("%s: %w", item, err)
				}
				results[i] = r
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i, item := range items {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			r, err := fn(ctx, item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", item, err)
			}
			results[i] = r
		}
	}

	out := make([]string, 0, len(items))
	for _, r := range results {
		out = append(out, r.paths...)
	}
	return out, nil
}
