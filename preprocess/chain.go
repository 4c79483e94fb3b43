package preprocess

import (
	"fmt"
	"image"

	"github.com/wudi/scankit/observability"
)

type chainEntry struct {
	filter  Filter
	typ     string
	enabled bool
}

// Chain executes an ordered filter sequence against one image. Disabled
// and unrecognized entries stay in the chain but are skipped when it runs.
type Chain struct {
	entries []chainEntry
	log     observability.Logger
}

// NewChain compiles the descriptor sequence. Parameters of disabled
// entries are not validated, matching the skip semantics: a disabled
// filter can never fail the run.
func NewChain(descriptors []Descriptor, log observability.Logger) (*Chain, error) {
	if log == nil {
		log = observability.NopLogger{}
	}
	entries := make([]chainEntry, 0, len(descriptors))
	for i, d := range descriptors {
		entry := chainEntry{typ: d.Type, enabled: d.Enabled}
		if d.Enabled {
			f, err := compileFilter(d)
			if err != nil {
				return nil, fmt.Errorf("filter %d (%s): %w", i, d.Type, err)
			}
			entry.filter = f
		}
		entries = append(entries, entry)
	}
	return &Chain{entries: entries, log: log}, nil
}

// SnapshotFunc persists an intermediate result after one filter has been
// applied.
type SnapshotFunc func(filterType string, img image.Image) error

// Apply runs every enabled, recognized filter in order and returns the
// final image. When snapshot is non-nil it is called after each applied
// filter; skipped entries produce no snapshot.
func (c *Chain) Apply(img image.Image, snapshot SnapshotFunc) (image.Image, error) {
	current := img
	for _, e := range c.entries {
		if !e.enabled {
			continue
		}
		if _, ok := e.filter.(Unrecognized); ok {
			c.log.Warn("skipping unrecognized filter type", observability.String("type", e.typ))
			continue
		}
		next, err := e.filter.Apply(current)
		if err != nil {
			return nil, fmt.Errorf("apply %s: %w", e.typ, err)
		}
		current = next
		if snapshot != nil {
			if err := snapshot(e.typ, current); err != nil {
				return nil, fmt.Errorf("snapshot %s: %w", e.typ, err)
			}
		}
	}
	return current, nil
}

// Len reports the number of configured entries, including skipped ones.
func (c *Chain) Len() int { return len(c.entries) }
