package detect

import (
	"fmt"
	"sync"
)

// Factory constructs a detector for a configuration.
type Factory func(Config) (Detector, error)

// Cache holds lazily-constructed detector instances for the lifetime of
// the process, so repeated stage invocations reuse the loaded model.
// Entries are keyed by the configuration hash: asking for a different
// configuration builds a fresh instance instead of returning a stale one.
type Cache struct {
	factory Factory

	mu        sync.Mutex
	detectors map[string]Detector
}

// NewCache wraps a factory with per-configuration memoization.
func NewCache(factory Factory) *Cache {
	return &Cache{
		factory:   factory,
		detectors: make(map[string]Detector),
	}
}

// Get returns the detector for cfg, constructing it on first use.
func (c *Cache) Get(cfg Config) (Detector, error) {
	key := cfg.Hash()
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.detectors[key]; ok {
		return d, nil
	}
	d, err := c.factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize detector %q: %w", cfg.Type, err)
	}
	c.detectors[key] = d
	return d, nil
}

// Len reports how many distinct detector instances are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.detectors)
}
