package rules

import (
	"path/filepath"
	"sync"
)

// LoaderFunc loads the rule set stored at path.
type LoaderFunc func(path string) (*RuleConfig, error)

// Cache memoizes parsed rule sets by file path. It is owned by the caller and
// passed where needed; entries stay until invalidated.
type Cache struct {
	mu      sync.Mutex
	load    LoaderFunc
	entries map[string]*RuleConfig
}

// NewCache creates a cache that fills misses with load.
func NewCache(load LoaderFunc) *Cache {
	return &Cache{
		load:    load,
		entries: make(map[string]*RuleConfig),
	}
}

// NewBackendCache creates a cache that loads rules through the named provider backend.
func NewBackendCache(backend string) *Cache {
	return NewCache(func(path string) (*RuleConfig, error) {
		return Load(backend, path)
	})
}

// Get returns the cached rule set for path, loading it on a miss. Failed
// loads are not cached.
func (c *Cache) Get(path string) (*RuleConfig, error) {
	key := cacheKey(path)

	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg, ok := c.entries[key]; ok {
		return cfg, nil
	}

	cfg, err := c.load(path)
	if err != nil {
		return nil, err
	}
	c.entries[key] = cfg
	return cfg, nil
}

// Invalidate drops the entry for path.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey(path))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*RuleConfig)
}

// Len returns the number of cached rule sets.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
