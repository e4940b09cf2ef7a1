package validate

import (
	"context"
	"sync"

	"github.com/jacoelho/xsd"

	"sipbuilder/internal/schema"
)

// cacheKey identifies a compiled schema by location and declared XML Schema
// version. Two references to the same location under different versions
// compile separately.
type cacheKey struct {
	location string
	version  string
}

type cacheEntry struct {
	ready  chan struct{}
	engine *xsd.Engine
	err    error
}

// Cache shares compiled engines across concurrent builds. Loads for the same
// key are deduplicated: one caller compiles while the rest wait for its
// result. Failed loads are not retained, so a later build retries a schema
// that was temporarily unreachable.
type Cache struct {
	loader Loader

	mu      sync.Mutex
	entries map[cacheKey]*cacheEntry
}

func NewCache(loader Loader) *Cache {
	return &Cache{
		loader:  loader,
		entries: make(map[cacheKey]*cacheEntry),
	}
}

// Get returns the compiled engine for ref, loading and compiling it on first
// use.
func (c *Cache) Get(ctx context.Context, ref schema.Reference) (*xsd.Engine, error) {
	key := cacheKey{location: ref.Location, version: ref.Version}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-entry.ready:
			return entry.engine, entry.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	entry := &cacheEntry{ready: make(chan struct{})}
	c.entries[key] = entry
	c.mu.Unlock()

	entry.engine, entry.err = c.loader.Load(ctx, ref)
	if entry.err != nil {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
	}
	close(entry.ready)
	return entry.engine, entry.err
}
