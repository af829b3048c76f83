package catalog

import "sync"

// IndexCache memoizes one VariantIndex per product. An entry is rebuilt when
// the cached index was derived from a different *Product value, which is what
// a catalog refresh produces.
type IndexCache struct {
	mu      sync.RWMutex
	entries map[ProductID]indexEntry
}

type indexEntry struct {
	source *Product
	index  VariantIndex
}

// NewIndexCache returns an empty cache.
func NewIndexCache() *IndexCache {
	return &IndexCache{entries: map[ProductID]indexEntry{}}
}

// Get returns the index for p, building it on first use.
func (c *IndexCache) Get(p *Product) VariantIndex {
	if c == nil || p == nil {
		return BuildIndex(p)
	}
	c.mu.RLock()
	entry, ok := c.entries[p.ID]
	c.mu.RUnlock()
	if ok && entry.source == p {
		return entry.index
	}

	idx := BuildIndex(p)
	c.mu.Lock()
	c.entries[p.ID] = indexEntry{source: p, index: idx}
	c.mu.Unlock()
	return idx
}

// Len reports how many products have a cached index.
func (c *IndexCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
