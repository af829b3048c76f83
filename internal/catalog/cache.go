package catalog

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a fetched catalog is served without refetching.
const DefaultCacheTTL = 10 * time.Minute

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Cache holds the last fetched catalog together with its fetch time.
type Cache struct {
	mu        sync.RWMutex
	ttl       time.Duration
	now       Clock
	products  []*Product
	byID      map[ProductID]*Product
	fetchedAt time.Time
	loaded    bool
}

// NewCache builds a cache. Non-positive ttl means DefaultCacheTTL and a nil
// clock means time.Now.
func NewCache(ttl time.Duration, clock Clock) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &Cache{ttl: ttl, now: clock}
}

// Get returns the cached catalog and whether it is still within the TTL.
// The returned slice is nil when nothing was ever stored.
func (c *Cache) Get() ([]*Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return nil, false
	}
	return c.products, c.now().Sub(c.fetchedAt) < c.ttl
}

// Lookup finds a product in the cached catalog regardless of age.
func (c *Cache) Lookup(id ProductID) (*Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.byID[id]
	return p, ok
}

// Put replaces the cached catalog wholesale.
func (c *Cache) Put(products []*Product) {
	byID := make(map[ProductID]*Product, len(products))
	for _, p := range products {
		if p != nil {
			byID[p.ID] = p
		}
	}
	c.mu.Lock()
	c.products = products
	c.byID = byID
	c.fetchedAt = c.now()
	c.loaded = true
	c.mu.Unlock()
}

// Invalidate expires the cached catalog without dropping it, so a failed
// refetch can still serve the stale copy.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}
