package feature

import (
	"context"
	"time"

	"github.com/dmitrymomot/featuregate/pkg/cache"
)

// CachedLookup keeps recently read flags in a bounded LRU for a short ttl.
// Only successful reads are cached; errors always go to the wrapped lookup.
// A toggle becomes visible through the cache after at most ttl.
type CachedLookup struct {
	next  Lookup
	cache *cache.LRUCache[string, *Flag]
}

// NewCachedLookup wraps next with a cache holding up to capacity flags for ttl.
func NewCachedLookup(next Lookup, capacity int, ttl time.Duration) *CachedLookup {
	if next == nil {
		panic("feature: lookup cannot be nil")
	}
	return &CachedLookup{
		next:  next,
		cache: cache.NewLRUCache[string, *Flag](capacity, ttl),
	}
}

// Get returns a cached copy of the flag or reads it through.
func (c *CachedLookup) Get(ctx context.Context, name string) (*Flag, error) {
	if flag, ok := c.cache.Get(name); ok {
		return cloneFlag(flag), nil
	}

	flag, err := c.next.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	c.cache.Put(name, cloneFlag(flag))
	return flag, nil
}

// Forget drops a single flag, typically right after it was toggled.
func (c *CachedLookup) Forget(name string) {
	c.cache.Remove(name)
}

// Purge drops every cached flag.
func (c *CachedLookup) Purge() {
	c.cache.Clear()
}
