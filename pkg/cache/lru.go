package cache

import (
	"container/list"
	"sync"
	"time"
)

type lruEntry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRUCache is a thread-safe LRU cache with per-entry expiry.
// When the cache reaches its capacity, the least recently used item is evicted.
type LRUCache[K comparable, V any] struct {
	capacity int
	ttl      time.Duration
	items    map[K]*list.Element
	eviction *list.List
	mu       sync.Mutex
	now      func() time.Time
}

// NewLRUCache creates a new LRU cache with the specified capacity and ttl.
// The capacity must be positive, otherwise it panics. A zero ttl disables expiry.
func NewLRUCache[K comparable, V any](capacity int, ttl time.Duration) *LRUCache[K, V] {
	if capacity <= 0 {
		panic("LRU cache capacity must be positive")
	}
	if ttl < 0 {
		panic("LRU cache ttl must not be negative")
	}
	return &LRUCache[K, V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[K]*list.Element),
		eviction: list.New(),
		now:      time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (c *LRUCache[K, V]) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get retrieves a live value from the cache and marks it as recently used.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		return zero, false
	}

	entry := elem.Value.(*lruEntry[K, V])
	if c.expired(entry) {
		c.removeElement(elem)
		return zero, false
	}

	c.eviction.MoveToFront(elem)
	return entry.value, true
}

// Put adds or updates a value in the cache and restarts its ttl.
// If the cache is at capacity, the least recently used item is evicted.
func (c *LRUCache[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := c.expiry()
	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		entry := elem.Value.(*lruEntry[K, V])
		entry.value = value
		entry.expiresAt = expiresAt
		return
	}

	entry := &lruEntry[K, V]{key: key, value: value, expiresAt: expiresAt}
	c.items[key] = c.eviction.PushFront(entry)

	if c.eviction.Len() > c.capacity {
		if oldest := c.eviction.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Remove deletes an item and reports whether it was present.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
		return true
	}
	return false
}

// Len returns the number of entries, including expired ones not yet dropped.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eviction.Len()
}

// Clear removes all items from the cache.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.eviction.Init()
}

// Must be called with lock held.
func (c *LRUCache[K, V]) expiry() time.Time {
	if c.ttl == 0 {
		return time.Time{}
	}
	return c.now().Add(c.ttl)
}

// Must be called with lock held.
func (c *LRUCache[K, V]) expired(entry *lruEntry[K, V]) bool {
	return !entry.expiresAt.IsZero() && !c.now().Before(entry.expiresAt)
}

// Must be called with lock held.
func (c *LRUCache[K, V]) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	entry := elem.Value.(*lruEntry[K, V])
	delete(c.items, entry.key)
}
