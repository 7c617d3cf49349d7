package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/featuregate/pkg/cache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestLRUCache_Basic(t *testing.T) {
	t.Parallel()

	t.Run("put and get", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3, 0)

		c.Put("a", 1)
		c.Put("b", 2)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 1, val)
		assert.Equal(t, 2, c.Len())
	})

	t.Run("get non-existent", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3, 0)

		val, ok := c.Get("missing")
		assert.False(t, ok)
		assert.Equal(t, 0, val)
	})

	t.Run("update existing", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3, 0)

		c.Put("a", 1)
		c.Put("a", 2)

		val, ok := c.Get("a")
		assert.True(t, ok)
		assert.Equal(t, 2, val)
		assert.Equal(t, 1, c.Len())
	})

	t.Run("remove and clear", func(t *testing.T) {
		t.Parallel()
		c := cache.NewLRUCache[string, int](3, 0)

		c.Put("a", 1)
		c.Put("b", 2)
		assert.True(t, c.Remove("a"))
		assert.False(t, c.Remove("a"))

		c.Clear()
		assert.Equal(t, 0, c.Len())
	})

	t.Run("invalid arguments panic", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { cache.NewLRUCache[string, int](0, 0) })
		assert.Panics(t, func() { cache.NewLRUCache[string, int](1, -time.Second) })
	})
}

func TestLRUCache_Eviction(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[string, int](2, 0)
	c.Put("a", 1)
	c.Put("b", 2)

	// Touch "a" so "b" becomes the least recently used entry.
	_, _ = c.Get("a")
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUCache_Expiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := cache.NewLRUCache[string, int](4, 10*time.Second)
	c.SetClock(clock.Now)

	c.Put("a", 1)
	clock.Advance(9 * time.Second)
	val, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, val)

	clock.Advance(time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok, "entry must expire exactly at ttl")
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")

	c.Put("b", 2)
	clock.Advance(5 * time.Second)
	c.Put("b", 3)
	clock.Advance(6 * time.Second)
	val, ok = c.Get("b")
	assert.True(t, ok, "put restarts the ttl")
	assert.Equal(t, 3, val)
}

func TestLRUCache_Concurrent(t *testing.T) {
	t.Parallel()

	c := cache.NewLRUCache[int, int](16, time.Minute)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 100 {
				c.Put((i*100+j)%32, j)
				_, _ = c.Get(j % 32)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 16)
}
