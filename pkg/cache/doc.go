// Package cache provides a generic, thread-safe LRU cache whose entries expire
// after a fixed time-to-live.
//
// It is used to keep hot flag lookups in memory for a short period so that the
// enforcement path does not hit the flag storage backend on every call.
//
// # Usage
//
//	c := cache.NewLRUCache[string, *feature.Flag](256, 2*time.Second)
//
//	c.Put("BANKING_ACCOUNT_TYPES_ENABLED", flag)
//	if f, ok := c.Get("BANKING_ACCOUNT_TYPES_ENABLED"); ok {
//		// fresh copy found
//	}
//
// A ttl of zero keeps entries until they are evicted by capacity or removed.
// Expired entries are dropped lazily on Get and are never returned.
//
// # Thread Safety
//
// All operations take a single mutex and run in O(1).
package cache
