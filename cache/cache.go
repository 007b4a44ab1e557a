package cache

import "time"

// Cache defines a string keyed cache compatible with Ristretto and other caches.
// Writes may be buffered, Wait blocks until they are visible to Get.
type Cache[V any] interface {
	// Get retrieves a value from the cache
	Get(key string) (V, bool)

	// Set stores a value with cost, returning true if successful
	Set(key string, value V, cost int64) bool

	// SetWithTTL stores a value with cost and TTL, returning true if successful
	SetWithTTL(key string, value V, cost int64, ttl time.Duration) bool

	Del(key string)

	Wait()
}
