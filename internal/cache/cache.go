package cache

import "time"

// Cache is a key-value cache with a per-entry TTL.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key K) (V, bool)

	// Set stores the value. A ttl <= 0 means the entry does not expire.
	Set(key K, value V, ttl time.Duration)

	// GetOrLoad returns the cached value or calls load and caches its result.
	// Load errors are returned and nothing is cached.
	GetOrLoad(key K, ttl time.Duration, load func() (V, error)) (V, error)

	Delete(key K)

	// Len counts entries that have not expired.
	Len() int

	// PurgeExpired scans and removes expired entries.
	PurgeExpired()
}
