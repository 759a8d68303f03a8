package cache

import (
	"net/http"
	"time"
)

// CacheEntry represents a cached storefront response.
type CacheEntry struct {
	// Data is the response body
	Data []byte `msgpack:"data"`

	// ETag for conditional requests (If-None-Match)
	ETag string `msgpack:"etag"`

	// Expires is when the cache entry is dropped from Redis
	Expires time.Time `msgpack:"expires"`

	// LastModified is when the data was last modified (from the Last-Modified header)
	LastModified time.Time `msgpack:"last_modified"`

	// StatusCode is the HTTP status code of the cached response
	StatusCode int `msgpack:"status_code"`

	// Headers are the response headers
	Headers http.Header `msgpack:"headers"`

	// CachedAt is when we cached this response
	CachedAt time.Time `msgpack:"cached_at"`
}

// IsExpired returns true if the cache entry has expired.
func (e *CacheEntry) IsExpired() bool {
	return time.Now().After(e.Expires)
}

// TTL returns the time until expiration.
// Returns 0 if already expired.
func (e *CacheEntry) TTL() time.Duration {
	ttl := time.Until(e.Expires)
	if ttl < 0 {
		return 0
	}
	return ttl
}
