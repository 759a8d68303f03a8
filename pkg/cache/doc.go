// Package cache provides storefront response caching with a Redis backend.
//
// The cache never answers a request on its own: every request still reaches
// the API, and a stored entry is only used to revalidate it. Features:
//
// - ETag support for conditional requests (If-None-Match)
// - Last-Modified support (If-Modified-Since)
// - TTL from Cache-Control max-age or Expires, DefaultTTL otherwise
// - msgpack-encoded entries shared across processes through Redis
// - Prometheus metrics for observability
// - Deterministic cache key generation
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/products/by-category/3",
//		QueryParams: url.Values{"page": []string{"1"}, "limit": []string{"10"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// plain request
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// the API answers 304 when nothing changed
//	}
//
//	// on 304
//	_ = manager.Refresh(ctx, key, resp.Header)
//	resp = cache.EntryToResponse(entry, req)
//
// # Metrics
//
//   - storefront_cache_hits_total{layer="redis"} - Cache hits
//   - storefront_cache_misses_total - Cache misses
//   - storefront_cache_writes_total - Entries stored
//   - storefront_cache_entry_bytes - Encoded entry size
//   - storefront_conditional_requests_total - Conditional requests sent
//   - storefront_304_responses_total - Conditional request successes
//   - storefront_cache_errors_total{operation} - Cache operation errors
package cache
