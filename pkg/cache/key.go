package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "storefront"

// CacheKey represents a unique identifier for a cached storefront response.
type CacheKey struct {
	// Endpoint is the request path (e.g., "/products/by-category/3")
	Endpoint string

	// QueryParams are the query parameters (e.g., {"page": "2", "limit": "10"})
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: storefront:endpoint:query1=val1:query2=val2
//
// Example:
//
//	storefront:products/by-category/3:limit=10:page=2
func (k CacheKey) String() string {
	parts := []string{KeyPrefix}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	// Query params sorted for determinism
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			values := k.QueryParams[key]
			parts = append(parts, fmt.Sprintf("%s=%s", key, strings.Join(values, ",")))
		}
	}

	return strings.Join(parts, ":")
}
