package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "endpoint only",
			key:  CacheKey{Endpoint: "/search"},
			want: "storefront:search",
		},
		{
			name: "endpoint with query params",
			key: CacheKey{
				Endpoint:    "/products/by-category/3",
				QueryParams: url.Values{"page": []string{"2"}, "limit": []string{"10"}},
			},
			want: "storefront:products/by-category/3:limit=10:page=2",
		},
		{
			name: "multi-value query param",
			key: CacheKey{
				Endpoint:    "/search",
				QueryParams: url.Values{"query": []string{"shoe", "boot"}},
			},
			want: "storefront:search:query=shoe,boot",
		},
		{
			name: "empty key",
			key:  CacheKey{},
			want: "storefront",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCacheKey_Deterministic(t *testing.T) {
	a := CacheKey{
		Endpoint:    "/products/by-category/1",
		QueryParams: url.Values{"page": []string{"1"}, "limit": []string{"10"}},
	}
	b := CacheKey{
		Endpoint:    "products/by-category/1/",
		QueryParams: url.Values{"limit": []string{"10"}, "page": []string{"1"}},
	}

	if a.String() != b.String() {
		t.Errorf("keys differ: %q vs %q", a.String(), b.String())
	}
}
