//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/storefront-client/internal/testutil"
	"github.com/Sternrassler/storefront-client/pkg/catalog"
	"github.com/Sternrassler/storefront-client/pkg/client"
	"github.com/Sternrassler/storefront-client/pkg/fetch"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newCachedClient(t *testing.T, baseURL string, redisClient *redis.Client) *client.Client {
	t.Helper()
	cfg := client.DefaultConfig(baseURL, "StorefrontIntegration/1.0")
	cfg.Redis = redisClient
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("client.New() error = %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func settled[K comparable, T any](t *testing.T, c *fetch.Controller[K, T]) fetch.State[K, T] {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	state, err := c.WaitFor(ctx, fetch.Settled[K, T])
	if err != nil {
		t.Fatalf("WaitFor() error = %v", err)
	}
	return state
}

// TestProductListing_RevalidatesThroughRedis pages through a category twice.
// The second pass still reaches the API for every page, but with
// If-None-Match, and is served from the shared cache on 304.
func TestProductListing_RevalidatesThroughRedis(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddCategory(1, "Shoes", 25)

	api := newCachedClient(t, mock.URL(), redisClient)

	load := func() fetch.State[int64, catalog.Product] {
		listing := catalog.NewProductListing(api, fetch.Config[int64, catalog.Product]{})
		defer listing.Close()

		listing.SetKey(1)
		state := settled(t, listing)
		for state.HasMore {
			listing.LoadMore()
			state = settled(t, listing)
		}
		return state
	}

	first := load()
	if len(first.Items) != 25 || first.Status != fetch.StatusLoaded {
		t.Fatalf("first pass: %s with %d items", first.Status, len(first.Items))
	}
	if mock.ConditionalCount() != 0 {
		t.Errorf("first pass sent %d conditional requests", mock.ConditionalCount())
	}

	second := load()
	if len(second.Items) != 25 {
		t.Fatalf("second pass: %d items", len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i] != second.Items[i] {
			t.Fatalf("item %d differs: %+v vs %+v", i, first.Items[i], second.Items[i])
		}
	}

	if n := mock.RequestCount(); n != 6 {
		t.Errorf("requests = %d, want 6 (cache never skips the round trip)", n)
	}
	if n := mock.ConditionalCount(); n != 3 {
		t.Errorf("conditional requests = %d, want 3", n)
	}
}

// TestSharedCacheAcrossClients checks that a second process revalidates
// entries written by the first.
func TestSharedCacheAcrossClients(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.SetMedia(4, []testutil.Media{{ID: 1, URL: "https://cdn.test/a.jpg", Type: "image", CategoryID: 4}})

	for i := 0; i < 2; i++ {
		media := catalog.NewMediaListing(newCachedClient(t, mock.URL(), redisClient), fetch.Config[int64, catalog.MediaItem]{})
		media.SetKey(4)
		state := settled(t, media)
		media.Close()

		if state.Status != fetch.StatusLoaded || len(state.Items) != 1 {
			t.Fatalf("run %d: %s with %d items", i, state.Status, len(state.Items))
		}
	}

	if n := mock.ConditionalCount(); n != 1 {
		t.Errorf("conditional requests = %d, want 1", n)
	}
}

func TestLiveSearch_WithCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockCatalog()
	defer mock.Close()
	mock.AddCategory(1, "Shoes", 3)

	search := catalog.NewLiveSearch(newCachedClient(t, mock.URL(), redisClient), catalog.LiveSearchConfig{Delay: 20 * time.Millisecond})
	defer search.Close()

	for _, q := range []string{"sh", "sho", "shoe"} {
		search.SetQuery(q)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	state, err := search.Controller().WaitFor(ctx, func(s fetch.State[string, catalog.SearchHit]) bool {
		return s.Key == "shoe" && s.Status == fetch.StatusLoaded
	})
	if err != nil {
		t.Fatalf("WaitFor() error = %v", err)
	}

	if len(state.Items) != 4 {
		t.Errorf("hits = %d, want 4", len(state.Items))
	}
	if n := mock.RequestCount(); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
}
