// Package client provides the storefront HTTP client: base URL and header
// handling, error classification, optional retry with backoff, and
// conditional revalidation through the Redis response cache.
package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/storefront-client/pkg/cache"
	"github.com/Sternrassler/storefront-client/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for storefront API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_requests_total",
		Help: "Total storefront API requests by route and status",
	}, []string{"route", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_http_request_duration_seconds",
		Help:    "Storefront API request duration in seconds by route",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"route"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_http_errors_total",
		Help: "Total storefront API errors by class",
	}, []string{"class"})
)

// ErrorClass represents a classification of HTTP errors.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit represents 429 Too Many Requests.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork represents connection and transport errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassTimeout represents requests that ran out of time.
	ErrorClassTimeout ErrorClass = "timeout"
)

// Client is the storefront API client.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	cache      *cache.Manager
	limiter    *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// BaseURL of the storefront API, e.g. "https://shop.example.com/api".
	BaseURL string

	// User-Agent header sent with every request.
	UserAgent string

	// Redis enables the shared response cache and rate limit tracking when
	// non-nil.
	Redis *redis.Client

	// RequestTimeout bounds a single HTTP exchange.
	RequestTimeout time.Duration

	// Retry controls automatic retries. The default performs none.
	Retry RetryConfig
}

// DefaultConfig returns a safe default configuration without caching.
func DefaultConfig(baseURL, userAgent string) Config {
	return Config{
		BaseURL:        baseURL,
		UserAgent:      userAgent,
		RequestTimeout: 30 * time.Second,
		Retry:          DefaultRetryConfig(),
	}
}

// New creates a new storefront client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base url is required")
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url must be absolute (got %q)", cfg.BaseURL)
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.Retry.MaxAttempts < 0 {
		return nil, fmt.Errorf("retry max_attempts must be >= 0 (got %d)", cfg.Retry.MaxAttempts)
	}

	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	logger := log.With().Str("component", "storefront-client").Logger()

	var cacheManager *cache.Manager
	var limiter *ratelimit.Tracker
	if cfg.Redis != nil {
		cacheManager = cache.NewManager(cfg.Redis)
		limiter = ratelimit.NewTracker(cfg.Redis, logger)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		baseURL: base,
		cache:   cacheManager,
		limiter: limiter,
		config:  cfg,
		logger:  logger,
	}, nil
}

// Do performs an HTTP request with caching, retry, and error classification.
// Transport failures are returned as *APIError. HTTP error statuses are
// returned as responses so callers can read the error body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	route := routeLabel(req.URL.Path)

	requestID := req.Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
		req.Header.Set("X-Request-ID", requestID)
	}
	logger := c.logger.With().Str("request_id", requestID).Logger()

	// Start request timing
	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(route).Observe(time.Since(startTime).Seconds())
	}()

	// Step 1: Check Rate Limit
	if c.limiter != nil {
		allowed, wait, err := c.limiter.ShouldAllowRequest(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Rate limit check failed")
		} else if !allowed {
			errorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			requestsTotal.WithLabelValues(route, "rate_limited").Inc()
			return nil, &APIError{
				StatusCode: http.StatusTooManyRequests,
				ErrorClass: ErrorClassRateLimit,
				Message:    fmt.Sprintf("cooling down for %s", wait.Round(time.Second)),
				Err:        ErrRateLimited,
			}
		}
	}

	// Step 2: Check Cache
	var cacheKey cache.CacheKey
	var cachedEntry *cache.CacheEntry
	if c.cache != nil {
		cacheKey = cache.CacheKey{
			Endpoint:    req.URL.Path,
			QueryParams: req.URL.Query(),
		}

		entry, err := c.cache.Get(ctx, cacheKey)
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			logger.Warn().Err(err).Str("route", route).Msg("Cache get error")
		}
		cachedEntry = entry

		// Step 3: Make Conditional Request if cache hit
		if cachedEntry != nil && cache.ShouldMakeConditionalRequest(cachedEntry) {
			cache.AddConditionalHeaders(req, cachedEntry)
			cache.ConditionalRequestsSent.Inc()
			logger.Debug().
				Str("route", route).
				Str("etag", cachedEntry.ETag).
				Msg("Making conditional request")
		}
	}

	// Step 4: Set User-Agent and Accept headers
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	logger.Debug().
		Str("route", route).
		Str("method", req.Method).
		Str("url", req.URL.String()).
		Msg("Executing storefront request")

	// Step 5: Execute HTTP Request with Retry Logic
	var resp *http.Response

	retryErr := retryWithBackoff(ctx, c.config.Retry, func() error {
		if resp != nil {
			resp.Body.Close()
			resp = nil
		}

		// Execute the HTTP request
		r, reqErr := c.httpClient.Do(req)
		if reqErr != nil {
			// Handle network errors
			errClass := c.classifyError(nil, reqErr)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(route, string(errClass)).Inc()
			logger.Warn().Err(reqErr).Str("route", route).Msg("HTTP request failed")
			return &APIError{
				ErrorClass: errClass,
				Message:    "request failed",
				Err:        reqErr,
			}
		}
		resp = r

		// Update Rate Limit from headers
		if c.limiter != nil {
			if err := c.limiter.UpdateFromResponse(ctx, resp.StatusCode, resp.Header); err != nil {
				logger.Warn().Err(err).Msg("Failed to update rate limit state")
			}
		}

		// Handle 304 Not Modified (not an error, return success)
		if resp.StatusCode == http.StatusNotModified {
			return nil
		}

		// Handle HTTP errors
		if resp.StatusCode >= 400 {
			errClass := c.classifyError(resp, nil)
			errorsTotal.WithLabelValues(string(errClass)).Inc()
			requestsTotal.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Inc()

			logger.Warn().
				Str("route", route).
				Int("status", resp.StatusCode).
				Str("error_class", string(errClass)).
				Msg("Storefront request error")

			// Check if we should retry this error
			if shouldRetry(errClass) {
				return &APIError{
					StatusCode: resp.StatusCode,
					ErrorClass: errClass,
					Message:    resp.Status,
				}
			}
			// Don't retry client errors - return the response to the caller
			return nil
		}

		// Success
		requestsTotal.WithLabelValues(route, strconv.Itoa(resp.StatusCode)).Inc()
		return nil
	}, classifyRetry)

	// Handle retry exhaustion
	if retryErr != nil {
		// The last attempt got an HTTP response; hand it to the caller.
		if resp != nil && !errors.Is(retryErr, ErrContextCancelled) {
			return resp, nil
		}
		if resp != nil {
			resp.Body.Close()
		}
		return nil, retryErr
	}

	// Step 6: Handle 304 Not Modified
	if resp.StatusCode == http.StatusNotModified && cachedEntry != nil {
		logger.Debug().Str("route", route).Msg("304 Not Modified - using cache")
		requestsTotal.WithLabelValues(route, "304").Inc()
		cache.NotModifiedResponses.Inc()

		// Update cache TTL from the 304's freshness headers
		if err := c.cache.Refresh(ctx, cacheKey, resp.Header); err != nil {
			logger.Warn().Err(err).Msg("Failed to refresh cache TTL")
		}

		// Return cached response
		resp.Body.Close()
		return cache.EntryToResponse(cachedEntry, req), nil
	}

	// Step 7: Update Cache on success
	if c.cache != nil && resp.StatusCode == http.StatusOK {
		entry, err := cache.ResponseToEntry(resp)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to create cache entry")
		} else if entry.TTL() > 0 && cache.ShouldMakeConditionalRequest(entry) {
			if err := c.cache.Set(ctx, cacheKey, entry); err != nil {
				logger.Warn().Err(err).Msg("Failed to cache response")
			} else {
				logger.Debug().
					Str("route", route).
					Dur("ttl", entry.TTL()).
					Msg("Cached response")
			}
		}
	}

	return resp, nil
}

// classifyError categorizes an error for observability and handling.
func (c *Client) classifyError(resp *http.Response, err error) ErrorClass {
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return ErrorClassTimeout
		}
		return ErrorClassNetwork
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return ErrorClassClient
	case resp.StatusCode >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}

// classifyRetry extracts the error class carried by an attempt error.
func classifyRetry(err error) ErrorClass {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorClass
	}
	return ErrorClassNetwork
}

// Get performs a GET request to a storefront endpoint relative to the base URL.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) (*http.Response, error) {
	u := c.baseURL.JoinPath(endpoint)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	return c.Do(req)
}

// CacheKey returns the cache key Get uses for endpoint and query.
func (c *Client) CacheKey(endpoint string, query url.Values) cache.CacheKey {
	return cache.CacheKey{
		Endpoint:    c.baseURL.JoinPath(endpoint).Path,
		QueryParams: query,
	}
}

// Close closes the client and releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// GetCache returns the cache manager, nil when caching is disabled.
func (c *Client) GetCache() *cache.Manager {
	return c.cache
}

// routeLabel replaces numeric path segments so metric labels stay bounded.
func routeLabel(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		if s == "" {
			continue
		}
		if _, err := strconv.ParseInt(s, 10, 64); err == nil {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
