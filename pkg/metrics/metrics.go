// Package metrics exposes the Prometheus registry of the storefront client.
// All metrics are defined in their respective packages (fetch, pagination,
// client, ratelimit, cache) and registered via promauto.
//
// This package provides the /metrics handler and the metric reference.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the storefront client.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer is the gatherer matching Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Controller Metrics (pkg/fetch):
//   - storefront_fetch_transitions_total{controller, status} (Counter): Applied state transitions
//   - storefront_fetch_stale_responses_total{controller} (Counter): Responses discarded by the generation check
//   - storefront_fetch_debounce_superseded_total (Counter): Scheduled queries replaced before firing
//   - storefront_fetch_debounce_fired_total (Counter): Debounced calls that fired
//
// Page Metrics (pkg/pagination):
//   - storefront_page_requests_total{source, outcome} (Counter): Page requests by outcome (ok, network, service, timeout)
//   - storefront_page_request_duration_seconds{source} (Histogram): Page request duration
//
// Request Metrics (pkg/client):
//   - storefront_http_requests_total{route, status} (Counter): Total requests by route and HTTP status
//   - storefront_http_request_duration_seconds{route} (Histogram): Request duration by route
//   - storefront_http_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network, timeout)
//
// Retry Metrics (pkg/client):
//   - storefront_http_retries_total{error_class} (Counter): Retry attempts by error class
//   - storefront_http_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - storefront_http_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Rate Limit Metrics (pkg/ratelimit):
//   - storefront_rate_limit_remaining (Gauge): Last RateLimit-Remaining value
//   - storefront_rate_limit_cooldowns_total (Counter): Retry-After cooldowns recorded
//   - storefront_rate_limit_blocks_total (Counter): Requests refused during a cooldown
//
// Cache Metrics (pkg/cache):
//   - storefront_cache_hits_total{layer="redis"} (Counter): Cache hits by layer
//   - storefront_cache_misses_total (Counter): Cache misses
//   - storefront_cache_writes_total (Counter): Entries stored
//   - storefront_cache_entry_bytes (Histogram): Encoded entry size
//   - storefront_304_responses_total (Counter): 304 Not Modified responses
//   - storefront_conditional_requests_total (Counter): Conditional requests sent
//   - storefront_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Stale response rate (slow responses overtaken by a key change)
//   sum(rate(storefront_fetch_stale_responses_total[5m])) by (controller)
//
//   # Page failure ratio
//   sum(rate(storefront_page_requests_total{outcome!="ok"}[5m])) /
//   sum(rate(storefront_page_requests_total[5m]))
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(storefront_http_request_duration_seconds_bucket[5m]))
//
//   # 304 Response Rate
//   rate(storefront_304_responses_total[5m]) / rate(storefront_http_requests_total[5m])
