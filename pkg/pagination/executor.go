package pagination

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for page requests.
var (
	pageRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_page_requests_total",
		Help: "Total page requests by source and outcome",
	}, []string{"source", "outcome"})

	pageRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_page_request_duration_seconds",
		Help:    "Page request duration in seconds by source",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15},
	}, []string{"source"})
)

// Config holds executor configuration.
type Config struct {
	// Name labels metrics and log lines (e.g. "products", "search").
	Name string

	// Timeout per page fetch. Zero disables the per-request timeout.
	Timeout time.Duration
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{
		Name:    "default",
		Timeout: 15 * time.Second,
	}
}

// Executor issues single page requests against a Source.
type Executor[K comparable, T any] struct {
	source Source[K, T]
	config Config
	logger zerolog.Logger
}

// NewExecutor creates a new page executor.
func NewExecutor[K comparable, T any](source Source[K, T], config Config) *Executor[K, T] {
	if config.Name == "" {
		config.Name = "default"
	}
	if config.Timeout < 0 {
		config.Timeout = 0
	}

	return &Executor[K, T]{
		source: source,
		config: config,
		logger: log.With().Str("component", "page-executor").Str("source", config.Name).Logger(),
	}
}

// Fetch performs exactly one page request. Every failure is returned as *Error.
func (e *Executor[K, T]) Fetch(ctx context.Context, req PageRequest[K]) (PageResult[T], error) {
	start := time.Now()

	pageCtx := ctx
	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		pageCtx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	result, err := e.source.FetchPage(pageCtx, req)
	pageRequestDuration.WithLabelValues(e.config.Name).Observe(time.Since(start).Seconds())

	if err != nil {
		ferr := e.classify(ctx, pageCtx, err)
		pageRequestsTotal.WithLabelValues(e.config.Name, string(ferr.Kind)).Inc()

		e.logger.Warn().
			Err(err).
			Int("page", req.PageNumber).
			Uint64("generation", req.Generation).
			Str("kind", string(ferr.Kind)).
			Msg("Page fetch failed")
		return PageResult[T]{}, ferr
	}

	if result.TotalCount < 0 {
		result.TotalCount = 0
	}

	pageRequestsTotal.WithLabelValues(e.config.Name, "ok").Inc()
	e.logger.Debug().
		Int("page", req.PageNumber).
		Int("items", len(result.Items)).
		Int("total_count", result.TotalCount).
		Uint64("generation", req.Generation).
		Dur("duration", time.Since(start)).
		Msg("Page fetched")

	return result, nil
}

// classify converts a source error into a typed failure. A deadline on the
// page context with a live parent context is the per-request timeout.
func (e *Executor[K, T]) classify(parent, pageCtx context.Context, err error) *Error {
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	if parent.Err() == nil && errors.Is(pageCtx.Err(), context.DeadlineExceeded) {
		return TimeoutError(err)
	}
	return AsError(err)
}
