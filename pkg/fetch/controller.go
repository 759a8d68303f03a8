package fetch

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/storefront-client/pkg/pagination"
)

// DefaultPageSize is the page size used when Config.PageSize is zero.
const DefaultPageSize = 10

// ErrClosed is returned by WaitFor once the controller has been closed.
var ErrClosed = errors.New("fetch controller closed")

// Config holds controller configuration.
type Config[K comparable, T any] struct {
	// Name labels metrics and log lines.
	Name string

	// PageSize is fixed for the lifetime of a key. Zero uses DefaultPageSize.
	PageSize int

	// Unpaged sources return the whole collection in a single request.
	Unpaged bool

	// Timeout per page request. Zero uses pagination.DefaultConfig().Timeout;
	// a negative value disables it.
	Timeout time.Duration

	// IDFunc enables de-duplication of items across pages.
	IDFunc func(T) string

	// OnChange is called after every transition, outside the controller lock.
	// Calls are serialised and never delivered out of order; a state that is
	// superseded before delivery is skipped. OnChange may call SetKey,
	// LoadMore, Refetch or Clear; the resulting state is delivered after it
	// returns.
	OnChange func(State[K, T])
}

// Controller is the fetch state machine for one view. It is safe for
// concurrent use.
type Controller[K comparable, T any] struct {
	mu       sync.Mutex
	executor *pagination.Executor[K, T]
	acc      pagination.Accumulator[T]
	gate     Gate
	config   Config[K, T]
	logger   zerolog.Logger

	state      State[K, T]
	moreFailed bool // last error came from a load-more request
	closed     bool
	version    uint64
	changed    chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// Notification delivery. One goroutine at a time drains the latest
	// snapshot; notifyMu is never held while OnChange runs.
	notifyMu   sync.Mutex
	notified   uint64
	queued     State[K, T]
	queuedVer  uint64
	delivering bool
}

// New creates an idle controller reading from source.
func New[K comparable, T any](source pagination.Source[K, T], cfg Config[K, T]) *Controller[K, T] {
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Unpaged {
		cfg.PageSize = 0
	} else if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = pagination.DefaultConfig().Timeout
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Controller[K, T]{
		executor: pagination.NewExecutor(source, pagination.Config{
			Name:    cfg.Name,
			Timeout: cfg.Timeout,
		}),
		acc: pagination.Accumulator[T]{
			PageSize: cfg.PageSize,
			IDFunc:   cfg.IDFunc,
		},
		config:  cfg,
		logger:  log.With().Str("component", "fetch-controller").Str("controller", cfg.Name).Logger(),
		state:   State[K, T]{Status: StatusIdle},
		changed: make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetKey switches the controller to key and loads its first page. Setting
// the key already being viewed is a no-op; use Refetch to reload it.
func (c *Controller[K, T]) SetKey(key K) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.state.HasKey && c.state.Key == key {
		c.mu.Unlock()
		return
	}

	c.state.Key = key
	c.state.HasKey = true
	req := c.resetLocked()
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap, version)
	go c.run(req)
}

// Refetch reloads the current key from page 1 under a new generation.
func (c *Controller[K, T]) Refetch() {
	c.mu.Lock()
	if c.closed || !c.state.HasKey {
		c.mu.Unlock()
		return
	}

	req := c.resetLocked()
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap, version)
	go c.run(req)
}

// LoadMore requests the next page of the current key. It is a no-op while a
// request is in flight or when there is nothing more to load. After a failed
// load-more it retries the same next page. It reports whether a request was
// dispatched.
func (c *Controller[K, T]) LoadMore() bool {
	c.mu.Lock()
	if c.closed || !c.canLoadMoreLocked() {
		c.mu.Unlock()
		return false
	}

	c.state.Status = StatusLoadingMore
	c.state.Err = nil
	c.moreFailed = false
	req := pagination.PageRequest[K]{
		Key:        c.state.Key,
		PageNumber: c.state.CurrentPage + 1,
		PageSize:   c.config.PageSize,
		Generation: c.gate.Stamp(),
	}
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap, version)
	go c.run(req)
	return true
}

// Clear drops the key and items and returns to idle. Outstanding requests
// become stale.
func (c *Controller[K, T]) Clear() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	gen := c.gate.Advance()
	c.state = State[K, T]{Status: StatusIdle, Generation: gen}
	c.moreFailed = false
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap, version)
}

// State returns a snapshot of the current state.
func (c *Controller[K, T]) State() State[K, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// WaitFor blocks until pred holds for the current state, the context is
// done, or the controller is closed.
func (c *Controller[K, T]) WaitFor(ctx context.Context, pred func(State[K, T]) bool) (State[K, T], error) {
	for {
		c.mu.Lock()
		snap := c.snapshotLocked()
		closed := c.closed
		changed := c.changed
		c.mu.Unlock()

		if pred(snap) {
			return snap, nil
		}
		if closed {
			return snap, ErrClosed
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return snap, ctx.Err()
		}
	}
}

// Close tears the controller down. In-flight requests are cancelled and
// their results are never applied. Further calls are no-ops.
func (c *Controller[K, T]) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.gate.Advance()
	close(c.changed)
	c.mu.Unlock()

	c.cancel()
	c.logger.Debug().Msg("Controller closed")
}

// run performs one request and applies its outcome if still current.
func (c *Controller[K, T]) run(req pagination.PageRequest[K]) {
	result, err := c.executor.Fetch(c.ctx, req)

	c.mu.Lock()
	if c.closed || !c.gate.IsCurrent(req.Generation) {
		c.mu.Unlock()
		staleResponsesTotal.WithLabelValues(c.config.Name).Inc()
		c.logger.Debug().
			Int("page", req.PageNumber).
			Uint64("generation", req.Generation).
			Msg("Discarding stale response")
		return
	}

	initial := req.PageNumber == 1
	if err != nil {
		c.failLocked(pagination.AsError(err), initial)
	} else {
		c.applyLocked(result, req.PageNumber, initial)
	}
	snap, version := c.commitLocked()
	c.mu.Unlock()

	c.notify(snap, version)
}

// resetLocked enters loading for page 1 of the current key.
func (c *Controller[K, T]) resetLocked() pagination.PageRequest[K] {
	gen := c.gate.Advance()

	c.state.Status = StatusLoading
	c.state.Items = nil
	c.state.Err = nil
	c.state.CurrentPage = 0
	c.state.HasMore = true
	c.state.TotalCount = 0
	c.state.Generation = gen
	c.moreFailed = false

	c.logger.Debug().
		Interface("key", c.state.Key).
		Uint64("generation", gen).
		Msg("Loading first page")

	return pagination.PageRequest[K]{
		Key:        c.state.Key,
		PageNumber: 1,
		PageSize:   c.config.PageSize,
		Generation: gen,
	}
}

func (c *Controller[K, T]) applyLocked(result pagination.PageResult[T], page int, initial bool) {
	merged := c.acc.Merge(c.state.Items, result, initial)

	c.state.Status = StatusLoaded
	c.state.Items = merged.Items
	c.state.Err = nil
	c.state.CurrentPage = page
	c.state.HasMore = merged.HasMore
	c.state.TotalCount = merged.TotalCount

	if merged.Dropped > 0 {
		c.logger.Warn().
			Int("page", page).
			Int("dropped", merged.Dropped).
			Msg("Dropped duplicate items")
	}
}

// failLocked keeps previously loaded items unless the initial page failed.
func (c *Controller[K, T]) failLocked(err *pagination.Error, initial bool) {
	c.state.Status = StatusError
	c.state.Err = err
	c.moreFailed = !initial
	if initial {
		c.state.Items = nil
		c.state.HasMore = false
		c.state.TotalCount = 0
	}
}

func (c *Controller[K, T]) canLoadMoreLocked() bool {
	if !c.state.HasMore {
		return false
	}
	switch c.state.Status {
	case StatusLoaded:
		return true
	case StatusError:
		return c.moreFailed
	default:
		return false
	}
}

// commitLocked records a transition and wakes waiters.
func (c *Controller[K, T]) commitLocked() (State[K, T], uint64) {
	c.version++
	close(c.changed)
	c.changed = make(chan struct{})
	transitionsTotal.WithLabelValues(c.config.Name, string(c.state.Status)).Inc()
	return c.snapshotLocked(), c.version
}

func (c *Controller[K, T]) snapshotLocked() State[K, T] {
	snap := c.state
	snap.Items = slices.Clone(c.state.Items)
	return snap
}

// notify delivers snap unless a newer state was already delivered. If
// another goroutine is delivering, snap is handed to it and notify returns at
// once, so OnChange may call back into the controller.
func (c *Controller[K, T]) notify(snap State[K, T], version uint64) {
	if c.config.OnChange == nil {
		return
	}

	c.notifyMu.Lock()
	if version > c.queuedVer {
		c.queued = snap
		c.queuedVer = version
	}
	if c.delivering {
		c.notifyMu.Unlock()
		return
	}
	c.delivering = true

	for c.queuedVer > c.notified {
		next := c.queued
		c.notified = c.queuedVer
		c.notifyMu.Unlock()

		c.config.OnChange(next)

		c.notifyMu.Lock()
	}
	c.delivering = false
	c.notifyMu.Unlock()
}
