package catalog

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/storefront-client/pkg/fetch"
	"github.com/Sternrassler/storefront-client/pkg/pagination"
)

type searchResponse struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
}

// SearchSource serves GET /search?query=. Results are returned at once:
// categories first, then products.
type SearchSource struct {
	API API
}

// FetchPage implements pagination.Source.
func (s SearchSource) FetchPage(ctx context.Context, req pagination.PageRequest[string]) (pagination.PageResult[SearchHit], error) {
	status, body, err := get(ctx, s.API, "/search", url.Values{"query": []string{req.Key}})
	if err != nil {
		return pagination.PageResult[SearchHit]{}, err
	}

	var res searchResponse
	if err := decodeBare(status, body, &res); err != nil {
		return pagination.PageResult[SearchHit]{}, err
	}

	hits := make([]SearchHit, 0, len(res.Categories)+len(res.Products))
	for i := range res.Categories {
		hits = append(hits, SearchHit{Kind: HitCategory, Category: &res.Categories[i]})
	}
	for i := range res.Products {
		hits = append(hits, SearchHit{Kind: HitProduct, Product: &res.Products[i]})
	}

	return pagination.PageResult[SearchHit]{
		Items:      hits,
		TotalCount: len(hits),
	}, nil
}

// LiveSearchConfig configures a LiveSearch.
type LiveSearchConfig struct {
	// Delay is the quiet interval before a query is sent. Zero uses
	// fetch.DefaultDebounce.
	Delay time.Duration

	// Fetch configures the underlying controller. OnChange may call back
	// into the LiveSearch, including SetQuery.
	Fetch fetch.Config[string, SearchHit]
}

// LiveSearch runs a search as the user types. Queries are trimmed; an empty
// query clears the results without a request.
type LiveSearch struct {
	controller *fetch.Controller[string, SearchHit]
	debouncer  fetch.Debouncer
	delay      time.Duration
	logger     zerolog.Logger

	mu     sync.Mutex
	query  string
	closed bool

	// Controller calls queued under mu and run in order without it.
	ops      []func()
	draining bool
}

// NewLiveSearch creates an idle live search.
func NewLiveSearch(api API, cfg LiveSearchConfig) *LiveSearch {
	if cfg.Delay <= 0 {
		cfg.Delay = fetch.DefaultDebounce
	}
	if cfg.Fetch.Name == "" {
		cfg.Fetch.Name = "search"
	}
	cfg.Fetch.Unpaged = true

	return &LiveSearch{
		controller: fetch.New[string, SearchHit](SearchSource{API: api}, cfg.Fetch),
		delay:      cfg.Delay,
		logger:     log.With().Str("component", "live-search").Logger(),
	}
}

// SetQuery records the latest input. Non-empty queries are sent once the
// input has been quiet for the configured delay.
func (s *LiveSearch) SetQuery(q string) {
	q = strings.TrimSpace(q)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.query = q

	if q == "" {
		s.debouncer.Cancel()
		s.enqueueLocked(s.controller.Clear)
		return
	}

	s.debouncer.Schedule(s.delay, func() { s.dispatch(q) })
	s.mu.Unlock()
}

// dispatch runs when the debounce delay for q has passed.
func (s *LiveSearch) dispatch(q string) {
	s.mu.Lock()
	// A late timer must not resurrect a superseded query.
	if s.closed || s.query != q {
		s.mu.Unlock()
		return
	}
	s.logger.Debug().Str("query", q).Msg("Dispatching search")
	s.enqueueLocked(func() { s.controller.SetKey(q) })
}

// enqueueLocked queues op and drains the queue unless another goroutine is
// already doing so. It is called with s.mu held and returns with it released.
// Ops run in the order they were queued, so a Clear queued after a SetKey
// always wins, yet no lock is held while the controller notifies.
func (s *LiveSearch) enqueueLocked(op func()) {
	s.ops = append(s.ops, op)
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true

	for len(s.ops) > 0 {
		next := s.ops[0]
		s.ops = s.ops[1:]
		s.mu.Unlock()

		next()

		s.mu.Lock()
	}
	s.ops = nil
	s.draining = false
	s.mu.Unlock()
}

// Query returns the latest trimmed query.
func (s *LiveSearch) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Controller exposes the underlying fetch controller.
func (s *LiveSearch) Controller() *fetch.Controller[string, SearchHit] {
	return s.controller
}

// State returns a snapshot of the search results.
func (s *LiveSearch) State() fetch.State[string, SearchHit] {
	return s.controller.State()
}

// Refetch reruns the current query.
func (s *LiveSearch) Refetch() {
	s.controller.Refetch()
}

// Close cancels any pending query and tears down the controller. A timer
// that already fired never dispatches after Close.
func (s *LiveSearch) Close() {
	s.mu.Lock()
	s.closed = true
	s.query = ""
	s.debouncer.Cancel()
	s.mu.Unlock()
	s.controller.Close()
}
