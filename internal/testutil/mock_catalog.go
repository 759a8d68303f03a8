// Package testutil provides a mock storefront API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Product is the fixture shape of a product.
type Product struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CategoryID int64   `json:"categoryId"`
	Price      float64 `json:"price"`
}

// Category is the fixture shape of a category.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Media is the fixture shape of a media item.
type Media struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	URL        string `json:"url"`
	Type       string `json:"type"`
	CategoryID int64  `json:"categoryId"`
}

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockCatalog is a configurable mock storefront server. By default it serves
// the fixture categories, products and media with ETags and answers
// conditional requests with 304.
type MockCatalog struct {
	server *httptest.Server

	mu         sync.RWMutex
	categories []Category
	products   map[int64][]Product
	media      map[int64][]Media
	handlers   map[string]http.HandlerFunc
	delays     map[string]time.Duration

	requestCount     int
	conditionalCount int
	paths            []string
	queries          []string
}

// NewMockCatalog starts a mock server with no fixtures.
func NewMockCatalog() *MockCatalog {
	m := &MockCatalog{
		products: make(map[int64][]Product),
		media:    make(map[int64][]Media),
		handlers: make(map[string]http.HandlerFunc),
		delays:   make(map[string]time.Duration),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// URL returns the mock server URL.
func (m *MockCatalog) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockCatalog) Close() {
	m.server.Close()
}

// AddCategory registers a category with count generated products named
// "<name> <n>".
func (m *MockCatalog) AddCategory(id int64, name string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.categories = append(m.categories, Category{ID: id, Name: name, Slug: strings.ToLower(name)})
	products := make([]Product, count)
	for i := range products {
		products[i] = Product{
			ID:         id*1000 + int64(i+1),
			Name:       fmt.Sprintf("%s %d", name, i+1),
			CategoryID: id,
			Price:      float64(10 + i),
		}
	}
	m.products[id] = products
}

// SetMedia registers the media of a category.
func (m *MockCatalog) SetMedia(categoryID int64, items []Media) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.media[categoryID] = items
}

// SetHandler overrides the handler for an exact path.
func (m *MockCatalog) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse overrides an exact path with a canned response.
func (m *MockCatalog) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetDelay delays every request whose path starts with prefix.
func (m *MockCatalog) SetDelay(prefix string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delays[prefix] = d
}

// RequestCount returns the number of requests served.
func (m *MockCatalog) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests received.
func (m *MockCatalog) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// Requests returns the path and raw query of every request, in order.
func (m *MockCatalog) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.paths))
	for i := range m.paths {
		out[i] = m.paths[i]
		if m.queries[i] != "" {
			out[i] += "?" + m.queries[i]
		}
	}
	return out
}

// Reset clears all tracking counters.
func (m *MockCatalog) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.paths = nil
	m.queries = nil
}

func (m *MockCatalog) serve(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.requestCount++
	m.paths = append(m.paths, r.URL.Path)
	m.queries = append(m.queries, r.URL.RawQuery)
	if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
		m.conditionalCount++
	}
	handler := m.handlers[r.URL.Path]
	var delay time.Duration
	for prefix, d := range m.delays {
		if strings.HasPrefix(r.URL.Path, prefix) && d > delay {
			delay = d
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}

	if handler != nil {
		handler(w, r)
		return
	}

	switch {
	case strings.HasPrefix(r.URL.Path, "/products/by-category/"):
		m.serveProducts(w, r)
	case strings.HasPrefix(r.URL.Path, "/media/category/"):
		m.serveMedia(w, r)
	case r.URL.Path == "/search":
		m.serveSearch(w, r)
	default:
		writeEnvelope(w, r, http.StatusNotFound, false, "Not found", nil)
	}
}

func (m *MockCatalog) serveProducts(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/products/by-category/"), 10, 64)
	if err != nil {
		writeEnvelope(w, r, http.StatusBadRequest, false, "Invalid category id", nil)
		return
	}

	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	m.mu.RLock()
	all, ok := m.products[id]
	m.mu.RUnlock()
	if !ok {
		writeEnvelope(w, r, http.StatusNotFound, false, "Category not found", nil)
		return
	}

	start := min((page-1)*limit, len(all))
	end := min(start+limit, len(all))

	writeEnvelope(w, r, http.StatusOK, true, "", map[string]any{
		"items":      all[start:end],
		"totalCount": len(all),
		"categoryId": id,
	})
}

func (m *MockCatalog) serveMedia(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/media/category/"), 10, 64)
	if err != nil {
		writeEnvelope(w, r, http.StatusBadRequest, false, "Invalid category id", nil)
		return
	}

	m.mu.RLock()
	items := m.media[id]
	m.mu.RUnlock()
	if items == nil {
		items = []Media{}
	}

	writeEnvelope(w, r, http.StatusOK, true, "", items)
}

func (m *MockCatalog) serveSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("query")))

	m.mu.RLock()
	categories := []Category{}
	products := []Product{}
	for _, c := range m.categories {
		if q != "" && strings.Contains(strings.ToLower(c.Name), q) {
			categories = append(categories, c)
		}
		for _, p := range m.products[c.ID] {
			if q != "" && strings.Contains(strings.ToLower(p.Name), q) {
				products = append(products, p)
			}
		}
	}
	m.mu.RUnlock()

	writeJSON(w, r, http.StatusOK, map[string]any{
		"categories": categories,
		"products":   products,
	})
}

func writeEnvelope(w http.ResponseWriter, r *http.Request, status int, success bool, message string, data any) {
	body := map[string]any{"success": success, "data": data}
	if message != "" {
		body["message"] = message
	} else {
		body["message"] = nil
	}
	writeJSON(w, r, status, body)
}

// writeJSON writes v with an ETag derived from the body and answers a
// matching If-None-Match with 304.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status == http.StatusOK {
		h := fnv.New64a()
		h.Write(body)
		etag := fmt.Sprintf(`"%x"`, h.Sum64())
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "max-age=60")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}

	w.WriteHeader(status)
	w.Write(body)
}

func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// NewServiceErrorResponse returns a well-formed failure envelope.
func NewServiceErrorResponse(status int, message string) MockResponse {
	return MockResponse{
		StatusCode: status,
		Body:       fmt.Sprintf(`{"success":false,"message":%q,"data":null}`, message),
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
	}
}

// NewServerErrorResponse returns a 500 with a non-JSON body.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "internal server error",
		Headers:    map[string]string{"Content-Type": "text/plain"},
	}
}
