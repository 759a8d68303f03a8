package pagination

import "context"

// PageRequest describes one page of a keyed remote collection.
type PageRequest[K comparable] struct {
	// Key identifies the collection being viewed (category id, query string).
	Key K

	// PageNumber starts at 1.
	PageNumber int

	// PageSize is fixed for the lifetime of a key. Zero means the source
	// returns the whole collection at once.
	PageSize int

	// Generation is the controller generation current at dispatch time.
	Generation uint64
}

// PageResult is the normalised result of a single page request.
type PageResult[T any] struct {
	Items      []T
	TotalCount int
}

// Source is implemented by remote collections that can serve a single page.
type Source[K comparable, T any] interface {
	// FetchPage fetches one page. Implementations perform exactly one
	// outbound call and must not retry.
	FetchPage(ctx context.Context, req PageRequest[K]) (PageResult[T], error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc[K comparable, T any] func(ctx context.Context, req PageRequest[K]) (PageResult[T], error)

// FetchPage calls f(ctx, req).
func (f SourceFunc[K, T]) FetchPage(ctx context.Context, req PageRequest[K]) (PageResult[T], error) {
	return f(ctx, req)
}
