package fetch

import "github.com/Sternrassler/storefront-client/pkg/pagination"

// Status is the fetch controller status.
type Status string

const (
	// StatusIdle means no key is being viewed.
	StatusIdle Status = "idle"

	// StatusLoading means page 1 of a (possibly new) key is in flight.
	StatusLoading Status = "loading"

	// StatusLoaded means the last fetch was applied.
	StatusLoaded Status = "loaded"

	// StatusLoadingMore means the next page of the same key is in flight.
	StatusLoadingMore Status = "loading_more"

	// StatusError means the last fetch failed.
	StatusError Status = "error"
)

// InFlight reports whether a request is outstanding in this status.
func (s Status) InFlight() bool {
	return s == StatusLoading || s == StatusLoadingMore
}

// State is a snapshot of a controller. Items is a copy owned by the caller.
type State[K comparable, T any] struct {
	// Key is the resource key being viewed. HasKey is false while idle.
	Key    K
	HasKey bool

	Status Status
	Items  []T
	Err    *pagination.Error

	// CurrentPage is the last applied page number (0 before the first page).
	CurrentPage int
	HasMore     bool
	TotalCount  int

	// Generation is the generation the state belongs to.
	Generation uint64
}

// Empty reports a successful fetch that returned no items.
func (s State[K, T]) Empty() bool {
	return s.Status == StatusLoaded && len(s.Items) == 0
}

// Settled is a WaitFor predicate matching any status without a request in flight.
func Settled[K comparable, T any](s State[K, T]) bool {
	return !s.Status.InFlight()
}
