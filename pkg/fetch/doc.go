// Package fetch provides the resource fetch controller used to load remote
// collections for a changing resource key (a category id, a search string,
// a media filter).
//
// A Controller owns a State snapshot {status, items, error, page, hasMore}
// and exposes SetKey, LoadMore, Refetch, Clear and Close. It composes:
//
//   - Gate: a generation counter. Every request carries the generation
//     current at dispatch; a response is applied only if its generation is
//     still current. Key changes, refetches, clears and teardown advance it.
//   - pagination.Executor: one page request with a per-request timeout and
//     typed failures.
//   - pagination.Accumulator: replace on the initial page, append afterwards.
//   - Debouncer: coalesces rapid key changes (keystrokes) into one call
//     after a quiet interval.
//
// # State machine
//
//	idle ──SetKey──▶ loading ──▶ loaded | error
//	loaded ──LoadMore──▶ loadingMore ──▶ loaded | error
//	any ──SetKey/Refetch──▶ loading
//	any ──Clear──▶ idle
//
// LoadMore is a no-op while a request is in flight or when HasMore is false,
// so pages of one key are always requested strictly in sequence.
//
// # Basic Usage
//
//	ctrl := fetch.New[int64, catalog.Product](source, fetch.Config[int64, catalog.Product]{
//		Name:     "products",
//		PageSize: 10,
//		OnChange: func(s fetch.State[int64, catalog.Product]) { render(s) },
//	})
//	defer ctrl.Close()
//
//	ctrl.SetKey(categoryID)
//	state, err := ctrl.WaitFor(ctx, fetch.Settled[int64, catalog.Product])
//	if state.HasMore {
//		ctrl.LoadMore()
//	}
package fetch
