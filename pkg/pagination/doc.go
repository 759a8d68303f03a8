// Package pagination provides the single-page building blocks used by the
// fetch controllers: page request/result types, the Source contract that a
// remote collection implements, the Executor that issues one page request
// and normalises its failure, and the Accumulator that merges pages.
//
// Remote collections return one bounded page per request together with a
// total count. The executor never retries; retry is the caller's decision.
//
// Example usage:
//
//	exec := pagination.NewExecutor[int64, catalog.Product](source, pagination.DefaultConfig())
//	page, err := exec.Fetch(ctx, pagination.PageRequest[int64]{Key: 3, PageNumber: 1, PageSize: 10})
//
// The accumulator:
//   - Replaces the collection on the initial page of a key
//   - Appends later pages in page-number order
//   - Reports HasMore only while pages come back full and the total is not reached
//   - Optionally drops items whose ID was already delivered
package pagination
