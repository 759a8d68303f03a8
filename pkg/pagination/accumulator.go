package pagination

// Accumulator merges incoming pages into an ordered collection.
type Accumulator[T any] struct {
	// PageSize is the fixed page size of the key. Zero or less means the
	// source is unpaged and the first page is the whole collection.
	PageSize int

	// IDFunc enables set-based de-duplication across pages when non-nil.
	IDFunc func(T) string
}

// Merged is the outcome of merging one page.
type Merged[T any] struct {
	Items      []T
	TotalCount int
	HasMore    bool

	// Dropped counts items discarded as duplicates.
	Dropped int
}

// Merge applies result to previous. The initial page replaces previous;
// later pages are appended in arrival order. previous is never modified.
func (a Accumulator[T]) Merge(previous []T, result PageResult[T], initial bool) Merged[T] {
	base := previous
	if initial {
		base = nil
	}

	items := make([]T, 0, len(base)+len(result.Items))
	items = append(items, base...)

	dropped := 0
	if a.IDFunc == nil {
		items = append(items, result.Items...)
	} else {
		seen := make(map[string]struct{}, cap(items))
		for _, item := range base {
			seen[a.IDFunc(item)] = struct{}{}
		}
		for _, item := range result.Items {
			id := a.IDFunc(item)
			if _, ok := seen[id]; ok {
				dropped++
				continue
			}
			seen[id] = struct{}{}
			items = append(items, item)
		}
	}

	return Merged[T]{
		Items:      items,
		TotalCount: result.TotalCount,
		HasMore:    a.hasMore(len(result.Items), len(items), result.TotalCount),
		Dropped:    dropped,
	}
}

// hasMore requires both a full last page and an accumulated count below the
// advertised total. Either condition alone terminates paging.
func (a Accumulator[T]) hasMore(lastPageLen, accumulated, totalCount int) bool {
	if a.PageSize <= 0 {
		return false
	}
	return lastPageLen >= a.PageSize && accumulated < totalCount
}
