package fetch

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet interval used by live search.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces rapid calls into a single call after a quiet interval.
// A new Schedule cancels the previous pending call. The zero value is ready
// to use.
type Debouncer struct {
	mu    sync.Mutex
	seq   uint64
	timer *time.Timer
}

// Handle refers to one scheduled call.
type Handle struct {
	d   *Debouncer
	seq uint64
}

// Schedule runs fn after delay unless another Schedule or Cancel happens
// first. A timer that fires after being superseded never runs fn.
func (d *Debouncer) Schedule(delay time.Duration, fn func()) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		debounceSupersededTotal.Inc()
	}
	d.seq++
	seq := d.seq

	d.timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if d.seq != seq {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.mu.Unlock()

		debounceFiredTotal.Inc()
		fn()
	})

	return Handle{d: d, seq: seq}
}

// Cancel drops any pending call. It reports whether one was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cancelLocked()
}

// Pending reports whether a call is scheduled and has not fired.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timer != nil
}

func (d *Debouncer) cancelLocked() bool {
	d.seq++
	if d.timer == nil {
		return false
	}
	d.timer.Stop()
	d.timer = nil
	return true
}

// Cancel drops the call if it is still the pending one. It reports whether
// the call was cancelled.
func (h Handle) Cancel() bool {
	if h.d == nil {
		return false
	}
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	if h.d.seq != h.seq {
		return false
	}
	return h.d.cancelLocked()
}
