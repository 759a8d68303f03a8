package fetch

import (
	"sync"
	"testing"
	"time"
)

func TestDebouncer_CoalescesKeystrokes(t *testing.T) {
	var d Debouncer
	var mu sync.Mutex
	var dispatched []string
	var firedAt time.Duration

	start := time.Now()
	keystrokes := []struct {
		at    time.Duration
		query string
	}{
		{at: 0, query: "s"},
		{at: 50 * time.Millisecond, query: "sh"},
		{at: 100 * time.Millisecond, query: "sho"},
		{at: 150 * time.Millisecond, query: "shoe"},
	}

	for _, k := range keystrokes {
		time.Sleep(time.Until(start.Add(k.at)))
		query := k.query
		d.Schedule(DefaultDebounce, func() {
			mu.Lock()
			dispatched = append(dispatched, query)
			firedAt = time.Since(start)
			mu.Unlock()
		})
	}

	time.Sleep(700 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(dispatched) != 1 {
		t.Fatalf("dispatched %d calls, want exactly 1: %v", len(dispatched), dispatched)
	}
	if dispatched[0] != "shoe" {
		t.Errorf("dispatched query %q, want %q", dispatched[0], "shoe")
	}
	if firedAt < 440*time.Millisecond || firedAt > 650*time.Millisecond {
		t.Errorf("fired at %v, want approximately 450ms", firedAt)
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var d Debouncer
	fired := make(chan struct{}, 1)

	d.Schedule(20*time.Millisecond, func() { fired <- struct{}{} })
	if !d.Pending() {
		t.Error("Pending() should be true after Schedule")
	}
	if !d.Cancel() {
		t.Error("Cancel() should report a pending call")
	}
	if d.Pending() {
		t.Error("Pending() should be false after Cancel")
	}
	if d.Cancel() {
		t.Error("second Cancel() should report nothing pending")
	}

	select {
	case <-fired:
		t.Error("cancelled call fired")
	case <-time.After(60 * time.Millisecond):
	}
}

func TestDebouncer_HandleCancel(t *testing.T) {
	var d Debouncer
	fired := make(chan string, 2)

	old := d.Schedule(20*time.Millisecond, func() { fired <- "old" })
	latest := d.Schedule(20*time.Millisecond, func() { fired <- "latest" })

	if old.Cancel() {
		t.Error("cancelling a superseded handle should be a no-op")
	}

	select {
	case got := <-fired:
		if got != "latest" {
			t.Errorf("fired %q, want latest", got)
		}
	case <-time.After(200 * time.Millisecond):
		t.Fatal("latest call never fired")
	}

	if latest.Cancel() {
		t.Error("cancelling an already-fired handle should report false")
	}

	var zero Handle
	if zero.Cancel() {
		t.Error("zero Handle Cancel() should be false")
	}
}

func TestDebouncer_FiresAfterQuietInterval(t *testing.T) {
	var d Debouncer
	fired := make(chan struct{}, 1)

	d.Schedule(10*time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
	case <-time.After(200 * time.Millisecond):
		t.Fatal("call never fired")
	}
	if d.Pending() {
		t.Error("Pending() should be false after firing")
	}
}
