package watch

import (
	"sync"
	"time"
)

// debouncer collapses bursts of file events into single rebuild requests.
// Trigger restarts a quiet-period timer; when the timer fires, one request
// lands in the buffered channel. A request arriving while a build is in
// flight parks in the buffer, so a burst during a build yields exactly one
// follow-up run.
type debouncer struct {
	mu       sync.Mutex
	quiet    time.Duration
	timer    *time.Timer
	requests chan struct{}
}

func newDebouncer(quiet time.Duration) *debouncer {
	return &debouncer{
		quiet:    quiet,
		requests: make(chan struct{}, 1),
	}
}

// Trigger schedules a rebuild request after the quiet period. Triggering
// again before the period elapses restarts the wait.
func (d *debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.Request)
}

// Request enqueues a rebuild immediately, bypassing the quiet period. The
// send never blocks: when a request is already pending, another would be
// redundant.
func (d *debouncer) Request() {
	select {
	case d.requests <- struct{}{}:
	default:
	}
}

// Stop cancels a pending quiet-period timer. The request channel stays open
// so late timer fires cannot panic; the worker drains or ignores them.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
