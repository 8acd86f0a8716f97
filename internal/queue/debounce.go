package queue

import (
	"sync"
	"time"
)

// Debouncer runs only the last of a burst of calls, once wait has passed
// without a new one.
type Debouncer struct {
	wait time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func NewDebouncer(wait time.Duration) *Debouncer {
	return &Debouncer{wait: wait}
}

func (d *Debouncer) Call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, fn)
}

// Cancel drops the pending call, if any.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Throttle runs a call immediately and ignores further calls until limit
// has passed.
type Throttle struct {
	limit time.Duration

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewThrottle(limit time.Duration) *Throttle {
	return &Throttle{limit: limit, now: time.Now}
}

// Call reports whether fn ran.
func (t *Throttle) Call(fn func()) bool {
	t.mu.Lock()
	now := t.now()
	if !t.last.IsZero() && now.Sub(t.last) < t.limit {
		t.mu.Unlock()
		return false
	}
	t.last = now
	t.mu.Unlock()

	fn()
	return true
}

// Cancel reopens the window so the next call runs.
func (t *Throttle) Cancel() {
	t.mu.Lock()
	t.last = time.Time{}
	t.mu.Unlock()
}
