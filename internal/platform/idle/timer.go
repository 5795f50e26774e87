// Package idle provides a quiet-period timer: every Touch postpones the
// callback, and the callback runs once activity has stopped for the
// configured duration.
package idle

import (
	"sync"
	"time"
)

// Timer fires fn after the quiet period elapses without a Touch. Stop
// guarantees fn is not invoked afterwards, even when the underlying
// time.Timer already expired and its goroutine is waiting on the lock.
type Timer struct {
	mu      sync.Mutex
	quiet   time.Duration
	fn      func()
	timer   *time.Timer
	gen     uint64
	pending bool
	stopped bool
}

// New returns an idle timer. Nothing is scheduled until the first Touch.
func New(quiet time.Duration, fn func()) *Timer {
	return &Timer{quiet: quiet, fn: fn}
}

// Touch records activity and restarts the quiet period. It is a no-op once
// the timer has been stopped.
func (t *Timer) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.gen++
	gen := t.gen
	t.pending = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.quiet, func() { t.fire(gen) })
}

// Pending reports whether a callback is scheduled.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Flush runs the callback immediately when one is pending.
func (t *Timer) Flush() {
	t.mu.Lock()
	if !t.pending || t.stopped {
		t.mu.Unlock()
		return
	}
	t.gen++
	t.pending = false
	if t.timer != nil {
		t.timer.Stop()
	}
	t.mu.Unlock()
	t.fn()
}

// Stop cancels any pending callback and disables the timer. It reports
// whether a callback was cancelled.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cancelled := t.pending
	t.stopped = true
	t.pending = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
	}
	return cancelled
}

func (t *Timer) fire(gen uint64) {
	t.mu.Lock()
	if t.stopped || gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.pending = false
	t.mu.Unlock()
	t.fn()
}
