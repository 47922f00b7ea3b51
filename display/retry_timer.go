// SPDX-License-Identifier: GPL-3.0-or-later

package display

import (
	"sync"
	"time"
)

// retryInterval is the fixed cadence at which a failed revert is
// retried. A variable so tests can shorten it.
var retryInterval = 30 * time.Second

// retryTimer is a background waiter that re-attempts a revert on a
// fixed cadence until it succeeds or is disarmed. It guards its own
// state with its own mutex and never holds the session facade's mutex:
// revertFn is expected to take that lock itself, the way delayedTask's
// fn runs outside any lock the timer holds.
type retryTimer struct {
	mu       sync.Mutex
	timer    *time.Timer
	armed    bool
	revertFn func() bool
}

func newRetryTimer(revertFn func() bool) *retryTimer {
	return &retryTimer{revertFn: revertFn}
}

// Arm schedules a retry after retryInterval, replacing any pending one.
func (t *retryTimer) Arm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.armed = true
	t.timer = time.AfterFunc(retryInterval, t.fire)
}

// Disarm cancels any pending retry unconditionally.
func (t *retryTimer) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.armed = false
}

func (t *retryTimer) fire() {
	t.mu.Lock()
	if !t.armed {
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()

	ok := t.revertFn != nil && t.revertFn()

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.armed {
		return
	}
	if ok {
		t.armed = false
		t.timer = nil
		return
	}
	t.timer = time.AfterFunc(retryInterval, t.fire)
}

// Armed reports whether a retry is currently pending. Exported for
// tests.
func (t *retryTimer) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.armed
}
