package async

import (
	"sync"
	"time"
)

// Throttled wraps a function so invocations occur at most once per
// interval. The first call of a fresh interval invokes immediately
// (leading edge); calls landing inside the interval collapse into a
// single deferred invocation at the interval boundary, carrying the
// argument of the last call (trailing edge).
type Throttled[A any] struct {
	mu       sync.Mutex
	fn       func(A)
	interval time.Duration
	clock    Clock

	timer      Timer
	gen        uint64
	lastStart  time.Time // start of the previous invocation
	hasRun     bool
	pendingArg A
	pending    bool

	inert bool
}

// Throttle returns a rate-limited wrapper around fn. A nil owner creates
// an unowned wrapper; with an owner, Dispose drops the trailing timer
// and makes the wrapper inert. A wrapper created on a disposed owner
// starts inert.
func Throttle[A any](o *Owner, fn func(A), interval time.Duration) *Throttled[A] {
	t := &Throttled[A]{fn: fn, interval: interval, clock: ownerClock(o)}
	if o != nil && !o.attach(t.dispose) {
		t.inert = true
	}
	return t
}

// dispose is the owner's teardown hook: beyond dropping the trailing
// timer, it marks the wrapper inert so later Calls invoke nothing.
func (t *Throttled[A]) dispose() {
	t.mu.Lock()
	t.inert = true
	t.pending = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}

// Call forwards arg through the throttle and reports whether fn was
// invoked immediately on the leading edge. Calls that land inside the
// interval update the pending argument (last call wins) and arm at most
// one trailing timer for the interval boundary.
func (t *Throttled[A]) Call(arg A) bool {
	t.mu.Lock()
	if t.inert {
		t.mu.Unlock()
		return false
	}
	now := t.clock.Now()
	if !t.pending && (!t.hasRun || now.Sub(t.lastStart) >= t.interval) {
		t.lastStart = now
		t.hasRun = true
		t.mu.Unlock()
		t.fn(arg)
		return true
	}
	t.pendingArg = arg
	if !t.pending {
		t.pending = true
		delay := t.interval - now.Sub(t.lastStart)
		if delay < 0 {
			delay = 0
		}
		t.gen++
		gen := t.gen
		t.timer = t.clock.AfterFunc(delay, func() { t.fire(gen) })
	}
	t.mu.Unlock()
	return false
}

func (t *Throttled[A]) fire(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || !t.pending {
		t.mu.Unlock()
		return
	}
	arg := t.pendingArg
	t.pending = false
	t.timer = nil
	t.lastStart = t.clock.Now()
	t.hasRun = true
	t.mu.Unlock()
	t.fn(arg)
}

// Pending reports whether a trailing invocation is currently armed.
func (t *Throttled[A]) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// Cancel drops any armed trailing invocation without running fn. The
// interval accounting is left intact, so the next Call still honors the
// at-most-once-per-interval contract.
func (t *Throttled[A]) Cancel() {
	t.mu.Lock()
	t.pending = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
