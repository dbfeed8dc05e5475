package async

import (
	"sync"
	"time"
)

// Debounced wraps a function so that bursts of calls collapse into a
// single trailing invocation carrying the argument of the last call.
// The zero value is not usable; construct with Debounce.
type Debounced[A, R any] struct {
	mu    sync.Mutex
	fn    func(A) R
	wait  time.Duration
	clock Clock

	timer   Timer
	gen     uint64 // invalidates callbacks from replaced timers
	lastArg A
	pending bool

	lastResult R
	hasResult  bool

	inert bool
}

// Debounce returns a wrapper that defers fn until wait has elapsed since
// the most recent Call. Calls within the window replace the recorded
// argument and restart the deadline, so only the last call of a burst is
// delivered.
//
// A nil owner creates an unowned wrapper. With an owner, Dispose cancels
// any pending invocation and makes the wrapper inert: Call does nothing
// afterwards. A wrapper created on an already-disposed owner starts
// inert.
func Debounce[A, R any](o *Owner, fn func(A) R, wait time.Duration) *Debounced[A, R] {
	d := &Debounced[A, R]{fn: fn, wait: wait, clock: ownerClock(o)}
	if o != nil && !o.attach(d.dispose) {
		d.inert = true
	}
	return d
}

// dispose is the owner's teardown hook: beyond cancelling, it marks the
// wrapper inert so later Calls are silent no-ops that arm nothing.
func (d *Debounced[A, R]) dispose() {
	d.mu.Lock()
	d.inert = true
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

// Call records arg as the pending argument and restarts the quiet
// window. fn runs with the recorded argument once the window elapses
// without another call.
func (d *Debounced[A, R]) Call(arg A) {
	d.mu.Lock()
	if d.inert {
		d.mu.Unlock()
		return
	}
	d.lastArg = arg
	d.pending = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.wait, func() { d.fire(gen) })
	d.mu.Unlock()
}

func (d *Debounced[A, R]) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || !d.pending {
		// Replaced or cancelled after this timer was armed.
		d.mu.Unlock()
		return
	}
	arg := d.lastArg
	d.pending = false
	d.timer = nil
	d.mu.Unlock()

	// Invoke outside the lock so fn may call back into the wrapper.
	res := d.fn(arg)

	d.mu.Lock()
	d.lastResult = res
	d.hasResult = true
	d.mu.Unlock()
}

// Pending reports whether a trailing invocation is currently owed.
func (d *Debounced[A, R]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush invokes fn immediately with the most recent pending argument and
// returns its result. When nothing is pending it returns the zero value
// and false without invoking fn.
func (d *Debounced[A, R]) Flush() (R, bool) {
	d.mu.Lock()
	if !d.pending {
		var zero R
		d.mu.Unlock()
		return zero, false
	}
	arg := d.lastArg
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	res := d.fn(arg)

	d.mu.Lock()
	d.lastResult = res
	d.hasResult = true
	d.mu.Unlock()
	return res, true
}

// Cancel clears any pending invocation without running fn. Safe to call
// at any time, any number of times.
func (d *Debounced[A, R]) Cancel() {
	d.mu.Lock()
	d.pending = false
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

// Last returns the result of the most recent completed invocation.
func (d *Debounced[A, R]) Last() (R, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastResult, d.hasResult
}
