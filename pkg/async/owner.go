package async

import (
	"sync"
	"time"

	logx "github.com/andrewiggins/fluentui/pkg/logx"
)

// Owner is a per-caller handle that creates scheduling wrappers, timers,
// and frame subscriptions, and remembers every cancelable handle it
// created. Dispose cancels all of them exactly once and makes the owner
// inert, so components can tear down without leaking timers or frame
// requests.
type Owner struct {
	mu       sync.Mutex
	recv     any
	clock    Clock
	log      logx.Logger
	disposed bool
	seq      uint64
	cancels  map[uint64]func()
}

// NewOwner creates an owner with no receiver value.
func NewOwner() *Owner { return NewOwnerWith(nil) }

// NewOwnerWith creates an owner whose receiver value is handed to
// RequestAnimationFrameWith callbacks. A nil recv defaults to the owner
// itself.
func NewOwnerWith(recv any) *Owner {
	return &Owner{
		recv:    recv,
		clock:   SystemClock(),
		log:     logx.Nop(),
		cancels: map[uint64]func(){},
	}
}

// SetLogger attaches a logger for owner lifecycle telemetry.
func (o *Owner) SetLogger(log logx.Logger) {
	o.mu.Lock()
	o.log = log
	o.mu.Unlock()
}

// SetClock replaces the time source used by wrappers and timers created
// after this call. Intended for tests running on virtual time.
func (o *Owner) SetClock(c Clock) {
	if c == nil {
		return
	}
	o.mu.Lock()
	o.clock = c
	o.mu.Unlock()
}

// Receiver returns the value passed to RequestAnimationFrameWith
// callbacks: the recv given at construction, or the owner itself.
func (o *Owner) Receiver() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.recv != nil {
		return o.recv
	}
	return o
}

// Disposed reports whether Dispose has been called.
func (o *Owner) Disposed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.disposed
}

// Dispose cancels every debounce timer, throttle timer, one-shot and
// repeating timer, and frame subscription created through this owner,
// exactly once each, then marks the owner inert. Scheduling methods
// called afterwards are silent no-ops and create no platform work.
// Dispose itself is idempotent.
func (o *Owner) Dispose() {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		return
	}
	o.disposed = true
	cancels := o.cancels
	o.cancels = nil
	log := o.log
	o.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
	if len(cancels) > 0 {
		log.Debug("owner disposed", logx.Int("cancelled", len(cancels)))
	}
}

// RequestAnimationFrame schedules fn on the next shared animation frame
// through the process-wide coordinator. The returned cancel is
// idempotent; owner disposal also unsubscribes the entry. On a disposed
// owner this is a no-op that issues no platform request.
func (o *Owner) RequestAnimationFrame(fn func(ts time.Time)) (cancel func()) {
	id, ok := o.nextID()
	if !ok {
		return func() {}
	}
	inner := frames.subscribe(func(ts time.Time) {
		o.detach(id)
		fn(ts)
	})
	o.register(id, inner)
	return func() {
		o.detach(id)
		inner()
	}
}

// RequestAnimationFrameWith is RequestAnimationFrame with the owner's
// receiver value passed to the callback.
func (o *Owner) RequestAnimationFrameWith(fn func(recv any, ts time.Time)) (cancel func()) {
	recv := o.Receiver()
	return o.RequestAnimationFrame(func(ts time.Time) { fn(recv, ts) })
}

// SetTimeout runs fn once after d. The returned cancel is idempotent and
// owner disposal also cancels the timer. On a disposed owner this is a
// no-op.
func (o *Owner) SetTimeout(d time.Duration, fn func()) (cancel func()) {
	id, ok := o.nextID()
	if !ok {
		return func() {}
	}
	o.mu.Lock()
	clock := o.clock
	o.mu.Unlock()

	tm := clock.AfterFunc(d, func() {
		o.detach(id)
		fn()
	})
	var once sync.Once
	cancel = func() {
		once.Do(func() {
			o.detach(id)
			tm.Stop()
		})
	}
	o.register(id, cancel)
	return cancel
}

// SetInterval runs fn every d until cancelled or the owner is disposed.
func (o *Owner) SetInterval(d time.Duration, fn func()) (cancel func()) {
	id, ok := o.nextID()
	if !ok {
		return func() {}
	}
	o.mu.Lock()
	clock := o.clock
	o.mu.Unlock()

	r := &intervalRunner{owner: o, id: id, clock: clock, d: d, fn: fn}
	r.arm()
	o.register(id, r.stop)
	return r.stop
}

type intervalRunner struct {
	mu      sync.Mutex
	owner   *Owner
	id      uint64
	clock   Clock
	d       time.Duration
	fn      func()
	timer   Timer
	stopped bool
}

func (r *intervalRunner) arm() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.timer = r.clock.AfterFunc(r.d, r.tick)
	r.mu.Unlock()
}

func (r *intervalRunner) tick() {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return
	}
	// Re-arm even when fn panics, so one bad tick does not silently kill
	// the interval. The panic still propagates to the timer goroutine.
	defer r.arm()
	r.fn()
}

func (r *intervalRunner) stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	t := r.timer
	r.timer = nil
	r.mu.Unlock()
	if t != nil {
		t.Stop()
	}
	r.owner.detach(r.id)
}

// attach registers cancel with the owner registry and reports false when
// the owner is already disposed, in which case the caller goes inert.
// Used by Debounce and Throttle, whose wrappers live for the owner's
// lifetime.
func (o *Owner) attach(cancel func()) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed {
		return false
	}
	o.seq++
	o.cancels[o.seq] = cancel
	return true
}

// nextID reserves a registry slot, reporting false on a disposed owner.
func (o *Owner) nextID() (uint64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.disposed {
		return 0, false
	}
	o.seq++
	return o.seq, true
}

// register stores cancel under id unless the owner lost a race with
// Dispose between nextID and now, in which case cancel runs immediately
// so no work outlives the owner.
func (o *Owner) register(id uint64, cancel func()) {
	o.mu.Lock()
	if o.disposed {
		o.mu.Unlock()
		cancel()
		return
	}
	o.cancels[id] = cancel
	o.mu.Unlock()
}

func (o *Owner) detach(id uint64) {
	o.mu.Lock()
	if o.cancels != nil {
		delete(o.cancels, id)
	}
	o.mu.Unlock()
}

func ownerClock(o *Owner) Clock {
	if o == nil {
		return SystemClock()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.clock
}
