package async

import (
	"sync"
	"time"
)

// FrameScheduler is the platform boundary for animation-frame requests.
// ScheduleFrame registers fn to run once on the next frame with the
// frame timestamp; the returned cancel releases the request and is
// idempotent. Implementations must not invoke fn synchronously from
// inside ScheduleFrame.
type FrameScheduler interface {
	ScheduleFrame(fn func(ts time.Time)) (cancel func())
}

// DefaultFrameInterval approximates a 60Hz display and is used when no
// host frame source is installed.
const DefaultFrameInterval = 16 * time.Millisecond

// TimerFrames returns a FrameScheduler that synthesizes frames from the
// clock at the given cadence. A non-positive interval falls back to
// DefaultFrameInterval.
func TimerFrames(clock Clock, interval time.Duration) FrameScheduler {
	if clock == nil {
		clock = SystemClock()
	}
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &timerFrames{clock: clock, interval: interval}
}

type timerFrames struct {
	clock    Clock
	interval time.Duration
}

func (t *timerFrames) ScheduleFrame(fn func(ts time.Time)) func() {
	var (
		mu        sync.Mutex
		cancelled bool
	)
	timer := t.clock.AfterFunc(t.interval, func() {
		mu.Lock()
		dead := cancelled
		mu.Unlock()
		if dead {
			return
		}
		fn(t.clock.Now())
	})
	return func() {
		mu.Lock()
		cancelled = true
		mu.Unlock()
		timer.Stop()
	}
}

// frameEntry is one logical callback awaiting the next frame. removed
// doubles as the tombstone for snapshot iteration and is what makes
// unsubscribe idempotent: it is set either when the entry fires or when
// it is unsubscribed, whichever happens first.
type frameEntry struct {
	id      uint64
	fn      func(ts time.Time)
	removed bool
}

// coordinator multiplexes all pending frame callbacks, across all
// owners, onto a single outstanding FrameScheduler request.
//
// Lifecycle: the first subscription issues the platform request
// (idle -> armed). Further subscriptions append to the same pending
// list. The request is released when it fires or when unsubscription
// empties the list (back to idle). Firing iterates a snapshot, so a
// subscription made by a firing callback lands on a later frame.
type coordinator struct {
	mu      sync.Mutex
	sched   FrameScheduler
	pending []*frameEntry
	cancel  func() // non-nil while armed
	seq     uint64
}

func newCoordinator(fs FrameScheduler) *coordinator {
	return &coordinator{sched: fs}
}

// frames is the process-wide coordinator shared by OnNextFrame and all
// owner frame subscriptions.
var frames = newCoordinator(TimerFrames(SystemClock(), DefaultFrameInterval))

// SetFrameScheduler installs the host frame source used by OnNextFrame
// and owner frame subscriptions. Passing nil restores the default
// clock-driven source. The change takes effect with the next armed
// request; an already-outstanding request keeps its original scheduler.
func SetFrameScheduler(fs FrameScheduler) {
	if fs == nil {
		fs = TimerFrames(SystemClock(), DefaultFrameInterval)
	}
	frames.mu.Lock()
	frames.sched = fs
	frames.mu.Unlock()
}

// OnNextFrame schedules fn to run on the next shared animation frame.
// However many callbacks are waiting, at most one platform frame request
// is outstanding; within a frame, callbacks run in subscription order.
// The returned cancel is idempotent and safe to call after the frame
// has fired.
func OnNextFrame(fn func(ts time.Time)) (cancel func()) {
	return frames.subscribe(fn)
}

func (c *coordinator) subscribe(fn func(ts time.Time)) func() {
	c.mu.Lock()
	c.seq++
	e := &frameEntry{id: c.seq, fn: fn}
	if c.cancel == nil {
		c.cancel = c.sched.ScheduleFrame(c.fire)
	}
	c.pending = append(c.pending, e)
	c.mu.Unlock()
	return func() { c.unsubscribe(e) }
}

func (c *coordinator) unsubscribe(e *frameEntry) {
	c.mu.Lock()
	if e.removed {
		c.mu.Unlock()
		return
	}
	e.removed = true
	for i, p := range c.pending {
		if p == e {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			break
		}
	}
	// Last pending entry gone: actively release the platform request.
	var release func()
	if len(c.pending) == 0 && c.cancel != nil {
		release = c.cancel
		c.cancel = nil
	}
	c.mu.Unlock()
	if release != nil {
		release()
	}
}

func (c *coordinator) fire(ts time.Time) {
	c.mu.Lock()
	snapshot := c.pending
	c.pending = nil
	// Back to idle before any callback runs: a re-entrant subscription
	// arms a fresh request and fires on a subsequent frame.
	c.cancel = nil
	c.mu.Unlock()

	// One callback's panic must not rob its siblings of this frame; the
	// first panic is re-raised once the snapshot is exhausted.
	var (
		panicked any
		sawPanic bool
	)
	for _, e := range snapshot {
		c.mu.Lock()
		if e.removed {
			c.mu.Unlock()
			continue
		}
		e.removed = true
		fn := e.fn
		c.mu.Unlock()

		func() {
			defer func() {
				if r := recover(); r != nil && !sawPanic {
					sawPanic = true
					panicked = r
				}
			}()
			fn(ts)
		}()
	}
	if sawPanic {
		panic(panicked)
	}
}
