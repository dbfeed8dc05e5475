package async

import (
	"testing"
	"time"
)

// The owner tests swap the process-wide frame scheduler, so they do not
// run in parallel with each other.

func TestOwnerDisposeCancelsEverything(t *testing.T) {
	m := &manualFrames{}
	SetFrameScheduler(m)
	defer SetFrameScheduler(nil)

	clk := newFakeClock()
	o := testOwner(clk)

	fired := 0
	o.SetTimeout(10*time.Millisecond, func() { fired++ })
	o.SetInterval(10*time.Millisecond, func() { fired++ })
	o.RequestAnimationFrame(func(time.Time) { fired++ })

	d := Debounce(o, func(int) int { fired++; return 0 }, 10*time.Millisecond)
	d.Call(1)
	th := Throttle(o, func(int) { fired++ }, 10*time.Millisecond)
	th.Call(1) // leading runs now
	th.Call(2) // arms trailing

	o.Dispose()

	if m.cancelled != 1 {
		t.Fatalf("frame cancelled = %d, want 1 (request released)", m.cancelled)
	}
	if n := clk.armedTimers(); n != 0 {
		t.Fatalf("armed timers after dispose = %d, want 0", n)
	}

	clk.Advance(time.Second)
	m.fire(time.Unix(1, 0))
	if fired != 1 {
		t.Fatalf("fired = %d, want 1 (throttle leading edge only)", fired)
	}
	if !o.Disposed() {
		t.Fatal("Disposed() = false")
	}
}

func TestOwnerDisposeIdempotent(t *testing.T) {
	clk := newFakeClock()
	o := testOwner(clk)

	cancelled := 0
	o.attach(func() { cancelled++ })

	o.Dispose()
	o.Dispose()
	if cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", cancelled)
	}
}

func TestOwnerPostDisposeNoOps(t *testing.T) {
	m := &manualFrames{}
	SetFrameScheduler(m)
	defer SetFrameScheduler(nil)

	clk := newFakeClock()
	o := testOwner(clk)
	o.Dispose()

	fired := 0
	cancelT := o.SetTimeout(time.Millisecond, func() { fired++ })
	cancelI := o.SetInterval(time.Millisecond, func() { fired++ })
	cancelF := o.RequestAnimationFrame(func(time.Time) { fired++ })
	cancelT()
	cancelI()
	cancelF()

	d := Debounce(o, func(int) int { fired++; return 0 }, time.Millisecond)
	d.Call(1)
	if d.Pending() {
		t.Fatal("debounce pending on disposed owner")
	}
	th := Throttle(o, func(int) { fired++ }, time.Millisecond)
	if th.Call(1) {
		t.Fatal("throttle invoked on disposed owner")
	}

	if m.scheduled != 0 {
		t.Fatalf("scheduled = %d, want 0 (no platform work after dispose)", m.scheduled)
	}
	if n := clk.armedTimers(); n != 0 {
		t.Fatalf("armed timers = %d, want 0", n)
	}
	clk.Advance(time.Second)
	if fired != 0 {
		t.Fatalf("fired = %d, want 0", fired)
	}
}

func TestOwnerDisposeMakesWrappersInert(t *testing.T) {
	clk := newFakeClock()
	o := testOwner(clk)

	invoked := 0
	d := Debounce(o, func(int) int { invoked++; return 0 }, 10*time.Millisecond)
	th := Throttle(o, func(int) { invoked++ }, 10*time.Millisecond)

	// Exercise both before disposal so their state is live.
	d.Call(1)
	th.Call(1) // leading edge runs now
	clk.Advance(10 * time.Millisecond)
	if invoked != 2 {
		t.Fatalf("invoked = %d before dispose, want 2", invoked)
	}

	o.Dispose()

	// Calls through previously created wrappers must arm nothing and
	// invoke nothing.
	d.Call(2)
	if th.Call(2) {
		t.Fatal("throttle invoked on the leading edge after dispose")
	}
	if n := clk.armedTimers(); n != 0 {
		t.Fatalf("armed timers after post-dispose calls = %d, want 0", n)
	}
	if d.Pending() || th.Pending() {
		t.Fatal("wrapper pending after dispose")
	}
	if _, ok := d.Flush(); ok {
		t.Fatal("flush after dispose invoked fn")
	}

	clk.Advance(time.Second)
	if invoked != 2 {
		t.Fatalf("invoked = %d after dispose, want 2", invoked)
	}
}

func TestOwnersShareOneFrameRequest(t *testing.T) {
	m := &manualFrames{}
	SetFrameScheduler(m)
	defer SetFrameScheduler(nil)

	a := NewOwner()
	b := NewOwner()
	defer b.Dispose()

	var order []string
	a.RequestAnimationFrame(func(time.Time) { order = append(order, "a") })
	b.RequestAnimationFrame(func(time.Time) { order = append(order, "b") })

	if m.scheduled != 1 {
		t.Fatalf("scheduled = %d, want 1 (shared request)", m.scheduled)
	}

	// Disposing one owner must not tear down the other's subscription.
	a.Dispose()
	if m.outstanding() != 1 {
		t.Fatalf("outstanding = %d, want 1", m.outstanding())
	}

	m.fire(time.Unix(1, 0))
	if len(order) != 1 || order[0] != "b" {
		t.Fatalf("order = %v, want [b]", order)
	}
}

func TestOwnerFrameCancel(t *testing.T) {
	m := &manualFrames{}
	SetFrameScheduler(m)
	defer SetFrameScheduler(nil)

	o := NewOwner()
	defer o.Dispose()

	fired := 0
	cancel := o.RequestAnimationFrame(func(time.Time) { fired++ })
	cancel()
	cancel() // idempotent

	m.fire(time.Unix(1, 0))
	if fired != 0 {
		t.Fatalf("fired = %d after cancel, want 0", fired)
	}
	if m.cancelled != 1 {
		t.Fatalf("cancelled = %d, want 1", m.cancelled)
	}
}

func TestOwnerRequestAnimationFrameWithReceiver(t *testing.T) {
	m := &manualFrames{}
	SetFrameScheduler(m)
	defer SetFrameScheduler(nil)

	type widget struct{ name string }
	w := &widget{name: "tree"}
	o := NewOwnerWith(w)
	defer o.Dispose()

	var got any
	o.RequestAnimationFrameWith(func(recv any, _ time.Time) { got = recv })
	m.fire(time.Unix(1, 0))

	if got != w {
		t.Fatalf("recv = %v, want the constructed receiver", got)
	}

	// Without an explicit receiver, the owner hands itself over.
	o2 := NewOwner()
	defer o2.Dispose()
	o2.RequestAnimationFrameWith(func(recv any, _ time.Time) { got = recv })
	m.fire(time.Unix(2, 0))
	if got != o2 {
		t.Fatalf("recv = %v, want the owner itself", got)
	}
}

func TestOwnerSetTimeout(t *testing.T) {
	clk := newFakeClock()
	o := testOwner(clk)
	defer o.Dispose()

	fired := 0
	o.SetTimeout(50*time.Millisecond, func() { fired++ })

	clk.Advance(49 * time.Millisecond)
	if fired != 0 {
		t.Fatal("timeout fired early")
	}
	clk.Advance(1 * time.Millisecond)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	clk.Advance(time.Second)
	if fired != 1 {
		t.Fatalf("fired = %d, want 1 (one-shot)", fired)
	}
}

func TestOwnerSetTimeoutCancel(t *testing.T) {
	clk := newFakeClock()
	o := testOwner(clk)
	defer o.Dispose()

	fired := 0
	cancel := o.SetTimeout(50*time.Millisecond, func() { fired++ })
	cancel()
	cancel()

	clk.Advance(time.Second)
	if fired != 0 {
		t.Fatalf("fired = %d after cancel, want 0", fired)
	}
}

func TestOwnerSetIntervalRepeats(t *testing.T) {
	clk := newFakeClock()
	o := testOwner(clk)
	defer o.Dispose()

	fired := 0
	cancel := o.SetInterval(10*time.Millisecond, func() { fired++ })

	clk.Advance(35 * time.Millisecond)
	if fired != 3 {
		t.Fatalf("fired = %d, want 3", fired)
	}

	cancel()
	clk.Advance(time.Second)
	if fired != 3 {
		t.Fatalf("fired = %d after cancel, want 3", fired)
	}
}

func TestOwnerSetIntervalSurvivesPanic(t *testing.T) {
	clk := newFakeClock()
	o := testOwner(clk)
	defer o.Dispose()

	ticks := 0
	o.SetInterval(10*time.Millisecond, func() {
		ticks++
		if ticks == 1 {
			panic("tick failed")
		}
	})

	var recovered any
	func() {
		defer func() { recovered = recover() }()
		clk.Advance(10 * time.Millisecond)
	}()
	if recovered == nil {
		t.Fatal("tick panic did not propagate")
	}

	// The interval re-armed despite the panic and keeps ticking.
	clk.Advance(20 * time.Millisecond)
	if ticks != 3 {
		t.Fatalf("ticks = %d, want 3", ticks)
	}
}

func TestOnNextFrame(t *testing.T) {
	m := &manualFrames{}
	SetFrameScheduler(m)
	defer SetFrameScheduler(nil)

	fired := 0
	cancel := OnNextFrame(func(time.Time) { fired++ })
	m.fire(time.Unix(1, 0))
	cancel() // safe after the frame has fired

	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if m.outstanding() != 0 {
		t.Fatalf("outstanding = %d, want 0", m.outstanding())
	}
}
