package async

import "time"

// Clock abstracts the time source used by every primitive in this
// package so tests can run on virtual time.
type Clock interface {
	Now() time.Time
	// AfterFunc schedules fn to run once after d has elapsed. The real
	// clock runs fn on its own goroutine; virtual clocks may run it
	// synchronously from whatever advances them.
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is the cancel handle returned by Clock.AfterFunc.
type Timer interface {
	// Stop prevents the timer from firing and reports whether it did.
	// Stopping an already-fired or already-stopped timer is a no-op.
	Stop() bool
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns the wall clock backed by package time.
func SystemClock() Clock { return systemClock{} }
