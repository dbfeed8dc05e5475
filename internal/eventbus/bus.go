// Package eventbus carries scheduling telemetry between frameload
// services without coupling them.
package eventbus

import (
	"sync"
	"time"
)

// Event types published by frameload services.
const (
	TypeWatchSettled = "watch.settled"
	TypePulseBurst   = "pulse.burst"
	TypeFrameStats   = "frame.stats"
)

// WatchSettled reports that a burst of filesystem events went quiet.
type WatchSettled struct {
	Path      string // last path seen in the burst
	Coalesced int    // raw events collapsed into this settle
}

// PulseBurst reports one synthetic burst pushed through a throttle.
type PulseBurst struct {
	Name            string
	Sent            int
	Leading         int // calls that fired on the leading edge
	TrailingPending bool
}

// FrameStats summarizes recent shared animation frames.
type FrameStats struct {
	Frames   uint64
	Interval time.Duration
}

// Event is a lightweight, in-memory signal.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Slow subscribers may drop events (bounded backpressure).
type Event struct {
	Type string
	Time time.Time
	Data any
}

type Bus interface {
	Publish(e Event)
	Subscribe(buffer int) (ch <-chan Event, unsubscribe func())
}

// New returns a simple in-memory fanout bus. It owns no background
// goroutines.
func New() Bus {
	return &memBus{subs: map[uint64]chan Event{}}
}

type memBus struct {
	mu   sync.Mutex
	subs map[uint64]chan Event
	seq  uint64
}

func (b *memBus) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	// Hold the lock while sending so Unsubscribe can never close a
	// channel mid-send. Sends are non-blocking, so this stays cheap.
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// subscriber is behind; drop
		}
	}
}

func (b *memBus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	b.seq++
	id := b.seq
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			close(ch)
			b.mu.Unlock()
		})
	}
	return ch, unsub
}
