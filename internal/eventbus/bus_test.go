package eventbus

import (
	"testing"
	"time"
)

func TestPublishSubscribe(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(4)
	defer unsub()

	b.Publish(Event{Type: TypeWatchSettled, Data: WatchSettled{Path: "/tmp/x", Coalesced: 3}})

	select {
	case ev := <-ch:
		if ev.Type != TypeWatchSettled {
			t.Fatalf("type = %q, want %q", ev.Type, TypeWatchSettled)
		}
		if ev.Time.IsZero() {
			t.Fatal("publish did not stamp a time")
		}
		data, ok := ev.Data.(WatchSettled)
		if !ok || data.Coalesced != 3 {
			t.Fatalf("data = %#v", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
}

func TestSlowSubscriberDrops(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()

	// Second publish overflows the buffer and must not block.
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Type: TypePulseBurst})
		b.Publish(Event{Type: TypePulseBurst})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}

	<-ch
	select {
	case ev := <-ch:
		t.Fatalf("unexpected second event %v, want drop", ev)
	default:
	}
}

func TestUnsubscribeIdempotent(t *testing.T) {
	t.Parallel()
	b := New()
	ch, unsub := b.Subscribe(1)

	unsub()
	unsub()

	if _, ok := <-ch; ok {
		t.Fatal("channel still open after unsubscribe")
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	b.Publish(Event{Type: TypeFrameStats})
}
