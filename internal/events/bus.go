// Package events provides the in-process broadcast used to tell open views
// that lead state changed on the server.
package events

import (
	"context"
	"sync"
	"time"
)

// Kind identifies what changed.
type Kind string

const (
	// BookingUpdated fires after any booking status or claim mutation.
	BookingUpdated Kind = "booking_updated"
	// ApprovalsChanged fires when the pending approvals set changes.
	ApprovalsChanged Kind = "approvals_changed"
)

// Event is one broadcast message.
type Event struct {
	Kind      Kind
	BookingID string
	At        time.Time
}

// Bus fans events out to subscribers. Publishing never blocks: a
// subscriber that is not draining its channel misses events rather than
// stalling the publisher.
type Bus struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a subscriber scoped to ctx. The channel is closed
// and removed when ctx ends.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
		close(ch)
	}()
	return ch
}

// Publish delivers the event to every subscriber with room in its buffer.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
