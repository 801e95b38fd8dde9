package events

import (
	"sync"
)

// subscriberBuffer is the channel capacity of each subscriber.
const subscriberBuffer = 256

// Bus fans experiment events out to its subscribers. Publishing never blocks:
// an event that does not fit in a subscriber's buffer is counted and dropped.
// A nil Bus discards every event.
type Bus struct {
	mu          sync.Mutex
	subscribers []chan Event
	closed      bool
	dropped     int
}

// NewBus creates an open bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe returns a channel receiving every event published from now on.
// The channel is closed by Close; subscribing to a closed bus returns a
// closed channel.
func (b *Bus) Subscribe() <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish delivers event to every subscriber in subscription order.
func (b *Bus) Publish(event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			b.dropped++
		}
	}
}

// Dropped returns how many deliveries were lost to full subscriber buffers.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close closes every subscriber channel once the experiment is over. Later
// events are discarded. Close is idempotent.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subscribers {
		close(ch)
	}
	b.subscribers = nil
}
