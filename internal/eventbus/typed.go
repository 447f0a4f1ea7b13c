// Package eventbus fans events out to outer-layer consumers such as a
// renderer or a metrics exporter. Delivery never blocks the publisher.
package eventbus

import "sync"

// subscriberBuffer is the channel capacity of every subscription.
const subscriberBuffer = 8

// TypedBus is a type-safe publish/subscribe bus for events of type T.
// It remembers the latest published event so that late subscribers start
// from the current state.
type TypedBus[T any] struct {
	mu      sync.RWMutex
	subs    []chan T
	closed  bool
	last    T
	hasLast bool
}

// NewTyped creates a new TypedBus.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish records e as the latest event and sends it to all subscribers.
// Subscribers with a full buffer miss the event.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.last, b.hasLast = e, true
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Latest returns the most recently published event.
func (b *TypedBus[T]) Latest() (T, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.last, b.hasLast
}

// Subscribe registers a subscriber and returns its channel. The latest event,
// if any, is delivered first.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	if b.hasLast {
		ch <- b.last
	}
	b.subs = append(b.subs, ch)
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *TypedBus[T]) Unsubscribe(sub <-chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, ch := range b.subs {
		if ch == sub {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			if !b.closed {
				close(ch)
			}
			return
		}
	}
}

// Close closes the bus and all subscriber channels.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
