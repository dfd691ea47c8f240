package eventbus

import "sync"

// subscriberBuffer is the per-subscriber channel capacity. A consumer that
// falls further behind than this loses events rather than stalling a tick.
const subscriberBuffer = 8

// TypedBus fans events of type T out to subscribers. Publishing never
// blocks: the simulation loop must not wait on a slow WebSocket or MQTT
// consumer.
type TypedBus[T any] struct {
	mu     sync.RWMutex
	subs   []chan T
	closed bool
}

// NewTyped creates an empty bus for events of type T.
func NewTyped[T any]() *TypedBus[T] { return &TypedBus[T]{} }

// Publish delivers the event to every subscriber whose buffer has room and
// drops it for the rest. Publishing on a closed bus is a no-op.
func (b *TypedBus[T]) Publish(e T) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe registers a consumer and returns its buffered channel. On a
// closed bus the channel comes back already closed.
func (b *TypedBus[T]) Subscribe() <-chan T {
	ch := make(chan T, subscriberBuffer)
	b.mu.Lock()
	if b.closed {
		close(ch)
	} else {
		b.subs = append(b.subs, ch)
	}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the consumer and closes its channel. Safe to call
// after Close.
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

// Close closes every subscriber channel and drops the list. Idempotent.
func (b *TypedBus[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
	b.mu.Unlock()
}
