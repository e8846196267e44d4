package application

import "sync"

// Observable holds the latest published value and fans every change out
// to subscribers. A new subscriber first receives the current value.
// Slow subscribers are conflated: an undelivered value is replaced by the newer one.
type Observable[T any] struct {
	mu    sync.RWMutex
	value T
	subs  map[chan T]struct{}
}

// NewObservable creates an Observable holding initial.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{value: initial, subs: make(map[chan T]struct{})}
}

// Value returns the latest published value.
func (o *Observable[T]) Value() T {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.value
}

// Subscribe registers a subscriber with the given buffer size (minimum 1).
// The returned cancel func unregisters it and closes the channel.
func (o *Observable[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	o.mu.Lock()
	ch <- o.value
	o.subs[ch] = struct{}{}
	o.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, ch)
			close(ch)
			o.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish stores v and delivers it to every subscriber.
func (o *Observable[T]) Publish(v T) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.value = v
	for ch := range o.subs {
		select {
		case ch <- v:
		default:
			// Buffer full: drop the oldest pending value.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers.
func (o *Observable[T]) SubscriberCount() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.subs)
}
