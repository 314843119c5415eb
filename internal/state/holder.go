package state

import "sync"

// Holder keeps the current State and pushes every change to subscribers.
// Delivery is conflated: a subscriber that falls behind sees only the most
// recent value, never a stale one.
type Holder[T any] struct {
	mu      sync.Mutex
	current State[T]
	subs    map[int]chan State[T]
	nextID  int
}

// NewHolder returns a holder starting in Idle.
func NewHolder[T any]() *Holder[T] {
	return &Holder[T]{
		current: Idle[T](),
		subs:    make(map[int]chan State[T]),
	}
}

func (h *Holder[T]) Get() State[T] {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// Set replaces the current state and notifies subscribers. It never blocks.
func (h *Holder[T]) Set(s State[T]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.current = s
	for _, ch := range h.subs {
		offer(ch, s)
	}
}

// Subscribe returns a channel primed with the current state. The returned
// func unsubscribes and closes the channel; no value is delivered after it
// returns. It is safe to call more than once.
func (h *Holder[T]) Subscribe() (<-chan State[T], func()) {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	ch := make(chan State[T], 1)
	ch <- h.current
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(ch)
			h.mu.Unlock()
		})
	}
}

// offer replaces any pending value; the caller holds h.mu so it is the
// only sender.
func offer[T any](ch chan State[T], s State[T]) {
	select {
	case <-ch:
	default:
	}
	ch <- s
}
