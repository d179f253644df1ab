// Package broadcast fans live conversation events out to subscribers.
package broadcast

import (
	"sync"

	"github.com/fwojciec/hive"
	"github.com/google/uuid"
)

// DefaultBuffer is the channel capacity used when Subscribe is given a
// non-positive size.
const DefaultBuffer = 256

// Hub delivers events to 0..N subscribers. Publish never blocks: a
// subscriber whose buffer is full is dropped and its channel closed.
type Hub struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]chan hive.Event
	closed bool
}

// New creates an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[uuid.UUID]chan hive.Event)}
}

// Subscribe registers a subscriber and returns its channel and a function
// that unsubscribes it. Subscribing to a closed hub returns a closed channel.
func (h *Hub) Subscribe(buffer int) (<-chan hive.Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan hive.Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := uuid.New()
	h.subs[id] = ch
	return ch, func() { h.remove(id) }
}

// Publish delivers e to every subscriber with room in its buffer.
func (h *Hub) Publish(e hive.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- e:
		default:
			delete(h.subs, id)
			close(ch)
		}
	}
}

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Close closes every subscriber channel. Later publishes are dropped.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Hub) remove(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		close(ch)
	}
}
