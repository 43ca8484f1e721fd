package session

import "sync"

// DefaultBuffer is the per-subscriber backlog of undelivered
// notifications.
const DefaultBuffer = 16

// Hub delivers timeout notifications to every subscribed session.
// Notify never blocks: a subscriber whose backlog is full misses the
// message, and the drop is counted.
type Hub struct {
	mu      sync.RWMutex
	subs    map[string]chan string
	dropped map[string]int
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:    make(map[string]chan string),
		dropped: make(map[string]int),
	}
}

// Subscribe registers id and returns its notification channel.  A
// second Subscribe for the same id replaces the first.  buf <= 0 uses
// DefaultBuffer.
func (h *Hub) Subscribe(id string, buf int) <-chan string {
	if buf <= 0 {
		buf = DefaultBuffer
	}
	ch := make(chan string, buf)

	h.mu.Lock()
	if old, ok := h.subs[id]; ok {
		close(old)
	}
	h.subs[id] = ch
	delete(h.dropped, id)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes id and closes its channel.  It returns how many
// notifications the subscriber missed.
func (h *Hub) Unsubscribe(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch, ok := h.subs[id]
	if !ok {
		return 0
	}
	close(ch)
	delete(h.subs, id)
	n := h.dropped[id]
	delete(h.dropped, id)
	return n
}

// Notify sends msg to every subscriber without blocking.
func (h *Hub) Notify(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, ch := range h.subs {
		select {
		case ch <- msg:
		default:
			h.dropped[id]++
		}
	}
}

// Len returns the number of subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
