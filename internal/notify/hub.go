// Package notify provides the in-process implementation of the notification
// channel: per-session-code subscriber channels fed by coordinator events.
// Poll-based clients bypass it entirely and resync from the session store.
package notify

import (
	"sync"

	"live-quiz-service/internal/domain"
)

const subscriberBuffer = 16

// Hub fans coordinator events out to websocket subscribers, keyed by
// session code.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan domain.Event]struct{})}
}

// Publish delivers event to every subscriber of code. Slow subscribers have
// their oldest buffered event dropped rather than blocking the publisher;
// clients recover by resyncing full state from the store.
func (h *Hub) Publish(code string, event domain.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[code] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- event:
			default:
			}
		}
	}
}

// Subscribe returns a channel of events for code. The caller must invoke
// the returned cancel function to avoid leaks.
func (h *Hub) Subscribe(code string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[code] == nil {
		h.subs[code] = make(map[chan domain.Event]struct{})
	}
	h.subs[code][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if set, ok := h.subs[code]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subs, code)
			}
		}
	}
	return ch, cancel
}

// SubscriberCount reports the current number of subscribers for code.
func (h *Hub) SubscriberCount(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[code])
}
