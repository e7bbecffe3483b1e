package pointerfeed

import (
	"context"
	"sync"
)

const hubBufferSize = 16

// Hub is an in-process feed for single-instance deployments. Slow
// subscribers lose changes instead of blocking publishers.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*hubSubscription]struct{}
}

type hubSubscription struct {
	ch   chan PointerChange
	once sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*hubSubscription]struct{})}
}

func (h *Hub) Publish(_ context.Context, change PointerChange) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[change.UserID] {
		select {
		case sub.ch <- change:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(_ context.Context, userID string) (<-chan PointerChange, func(), error) {
	sub := &hubSubscription{ch: make(chan PointerChange, hubBufferSize)}

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[*hubSubscription]struct{})
	}
	h.subs[userID][sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		sub.once.Do(func() {
			h.mu.Lock()
			delete(h.subs[userID], sub)
			if len(h.subs[userID]) == 0 {
				delete(h.subs, userID)
			}
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel, nil
}

// SubscriberCount reports the live subscriptions for userID.
func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[userID])
}
