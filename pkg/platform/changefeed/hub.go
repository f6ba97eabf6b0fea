package changefeed

import (
	"context"
	"sync"
)

// Notifier is anything that can be told its collection changed.
type Notifier interface {
	Name() string
	Notify()
}

// Hub routes change signals to feeds by collection name.
type Hub struct {
	mu    sync.RWMutex
	feeds map[string][]Notifier
}

func NewHub() *Hub {
	return &Hub{feeds: make(map[string][]Notifier)}
}

// Register attaches a feed to its collection.
func (h *Hub) Register(n Notifier) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.feeds[n.Name()] = append(h.feeds[n.Name()], n)
}

// Changed notifies every feed registered for collection. Unknown collections are ignored.
func (h *Hub) Changed(_ context.Context, collection string) {
	h.mu.RLock()
	feeds := h.feeds[collection]
	h.mu.RUnlock()
	for _, f := range feeds {
		f.Notify()
	}
}
