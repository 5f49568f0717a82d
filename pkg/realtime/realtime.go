// Package realtime provides an in-process publish/subscribe hub used to fan
// out account events (for now, unread notification counts) to connected
// websocket sessions.
//
// Delivery is best effort: each listener has its own buffered channel and a
// listener whose buffer is full misses the event. Nothing is persisted; the
// most recent event is kept in memory and replayed to each new listener so
// a fresh session starts with the current unread count.
package realtime

import (
	"sync"
	"time"
)

// Event types.
const (
	TypeNotifications = "notifications"
)

// NotificationEvent reports a change of the unread notification counter.
type NotificationEvent struct {
	Unread    int       `json:"unread"`
	Total     int       `json:"total"`
	ChangedAt time.Time `json:"changed_at"`
}

// Event is the hub envelope. Type selects which payload is set.
type Event struct {
	Type          string             `json:"type"`
	Notifications *NotificationEvent `json:"notifications,omitempty"`
}

// Hub is an in-memory fan-out dispatcher. It is safe for concurrent use.
type Hub struct {
	mu        sync.RWMutex
	listeners map[uint64]chan Event
	nextID    uint64
	bufSize   int
	last      *Event
}

// NewHub constructs a hub with the given per-listener buffer size.
// If bufSize <= 0, a default of 32 is used.
func NewHub(bufSize int) *Hub {
	if bufSize <= 0 {
		bufSize = 32
	}
	return &Hub{
		listeners: make(map[uint64]chan Event),
		bufSize:   bufSize,
	}
}

// Register adds a new listener and returns (listenerID, receiveOnlyChannel).
// The most recent event, if any, is queued on the new channel so late
// subscribers start with the current counter.
// Callers must later Unregister(id) to release resources.
func (h *Hub) Register() (uint64, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Event, h.bufSize)
	if h.last != nil {
		ch <- *h.last
	}
	h.listeners[id] = ch
	return id, ch
}

// Unregister removes the listener with the given id and closes its channel.
// It is safe to call multiple times; unknown ids are ignored.
func (h *Hub) Unregister(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.listeners[id]; ok {
		delete(h.listeners, id)
		close(ch)
	}
}

// Broadcast delivers an event to all registered listeners (best effort).
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &ev
	for _, ch := range h.listeners {
		select {
		case ch <- ev:
		default:
			// Drop for slow listener.
		}
	}
}

// PublishUnread broadcasts a notifications event.
func (h *Hub) PublishUnread(unread, total int) {
	h.Broadcast(Event{
		Type: TypeNotifications,
		Notifications: &NotificationEvent{
			Unread:    unread,
			Total:     total,
			ChangedAt: time.Now().UTC(),
		},
	})
}

// Size returns the current number of active listeners.
func (h *Hub) Size() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners)
}
