package notify

import (
	"errors"
	"log/slog"
	"sync"

	"sprintdesk/internal/sprintdesk/model"

	"github.com/google/uuid"
)

var ErrHubClosed = errors.New("hub closed")

// Subscription is one live connection in a user's room.
type Subscription struct {
	ID     string
	UserID string
	C      <-chan *model.Notification

	send chan *model.Notification
}

// Hub relays notifications to the connected clients of each user.
type Hub struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Subscription]struct{}
	buffer int
	closed bool
	logger *slog.Logger
}

func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		rooms:  make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger,
	}
}

func (h *Hub) Subscribe(userID string) (*Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	send := make(chan *model.Notification, h.buffer)
	sub := &Subscription{ID: uuid.NewString(), UserID: userID, C: send, send: send}

	room, ok := h.rooms[userID]
	if !ok {
		room = make(map[*Subscription]struct{})
		h.rooms[userID] = room
	}
	room[sub] = struct{}{}
	return sub, nil
}

// Unsubscribe removes the subscription and closes its channel. Safe to call twice.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[sub.UserID]
	if !ok {
		return
	}
	if _, ok := room[sub]; !ok {
		return
	}
	delete(room, sub)
	close(sub.send)
	if len(room) == 0 {
		delete(h.rooms, sub.UserID)
	}
}

// Publish pushes n to every connection of its user and returns how many took it.
// A full connection queue drops the message; it stays persisted.
func (h *Hub) Publish(n *model.Notification) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for sub := range h.rooms[n.UserID] {
		select {
		case sub.send <- n:
			delivered++
		default:
			h.logger.Warn("dropping realtime notification, subscriber queue full",
				"user_id", n.UserID, "subscription_id", sub.ID, "notification_id", n.ID)
		}
	}
	return delivered
}

func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for userID, room := range h.rooms {
		for sub := range room {
			close(sub.send)
		}
		delete(h.rooms, userID)
	}
}
