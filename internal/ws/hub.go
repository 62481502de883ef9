package ws

import (
	"encoding/json"
	"sync"
)

// Client is one WebSocket connection owned by a signed-in user.
type Client struct {
	UserID uint
	Send   chan []byte
	hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
	if c.hub != nil {
		c.hub.unregister(c)
	}
}

// trySend drops the frame when the client is closed or its buffer is full.
// Holding the client mutex keeps the send from racing Close on the channel.
func (c *Client) trySend(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.Send <- data:
	default:
	}
}

// StatusEvent is pushed when an order or rental changes state, typically
// right after the payment webhook lands, so the checkout page can flip
// without polling.
type StatusEvent struct {
	Type        string `json:"type"` // payment_paid, order_completed, rental_active
	Kind        string `json:"kind,omitempty"`
	ReferenceID uint   `json:"reference_id,omitempty"`
	Amount      int64  `json:"amount,omitempty"`
}

// Hub tracks active connections per user. One user can hold several
// connections (multiple tabs); an event goes to all of them.
type Hub struct {
	mu     sync.RWMutex
	byUser map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byUser: make(map[uint]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.hub = h
	if h.byUser[c.UserID] == nil {
		h.byUser[c.UserID] = make(map[*Client]struct{})
	}
	h.byUser[c.UserID][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byUser[c.UserID]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byUser, c.UserID)
		}
	}
}

// PushToUser delivers the event to every connection the user holds. Slow
// consumers are skipped rather than blocked on; a missed event is recovered
// by the status endpoints.
func (h *Hub) PushToUser(userID uint, event StatusEvent) {
	data, _ := json.Marshal(event)
	h.mu.RLock()
	m := h.byUser[userID]
	clients := make([]*Client, 0, len(m))
	for c := range m {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	for _, c := range clients {
		c.trySend(data)
	}
}

func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byUser {
		n += len(m)
	}
	return n
}
