package realtime

import (
	"context"
	"log"
	"sync"

	"classtrack/internal/metrics"
	"classtrack/internal/model"
)

// Client is one connected viewer. Its room set is computed once at
// authenticated-connect time and never changes for the connection's life.
type Client struct {
	UserID string
	Rooms  []string
	send   chan []byte

	closeOnce sync.Once
}

// NewClient creates a client subscribed to exactly the role room and the
// identity room of the resolved user.
func NewClient(u model.User) *Client {
	return &Client{
		UserID: u.ID,
		Rooms:  []string{RoleRoom(u.Role), IdentityRoom(u.ID)},
		send:   make(chan []byte, 16),
	}
}

// Send returns the outbound frame channel.
func (c *Client) Send() <-chan []byte { return c.send }

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub routes events to clients by room membership. One hub per process;
// cross-instance delivery goes through the Bus.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Client]struct{})}
}

// Register adds the client to its rooms.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, room := range c.Rooms {
		members, ok := h.rooms[room]
		if !ok {
			members = make(map[*Client]struct{})
			h.rooms[room] = members
		}
		members[c] = struct{}{}
	}
	metrics.Connections.Inc()
}

// Unregister tears down the client's room membership and closes its send
// channel. Safe to call more than once; other clients are unaffected.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	removed := false
	for _, room := range c.Rooms {
		if members, ok := h.rooms[room]; ok {
			if _, present := members[c]; present {
				delete(members, c)
				removed = true
			}
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
	// Closing under the lock keeps Broadcast from writing to a closed
	// channel: sends happen under the read lock.
	c.close()
	h.mu.Unlock()
	if removed {
		metrics.Connections.Dec()
	}
}

// Broadcast delivers the event once to every client in any of its rooms.
// A client whose buffer is full misses the event; reconnecting clients are
// expected to re-fetch state through the read API.
func (h *Hub) Broadcast(evt Event) {
	payload, err := evt.Encode()
	if err != nil {
		log.Printf("realtime: encode %s: %v", evt.Name, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	seen := make(map[*Client]struct{})
	for _, room := range evt.Rooms {
		for c := range h.rooms[room] {
			seen[c] = struct{}{}
		}
	}
	for c := range seen {
		select {
		case c.send <- payload:
			metrics.EventsDelivered.Inc()
		default:
			log.Printf("realtime: slow client %s, dropping %s", c.UserID, evt.Name)
		}
	}
}

// Run consumes the bus and broadcasts until the context is cancelled.
func (h *Hub) Run(ctx context.Context, bus Bus) error {
	events, err := bus.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for evt := range events {
			h.Broadcast(evt)
		}
	}()
	return nil
}
