package core

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub tracks local connections and their room subscriptions, and is the
// single local delivery point for relay frames. Broadcasts always go
// out through the relay; delivery to local clients happens when the
// relay hands the frame back, so every instance runs the same path.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[RoomID]map[*Client]struct{}
	joined  map[*Client]map[RoomID]struct{}

	relay Relay
	log   *zerolog.Logger
}

// NewHub creates a hub with no relay bound. BindRelay must be called
// before the first broadcast.
func NewHub(logger *zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[RoomID]map[*Client]struct{}),
		joined:  make(map[*Client]map[RoomID]struct{}),
		log:     logger,
	}
}

// BindRelay attaches the cross-instance relay. Called once during
// wiring, before connections are accepted.
func (h *Hub) BindRelay(r Relay) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.relay = r
}

// Register adds a connection to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	h.joined[c] = make(map[RoomID]struct{})
}

// Unregister removes a connection and every room subscription it holds.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range h.joined[c] {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.joined, c)
	delete(h.clients, c.ID)
}

// Join subscribes a connection to a room. Returns false if it was
// already subscribed (idempotent).
func (h *Hub) Join(c *Client, room RoomID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	joined, ok := h.joined[c]
	if !ok {
		return false // not registered
	}
	if _, exists := joined[room]; exists {
		return false
	}
	joined[room] = struct{}{}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][c] = struct{}{}
	return true
}

// Leave unsubscribes a connection from a room.
func (h *Hub) Leave(c *Client, room RoomID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, exists := h.joined[c][room]; !exists {
		return false
	}
	delete(h.joined[c], room)
	delete(h.rooms[room], c)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
	return true
}

// InRoom reports whether the connection's transport-level room set
// contains the room. This is the gate's fast path.
func (h *Hub) InRoom(c *Client, room RoomID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.joined[c][room]
	return ok
}

// Rooms returns the rooms the connection is currently subscribed to.
func (h *Hub) Rooms(c *Client) []RoomID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]RoomID, 0, len(h.joined[c]))
	for room := range h.joined[c] {
		out = append(out, room)
	}
	return out
}

// Broadcast publishes a room-scoped event through the relay. With
// excludeOrigin set, the originating connection does not receive it.
func (h *Hub) Broadcast(room RoomID, eventType string, payload any, origin string, excludeOrigin bool) error {
	ev, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	return h.publish(RelayFrame{
		Room:    room,
		Origin:  origin,
		Exclude: excludeOrigin,
		Event:   ev.Type,
		Data:    ev.Data,
	})
}

// BroadcastGlobal publishes an event to every connection on every
// instance.
func (h *Hub) BroadcastGlobal(eventType string, payload any) error {
	ev, err := NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	return h.publish(RelayFrame{Event: ev.Type, Data: ev.Data})
}

func (h *Hub) publish(frame RelayFrame) error {
	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay == nil {
		return ErrRelayClosed
	}
	return relay.Publish(frame)
}

// Deliver fans a relay frame out to the local connections it addresses.
// Called by the relay for frames from every instance, this one
// included.
func (h *Hub) Deliver(frame RelayFrame) {
	ev := Event{Type: frame.Event, Data: frame.Data}

	h.mu.RLock()
	var targets []*Client
	if frame.Room == "" {
		targets = make([]*Client, 0, len(h.clients))
		for _, c := range h.clients {
			targets = append(targets, c)
		}
	} else {
		members := h.rooms[frame.Room]
		targets = make([]*Client, 0, len(members))
		for c := range members {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if frame.Exclude && c.ID == frame.Origin {
			continue
		}
		if !c.Send(ev) && h.log != nil {
			h.log.Warn().
				Str("client_id", c.ID).
				Str("event", frame.Event).
				Msg("dropping event for slow consumer")
		}
	}
}
