package core

import "encoding/json"

// Event is a named server-to-client notification with an already
// encoded payload. The type string is the wire event name.
type Event struct {
	Type string
	Data json.RawMessage
}

// NewEvent encodes the payload once so a single broadcast marshals a
// payload exactly one time regardless of fan-out width.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Data: data}, nil
}

// RelayFrame is the opaque unit the cross-instance relay carries. An
// empty Room means a global broadcast. Origin identifies the sending
// connection so its own instance can exclude it on delivery.
type RelayFrame struct {
	Room    RoomID          `json:"room,omitempty"`
	Origin  string          `json:"origin,omitempty"`
	Exclude bool            `json:"exclude,omitempty"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Relay moves broadcast frames between server instances. The relay does
// not interpret frames; it republishes them to every instance
// (including the origin), where the hub performs local delivery.
type Relay interface {
	Publish(frame RelayFrame) error
}
