package core

// Client is a live authenticated connection as seen by the core layer.
// Room membership is owned by the hub; the client only carries identity
// and its outbound event channel.
type Client struct {
	ID       string // connection id, unique per transport session
	UserID   string
	Username string
	Name     string
	Email    string
	Events   chan Event
}

// NewClient constructs a client with an initialized event channel.
func NewClient(connID, userID, username, name, email string) *Client {
	if username == "" {
		username = "Unknown"
	}
	return &Client{
		ID:       connID,
		UserID:   userID,
		Username: username,
		Name:     name,
		Email:    email,
		Events:   make(chan Event, 32),
	}
}

// Send queues an event for the connection's write loop. Slow consumers
// are dropped rather than blocking the caller.
func (c *Client) Send(ev Event) bool {
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}
