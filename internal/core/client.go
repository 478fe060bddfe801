package core

const defaultBuffer = 32

// Client is a relay connection as seen by the core layer.
type Client struct {
	ID string
	// ProfileID is empty for anonymous connections.
	ProfileID string
	Commands  chan *Command
	Events    chan *Event

	// room is owned by the hub goroutine.
	room string
	done chan struct{}
}

// NewClient constructs a client with initialized channels. A buffer of zero
// or less selects the default size.
func NewClient(id, profileID string, buffer int) *Client {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Client{
		ID:        id,
		ProfileID: profileID,
		Commands:  make(chan *Command, 8),
		Events:    make(chan *Event, buffer),
		done:      make(chan struct{}),
	}
}

// Anonymous reports whether the connection was opened without a token.
func (c *Client) Anonymous() bool {
	return c.ProfileID == ""
}
