package core

// channel groups clients subscribed to the same room.
type channel struct {
	room    string
	clients map[*Client]struct{}
}

func newChannel(room string) *channel {
	return &channel{
		room:    room,
		clients: make(map[*Client]struct{}),
	}
}

// add inserts a client. Returns true if newly added.
func (ch *channel) add(c *Client) bool {
	if _, exists := ch.clients[c]; exists {
		return false
	}
	ch.clients[c] = struct{}{}
	return true
}

// remove deletes a client. Returns true if removed.
func (ch *channel) remove(c *Client) bool {
	if _, exists := ch.clients[c]; !exists {
		return false
	}
	delete(ch.clients, c)
	return true
}

// broadcast offers the event to every client and returns how many were
// skipped because their buffer was full.
func (ch *channel) broadcast(event *Event) int {
	dropped := 0
	for client := range ch.clients {
		select {
		case client.Events <- event:
		default:
			dropped++
		}
	}
	return dropped
}

func (ch *channel) empty() bool {
	return len(ch.clients) == 0
}
