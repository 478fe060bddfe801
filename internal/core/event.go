package core

// EventKind is a notification the core emits to clients.
type EventKind int

const (
	// EventReceiveMessage delivers a message and its room snapshot.
	EventReceiveMessage EventKind = iota
	// EventJoined confirms a channel subscription.
	EventJoined
	// EventError notifies a client about a rejected command.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventReceiveMessage:
		return "receive_message"
	case EventJoined:
		return "joined"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to clients to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Room     string
	Message  Message
	Snapshot RoomSnapshot
	Error    *CoreError
}
