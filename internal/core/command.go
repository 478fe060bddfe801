package core

// CommandKind describes what the client wants to do.
type CommandKind int

const (
	// CommandJoinRoom subscribes the client to a room channel, replacing the
	// previous one.
	CommandJoinRoom CommandKind = iota
	// CommandLeaveRoom drops the client's channel membership.
	CommandLeaveRoom
	// CommandRelayMessage re-emits a client supplied message to a room channel.
	CommandRelayMessage
)

func (k CommandKind) String() string {
	switch k {
	case CommandJoinRoom:
		return "join_room"
	case CommandLeaveRoom:
		return "leave_room"
	case CommandRelayMessage:
		return "relay_message"
	default:
		return "unknown"
	}
}

// Command represents an action requested by a client.
type Command struct {
	Kind    CommandKind
	Room    string
	Message Message
	// Snapshot is only set for CommandRelayMessage.
	Snapshot RoomSnapshot
}
