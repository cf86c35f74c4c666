package core

// CommandKind is the closed set of client-originated actions. Dispatch
// is an exhaustive switch, so adding a kind is a compile-time change.
type CommandKind int

const (
	// CommandJoinChat subscribes the connection to a chat room.
	CommandJoinChat CommandKind = iota
	// CommandSendMessage delivers a chat message to room participants.
	CommandSendMessage
	// CommandTyping toggles the ephemeral typing indicator.
	CommandTyping
	// CommandMarkRead marks a message as read (seen receipt).
	CommandMarkRead
	// CommandReaction attaches a reaction to a message.
	CommandReaction
	// CommandDeleteMessage tombstones a message.
	CommandDeleteMessage
	// CommandHeartbeat refreshes the presence liveness key.
	CommandHeartbeat
	// CommandGoOffline is an explicit offline transition.
	CommandGoOffline
)

// Command represents an action requested by a client.
type Command struct {
	Kind      CommandKind
	ChatID    string
	Content   string
	TempID    string
	MediaIDs  []string
	MessageID string
	Reaction  string
	IsTyping  bool
}

// RoomScoped reports whether the command targets a chat room and must
// therefore clear the connection gate before its handler runs. Join is
// the handshake itself and passes unconditionally.
func (k CommandKind) RoomScoped() bool {
	switch k {
	case CommandSendMessage, CommandTyping, CommandMarkRead, CommandReaction, CommandDeleteMessage:
		return true
	case CommandJoinChat, CommandHeartbeat, CommandGoOffline:
		return false
	}
	return false
}
