package core

// RoomID is an opaque group-delivery scope handle. All room key
// construction goes through the functions below so the format cannot
// drift between the gate, the join path and the relay.
type RoomID string

func (r RoomID) String() string { return string(r) }

// ChatRoom addresses the delivery scope of a chat.
func ChatRoom(chatID string) RoomID { return RoomID("chat:" + chatID) }

// UserRoom addresses a user's personal delivery scope, used for
// targeted notifications.
func UserRoom(userID string) RoomID { return RoomID("user:" + userID) }

// StreamRoom addresses a live stream's delivery scope.
func StreamRoom(streamID string) RoomID { return RoomID("stream:" + streamID) }
