// Package proto defines the JSON wire protocol: one envelope per
// direction and the payload shapes for every named event.
package proto

import "encoding/json"

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client-to-server event names.
const (
	InChatJoin     = "chat:join"
	InChatMessage  = "chat:message"
	InChatTyping   = "chat:typing"
	InChatRead     = "chat:read"
	InChatReaction = "chat:reaction"
	InChatDelete   = "chat:delete"
	InUserOnline   = "user:online"
	InUserOffline  = "user:offline"
)

// Server-to-client event names.
const (
	OutChatJoined      = "chat:joined"
	OutChatJoinAck     = "chat:join"
	OutChatMessage     = "chat:message"
	OutChatTyping      = "chat:typing"
	OutChatRead        = "chat:read"
	OutChatReaction    = "chat:reaction"
	OutChatDelete      = "chat:delete"
	OutUserOnline      = "user:online"
	OutUserOffline     = "user:offline"
	OutUsersOnlineInit = "users:online_initial"
	OutError           = "error"
)

// Outbound is the envelope for events sent to the client.
type Outbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// JoinData requests membership-gated entry to a chat room.
type JoinData struct {
	ChatID string `json:"chatId"`
}

// MessageData is a chat message from the client. TempID is an optional
// client correlation id echoed back so the sender can reconcile its
// optimistic local copy.
type MessageData struct {
	ChatID   string   `json:"chatId"`
	Content  string   `json:"content"`
	TempID   string   `json:"tempId,omitempty"`
	MediaIDs []string `json:"mediaIds,omitempty"`
}

// TypingData toggles the typing indicator for a chat.
type TypingData struct {
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

// ReadData marks a message as seen.
type ReadData struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// ReactionData attaches a reaction to a message.
type ReactionData struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
}

// DeleteData tombstones a message.
type DeleteData struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
}

// JoinAck answers a chat:join request.
type JoinAck struct {
	OK     bool   `json:"ok"`
	ChatID string `json:"chatId,omitempty"`
	Error  string `json:"error,omitempty"`
}

// JoinedEvent tells room members someone joined.
type JoinedEvent struct {
	UserID   string `json:"userId"`
	ChatID   string `json:"chatId"`
	Username string `json:"username"`
}

// MessageEvent is the broadcast form of a message. CreatedAt is the
// server-assigned RFC3339 timestamp and ID the server-assigned uuid.
type MessageEvent struct {
	ID             string   `json:"id"`
	ChatID         string   `json:"chatId"`
	SenderID       string   `json:"senderId"`
	SenderUsername string   `json:"senderUsername"`
	SenderName     string   `json:"senderName,omitempty"`
	Content        string   `json:"content"`
	Type           string   `json:"type"`
	CreatedAt      string   `json:"createdAt"`
	TempID         string   `json:"tempId,omitempty"`
	MediaIDs       []string `json:"mediaIds"`
}

// TypingEvent is broadcast to room peers, never back to the typist.
type TypingEvent struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}

// ReadEvent is the seen-receipt broadcast.
type ReadEvent struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	ReadAt    string `json:"readAt"`
}

// ReactionEvent is the reaction broadcast.
type ReactionEvent struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	UserID    string `json:"userId"`
	Username  string `json:"username"`
	CreatedAt string `json:"createdAt"`
}

// DeleteEvent is the tombstone broadcast. The original message stays in
// the durable log; the read path hides it.
type DeleteEvent struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	DeletedAt string `json:"deletedAt"`
}

// PresenceEvent announces a global online/offline transition.
type PresenceEvent struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	LastSeen string `json:"lastSeen,omitempty"`
}

// ErrorEvent is the client-facing error frame.
type ErrorEvent struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
