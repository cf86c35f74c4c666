// Package store defines the record types and interfaces of the system
// of record for users, chats and memberships. The realtime core only
// reads from it; chat lifecycle writes belong to the REST surface.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned for lookups of absent records.
var ErrNotFound = errors.New("not found")

// User is an account record. Credentials live elsewhere; the realtime
// core needs identity and display fields only.
type User struct {
	ID        string
	Username  string
	Name      string
	Email     string
	CreatedAt time.Time
}

// ChatType distinguishes addressing semantics, not storage.
type ChatType string

const (
	ChatTypeDirect ChatType = "DIRECT"
	ChatTypeGroup  ChatType = "GROUP"
)

// Chat is a room record. The core never mutates it.
type Chat struct {
	ID        string
	Type      ChatType
	Name      string
	CreatedAt time.Time
}

// ChatMember is the authoritative membership relation.
type ChatMember struct {
	ChatID   string
	UserID   string
	JoinedAt time.Time
}

// UserStore resolves identities at handshake time.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// MembershipStore is the membership authority: the single source of
// truth consulted when the cache cannot answer.
type MembershipStore interface {
	CheckMembership(ctx context.Context, chatID, userID string) (bool, error)
}

// Store is the full system-of-record surface the server wires up. The
// write methods exist for the out-of-scope REST layer and for seeding
// in tests.
type Store interface {
	UserStore
	MembershipStore

	CreateUser(ctx context.Context, user User) error
	CreateChat(ctx context.Context, chat Chat) error
	AddChatMember(ctx context.Context, chatID, userID string) error
	RemoveChatMember(ctx context.Context, chatID, userID string) error
	GetChat(ctx context.Context, id string) (*Chat, error)

	Close() error
}
