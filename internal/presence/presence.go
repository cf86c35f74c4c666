// Package presence tracks TTL-keyed ephemeral user state: the online
// liveness key refreshed by heartbeat and the per-room typing flag that
// self-expires. Presence is a best-effort UX signal; nothing here is
// allowed to fail a connection.
package presence

import "context"

// Store is the ephemeral state backend.
type Store interface {
	// SetUserOnline sets the liveness key with the online TTL.
	SetUserOnline(ctx context.Context, userID string) error
	// Heartbeat refreshes the liveness TTL without rewriting the key.
	Heartbeat(ctx context.Context, userID string) error
	// SetUserOffline deletes the liveness key.
	SetUserOffline(ctx context.Context, userID string) error
	// IsUserOnline reports liveness. Absence of the key means offline.
	IsUserOnline(ctx context.Context, userID string) (bool, error)
	// OnlineUsers enumerates user ids with a live presence key.
	OnlineUsers(ctx context.Context) ([]string, error)
	// SetUserTyping sets the typing flag with the typing TTL. The flag
	// is not heartbeat-refreshed; repeated typing events renew it or it
	// expires on its own.
	SetUserTyping(ctx context.Context, userID, chatID string) error
	// StopUserTyping deletes the typing flag.
	StopUserTyping(ctx context.Context, userID, chatID string) error
	// IsUserTyping reports the typing flag.
	IsUserTyping(ctx context.Context, userID, chatID string) (bool, error)
}
