// Package membership holds the two-tier membership check: a Redis-set
// cache in front of the system-of-record authority, plus the room join
// state machine built on both.
package membership

import "context"

// Cache is the fast-path membership set per user. It is strictly a
// cache: entries are only added after an authority confirmation, so the
// cache is a subset of true memberships and can authorize fast-paths
// but never deny on its own. Entries have no TTL.
type Cache interface {
	// IsCachedMember is an O(1) set probe. False only means "not
	// cached"; the caller must fall through to the authority.
	IsCachedMember(ctx context.Context, userID, chatID string) (bool, error)
	// CacheMembership records an authority-confirmed membership.
	// Idempotent.
	CacheMembership(ctx context.Context, userID, chatID string) error
	// LoadMemberships enumerates the user's cached rooms, used only
	// for auto-rejoin at connection establish.
	LoadMemberships(ctx context.Context, userID string) ([]string, error)
	// RemoveCachedMembership drops an entry on revocation. Idempotent.
	RemoveCachedMembership(ctx context.Context, userID, chatID string) error
}

// Authority is the system of record answering membership questions when
// the cache misses. Single source of truth.
type Authority interface {
	CheckMembership(ctx context.Context, chatID, userID string) (bool, error)
}
