package membership

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sochat/realtime-server/internal/core"
	"github.com/sochat/realtime-server/internal/proto"
)

// Service is the room join manager. Per (connection, room) the states
// are NotJoined -> PendingAuthCheck -> Joined; Joined persists until
// the connection closes.
type Service struct {
	cache     Cache
	authority Authority
	hub       *core.Hub
	log       *zerolog.Logger
}

// NewService builds the join manager.
func NewService(cache Cache, authority Authority, hub *core.Hub, logger *zerolog.Logger) *Service {
	return &Service{
		cache:     cache,
		authority: authority,
		hub:       hub,
		log:       logger,
	}
}

// Join runs the join handshake for one chat. Returns nil on success
// (including the idempotent already-joined case). Cache failures
// degrade to authority checks; authority failures fail closed.
func (s *Service) Join(ctx context.Context, c *core.Client, chatID string) *core.CoreError {
	room := core.ChatRoom(chatID)

	// Fast path: transport room set already contains the room.
	if s.hub.InRoom(c, room) {
		return nil
	}

	allowed, err := s.cache.IsCachedMember(ctx, c.UserID, chatID)
	if err != nil {
		// Cache down is a performance problem, not a correctness one.
		s.log.Warn().Err(err).Str("user_id", c.UserID).Str("chat_id", chatID).
			Msg("membership cache unavailable, falling through to authority")
		allowed = false
	}

	if !allowed {
		allowed, err = s.authority.CheckMembership(ctx, chatID, c.UserID)
		if err != nil {
			s.log.Error().Err(err).Str("user_id", c.UserID).Str("chat_id", chatID).
				Msg("membership authority check failed")
			return core.ErrInternal()
		}
		if !allowed {
			return core.NewCoreError(core.ErrCodeUnauthorized, "UNAUTHORIZED")
		}
	}

	// Warm the cache so future joins and reconnect auto-rejoin skip the
	// authority. Harmless no-op on a cache hit.
	if err := s.cache.CacheMembership(ctx, c.UserID, chatID); err != nil {
		s.log.Warn().Err(err).Str("user_id", c.UserID).Str("chat_id", chatID).
			Msg("failed to warm membership cache")
	}

	s.hub.Join(c, room)

	if err := s.hub.Broadcast(room, proto.OutChatJoined, proto.JoinedEvent{
		UserID:   c.UserID,
		ChatID:   chatID,
		Username: c.Username,
	}, c.ID, true); err != nil {
		s.log.Warn().Err(err).Str("chat_id", chatID).Msg("failed to broadcast join")
	}

	s.log.Info().Str("user_id", c.UserID).Str("chat_id", chatID).Msg("user joined room")
	return nil
}

// AutoRejoin subscribes the connection to every cached room in one
// pass, right after handshake authentication. No authority fallback
// here: a stale cache entry can only cause a missed notification, never
// an authorization bypass, because event delivery is still gated.
func (s *Service) AutoRejoin(ctx context.Context, c *core.Client) {
	chatIDs, err := s.cache.LoadMemberships(ctx, c.UserID)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", c.UserID).Msg("failed to load cached memberships")
		return
	}
	if len(chatIDs) == 0 {
		s.log.Debug().Str("user_id", c.UserID).Msg("no cached rooms to rejoin")
		return
	}
	for _, chatID := range chatIDs {
		s.hub.Join(c, core.ChatRoom(chatID))
	}
	s.log.Info().Str("user_id", c.UserID).Int("rooms", len(chatIDs)).Msg("auto-rejoined cached rooms")
}
