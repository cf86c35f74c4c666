package http

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sochat/realtime-server/internal/core"
	"github.com/sochat/realtime-server/internal/membership"
)

// Gate intercepts every room-scoped command before its handler runs.
// Together with the join-time check this is deliberate defense in
// depth: a connection can receive room events before its join handshake
// completes, and membership can be revoked mid-session.
type Gate struct {
	hub       *core.Hub
	authority membership.Authority
	log       *zerolog.Logger
}

// NewGate builds the per-connection gate.
func NewGate(hub *core.Hub, authority membership.Authority, logger *zerolog.Logger) *Gate {
	return &Gate{hub: hub, authority: authority, log: logger}
}

// Check passes or rejects one command. Non-room-scoped commands pass
// unconditionally. For room-scoped ones the transport room set is the
// fast path; a gap there means a race or an attack, so the check goes
// straight to the authority, not the cache. Authority failure fails
// closed.
func (g *Gate) Check(ctx context.Context, c *core.Client, cmd core.Command) *core.CoreError {
	if !cmd.Kind.RoomScoped() {
		return nil
	}

	if cmd.ChatID == "" {
		return core.NewCoreError(core.ErrCodeBadRequest, "Missing chatId in event payload")
	}

	room := core.ChatRoom(cmd.ChatID)
	if g.hub.InRoom(c, room) {
		return nil
	}

	isMember, err := g.authority.CheckMembership(ctx, cmd.ChatID, c.UserID)
	if err != nil {
		g.log.Error().Err(err).Str("user_id", c.UserID).Str("chat_id", cmd.ChatID).
			Msg("gate authority check failed")
		return core.ErrInternal()
	}
	if !isMember {
		g.log.Warn().Str("user_id", c.UserID).Str("chat_id", cmd.ChatID).
			Msg("unauthorized room access attempt")
		return core.ErrUnauthorizedRoom()
	}

	g.hub.Join(c, room)
	return nil
}
