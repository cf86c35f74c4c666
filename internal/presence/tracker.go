package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/sochat/realtime-server/internal/core"
	"github.com/sochat/realtime-server/internal/proto"
)

// Tracker turns connection lifecycle and typing commands into presence
// state and broadcasts. Store errors are logged and swallowed: a dead
// presence backend must never surface to the client or kill a
// connection.
type Tracker struct {
	store Store
	hub   *core.Hub
	log   *zerolog.Logger
	now   func() time.Time
}

// NewTracker builds a presence tracker.
func NewTracker(store Store, hub *core.Hub, logger *zerolog.Logger) *Tracker {
	return &Tracker{
		store: store,
		hub:   hub,
		log:   logger,
		now:   time.Now,
	}
}

// HandleConnect marks the user online, broadcasts the transition
// globally and hands the connecting client the current online roster.
func (t *Tracker) HandleConnect(ctx context.Context, c *core.Client) {
	if err := t.store.SetUserOnline(ctx, c.UserID); err != nil {
		t.log.Error().Err(err).Str("user_id", c.UserID).Msg("failed to set user online")
	}

	if err := t.hub.BroadcastGlobal(proto.OutUserOnline, proto.PresenceEvent{
		UserID:   c.UserID,
		Username: c.Username,
	}); err != nil {
		t.log.Warn().Err(err).Str("user_id", c.UserID).Msg("failed to broadcast online")
	}

	t.sendOnlineRoster(ctx, c)
}

// HandleHeartbeat refreshes the liveness TTL. No re-broadcast: the
// transition was announced once at connect.
func (t *Tracker) HandleHeartbeat(ctx context.Context, c *core.Client) {
	if err := t.store.Heartbeat(ctx, c.UserID); err != nil {
		t.log.Error().Err(err).Str("user_id", c.UserID).Msg("heartbeat failed")
	}
}

// HandleTyping sets or clears the typing flag and tells room peers.
// The typist is excluded from the broadcast.
func (t *Tracker) HandleTyping(ctx context.Context, c *core.Client, chatID string, isTyping bool) {
	var err error
	if isTyping {
		err = t.store.SetUserTyping(ctx, c.UserID, chatID)
	} else {
		err = t.store.StopUserTyping(ctx, c.UserID, chatID)
	}
	if err != nil {
		t.log.Error().Err(err).Str("user_id", c.UserID).Str("chat_id", chatID).Msg("typing state update failed")
	}

	if err := t.hub.Broadcast(core.ChatRoom(chatID), proto.OutChatTyping, proto.TypingEvent{
		ChatID:   chatID,
		UserID:   c.UserID,
		Username: c.Username,
		IsTyping: isTyping,
	}, c.ID, true); err != nil {
		t.log.Warn().Err(err).Str("chat_id", chatID).Msg("failed to broadcast typing")
	}
}

// HandleDisconnect deletes the liveness key and broadcasts the offline
// transition with a lastSeen stamp. Runs for transport close of any
// reason and for the explicit user:offline event.
func (t *Tracker) HandleDisconnect(ctx context.Context, c *core.Client) {
	if err := t.store.SetUserOffline(ctx, c.UserID); err != nil {
		t.log.Error().Err(err).Str("user_id", c.UserID).Msg("failed to set user offline")
	}

	if err := t.hub.BroadcastGlobal(proto.OutUserOffline, proto.PresenceEvent{
		UserID:   c.UserID,
		Username: c.Username,
		LastSeen: t.now().UTC().Format(time.RFC3339),
	}); err != nil {
		t.log.Warn().Err(err).Str("user_id", c.UserID).Msg("failed to broadcast offline")
	}
}

// sendOnlineRoster delivers users:online_initial straight to the new
// connection, not through the relay.
func (t *Tracker) sendOnlineRoster(ctx context.Context, c *core.Client) {
	users, err := t.store.OnlineUsers(ctx)
	if err != nil {
		t.log.Warn().Err(err).Msg("failed to enumerate online users")
		return
	}
	if users == nil {
		users = []string{}
	}
	ev, err := core.NewEvent(proto.OutUsersOnlineInit, users)
	if err != nil {
		t.log.Warn().Err(err).Msg("failed to encode online roster")
		return
	}
	c.Send(ev)
}
