// Package chat is the event fan-out engine: validate, stamp with server
// authority fields, append to the durable log and broadcast to the
// room. The log append is strictly decoupled from the broadcast.
package chat

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sochat/realtime-server/internal/core"
	"github.com/sochat/realtime-server/internal/eventlog"
	"github.com/sochat/realtime-server/internal/proto"
)

// MessageRecord is the durable-log form of a message: the broadcast
// payload minus display denormalization, plus nothing hidden from the
// log consumers.
type MessageRecord struct {
	ID        string   `json:"id"`
	ChatID    string   `json:"chatId"`
	SenderID  string   `json:"senderId"`
	Content   string   `json:"content"`
	CreatedAt string   `json:"createdAt"`
	MediaIDs  []string `json:"mediaIds,omitempty"`
}

// ReadRecord is the durable-log form of a seen receipt.
type ReadRecord struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	ReadAt    string `json:"readAt"`
}

// ReactionRecord is the durable-log form of a reaction.
type ReactionRecord struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	UserID    string `json:"userId"`
	ChatID    string `json:"chatId"`
	CreatedAt string `json:"createdAt"`
}

// DeleteRecord is the durable-log form of a tombstone. The original
// message is never erased from the log.
type DeleteRecord struct {
	ChatID    string `json:"chatId"`
	MessageID string `json:"messageId"`
	UserID    string `json:"userId"`
	DeletedAt string `json:"deletedAt"`
}

// Service fans validated room events out to the log and the room.
type Service struct {
	hub      *core.Hub
	eventLog eventlog.Publisher
	log      *zerolog.Logger

	maxMessageLen int

	now   func() time.Time
	newID func() string
}

// NewService builds the fan-out engine.
func NewService(hub *core.Hub, eventLog eventlog.Publisher, maxMessageLen int, logger *zerolog.Logger) *Service {
	return &Service{
		hub:           hub,
		eventLog:      eventLog,
		log:           logger,
		maxMessageLen: maxMessageLen,
		now:           time.Now,
		newID:         func() string { return uuid.NewString() },
	}
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

// HandleMessage assigns the server id and timestamp, logs the record
// and broadcasts to the whole room, sender included: the sender needs
// the server id (and its echoed tempId) to reconcile its optimistic
// local copy.
func (s *Service) HandleMessage(c *core.Client, cmd core.Command) *core.CoreError {
	if cmd.Content == "" && len(cmd.MediaIDs) == 0 {
		return core.NewCoreError(core.ErrCodeBadRequest, "Message content is empty")
	}
	if s.maxMessageLen > 0 && len([]rune(cmd.Content)) > s.maxMessageLen {
		return core.NewCoreError(core.ErrCodeBadRequest, "Message content too long")
	}

	messageID := s.newID()
	createdAt := s.timestamp()

	s.eventLog.Publish(eventlog.TopicMessageSent, cmd.ChatID, MessageRecord{
		ID:        messageID,
		ChatID:    cmd.ChatID,
		SenderID:  c.UserID,
		Content:   cmd.Content,
		CreatedAt: createdAt,
		MediaIDs:  cmd.MediaIDs,
	})

	mediaIDs := cmd.MediaIDs
	if mediaIDs == nil {
		mediaIDs = []string{}
	}
	if err := s.hub.Broadcast(core.ChatRoom(cmd.ChatID), proto.OutChatMessage, proto.MessageEvent{
		ID:             messageID,
		ChatID:         cmd.ChatID,
		SenderID:       c.UserID,
		SenderUsername: c.Username,
		SenderName:     c.Name,
		Content:        cmd.Content,
		Type:           "USER",
		CreatedAt:      createdAt,
		TempID:         cmd.TempID,
		MediaIDs:       mediaIDs,
	}, c.ID, false); err != nil {
		s.log.Error().Err(err).Str("chat_id", cmd.ChatID).Msg("failed to broadcast message")
		return core.ErrInternal()
	}

	s.log.Debug().Str("chat_id", cmd.ChatID).Str("user_id", c.UserID).Msg("message fanned out")
	return nil
}

// HandleRead logs and broadcasts a seen receipt to room peers; the
// reader already knows it read the message.
func (s *Service) HandleRead(c *core.Client, cmd core.Command) *core.CoreError {
	if cmd.MessageID == "" {
		return core.NewCoreError(core.ErrCodeBadRequest, "Missing messageId")
	}

	readAt := s.timestamp()

	s.eventLog.Publish(eventlog.TopicMessageRead, cmd.ChatID, ReadRecord{
		ChatID:    cmd.ChatID,
		MessageID: cmd.MessageID,
		UserID:    c.UserID,
		ReadAt:    readAt,
	})

	if err := s.hub.Broadcast(core.ChatRoom(cmd.ChatID), proto.OutChatRead, proto.ReadEvent{
		ChatID:    cmd.ChatID,
		MessageID: cmd.MessageID,
		UserID:    c.UserID,
		ReadAt:    readAt,
	}, c.ID, true); err != nil {
		s.log.Error().Err(err).Str("chat_id", cmd.ChatID).Msg("failed to broadcast read receipt")
		return core.ErrInternal()
	}
	return nil
}

// HandleReaction logs and broadcasts a reaction to room peers.
func (s *Service) HandleReaction(c *core.Client, cmd core.Command) *core.CoreError {
	if cmd.MessageID == "" || cmd.Reaction == "" {
		return core.NewCoreError(core.ErrCodeBadRequest, "Missing messageId or reaction")
	}

	createdAt := s.timestamp()

	s.eventLog.Publish(eventlog.TopicReaction, cmd.ChatID, ReactionRecord{
		MessageID: cmd.MessageID,
		Reaction:  cmd.Reaction,
		UserID:    c.UserID,
		ChatID:    cmd.ChatID,
		CreatedAt: createdAt,
	})

	if err := s.hub.Broadcast(core.ChatRoom(cmd.ChatID), proto.OutChatReaction, proto.ReactionEvent{
		MessageID: cmd.MessageID,
		Reaction:  cmd.Reaction,
		UserID:    c.UserID,
		Username:  c.Username,
		CreatedAt: createdAt,
	}, c.ID, true); err != nil {
		s.log.Error().Err(err).Str("chat_id", cmd.ChatID).Msg("failed to broadcast reaction")
		return core.ErrInternal()
	}
	return nil
}

// HandleDelete logs the tombstone and broadcasts it to the whole room,
// sender included, so every client drops the message together.
func (s *Service) HandleDelete(c *core.Client, cmd core.Command) *core.CoreError {
	if cmd.MessageID == "" {
		return core.NewCoreError(core.ErrCodeBadRequest, "Missing messageId")
	}

	deletedAt := s.timestamp()

	s.eventLog.Publish(eventlog.TopicMessageDeleted, cmd.ChatID, DeleteRecord{
		ChatID:    cmd.ChatID,
		MessageID: cmd.MessageID,
		UserID:    c.UserID,
		DeletedAt: deletedAt,
	})

	if err := s.hub.Broadcast(core.ChatRoom(cmd.ChatID), proto.OutChatDelete, proto.DeleteEvent{
		ChatID:    cmd.ChatID,
		MessageID: cmd.MessageID,
		UserID:    c.UserID,
		DeletedAt: deletedAt,
	}, c.ID, false); err != nil {
		s.log.Error().Err(err).Str("chat_id", cmd.ChatID).Msg("failed to broadcast delete")
		return core.ErrInternal()
	}
	return nil
}
