package http

import (
	"encoding/json"

	"github.com/sochat/realtime-server/internal/core"
	"github.com/sochat/realtime-server/internal/proto"
)

// inboundToCommand maps a wire envelope onto the closed command set.
// The switch is exhaustive over the protocol's client events; anything
// else is a protocol error, not a registration lookup miss.
func inboundToCommand(in proto.Inbound) (*core.Command, *proto.ErrorEvent) {
	switch in.Type {
	case proto.InChatJoin:
		var data proto.JoinData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badPayload(in.Type)
		}
		return &core.Command{Kind: core.CommandJoinChat, ChatID: data.ChatID}, nil

	case proto.InChatMessage:
		var data proto.MessageData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badPayload(in.Type)
		}
		return &core.Command{
			Kind:     core.CommandSendMessage,
			ChatID:   data.ChatID,
			Content:  data.Content,
			TempID:   data.TempID,
			MediaIDs: data.MediaIDs,
		}, nil

	case proto.InChatTyping:
		var data proto.TypingData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badPayload(in.Type)
		}
		return &core.Command{
			Kind:     core.CommandTyping,
			ChatID:   data.ChatID,
			IsTyping: data.IsTyping,
		}, nil

	case proto.InChatRead:
		var data proto.ReadData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badPayload(in.Type)
		}
		return &core.Command{
			Kind:      core.CommandMarkRead,
			ChatID:    data.ChatID,
			MessageID: data.MessageID,
		}, nil

	case proto.InChatReaction:
		var data proto.ReactionData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badPayload(in.Type)
		}
		return &core.Command{
			Kind:      core.CommandReaction,
			ChatID:    data.ChatID,
			MessageID: data.MessageID,
			Reaction:  data.Reaction,
		}, nil

	case proto.InChatDelete:
		var data proto.DeleteData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return nil, badPayload(in.Type)
		}
		return &core.Command{
			Kind:      core.CommandDeleteMessage,
			ChatID:    data.ChatID,
			MessageID: data.MessageID,
		}, nil

	case proto.InUserOnline:
		return &core.Command{Kind: core.CommandHeartbeat}, nil

	case proto.InUserOffline:
		return &core.Command{Kind: core.CommandGoOffline}, nil
	}

	return nil, &proto.ErrorEvent{
		Message: "Unknown event type: " + in.Type,
		Code:    core.ErrCodeBadRequest,
	}
}

func badPayload(eventType string) *proto.ErrorEvent {
	return &proto.ErrorEvent{
		Message: "Malformed payload for " + eventType,
		Code:    core.ErrCodeBadRequest,
	}
}
