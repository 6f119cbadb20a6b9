// Package botchat is the chat-message counterpart of botpost. Generation is
// not implemented yet: the service returns a fixed placeholder so the HTTP
// surface and response shape are stable for integrators.
package botchat

import (
	"context"
	"log/slog"
)

// PlaceholderContent is returned for every chat request until real chat
// generation lands.
const PlaceholderContent = "This is a placeholder bot chat message."

// ChatMessage is one prior message in a chat room.
type ChatMessage struct {
	Nickname string `json:"nickname,omitempty"`
	Content  string `json:"content"`
}

// GenerateChatInput is a chat-generation request.
type GenerateChatInput struct {
	ChatRoomID int64         `json:"chat_room_id"`
	Messages   []ChatMessage `json:"messages"`
}

// GenerateChatOutput is the generated chat message.
type GenerateChatOutput struct {
	ChatRoomID int64  `json:"chat_room_id"`
	Content    string `json:"content"`
}

// Service generates bot chat messages.
type Service struct {
	logger *slog.Logger
}

// NewService creates the chat service. logger may be nil.
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// GenerateChat returns a placeholder message. No validation, no model call.
// TODO: build a chat prompt from the room history and route it through the
// model backend the way botpost does.
func (s *Service) GenerateChat(_ context.Context, in GenerateChatInput) (*GenerateChatOutput, error) {
	s.logger.Info("chat generation requested",
		"chat_room_id", in.ChatRoomID,
		"message_count", len(in.Messages),
	)
	return &GenerateChatOutput{
		ChatRoomID: in.ChatRoomID,
		Content:    PlaceholderContent,
	}, nil
}
