package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sobot-ai/sobot/internal/domain/botchat"
)

// BotChatService is the slice of the botchat domain the handler needs.
type BotChatService interface {
	GenerateChat(ctx context.Context, in botchat.GenerateChatInput) (*botchat.GenerateChatOutput, error)
}

// BotChatsHandler serves POST /api/v1/bot-chats.
type BotChatsHandler struct {
	service BotChatService
}

// NewBotChatsHandler creates the handler.
func NewBotChatsHandler(service BotChatService) *BotChatsHandler {
	return &BotChatsHandler{service: service}
}

type botChatsRequest struct {
	ChatRoomID int64                 `json:"chat_room_id"`
	Messages   []botchat.ChatMessage `json:"messages"`
}

type botChatsResponse struct {
	Message string                      `json:"message"`
	Data    *botchat.GenerateChatOutput `json:"data"`
}

// Generate handles a chat-generation request.
func (h *BotChatsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req botChatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	out, err := h.service.GenerateChat(r.Context(), botchat.GenerateChatInput{
		ChatRoomID: req.ChatRoomID,
		Messages:   req.Messages,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate bot chat message")
		return
	}

	writeJSON(w, http.StatusOK, botChatsResponse{
		Message: "Bot chat message generated successfully.",
		Data:    out,
	})
}
