package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sobot-ai/sobot/internal/domain/botpost"
)

// BotPostService is the slice of the botpost domain the handler needs.
type BotPostService interface {
	GeneratePost(ctx context.Context, in botpost.GeneratePostInput) (*botpost.GeneratePostOutput, error)
}

// BotPostsHandler serves POST /api/v1/bot-posts.
type BotPostsHandler struct {
	service BotPostService
}

// NewBotPostsHandler creates the handler.
func NewBotPostsHandler(service BotPostService) *BotPostsHandler {
	return &BotPostsHandler{service: service}
}

type botPostsRequest struct {
	BoardType string         `json:"board_type"`
	Posts     []botpost.Post `json:"posts"`
}

type botPostsResponse struct {
	Message string                      `json:"message"`
	Data    *botpost.GeneratePostOutput `json:"data"`
}

// Generate handles a post-generation request.
//
// Status mapping: invalid post count → 400 with a fixed message; any other
// generation failure → 500 with a generic message (detail stays in the log
// and the trace).
func (h *BotPostsHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req botPostsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BoardType == "" {
		writeError(w, http.StatusBadRequest, "board_type is required")
		return
	}

	out, err := h.service.GeneratePost(r.Context(), botpost.GeneratePostInput{
		BoardType: req.BoardType,
		Posts:     req.Posts,
	})
	if err != nil {
		switch {
		case errors.Is(err, botpost.ErrInvalidPostCount):
			writeError(w, http.StatusBadRequest, "invalid number of posts")
		default:
			writeError(w, http.StatusInternalServerError, "failed to generate bot post")
		}
		return
	}

	writeJSON(w, http.StatusOK, botPostsResponse{
		Message: "Bot post created successfully.",
		Data:    out,
	})
}
