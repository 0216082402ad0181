package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shosseini811/MultiGenQA/internal/auth"
	"github.com/shosseini811/MultiGenQA/internal/provider"
	"github.com/shosseini811/MultiGenQA/internal/service"
)

// ChatHandler handles the chat endpoint.
type ChatHandler struct {
	svc    *service.ChatService
	logger *slog.Logger
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(svc *service.ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{
		svc:    svc,
		logger: logger,
	}
}

type chatRequest struct {
	Model          string             `json:"model"`
	Messages       []provider.Message `json:"messages"`
	ConversationID string             `json:"conversation_id"`
}

// Chat handles POST /api/chat.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	out, err := h.svc.Chat(r.Context(), service.ChatInput{
		UserID:         user.ID,
		Model:          req.Model,
		ConversationID: req.ConversationID,
		Messages:       req.Messages,
	})
	if err != nil {
		h.handleChatError(w, r, err)
		return
	}

	h.logger.Info("chat completed",
		slog.String("user_id", user.ID),
		slog.String("model", out.Model),
		slog.String("conversation_id", out.ConversationID),
	)

	writeJSON(w, http.StatusOK, map[string]any{
		"response":        out.Response,
		"model":           out.Model,
		"conversation_id": out.ConversationID,
		"status":          "success",
		"metadata": map[string]any{
			"tokens_used":   out.TokensUsed,
			"response_time": out.ResponseTime,
		},
	})
}

// handleChatError maps service errors to HTTP responses.
func (h *ChatHandler) handleChatError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidModel):
		writeError(w, http.StatusBadRequest, "Invalid model. Choose one of: openai, gemini, claude")
	case errors.Is(err, service.ErrEmptyMessages):
		writeError(w, http.StatusBadRequest, "Messages are required")
	case errors.Is(err, service.ErrConversationNotFound):
		writeError(w, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, service.ErrGenerationFailed):
		writeError(w, http.StatusInternalServerError, "Failed to get AI response")
	default:
		h.logger.Error("chat request failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
