package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shosseini811/MultiGenQA/internal/auth"
	"github.com/shosseini811/MultiGenQA/internal/model"
	"github.com/shosseini811/MultiGenQA/internal/repository"
)

// ConversationStore is the persistence surface the conversation
// endpoints need.
type ConversationStore interface {
	ListConversations(ctx context.Context, userID string, limit int) ([]*model.Conversation, error)
	GetConversation(ctx context.Context, id, userID string) (*model.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]*model.Message, error)
}

// ConversationHandler handles conversation history endpoints.
type ConversationHandler struct {
	store  ConversationStore
	logger *slog.Logger
}

// NewConversationHandler creates a new ConversationHandler.
func NewConversationHandler(store ConversationStore, logger *slog.Logger) *ConversationHandler {
	return &ConversationHandler{
		store:  store,
		logger: logger,
	}
}

// List handles GET /api/conversations.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())

	conversations, err := h.store.ListConversations(r.Context(), user.ID, repository.DefaultConversationLimit)
	if err != nil {
		h.logger.Error("failed to list conversations",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to load conversations")
		return
	}

	if conversations == nil {
		conversations = []*model.Conversation{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"conversations": conversations,
	})
}

// Get handles GET /api/conversations/{id}.
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())
	id := chi.URLParam(r, "id")

	conv, err := h.store.GetConversation(r.Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrConversationNotFound) {
			writeError(w, http.StatusNotFound, "Conversation not found")
			return
		}
		h.logger.Error("failed to get conversation",
			slog.String("conversation_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	messages, err := h.store.ListMessages(r.Context(), conv.ID)
	if err != nil {
		h.logger.Error("failed to list messages",
			slog.String("conversation_id", id),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Failed to load conversation")
		return
	}

	if messages == nil {
		messages = []*model.Message{}
	}
	conv.Messages = messages
	conv.MessageCount = len(messages)

	writeJSON(w, http.StatusOK, map[string]any{
		"conversation": conv,
	})
}
