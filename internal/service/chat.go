// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shosseini811/MultiGenQA/internal/metrics"
	"github.com/shosseini811/MultiGenQA/internal/model"
	"github.com/shosseini811/MultiGenQA/internal/provider"
)

// Service errors.
var (
	ErrInvalidModel         = errors.New("invalid model")
	ErrEmptyMessages        = errors.New("messages are required")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrGenerationFailed     = errors.New("generation failed")
)

// titleMaxLength caps conversation titles derived from the first message.
const titleMaxLength = 50

// ChatStore is the persistence surface the chat flow needs.
type ChatStore interface {
	CreateConversation(ctx context.Context, conv *model.Conversation) error
	GetConversation(ctx context.Context, id, userID string) (*model.Conversation, error)
	CreateMessage(ctx context.Context, msg *model.Message) error
	SaveAssistantMessage(ctx context.Context, msg *model.Message, updatedAt time.Time) error
}

// Generator dispatches a chat request to an AI provider.
type Generator interface {
	Generate(ctx context.Context, providerName, userID string, history []provider.Message) (*provider.Result, error)
}

// ChatService orchestrates a chat turn: conversation resolution, message
// persistence and provider dispatch.
type ChatService struct {
	store   ChatStore
	ai      Generator
	metrics metrics.Recorder
}

// NewChatService creates a new ChatService.
func NewChatService(store ChatStore, ai Generator, recorder metrics.Recorder) *ChatService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &ChatService{
		store:   store,
		ai:      ai,
		metrics: recorder,
	}
}

// ChatInput defines input for one chat turn.
type ChatInput struct {
	UserID         string
	Model          string
	ConversationID string
	Messages       []provider.Message
}

// ChatOutput is the result of a completed chat turn.
type ChatOutput struct {
	Response       string
	Model          string
	ConversationID string
	TokensUsed     *int
	ResponseTime   float64
}

// validModels are the selectable provider identifiers.
var validModels = map[string]bool{
	"openai": true,
	"gemini": true,
	"claude": true,
}

// Chat runs one chat turn. The caller supplies the full conversation
// history; only the latest user message is persisted alongside the
// assistant reply.
func (s *ChatService) Chat(ctx context.Context, input ChatInput) (*ChatOutput, error) {
	if !validModels[input.Model] {
		return nil, ErrInvalidModel
	}
	if len(input.Messages) == 0 {
		return nil, ErrEmptyMessages
	}

	conv, err := s.resolveConversation(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Persist the latest user message before dispatching so that a failed
	// generation still leaves the user's turn in the conversation.
	last := input.Messages[len(input.Messages)-1]
	if last.Role == model.RoleUser {
		userMsg := &model.Message{
			ID:             ulid.Make().String(),
			ConversationID: conv.ID,
			Role:           model.RoleUser,
			Content:        last.Content,
			Timestamp:      now,
		}
		if err := s.store.CreateMessage(ctx, userMsg); err != nil {
			return nil, err
		}
		s.metrics.IncMessageSaved(model.RoleUser)
	}

	result, err := s.ai.Generate(ctx, input.Model, input.UserID, input.Messages)
	if err != nil {
		return nil, ErrGenerationFailed
	}

	tokens := result.TokensUsed
	latency := result.ResponseTime
	assistantMsg := &model.Message{
		ID:             ulid.Make().String(),
		ConversationID: conv.ID,
		Role:           model.RoleAssistant,
		Content:        result.Response,
		ModelUsed:      &result.Model,
		Timestamp:      time.Now().UTC(),
		TokenCount:     tokens,
		ResponseTime:   &latency,
	}
	if err := s.store.SaveAssistantMessage(ctx, assistantMsg, assistantMsg.Timestamp); err != nil {
		return nil, err
	}
	s.metrics.IncMessageSaved(model.RoleAssistant)

	return &ChatOutput{
		Response:       result.Response,
		Model:          result.Model,
		ConversationID: conv.ID,
		TokensUsed:     tokens,
		ResponseTime:   latency,
	}, nil
}

// resolveConversation loads an existing conversation or creates a new one
// titled from the first message.
func (s *ChatService) resolveConversation(ctx context.Context, input ChatInput) (*model.Conversation, error) {
	if input.ConversationID != "" {
		conv, err := s.store.GetConversation(ctx, input.ConversationID, input.UserID)
		if err != nil {
			return nil, ErrConversationNotFound
		}
		return conv, nil
	}

	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.New().String(),
		UserID:    input.UserID,
		Title:     conversationTitle(input.Messages[0].Content),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	s.metrics.IncConversationCreated()

	return conv, nil
}

// conversationTitle derives a title from the opening message.
func conversationTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleMaxLength {
		runes = runes[:titleMaxLength]
	}
	return string(runes) + "..."
}
