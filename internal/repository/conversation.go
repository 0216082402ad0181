package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shosseini811/MultiGenQA/internal/model"
)

// ErrConversationNotFound is returned when a conversation does not exist
// or belongs to another user.
var ErrConversationNotFound = errors.New("conversation not found")

// DefaultConversationLimit caps conversation listings.
const DefaultConversationLimit = 50

// CreateConversation inserts a new conversation into the database.
func (r *Repository) CreateConversation(ctx context.Context, conv *model.Conversation) error {
	query := `
		INSERT INTO conversations (id, user_id, title, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		conv.ID,
		conv.UserID,
		conv.Title,
		conv.IsActive,
		conv.CreatedAt,
		conv.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	return nil
}

// GetConversation retrieves a conversation by ID, scoped to its owner.
func (r *Repository) GetConversation(ctx context.Context, id, userID string) (*model.Conversation, error) {
	query := `
		SELECT id, user_id, title, is_active, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_id = $2 AND is_active = TRUE
	`

	var conv model.Conversation
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&conv.ID,
		&conv.UserID,
		&conv.Title,
		&conv.IsActive,
		&conv.CreatedAt,
		&conv.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	return &conv, nil
}

// ListConversations retrieves a user's active conversations, most recently
// updated first, with message counts included.
func (r *Repository) ListConversations(ctx context.Context, userID string, limit int) ([]*model.Conversation, error) {
	if limit <= 0 || limit > DefaultConversationLimit {
		limit = DefaultConversationLimit
	}

	query := `
		SELECT c.id, c.user_id, c.title, c.is_active, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id) AS message_count
		FROM conversations c
		WHERE c.user_id = $1 AND c.is_active = TRUE
		ORDER BY c.updated_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var conversations []*model.Conversation
	for rows.Next() {
		var conv model.Conversation
		err := rows.Scan(
			&conv.ID,
			&conv.UserID,
			&conv.Title,
			&conv.IsActive,
			&conv.CreatedAt,
			&conv.UpdatedAt,
			&conv.MessageCount,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		conversations = append(conversations, &conv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conversations: %w", err)
	}

	return conversations, nil
}
