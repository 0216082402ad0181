package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shosseini811/MultiGenQA/internal/model"
)

// CreateMessage inserts a new message into the database.
func (r *Repository) CreateMessage(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, role, content, model_used, timestamp, token_count, response_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.ModelUsed,
		msg.Timestamp,
		msg.TokenCount,
		msg.ResponseTime,
	)

	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// ListMessages retrieves all messages of a conversation in chronological order.
func (r *Repository) ListMessages(ctx context.Context, conversationID string) ([]*model.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, model_used, timestamp, token_count, response_time
		FROM messages
		WHERE conversation_id = $1
		ORDER BY timestamp ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		var msg model.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Role,
			&msg.Content,
			&msg.ModelUsed,
			&msg.Timestamp,
			&msg.TokenCount,
			&msg.ResponseTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// SaveAssistantMessage stores an assistant reply and bumps the conversation's
// updated_at in a single transaction.
func (r *Repository) SaveAssistantMessage(ctx context.Context, msg *model.Message, updatedAt time.Time) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	insertQuery := `
		INSERT INTO messages (id, conversation_id, role, content, model_used, timestamp, token_count, response_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err = tx.Exec(ctx, insertQuery,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Content,
		msg.ModelUsed,
		msg.Timestamp,
		msg.TokenCount,
		msg.ResponseTime,
	)
	if err != nil {
		return fmt.Errorf("failed to create assistant message: %w", err)
	}

	touchQuery := `
		UPDATE conversations
		SET updated_at = $2
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, touchQuery, msg.ConversationID, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrConversationNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit assistant message: %w", err)
	}

	return nil
}
