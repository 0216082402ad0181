package model

import "time"

// Message roles. Exactly two values exist.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single turn within a conversation. Immutable once created.
// ModelUsed, TokenCount and ResponseTime are set on assistant turns only.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"-"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	ModelUsed      *string   `json:"model_used"`
	Timestamp      time.Time `json:"timestamp"`
	TokenCount     *int      `json:"token_count"`
	ResponseTime   *float64  `json:"response_time"`
}
