package model

import "time"

// Conversation is a titled thread of messages owned by one user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	IsActive  bool      `json:"is_active"`

	// MessageCount is populated by listing queries, not stored.
	MessageCount int `json:"message_count"`

	// Messages is populated only when a single conversation is fetched.
	Messages []*Message `json:"messages,omitempty"`
}
