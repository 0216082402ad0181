// Package provider contains the AI provider clients and the dispatcher
// that routes chat requests to them.
package provider

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Message is a single turn of conversation history sent to a provider.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result is the outcome of a successful provider call.
type Result struct {
	Response     string
	Model        string
	TokensUsed   *int
	ResponseTime float64
}

// Client generates a completion from one upstream AI provider.
type Client interface {
	// Generate sends the conversation history and returns the reply.
	Generate(ctx context.Context, history []Message) (*Result, error)

	// Name is the short provider identifier ("openai", "gemini", "claude").
	Name() string

	// Model is the reporting label stored with messages and usage rows.
	Model() string

	// Configured reports whether an API key is present.
	Configured() bool
}

// ErrNotConfigured is returned when a provider is called without an API key.
var ErrNotConfigured = errors.New("provider not configured")

// ModelInfo describes a selectable model for the model listing endpoint.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// AvailableModels returns the static catalog of selectable models.
func AvailableModels() []ModelInfo {
	return []ModelInfo{
		{
			ID:          "openai",
			Name:        "OpenAI GPT-4o",
			Description: "Advanced language model from OpenAI",
			Status:      "active",
		},
		{
			ID:          "gemini",
			Name:        "Google Gemini 2.5 Flash",
			Description: "Google's powerful multimodal AI",
			Status:      "active",
		},
		{
			ID:          "claude",
			Name:        "Claude 3.5 Sonnet",
			Description: "Anthropic's helpful and harmless AI",
			Status:      "active",
		},
	}
}

// defaultTimeout bounds every upstream provider call.
const defaultTimeout = 30 * time.Second

// newHTTPClient returns the shared default client for provider calls.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}
