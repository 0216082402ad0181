package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	claudeDefaultBaseURL   = "https://api.anthropic.com"
	claudeModel            = "claude-3-5-sonnet-20241022"
	claudeModelLabel       = "claude-3-5-sonnet"
	claudeMaxTokens        = 1000
	claudeAnthropicVersion = "2023-06-01"
)

// ClaudeClient calls the Anthropic messages API.
type ClaudeClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClaudeClient creates a client for the Anthropic API.
func NewClaudeClient(apiKey string) *ClaudeClient {
	return &ClaudeClient{
		apiKey:     apiKey,
		baseURL:    claudeDefaultBaseURL,
		httpClient: newHTTPClient(),
	}
}

// WithBaseURL overrides the API base URL. Used in tests.
func (c *ClaudeClient) WithBaseURL(baseURL string) *ClaudeClient {
	c.baseURL = baseURL
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *ClaudeClient) WithHTTPClient(client *http.Client) *ClaudeClient {
	c.httpClient = client
	return c
}

// Name returns the provider identifier.
func (c *ClaudeClient) Name() string { return "claude" }

// Model returns the reporting label for this provider.
func (c *ClaudeClient) Model() string { return claudeModelLabel }

// Configured reports whether an API key is present.
func (c *ClaudeClient) Configured() bool { return c.apiKey != "" }

type claudeRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []Message `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Generate sends the conversation history to the messages API. Only user
// and assistant turns are forwarded; the API rejects other roles.
func (c *ClaudeClient) Generate(ctx context.Context, history []Message) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	messages := make([]Message, 0, len(history))
	for _, msg := range history {
		if msg.Role == "user" || msg.Role == "assistant" {
			messages = append(messages, msg)
		}
	}

	reqBody := claudeRequest{
		Model:     claudeModel,
		MaxTokens: claudeMaxTokens,
		Messages:  messages,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal claude request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create claude request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", claudeAnthropicVersion)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call claude: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("claude returned status %d: %s", resp.StatusCode, body)
	}

	var parsed claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode claude response: %w", err)
	}

	if len(parsed.Content) == 0 {
		return nil, fmt.Errorf("claude returned no content")
	}

	result := &Result{
		Response:     parsed.Content[0].Text,
		Model:        claudeModelLabel,
		ResponseTime: time.Since(start).Seconds(),
	}
	if total := parsed.Usage.InputTokens + parsed.Usage.OutputTokens; total > 0 {
		result.TokensUsed = &total
	}

	return result, nil
}
