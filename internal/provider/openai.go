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
	openAIDefaultBaseURL = "https://api.openai.com"
	openAIModel          = "gpt-4o"
	openAIModelLabel     = "openai-gpt-4o"
	openAIMaxTokens      = 1000
	openAITemperature    = 0.7
)

// OpenAIClient calls the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the OpenAI API.
func NewOpenAIClient(apiKey string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:     apiKey,
		baseURL:    openAIDefaultBaseURL,
		httpClient: newHTTPClient(),
	}
}

// WithBaseURL overrides the API base URL. Used in tests.
func (c *OpenAIClient) WithBaseURL(baseURL string) *OpenAIClient {
	c.baseURL = baseURL
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *OpenAIClient) WithHTTPClient(client *http.Client) *OpenAIClient {
	c.httpClient = client
	return c
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string { return "openai" }

// Model returns the reporting label for this provider.
func (c *OpenAIClient) Model() string { return openAIModelLabel }

// Configured reports whether an API key is present.
func (c *OpenAIClient) Configured() bool { return c.apiKey != "" }

type openAIRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type openAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate sends the full conversation history to the chat completions API.
func (c *OpenAIClient) Generate(ctx context.Context, history []Message) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	reqBody := openAIRequest{
		Model:       openAIModel,
		Messages:    history,
		MaxTokens:   openAIMaxTokens,
		Temperature: openAITemperature,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call openai: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openai returned status %d: %s", resp.StatusCode, body)
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode openai response: %w", err)
	}

	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	result := &Result{
		Response:     parsed.Choices[0].Message.Content,
		Model:        openAIModelLabel,
		ResponseTime: time.Since(start).Seconds(),
	}
	if parsed.Usage.TotalTokens > 0 {
		tokens := parsed.Usage.TotalTokens
		result.TokensUsed = &tokens
	}

	return result, nil
}
