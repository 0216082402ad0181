package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	geminiDefaultBaseURL = "https://generativelanguage.googleapis.com"
	geminiModel          = "gemini-2.5-flash"
	geminiModelLabel     = "gemini-2.5-flash"
)

// GeminiClient calls the Google Gemini generateContent API.
type GeminiClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGeminiClient creates a client for the Gemini API.
func NewGeminiClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		apiKey:     apiKey,
		baseURL:    geminiDefaultBaseURL,
		httpClient: newHTTPClient(),
	}
}

// WithBaseURL overrides the API base URL. Used in tests.
func (c *GeminiClient) WithBaseURL(baseURL string) *GeminiClient {
	c.baseURL = baseURL
	return c
}

// WithHTTPClient overrides the HTTP client.
func (c *GeminiClient) WithHTTPClient(client *http.Client) *GeminiClient {
	c.httpClient = client
	return c
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() string { return "gemini" }

// Model returns the reporting label for this provider.
func (c *GeminiClient) Model() string { return geminiModelLabel }

// Configured reports whether an API key is present.
func (c *GeminiClient) Configured() bool { return c.apiKey != "" }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate flattens the user turns of the history into a single prompt and
// calls the generateContent endpoint. Assistant turns are dropped; the API
// shape here is single-prompt rather than multi-turn.
func (c *GeminiClient) Generate(ctx context.Context, history []Message) (*Result, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var userTurns []string
	for _, msg := range history {
		if msg.Role == "user" {
			userTurns = append(userTurns, msg.Content)
		}
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: strings.Join(userTurns, "\n")}}},
		},
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, geminiModel, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("create gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("gemini returned status %d: %s", resp.StatusCode, body)
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", err)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	// The generateContent response carries no usage metadata in this shape,
	// so TokensUsed stays nil.
	return &Result{
		Response:     parsed.Candidates[0].Content.Parts[0].Text,
		Model:        geminiModelLabel,
		ResponseTime: time.Since(start).Seconds(),
	}, nil
}
