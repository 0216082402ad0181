//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

const testPassword = "Sup3r$ecretPwd"

type registerResponse struct {
	Message           string         `json:"message"`
	User              map[string]any `json:"user"`
	VerificationToken string         `json:"verification_token"`
}

type loginResponse struct {
	Message string         `json:"message"`
	Token   string         `json:"token"`
	User    map[string]any `json:"user"`
}

type chatResponse struct {
	Response       string `json:"response"`
	Model          string `json:"model"`
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
}

func TestE2ESmoke(t *testing.T) {
	baseURL := envOrDefault("API_BASE_URL", "http://localhost:8080")

	email := uniqueEmail()
	reg := registerUser(t, baseURL, email)
	if reg.VerificationToken == "" {
		t.Fatalf("register response missing verification_token")
	}
	if verified, _ := reg.User["is_verified"].(bool); verified {
		t.Fatalf("new user should not be verified")
	}

	token := login(t, baseURL, email)

	var me struct {
		User map[string]any `json:"user"`
	}
	status := doJSON(t, http.MethodGet, baseURL+"/api/auth/me", token, nil, &me)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /api/auth/me, got %d", status)
	}
	if me.User["email"] != email {
		t.Fatalf("expected email %q, got %v", email, me.User["email"])
	}

	var models struct {
		Models []map[string]any `json:"models"`
	}
	status = doJSON(t, http.MethodGet, baseURL+"/api/models", "", nil, &models)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /api/models, got %d", status)
	}
	if len(models.Models) != 3 {
		t.Fatalf("expected 3 models, got %d", len(models.Models))
	}

	var convs struct {
		Conversations []map[string]any `json:"conversations"`
	}
	status = doJSON(t, http.MethodGet, baseURL+"/api/conversations", token, nil, &convs)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /api/conversations, got %d", status)
	}
	if len(convs.Conversations) != 0 {
		t.Fatalf("new user should have no conversations, got %d", len(convs.Conversations))
	}

	var usage struct {
		Period string           `json:"period"`
		Usage  []map[string]any `json:"usage"`
	}
	status = doJSON(t, http.MethodGet, baseURL+"/api/usage", token, nil, &usage)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /api/usage, got %d", status)
	}
	if usage.Period != "30_days" {
		t.Fatalf("expected period 30_days, got %q", usage.Period)
	}

	verifyEmail(t, baseURL, reg.VerificationToken)

	// Token is single-use
	payload := map[string]any{"token": reg.VerificationToken}
	status = doJSON(t, http.MethodPost, baseURL+"/api/auth/verify-email", "", payload, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 on reused verification token, got %d", status)
	}

	status = doJSON(t, http.MethodPost, baseURL+"/api/auth/logout", token, nil, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from logout, got %d", status)
	}
}

// TestE2EChatFlow exercises a real provider round trip. Requires the server
// to hold at least one provider key; set E2E_CHAT_MODEL to enable.
func TestE2EChatFlow(t *testing.T) {
	model := os.Getenv("E2E_CHAT_MODEL")
	if model == "" {
		t.Skip("E2E_CHAT_MODEL not set - skipping live provider test")
	}

	baseURL := envOrDefault("API_BASE_URL", "http://localhost:8080")

	email := uniqueEmail()
	registerUser(t, baseURL, email)
	token := login(t, baseURL, email)

	payload := map[string]any{
		"model": model,
		"messages": []map[string]string{
			{"role": "user", "content": "Reply with the single word: pong"},
		},
	}

	var chat chatResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/chat", token, payload, &chat)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /api/chat, got %d", status)
	}
	if chat.Status != "success" || chat.Response == "" || chat.ConversationID == "" {
		t.Fatalf("unexpected chat response: %+v", chat)
	}

	// The turn must be persisted with both roles
	var detail struct {
		Conversation struct {
			MessageCount int              `json:"message_count"`
			Messages     []map[string]any `json:"messages"`
		} `json:"conversation"`
	}
	status = doJSON(t, http.MethodGet, baseURL+"/api/conversations/"+chat.ConversationID, token, nil, &detail)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from conversation fetch, got %d", status)
	}
	if detail.Conversation.MessageCount != 2 {
		t.Fatalf("expected 2 messages, got %d", detail.Conversation.MessageCount)
	}

	var usage struct {
		Usage []map[string]any `json:"usage"`
	}
	status = doJSON(t, http.MethodGet, baseURL+"/api/usage", token, nil, &usage)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from /api/usage, got %d", status)
	}
	if len(usage.Usage) == 0 {
		t.Fatalf("expected a usage row after chat")
	}
}

// TestE2ERateLimiting validates that rate limiting returns 429 with proper headers.
func TestE2ERateLimiting(t *testing.T) {
	baseURL := envOrDefault("API_BASE_URL", "http://localhost:8080")

	client := &http.Client{Timeout: 10 * time.Second}
	payload, _ := json.Marshal(map[string]string{
		"email":    uniqueEmail(),
		"password": "wrong",
	})

	var rateLimited bool
	var lastResp *http.Response

	// Login allows 10/min; try 25 requests rapidly
	for i := 0; i < 25; i++ {
		req, err := http.NewRequest(http.MethodPost, baseURL+"/api/auth/login", bytes.NewReader(payload))
		if err != nil {
			t.Fatalf("create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			rateLimited = true
			lastResp = resp
			break
		}
		resp.Body.Close()
	}

	if !rateLimited {
		t.Fatalf("expected 429 after burst, but never hit rate limit")
	}

	defer lastResp.Body.Close()

	if lastResp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After header on 429 response")
	}

	var errResp map[string]any
	if err := json.NewDecoder(lastResp.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode 429 response: %v", err)
	}
	if errResp["error"] == nil {
		t.Error("429 response missing 'error' field")
	}
}

// TestE2ENoSecretsInResponses validates that passwords and tokens are not
// echoed back in error responses.
func TestE2ENoSecretsInResponses(t *testing.T) {
	baseURL := envOrDefault("API_BASE_URL", "http://localhost:8080")

	client := &http.Client{Timeout: 10 * time.Second}

	email := uniqueEmail()
	registerUser(t, baseURL, email)

	// Failed login must not echo the password
	payload, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": testPassword + "-wrong",
	})
	resp, err := client.Post(baseURL+"/api/auth/login", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if strings.Contains(string(body), testPassword) {
		t.Error("SECURITY: Error response leaked the submitted password")
	}

	// Rejected bearer token must not be echoed
	fakeToken := "eyJ-fake-" + strings.Repeat("x", 32)
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/conversations", nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+fakeToken)

	resp2, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if resp2.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for fake token, got %d", resp2.StatusCode)
	}
	if strings.Contains(string(body2), fakeToken) {
		t.Error("SECURITY: Error response leaked Authorization header value")
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func uniqueEmail() string {
	return fmt.Sprintf("e2e-%d@example.com", time.Now().UnixNano())
}

func registerUser(t *testing.T, baseURL, email string) registerResponse {
	t.Helper()

	payload := map[string]string{
		"email":      email,
		"password":   testPassword,
		"first_name": "E2E",
		"last_name":  "Smoke",
	}

	var resp registerResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/auth/register", "", payload, &resp)
	if status != http.StatusCreated {
		t.Fatalf("expected 201 from register, got %d", status)
	}
	return resp
}

func login(t *testing.T, baseURL, email string) string {
	t.Helper()

	payload := map[string]string{
		"email":    email,
		"password": testPassword,
	}

	var resp loginResponse
	status := doJSON(t, http.MethodPost, baseURL+"/api/auth/login", "", payload, &resp)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from login, got %d", status)
	}
	if resp.Token == "" {
		t.Fatalf("login response missing token")
	}
	return resp.Token
}

func verifyEmail(t *testing.T, baseURL, token string) {
	t.Helper()

	payload := map[string]any{"token": token}
	status := doJSON(t, http.MethodPost, baseURL+"/api/auth/verify-email", "", payload, nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200 from verify-email, got %d", status)
	}
}

func doJSON(t *testing.T, method, url, token string, body any, out any) int {
	t.Helper()

	var buf io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		buf = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if strings.TrimSpace(token) != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request %s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	if out != nil {
		decoder := json.NewDecoder(resp.Body)
		if err := decoder.Decode(out); err != nil && resp.ContentLength != 0 {
			t.Fatalf("decode response: %v", err)
		}
	}

	return resp.StatusCode
}
