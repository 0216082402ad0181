package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shosseini811/MultiGenQA/internal/auth"
	"github.com/shosseini811/MultiGenQA/internal/metrics"
	"github.com/shosseini811/MultiGenQA/internal/model"
	"github.com/shosseini811/MultiGenQA/internal/repository"
)

type fakeUserStore struct {
	byEmail map[string]*model.User
	byToken map[string]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byEmail: make(map[string]*model.User),
		byToken: make(map[string]*model.User),
	}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, user *model.User) error {
	if _, exists := f.byEmail[user.Email]; exists {
		return repository.ErrEmailExists
	}
	f.byEmail[user.Email] = user
	if user.EmailVerificationToken != nil {
		f.byToken[*user.EmailVerificationToken] = user
	}
	return nil
}

func (f *fakeUserStore) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	user, ok := f.byToken[token]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserStore) UpdateLoginTimestamps(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (f *fakeUserStore) SetUserVerified(ctx context.Context, id string) error {
	for _, user := range f.byEmail {
		if user.ID == id {
			user.IsVerified = true
			user.EmailVerificationToken = nil
			return nil
		}
	}
	return repository.ErrUserNotFound
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthHandler(store *fakeUserStore) *AuthHandler {
	tokens := auth.NewTokenService("handler-test-secret", time.Hour)
	return NewAuthHandler(store, tokens, metrics.NewInMemory(), testLogger())
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegister_Success(t *testing.T) {
	store := newFakeUserStore()
	h := newAuthHandler(store)

	rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"email":      "New.User@Example.com",
		"password":   "Str0ng!pass",
		"first_name": "New",
		"last_name":  "User",
	})

	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Message           string     `json:"message"`
		User              model.User `json:"user"`
		VerificationToken string     `json:"verification_token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if body.Message != "User registered successfully" {
		t.Errorf("Unexpected message: %q", body.Message)
	}
	if body.User.Email != "new.user@example.com" {
		t.Errorf("Expected normalized email, got %q", body.User.Email)
	}
	if body.VerificationToken == "" {
		t.Error("Expected a verification token")
	}

	stored, ok := store.byEmail["new.user@example.com"]
	if !ok {
		t.Fatal("User not persisted under normalized email")
	}
	if stored.PasswordHash == "Str0ng!pass" || stored.PasswordHash == "" {
		t.Error("Password must be stored hashed")
	}
	if stored.IsVerified {
		t.Error("New user must start unverified")
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	h := newAuthHandler(newFakeUserStore())

	rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"email":      "not-an-email",
		"password":   "weak",
		"first_name": "A",
		"last_name":  "",
	})

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400, got %d", rec.Code)
	}

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	for _, field := range []string{"email", "password", "first_name", "last_name"} {
		if len(body.Errors[field]) == 0 {
			t.Errorf("Expected errors for %q", field)
		}
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	store := newFakeUserStore()
	store.byEmail["dup@example.com"] = &model.User{ID: "u1", Email: "dup@example.com"}
	h := newAuthHandler(store)

	rec := postJSON(t, h.Register, "/api/auth/register", map[string]string{
		"email":      "dup@example.com",
		"password":   "Str0ng!pass",
		"first_name": "Dup",
		"last_name":  "User",
	})

	if rec.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rec.Code)
	}

	var body struct {
		Errors map[string][]string `json:"errors"`
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if len(body.Errors["email"]) == 0 || body.Errors["email"][0] != "User with this email already exists" {
		t.Errorf("Unexpected duplicate error: %+v", body.Errors)
	}
}

func registeredUser(t *testing.T, store *fakeUserStore, email, password string, active bool) *model.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &model.User{
		ID:           "user-" + email,
		Email:        email,
		PasswordHash: hash,
		FirstName:    "Test",
		LastName:     "User",
		IsActive:     active,
		CreatedAt:    time.Now().UTC(),
		LastActive:   time.Now().UTC(),
	}
	store.byEmail[email] = user
	return user
}

func TestLogin_Success(t *testing.T) {
	store := newFakeUserStore()
	registeredUser(t, store, "login@example.com", "Str0ng!pass", true)
	h := newAuthHandler(store)

	rec := postJSON(t, h.Login, "/api/auth/login", map[string]string{
		"email":    "login@example.com",
		"password": "Str0ng!pass",
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Message string     `json:"message"`
		Token   string     `json:"token"`
		User    model.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Message != "Login successful" {
		t.Errorf("Unexpected message: %q", body.Message)
	}
	if body.Token == "" {
		t.Error("Expected a token")
	}
	if body.User.LastLogin == nil {
		t.Error("Expected last_login set in response")
	}
}

func TestLogin_Failures(t *testing.T) {
	store := newFakeUserStore()
	registeredUser(t, store, "active@example.com", "Str0ng!pass", true)
	registeredUser(t, store, "frozen@example.com", "Str0ng!pass", false)
	h := newAuthHandler(store)

	tests := []struct {
		name       string
		payload    map[string]string
		wantStatus int
		wantError  string
	}{
		{
			"missing_fields",
			map[string]string{"email": "active@example.com"},
			http.StatusBadRequest,
			"Email and password are required",
		},
		{
			"unknown_email",
			map[string]string{"email": "ghost@example.com", "password": "Str0ng!pass"},
			http.StatusUnauthorized,
			"Invalid email or password",
		},
		{
			"wrong_password",
			map[string]string{"email": "active@example.com", "password": "wrong"},
			http.StatusUnauthorized,
			"Invalid email or password",
		},
		{
			"deactivated",
			map[string]string{"email": "frozen@example.com", "password": "Str0ng!pass"},
			http.StatusUnauthorized,
			"Account is deactivated",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := postJSON(t, h.Login, "/api/auth/login", test.payload)
			if rec.Code != test.wantStatus {
				t.Fatalf("Expected %d, got %d", test.wantStatus, rec.Code)
			}
			var body map[string]string
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body["error"] != test.wantError {
				t.Errorf("Expected error %q, got %q", test.wantError, body["error"])
			}
		})
	}
}

func TestLogout(t *testing.T) {
	h := newAuthHandler(newFakeUserStore())

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["message"] != "Logout successful" {
		t.Errorf("Unexpected message: %q", body["message"])
	}
}

func TestMe(t *testing.T) {
	h := newAuthHandler(newFakeUserStore())

	user := &model.User{ID: "user-1", Email: "me@example.com", IsActive: true}
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(auth.ContextWithUser(req.Context(), user))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body struct {
		User model.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.User.ID != "user-1" {
		t.Errorf("Unexpected user: %+v", body.User)
	}
}

func TestVerifyEmail(t *testing.T) {
	store := newFakeUserStore()
	token := "verify-token"
	user := registeredUser(t, store, "verify@example.com", "Str0ng!pass", true)
	user.EmailVerificationToken = &token
	store.byToken[token] = user

	h := newAuthHandler(store)

	rec := postJSON(t, h.VerifyEmail, "/api/auth/verify-email", map[string]string{"token": token})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]string
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["message"] != "Email verified successfully" {
		t.Errorf("Unexpected message: %q", body["message"])
	}
	if !user.IsVerified {
		t.Error("User should be marked verified")
	}

	// Missing token
	rec = postJSON(t, h.VerifyEmail, "/api/auth/verify-email", map[string]string{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for missing token, got %d", rec.Code)
	}

	// Unknown token
	rec = postJSON(t, h.VerifyEmail, "/api/auth/verify-email", map[string]string{"token": "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 for unknown token, got %d", rec.Code)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	if body["error"] != "Invalid verification token" {
		t.Errorf("Unexpected error: %q", body["error"])
	}
}
