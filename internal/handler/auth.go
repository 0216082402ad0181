package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shosseini811/MultiGenQA/internal/auth"
	"github.com/shosseini811/MultiGenQA/internal/metrics"
	"github.com/shosseini811/MultiGenQA/internal/model"
	"github.com/shosseini811/MultiGenQA/internal/repository"
	"github.com/shosseini811/MultiGenQA/internal/validation"
)

// UserStore is the persistence surface the auth endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*model.User, error)
	UpdateLoginTimestamps(ctx context.Context, id string, at time.Time) error
	SetUserVerified(ctx context.Context, id string) error
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(user *model.User) (string, time.Time, error)
}

// AuthHandler handles registration, login and account endpoints.
type AuthHandler struct {
	users   UserStore
	tokens  TokenIssuer
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(users UserStore, tokens TokenIssuer, rec metrics.Recorder, logger *slog.Logger) *AuthHandler {
	if rec == nil {
		rec = metrics.NewNoop()
	}
	return &AuthHandler{
		users:   users,
		tokens:  tokens,
		metrics: rec,
		logger:  logger,
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input validation.RegistrationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	input.Email = validation.NormalizeEmail(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)

	if fieldErrors := validation.ValidateRegistration(input); len(fieldErrors) > 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": fieldErrors})
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		h.logger.Error("failed to hash password", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	now := time.Now().UTC()
	verificationToken := auth.NewVerificationToken()
	user := &model.User{
		ID:                     uuid.New().String(),
		Email:                  input.Email,
		PasswordHash:           hash,
		FirstName:              input.FirstName,
		LastName:               input.LastName,
		IsActive:               true,
		EmailVerificationToken: &verificationToken,
		CreatedAt:              now,
		LastActive:             now,
	}

	if err := h.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			writeJSON(w, http.StatusConflict, map[string]any{
				"errors": map[string][]string{
					"email": {"User with this email already exists"},
				},
			})
			return
		}
		h.logger.Error("failed to create user", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.metrics.IncUserRegistered()
	h.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	// The verification token rides along in the response until email
	// delivery is wired up.
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":            "User registered successfully",
		"user":               user,
		"verification_token": verificationToken,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Email = validation.NormalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			h.logger.Error("failed to look up user", slog.String("error", err.Error()))
		}
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !match {
		writeError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !user.IsActive {
		writeError(w, http.StatusUnauthorized, "Account is deactivated")
		return
	}

	token, _, err := h.tokens.Issue(user)
	if err != nil {
		h.logger.Error("failed to issue token", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}

	now := time.Now().UTC()
	if err := h.users.UpdateLoginTimestamps(r.Context(), user.ID, now); err != nil {
		h.logger.Warn("failed to update login timestamps",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}
	user.LastLogin = &now
	user.LastActive = now

	h.logger.Info("user logged in", slog.String("user_id", user.ID))

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// Logout handles POST /api/auth/logout.
// Tokens are stateless, so logout is client-side; the endpoint exists so
// clients have a uniform lifecycle to call.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Logout successful",
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.MustUserFromContext(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

type verifyEmailRequest struct {
	Token string `json:"token"`
}

// VerifyEmail handles POST /api/auth/verify-email.
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req verifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Verification token is required")
		return
	}

	user, err := h.users.GetUserByVerificationToken(r.Context(), req.Token)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			h.logger.Error("failed to look up verification token", slog.String("error", err.Error()))
		}
		writeError(w, http.StatusBadRequest, "Invalid verification token")
		return
	}

	if err := h.users.SetUserVerified(r.Context(), user.ID); err != nil {
		h.logger.Error("failed to verify user",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "Verification failed")
		return
	}

	h.logger.Info("email verified", slog.String("user_id", user.ID))

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Email verified successfully",
	})
}
