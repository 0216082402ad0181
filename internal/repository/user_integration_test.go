//go:build integration

package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shosseini811/MultiGenQA/internal/testutil"
)

func TestIntegrationUserRepository_CreateAndGet(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("create"))
	token := uuid.New().String()
	user.EmailVerificationToken = &token

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	retrieved, err := repo.GetUserByEmail(ctx, user.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}

	if retrieved.ID != user.ID {
		t.Errorf("ID mismatch: got %q, want %q", retrieved.ID, user.ID)
	}
	if retrieved.PasswordHash != user.PasswordHash {
		t.Error("PasswordHash mismatch")
	}
	if retrieved.IsVerified {
		t.Error("new user should not be verified")
	}
	if retrieved.EmailVerificationToken == nil || *retrieved.EmailVerificationToken != token {
		t.Error("verification token not persisted")
	}
}

func TestIntegrationUserRepository_DuplicateEmail(t *testing.T) {
	ctx, repo := newTestEnv(t)

	email := testutil.UniqueEmail("dup")
	first := testutil.NewTestUser(t, email)
	second := testutil.NewTestUser(t, email)

	if err := repo.CreateUser(ctx, first); err != nil {
		t.Fatalf("CreateUser (first) failed: %v", err)
	}

	err := repo.CreateUser(ctx, second)
	if !errors.Is(err, ErrEmailExists) {
		t.Errorf("Expected ErrEmailExists, got: %v", err)
	}
}

func TestIntegrationUserRepository_GetByID_NotFound(t *testing.T) {
	ctx, repo := newTestEnv(t)

	_, err := repo.GetUserByID(ctx, uuid.New().String())
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestIntegrationUserRepository_UpdateLoginTimestamps(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("login"))
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	loginAt := time.Now().UTC().Truncate(time.Microsecond)
	if err := repo.UpdateLoginTimestamps(ctx, user.ID, loginAt); err != nil {
		t.Fatalf("UpdateLoginTimestamps failed: %v", err)
	}

	retrieved, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}

	if retrieved.LastLogin == nil || !retrieved.LastLogin.Equal(loginAt) {
		t.Errorf("LastLogin mismatch: got %v, want %v", retrieved.LastLogin, loginAt)
	}
	if !retrieved.LastActive.Equal(loginAt) {
		t.Errorf("LastActive mismatch: got %v, want %v", retrieved.LastActive, loginAt)
	}
}

func TestIntegrationUserRepository_VerifyEmail(t *testing.T) {
	ctx, repo := newTestEnv(t)

	user := testutil.NewTestUser(t, testutil.UniqueEmail("verify"))
	token := uuid.New().String()
	user.EmailVerificationToken = &token

	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	found, err := repo.GetUserByVerificationToken(ctx, token)
	if err != nil {
		t.Fatalf("GetUserByVerificationToken failed: %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("ID mismatch: got %q, want %q", found.ID, user.ID)
	}

	if err := repo.SetUserVerified(ctx, user.ID); err != nil {
		t.Fatalf("SetUserVerified failed: %v", err)
	}

	verified, err := repo.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID failed: %v", err)
	}
	if !verified.IsVerified {
		t.Error("user should be verified")
	}
	if verified.EmailVerificationToken != nil {
		t.Error("verification token should be cleared")
	}

	// Token is single-use
	if _, err := repo.GetUserByVerificationToken(ctx, token); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound for used token, got: %v", err)
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newTestEnv(t *testing.T) (context.Context, *Repository) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	dbURL := testutil.RequireEnv(t, "DATABASE_URL")

	repo, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(repo.Close)

	unlock, err := testutil.AcquireDBLock(ctx, repo.Pool())
	if err != nil {
		t.Fatalf("acquire db lock: %v", err)
	}
	t.Cleanup(func() {
		_ = unlock()
	})

	if err := testutil.ResetSchema(ctx, repo.Pool()); err != nil {
		t.Fatalf("reset schema: %v", err)
	}

	return ctx, repo
}
