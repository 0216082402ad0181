// Package model defines domain entities for the application.
package model

import "time"

// User represents a registered account.
// PasswordHash is an Argon2id PHC string and is never serialized.
type User struct {
	ID                     string     `json:"id"`
	Email                  string     `json:"email"`
	PasswordHash           string     `json:"-"`
	FirstName              string     `json:"first_name"`
	LastName               string     `json:"last_name"`
	IsActive               bool       `json:"is_active"`
	IsVerified             bool       `json:"is_verified"`
	EmailVerificationToken *string    `json:"-"`
	PasswordResetToken     *string    `json:"-"`
	PasswordResetExpires   *time.Time `json:"-"`
	CreatedAt              time.Time  `json:"created_at"`
	LastActive             time.Time  `json:"last_active"`
	LastLogin              *time.Time `json:"last_login,omitempty"`
}
