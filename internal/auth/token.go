package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shosseini811/MultiGenQA/internal/model"
)

// clockSkewLeeway tolerates small clock drift between issuer and verifier.
const clockSkewLeeway = 10 * time.Second

// ErrInvalidToken covers every verification failure: malformed input,
// signature mismatch, expiry. Callers treat all of them as unauthenticated.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the JWT payload carried by auth tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies signed bearer tokens.
// A single symmetric HMAC scheme (HS256) is used throughout.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a TokenService signing with the given secret.
// ttl controls how long issued tokens remain valid (default 24h upstream).
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue encodes the user's identifier and email into a signed token.
func (s *TokenService) Issue(user *model.User) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ttl)

	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify decodes the token and checks signature and expiry.
// All failures collapse into ErrInvalidToken; this never panics.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithLeeway(clockSkewLeeway))

	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// NewVerificationToken returns a random single-use token for email
// verification. It is stored on the user record and is unrelated to the
// signed auth token.
func NewVerificationToken() string {
	return uuid.New().String()
}
