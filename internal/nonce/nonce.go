// Package nonce issues and verifies the CSRF tokens that guard notice actions.
// A token is bound to one action key and one user and expires after a day.
package nonce

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultLifetime matches the lifetime of an admin page session
const DefaultLifetime = 24 * time.Hour

// ErrInvalidNonce is returned for missing, expired, forged or mismatched tokens
var ErrInvalidNonce = errors.New("invalid nonce")

// Claims binds a token to an action key and user
type Claims struct {
	Action string    `json:"action"`
	UserID uuid.UUID `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager issues and verifies action tokens
type Manager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// NewManager creates a manager signing with secret
func NewManager(secret string, lifetime time.Duration) *Manager {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}
	return &Manager{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
	}
}

// Issue creates a token for the action key and user
func (m *Manager) Issue(action string, userID uuid.UUID) (string, error) {
	now := m.now()
	claims := Claims{
		Action: action,
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign nonce: %w", err)
	}
	return signed, nil
}

// Verify checks that token was issued for the action key and user
func (m *Manager) Verify(token, action string, userID uuid.UUID) error {
	if token == "" {
		return ErrInvalidNonce
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil || !parsed.Valid {
		return ErrInvalidNonce
	}

	if claims.Action != action || claims.UserID != userID {
		return ErrInvalidNonce
	}
	return nil
}
