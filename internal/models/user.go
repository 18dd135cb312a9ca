package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles, ordered from most to least privileged
const (
	RoleSuperAdmin = "super_admin"
	RoleAdmin      = "admin"
	RoleEditor     = "editor"
)

type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Username     string     `json:"username" db:"username"`
	Email        string     `json:"email" db:"email"`
	PasswordHash string     `json:"-" db:"password_hash"` // Don't include in JSON
	Role         string     `json:"role" db:"role"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	LastLogin    *time.Time `json:"last_login" db:"last_login"`
}

type UserCredentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserOption is a per-user key/value row; dismissal flags store a unix timestamp
type UserOption struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Key       string    `json:"key" db:"option_key"`
	Value     int64     `json:"value" db:"option_value"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
