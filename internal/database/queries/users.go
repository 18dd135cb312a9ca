package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

type UserQueries struct {
	db *sqlx.DB
}

func NewUserQueries(db *sqlx.DB) *UserQueries {
	return &UserQueries{db: db}
}

// CreateUser inserts a new user into the database with password hashing
func (q *UserQueries) CreateUser(ctx context.Context, username, email, password, role string) (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	query := `
		INSERT INTO users (
			id, username, email, password_hash, role, created_at
		) VALUES (
			:id, :username, :email, :password_hash, :role, :created_at
		)
	`
	if _, err := q.db.NamedExecContext(ctx, query, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByUsername retrieves a user by username
func (q *UserQueries) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	query := `SELECT * FROM users WHERE username = $1`
	if err := q.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (q *UserQueries) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	query := `SELECT id, username, email, role, created_at, last_login FROM users WHERE id = $1`
	if err := q.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyCredentials checks if the provided username and password are valid
func (q *UserQueries) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	user, err := q.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, err
	}

	if err := q.UpdateLastLogin(ctx, user.ID); err != nil {
		return nil, err
	}

	// Don't return password hash
	user.PasswordHash = ""
	return user, nil
}

// UpdateLastLogin updates the user's last login timestamp
func (q *UserQueries) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET last_login = $1 WHERE id = $2`
	_, err := q.db.ExecContext(ctx, query, time.Now().UTC(), id)
	return err
}

// EnsureAdminUser creates a super admin if no user with that name exists
func (q *UserQueries) EnsureAdminUser(ctx context.Context, username, email, password string) error {
	_, err := q.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	_, err = q.CreateUser(ctx, username, email, password, models.RoleSuperAdmin)
	return err
}
