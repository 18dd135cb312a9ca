package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Fimeg/partnernotice/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// UserOptionQueries stores per-user flags in PostgreSQL
type UserOptionQueries struct {
	db *sqlx.DB
}

func NewUserOptionQueries(db *sqlx.DB) *UserOptionQueries {
	return &UserOptionQueries{db: db}
}

// Get returns the timestamp stored under key for the user
func (q *UserOptionQueries) Get(ctx context.Context, userID uuid.UUID, key string) (time.Time, bool, error) {
	var opt models.UserOption
	query := `SELECT * FROM user_options WHERE user_id = $1 AND option_key = $2`
	err := q.db.GetContext(ctx, &opt, query, userID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.Unix(opt.Value, 0).UTC(), true, nil
}

// Set stores the timestamp under key for the user
func (q *UserOptionQueries) Set(ctx context.Context, userID uuid.UUID, key string, at time.Time) error {
	query := `
		INSERT INTO user_options (user_id, option_key, option_value, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, option_key) DO UPDATE SET
			option_value = EXCLUDED.option_value,
			updated_at = EXCLUDED.updated_at
	`
	_, err := q.db.ExecContext(ctx, query, userID, key, at.Unix(), time.Now().UTC())
	return err
}
