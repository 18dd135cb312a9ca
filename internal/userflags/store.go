// Package userflags persists per-user option flags such as notice dismissals.
package userflags

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store reads and writes per-user timestamp flags
type Store interface {
	// Get returns the time the flag was set and whether it is set at all
	Get(ctx context.Context, userID uuid.UUID, key string) (time.Time, bool, error)
	// Set records the flag at the given time, replacing any earlier value
	Set(ctx context.Context, userID uuid.UUID, key string, at time.Time) error
}
