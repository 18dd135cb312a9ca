package userflags

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisStore keeps each user's flags in one hash, field per key
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore creates a store over a configured client or cluster client
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func hashKey(userID uuid.UUID) string {
	return fmt.Sprintf("user_options:%s", userID)
}

// Get implements Store
func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID, key string) (time.Time, bool, error) {
	raw, err := s.client.HGet(ctx, hashKey(userID), key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Str("key", key).Msg("redis user option read failed")
		return time.Time{}, false, fmt.Errorf("failed to read user option %s: %w", key, err)
	}

	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed user option %s: %w", key, err)
	}
	return time.Unix(unix, 0).UTC(), true, nil
}

// Set implements Store
func (s *RedisStore) Set(ctx context.Context, userID uuid.UUID, key string, at time.Time) error {
	if err := s.client.HSet(ctx, hashKey(userID), key, at.Unix()).Err(); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Str("key", key).Msg("redis user option write failed")
		return fmt.Errorf("failed to write user option %s: %w", key, err)
	}
	return nil
}
