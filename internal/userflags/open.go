package userflags

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Open returns a Redis store when redisURL is set and fallback otherwise.
// The returned close function releases the Redis client.
func Open(ctx context.Context, redisURL string, fallback Store) (Store, func() error, error) {
	if redisURL == "" {
		return fallback, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info().Str("addr", opts.Addr).Msg("user flags stored in redis")
	return NewRedisStore(client), client.Close, nil
}
