package redis

import (
	"context"
	"fmt"

	"socratic/internal/config"

	"github.com/go-redis/redis/v8"
)

// NewClient connects to Redis and verifies the connection with a ping.
// The client is constructed once in cmd and injected; there is no package
// singleton.
func NewClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cannot connect to Redis: %w", err)
	}
	return rdb, nil
}
