package redisutils

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sarrafio/api/internal/config"
)

// Open connects a redis client and verifies connectivity with a ping.
func Open(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}
