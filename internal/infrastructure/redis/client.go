package redis

import (
	"auction-house/internal/config"
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// NewClient connects to the configured Redis and pings it
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Address, err)
	}
	return rdb, nil
}
