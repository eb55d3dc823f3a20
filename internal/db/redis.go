package db

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"truck-ledger-go/internal/config"
	"truck-ledger-go/pkg/logger"
)

const redisConnectAttempts = 5

// NewRedis connects and pings with exponential backoff, capped at 30s.
func NewRedis(ctx context.Context, cfg config.RedisConfig, log logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	var err error
	for attempt := 1; attempt <= redisConnectAttempts; attempt++ {
		if err = client.Ping(ctx).Err(); err == nil {
			log.Info("redis: connected", "addr", cfg.Addr, "attempt", attempt)
			return client, nil
		}

		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		log.Warn("redis: connect failed, retrying", "addr", cfg.Addr, "attempt", attempt, "retry_in", sleep, "err", err)

		select {
		case <-ctx.Done():
			client.Close()
			return nil, ctx.Err()
		case <-time.After(sleep):
		}
	}

	client.Close()
	return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
}
