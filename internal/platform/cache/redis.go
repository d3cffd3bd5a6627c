package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// New pings before returning so callers can fall back to cacheless
// operation when redis is down.
func New(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
