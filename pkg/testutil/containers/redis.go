//go:build integration

package containers

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

// Redis is a running cache instance with a connected client.
type Redis struct {
	Container testcontainers.Container
	URL       string
	Client    *goredis.Client
}

func startRedis(ctx context.Context) (*Redis, error) {
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		return nil, fmt.Errorf("start redis: %w", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("redis url: %w", err)
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		_ = container.Terminate(context.Background())
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{Container: container, URL: url, Client: client}, nil
}

// Flush removes every key.
func (r *Redis) Flush(ctx context.Context) error {
	return r.Client.FlushAll(ctx).Err()
}
