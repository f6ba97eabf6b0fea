//go:build integration

package containers

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"biblio/internal/platform/config"
	platformredis "biblio/internal/platform/redis"
)

const redisImage = "redis:7-alpine"

// RedisContainer is a shared Redis instance for the registration token store tests.
type RedisContainer struct {
	Container testcontainers.Container
	URL       string
	Client    *redis.Client
}

// NewRedisContainer starts Redis and connects through the same client constructor the
// server uses, so pool options and the startup ping are exercised too.
func NewRedisContainer(t *testing.T) *RedisContainer {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, redisImage)
	if err != nil {
		t.Fatalf("start redis container: %v", err)
	}
	url, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("redis connection string: %v", err)
	}

	cfg := config.Default().Redis
	cfg.URL = url
	client, err := platformredis.New(ctx, cfg)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("connect redis: %v", err)
	}

	// shared by every suite through Manager; Ryuk removes the container
	return &RedisContainer{Container: container, URL: url, Client: client.Client}
}

// FlushAll empties the database between tests.
func (r *RedisContainer) FlushAll(ctx context.Context) error {
	return r.Client.FlushDB(ctx).Err()
}
