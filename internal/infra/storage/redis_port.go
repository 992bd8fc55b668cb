package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:generate mockgen -source=redis_port.go -destination=../../../test/unit/doubles/infra/storage/redis_port_mock.go -package=storage -mock_names=RedisClient=MockRedisClient

// RedisClient is the subset of *redis.Client used by the Redis backend.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

var _ RedisClient = (*redis.Client)(nil)
