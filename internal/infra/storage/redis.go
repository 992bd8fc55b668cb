package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"opsconsole/internal/infra/utils"
)

const (
	DefaultRedisPrefix  = "opsconsole:"
	DefaultRedisChannel = "opsconsole:storage"
)

var _ Storage = (*Redis)(nil)

// RedisConfig holds configuration for the Redis backend
type RedisConfig struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr     string
	Password string
	DB       int
	// Prefix namespaces every key, e.g. per operator workstation
	Prefix string
	// Channel carries change notifications between handles
	Channel     string
	DialTimeout time.Duration
}

func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:        "localhost:6379",
		Prefix:      DefaultRedisPrefix,
		Channel:     DefaultRedisChannel,
		DialTimeout: 5 * time.Second,
	}
}

type Redis struct {
	client  RedisClient
	prefix  string
	channel string
	origin  string
}

// NewRedis connects and pings the server.
func NewRedis(config *RedisConfig) (*Redis, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}

	client := redis.NewClient(&redis.Options{
		Addr:        config.Addr,
		Password:    config.Password,
		DB:          config.DB,
		DialTimeout: config.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("redis storage initialized",
		slog.String("addr", config.Addr),
		slog.Int("db", config.DB),
		slog.String("prefix", config.Prefix))

	return NewRedisWithClient(client, config), nil
}

// NewRedisWithClient creates a backend on an existing client (useful for testing)
func NewRedisWithClient(client RedisClient, config *RedisConfig) *Redis {
	if config == nil {
		config = DefaultRedisConfig()
	}
	channel := config.Channel
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &Redis{
		client:  client,
		prefix:  config.Prefix,
		channel: channel,
		origin:  utils.GenerateUUID(),
	}
}

func (r *Redis) Origin() string {
	return r.origin
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting %s from redis: %w", key, err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("setting %s in redis: %w", key, err)
	}
	r.notify(ctx, Change{Key: key, Value: value, Origin: r.origin})
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return fmt.Errorf("removing %s from redis: %w", key, err)
	}
	r.notify(ctx, Change{Key: key, Removed: true, Origin: r.origin})
	return nil
}

func (r *Redis) Watch(ctx context.Context) (<-chan Change, error) {
	pubsub := r.client.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		defer pubsub.Close()
		messages := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				change, ok := r.decode(msg.Payload)
				if !ok {
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// decode drops malformed payloads and this handle's own writes.
func (r *Redis) decode(payload string) (Change, bool) {
	var change Change
	if err := json.Unmarshal([]byte(payload), &change); err != nil {
		slog.Error("decoding storage change", slog.String("error", err.Error()))
		return Change{}, false
	}
	if change.Origin == r.origin || change.Key == "" {
		return Change{}, false
	}
	return change, true
}

func (r *Redis) notify(ctx context.Context, change Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		slog.Error("encoding storage change", slog.String("error", err.Error()))
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		slog.Error("publishing storage change",
			slog.String("key", change.Key),
			slog.String("error", err.Error()))
	}
}
