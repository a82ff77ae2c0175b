package data

import (
	"context"
	"fmt"
	"time"

	"guildguard/internal/conf"
	pkgredis "guildguard/internal/pkg/redis"

	"github.com/go-kratos/kratos/v2/log"
	redis "github.com/redis/go-redis/v9"
)

// NewRedisCache creates a new Redis cache from configuration.
func NewRedisCache(c *conf.Data, logger log.Logger) (pkgredis.Cache, func(), error) {
	helper := log.NewHelper(logger)

	opts := &redis.Options{
		Addr:         c.Redis.Addr,
		Network:      c.Redis.Network,
		ReadTimeout:  c.Redis.ReadTimeout.AsDuration(),
		WriteTimeout: c.Redis.WriteTimeout.AsDuration(),
	}

	client := redis.NewClient(opts)

	// Test connection with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		helper.Errorf("failed to connect to Redis at %s: %v", c.Redis.Addr, err)
		client.Close()
		return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	helper.Infof("connected to Redis at %s", c.Redis.Addr)

	cache := NewRedisWrapper(client)
	cleanup := func() {
		helper.Info("closing Redis connection")
		client.Close()
	}

	return cache, cleanup, nil
}

// RedisWrapper wraps redis.Client to implement pkgredis.Cache interface.
type RedisWrapper struct {
	client *redis.Client
}

// NewRedisWrapper creates a new RedisWrapper.
func NewRedisWrapper(client *redis.Client) *RedisWrapper {
	return &RedisWrapper{client: client}
}

func (r *RedisWrapper) SetBytes(ctx context.Context, key string, value []byte, exp time.Duration) error {
	return r.client.Set(ctx, key, value, exp).Err()
}

func (r *RedisWrapper) GetBytes(ctx context.Context, key string) ([]byte, error) {
	return r.client.Get(ctx, key).Bytes()
}
