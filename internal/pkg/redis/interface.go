package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const Nil = redis.Nil

// Cache is the subset of Redis operations the service relies on.
type Cache interface {
	SetBytes(ctx context.Context, key string, value []byte, exp time.Duration) error
	GetBytes(ctx context.Context, key string) ([]byte, error)
}

// IsNil reports whether err is a cache miss.
func IsNil(err error) bool {
	return errors.Is(err, Nil)
}
