package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func RedisSetJSON(ctx context.Context, rdb redis.Cmdable, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

func RedisGetJSON[T any](ctx context.Context, rdb redis.Cmdable, key string, dest *T) (bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, err
	}
	return true, nil
}

func RedisDel(ctx context.Context, rdb redis.Cmdable, key string) error {
	return rdb.Del(ctx, key).Err()
}

// JSONCache stores one JSON document under a fixed key.
type JSONCache[T any] struct {
	RDB redis.Cmdable
	Key string
	TTL time.Duration
}

func NewJSONCache[T any](rdb redis.Cmdable, key string, ttl time.Duration) *JSONCache[T] {
	return &JSONCache[T]{RDB: rdb, Key: key, TTL: ttl}
}

// Get reports a miss as (zero, false, nil).
func (c *JSONCache[T]) Get(ctx context.Context) (T, bool, error) {
	var v T
	ok, err := RedisGetJSON(ctx, c.RDB, c.Key, &v)
	return v, ok, err
}

func (c *JSONCache[T]) Set(ctx context.Context, v T) error {
	return RedisSetJSON(ctx, c.RDB, c.Key, v, c.TTL)
}

func (c *JSONCache[T]) Invalidate(ctx context.Context) error {
	return RedisDel(ctx, c.RDB, c.Key)
}
