package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions is the subset of client settings the services tune.
type RedisOptions struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// NewRedisClient builds a client and checks it answers PING within the dial timeout.
// The client is returned even when the ping fails so callers can decide to run degraded.
func NewRedisClient(ctx context.Context, o RedisOptions) (*redis.Client, error) {
	if o.DialTimeout <= 0 {
		o.DialTimeout = 3 * time.Second
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:        o.Addr,
		Password:    o.Password,
		DB:          o.DB,
		DialTimeout: o.DialTimeout,
	})
	pctx, cancel := context.WithTimeout(ctx, o.DialTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		return rdb, fmt.Errorf("redis ping %s: %w", o.Addr, err)
	}
	return rdb, nil
}

// JSONCache stores values of one type as JSON strings under caller-chosen keys.
type JSONCache[T any] struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewJSONCache[T any](rdb redis.Cmdable, ttl time.Duration) JSONCache[T] {
	return JSONCache[T]{rdb: rdb, ttl: ttl}
}

// Get reports false with a nil error on a miss. A value that no longer decodes counts as a miss.
func (c JSONCache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var v T
	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return v, false, nil
	case err != nil:
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

func (c JSONCache[T]) Set(ctx context.Context, key string, v T) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, b, c.ttl).Err()
}

// Del removes keys; deleting nothing is not an error.
func Del(ctx context.Context, rdb redis.Cmdable, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rdb.Del(ctx, keys...).Err()
}
