package library

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisSessionKey = "booktrack:session:" + SessionSlot

// redisKV is the subset of *redis.Client the session needs.
type redisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// RedisSession stores the token under a fixed key with no expiry, for
// setups where several machines share one login.
type RedisSession struct {
	client redisKV
	key    string
}

func NewRedisSession(client *redis.Client) *RedisSession {
	return &RedisSession{client: client, key: redisSessionKey}
}

func (s *RedisSession) SetToken(ctx context.Context, token string) error {
	if token == "" {
		return s.ClearToken(ctx)
	}
	if err := s.client.Set(ctx, s.key, token, 0).Err(); err != nil {
		return &StorageError{Op: "write", Err: err}
	}
	return nil
}

func (s *RedisSession) GetToken(ctx context.Context) (string, error) {
	token, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", &StorageError{Op: "read", Err: err}
	}
	if token == "" {
		return "", ErrNoToken
	}
	return token, nil
}

func (s *RedisSession) ClearToken(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}
