package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"stocknews-client/src/helpers"
	"stocknews-client/src/logger"
)

const (
	redisKeyPrefix   = "stocknews:"
	redisPingTimeout = 3 * time.Second
)

// RedisTokenStore shares the token slot between machines through redis.
type RedisTokenStore struct {
	Client *redis.Client
	Key    string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

// NewRedisTokenStore parses a redis:// URL and checks the server is reachable.
func NewRedisTokenStore(url, key string, log *logger.Logger) (*RedisTokenStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, helpers.NewStorageError(fmt.Sprintf("invalid redis url %q", url), err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, helpers.NewStorageError("redis unreachable at "+opts.Addr, err)
	}

	log.Info("Redis token store connected (%s)", opts.Addr)
	return &RedisTokenStore{Client: client, Key: redisKeyPrefix + key, Logger: log}, nil
}

// -----------------------------------------------------------------------------

func (r *RedisTokenStore) Load(ctx context.Context) (string, error) {
	token, err := r.Client.Get(ctx, r.Key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", helpers.NewStorageError("failed to load token from redis", err)
	}
	return token, nil
}

func (r *RedisTokenStore) Save(ctx context.Context, token string) error {
	if err := r.Client.Set(ctx, r.Key, token, 0).Err(); err != nil {
		return helpers.NewStorageError("failed to save token to redis", err)
	}
	return nil
}

func (r *RedisTokenStore) Clear(ctx context.Context) error {
	if err := r.Client.Del(ctx, r.Key).Err(); err != nil {
		return helpers.NewStorageError("failed to clear token in redis", err)
	}
	return nil
}

func (r *RedisTokenStore) Close() error {
	return r.Client.Close()
}
