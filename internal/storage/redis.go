package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis returns a store backed by a shared redis instance, for
// deployments where several frontends serve the same browsers.
func NewRedis(addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("storage: redis ping: %w", err)
	}

	return &redisStore{client: client, prefix: "roomiez:"}, nil
}

func (r *redisStore) key(key string) string {
	return r.prefix + key
}

func (r *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: redis get: %w", err)
	}
	return val, nil
}

func (r *redisStore) Set(ctx context.Context, key string, value []byte, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			// Already expired, delete instead of extending.
			return r.client.Del(ctx, r.key(key)).Err()
		}
	}
	return r.client.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

func (r *redisStore) Close() error {
	return r.client.Close()
}
