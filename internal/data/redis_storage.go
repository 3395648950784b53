package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/idnremote/idnremote-go/internal/errors"
)

// RedisStorage implements ports.Storage on Redis strings.
// Keys are stored without a Redis TTL; expiry of cache entries is tracked in the value.
type RedisStorage struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisStorage creates a RedisStorage. keyPrefix namespaces all keys (may be empty).
func NewRedisStorage(client redis.UniversalClient, keyPrefix string) *RedisStorage {
	return &RedisStorage{client: client, keyPrefix: keyPrefix}
}

// Get retrieves a value by key, returning nil, nil when the key does not exist.
func (r *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	result, err := r.client.Get(ctx, r.keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, apperrors.MapStorageError(fmt.Errorf("redis get: %w", err))
	}
	return result, nil
}

// Set stores value under key.
func (r *RedisStorage) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := r.client.Set(ctx, r.keyPrefix+key, value, 0).Err(); err != nil {
		return apperrors.MapStorageError(fmt.Errorf("redis set: %w", err))
	}
	return nil
}

// Remove deletes key; a missing key is not an error.
func (r *RedisStorage) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if err := r.client.Del(ctx, r.keyPrefix+key).Err(); err != nil {
		return apperrors.MapStorageError(fmt.Errorf("redis del: %w", err))
	}
	return nil
}

// Health checks the health of the Redis connection.
func (r *RedisStorage) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
