package data

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idnremote/idnremote-go/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestRedisStorage_Set_Get_Remove(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestRedis(t)
	defer client.Close()

	store := NewRedisStorage(client, "test:")
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "cache_job_1", []byte(`{"data":1,"expiry":2}`)))

		result, err := store.Get(ctx, "cache_job_1")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"data":1,"expiry":2}`), result)

		// Prefix is applied and no Redis TTL is set.
		assert.Equal(t, int64(1), client.Exists(ctx, "test:cache_job_1").Val())
		assert.Equal(t, int64(-1), int64(client.TTL(ctx, "test:cache_job_1").Val()))
	})

	t.Run("get non-existent key", func(t *testing.T) {
		result, err := store.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "gone", []byte("x")))
		require.NoError(t, store.Remove(ctx, "gone"))
		require.NoError(t, store.Remove(ctx, "gone"))

		result, err := store.Get(ctx, "gone")
		require.NoError(t, err)
		assert.Nil(t, result)
	})

	t.Run("health", func(t *testing.T) {
		require.NoError(t, store.Health(ctx))
	})
}

func TestRedisStorage_EmptyKey(t *testing.T) {
	store := NewRedisStorage(nil, "")
	ctx := context.Background()

	_, err := store.Get(ctx, "")
	require.ErrorIs(t, err, ErrEmptyKey)
	require.ErrorIs(t, store.Set(ctx, "", nil), ErrEmptyKey)
	require.ErrorIs(t, store.Remove(ctx, ""), ErrEmptyKey)
}
