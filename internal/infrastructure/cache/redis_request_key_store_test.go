//go:build integration

package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) RedisConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("redis container skipped in short mode")
	}
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(ctx) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return RedisConfig{Host: host, Port: port.Int()}
}

func TestRedisRequestKeyStore(t *testing.T) {
	store, err := NewRedisRequestKeyStore(startRedis(t))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	t.Run("claim complete replay release", func(t *testing.T) {
		claimed, _, err := store.Claim(ctx, "school:abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)

		claimed, value, err := store.Claim(ctx, "school:abc", time.Minute)
		require.NoError(t, err)
		assert.False(t, claimed)
		assert.Empty(t, value)

		require.NoError(t, store.Complete(ctx, "school:abc", "pay-1", time.Minute))
		_, value, err = store.Claim(ctx, "school:abc", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, "pay-1", value)

		require.NoError(t, store.Release(ctx, "school:abc"))
		claimed, _, err = store.Claim(ctx, "school:abc", time.Minute)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	t.Run("one winner under contention", func(t *testing.T) {
		var wins int32
		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if ok, _, err := store.Claim(ctx, "contended", time.Minute); err == nil && ok {
					atomic.AddInt32(&wins, 1)
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), wins)
	})

	t.Run("ttl expires the key", func(t *testing.T) {
		_, _, err := store.Claim(ctx, "short", time.Second)
		require.NoError(t, err)
		time.Sleep(1500 * time.Millisecond)
		claimed, _, err := store.Claim(ctx, "short", time.Second)
		require.NoError(t, err)
		assert.True(t, claimed)
	})

	assert.NoError(t, store.Ping(ctx))
}
