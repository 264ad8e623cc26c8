package lease

import (
	"context"
	"testing"
	"time"

	"github.com/medflow/pharmacy-inventory/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

func TestRedisLease(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	client := NewRedisClient(&config.RedisConfig{Addr: startRedis(t)})
	defer client.Close()

	a := NewRedisLease(client, "pharmacy:test:")
	b := NewRedisLease(client, "pharmacy:test:")
	require.NoError(t, a.Ping(ctx))

	token, ok, err := a.Acquire(ctx, "sweep", 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = b.Acquire(ctx, "sweep", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, b.Release(ctx, "sweep", "not-mine"), ErrNotHeld)
	require.NoError(t, a.Release(ctx, "sweep", token))

	_, ok, err = b.Acquire(ctx, "sweep", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}
