//go:build integration

package redis

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestRedisRoundTrip(t *testing.T) {
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil || container == nil {
		t.Skipf("Docker not available, skipping integration test: %v", err)
	}
	t.Cleanup(func() { container.Terminate(ctx) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	log := logrus.New()
	log.SetOutput(io.Discard)
	cache := NewWithClient(redis.NewClient(&redis.Options{Addr: endpoint}), log)

	_, err = cache.Get(ctx, "registration:1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	stored, err := cache.SetIfAbsent(ctx, "registration:1", []byte(`{"id":"0"}`), time.Minute)
	require.NoError(t, err)
	assert.True(t, stored)

	stored, err = cache.SetIfAbsent(ctx, "registration:1", []byte(`{"id":"stale"}`), time.Minute)
	require.NoError(t, err)
	assert.False(t, stored)

	require.NoError(t, cache.Set(ctx, "registration:1", []byte(`{"id":"1"}`), time.Minute))
	got, err := cache.Get(ctx, "registration:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"1"}`, string(got))

	require.NoError(t, cache.Delete(ctx, "registration:1"))
	_, err = cache.Get(ctx, "registration:1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
