//go:build integration

package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
)

func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate redis container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

func TestRedisClient(t *testing.T) {
	ctx := context.Background()
	client, err := NewRedisClient(RedisConfig{Addr: startRedis(t), PoolSize: 4, Prefix: "test:"})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, client.Set(ctx, "doc:a", []byte("1"), time.Minute))
	require.NoError(t, client.Set(ctx, "doc:b", []byte("2"), 0))
	got, err := client.Get(ctx, "doc:a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, client.DeleteByPrefix(ctx, "doc:"))
	_, err = client.Get(ctx, "doc:b")
	assert.ErrorIs(t, err, ErrCacheMiss)

	dc := NewDocumentCache(client, time.Minute)
	tree := specs.NewTree()
	tree.Put(specs.Canonical(specs.KindMagnetic), "Pull-In", "", specs.Specification{Value: "15", Unit: "AT"})
	require.NoError(t, dc.Put(ctx, "h1", specs.NewDocument("540R", "", tree, nil)))

	doc, err := dc.Get(ctx, "h1")
	require.NoError(t, err)
	assert.Equal(t, "540R", doc.ModelNumber())
}
