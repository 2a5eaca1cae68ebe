package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rediscache "github.com/wedosoft/teams-helpdesk-bridge/internal/infrastructure/cache/redis"
)

func newTestClient(t *testing.T) (*rediscache.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := rediscache.NewClient(rediscache.Config{
		Host:       mr.Host(),
		Port:       mr.Port(),
		DefaultTTL: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

func TestClient_SetGet(t *testing.T) {
	// Arrange
	client, _ := newTestClient(t)
	ctx := context.Background()

	// Act
	err := client.Set(ctx, "key", []byte("value"), 0)
	require.NoError(t, err)
	got, err := client.Get(ctx, "key")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestClient_GetMissing(t *testing.T) {
	// Arrange
	client, _ := newTestClient(t)

	// Act
	got, err := client.Get(context.Background(), "absent")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_TTLExpiry(t *testing.T) {
	// Arrange
	client, mr := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "key", []byte("value"), time.Minute))

	// Act
	mr.FastForward(2 * time.Minute)
	got, err := client.Get(ctx, "key")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_Delete(t *testing.T) {
	// Arrange
	client, _ := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "key", []byte("value"), 0))

	// Act
	deleted, err := client.Delete(ctx, "key")

	// Assert
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = client.Delete(ctx, "key")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestClient_DeletePattern(t *testing.T) {
	// Arrange
	client, _ := newTestClient(t)
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "tenant:config:acme", []byte("a"), 0))
	require.NoError(t, client.Set(ctx, "tenant:config:globex", []byte("b"), 0))
	require.NoError(t, client.Set(ctx, "other:key", []byte("c"), 0))

	// Act
	deleted, err := client.DeletePattern(ctx, "tenant:config:*")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	remaining, err := client.Get(ctx, "other:key")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), remaining)
}

func TestClient_Ping(t *testing.T) {
	// Arrange
	client, mr := newTestClient(t)

	// Act / Assert
	require.NoError(t, client.Ping(context.Background()))

	mr.Close()
	assert.Error(t, client.Ping(context.Background()))
}
