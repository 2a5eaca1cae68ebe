package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SetGet(t *testing.T) {
	// Arrange
	client := NewClient(Config{DefaultTTL: time.Minute})
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
	client := NewClient(Config{})

	// Act
	got, err := client.Get(context.Background(), "absent")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_ExpiredEntryIsMiss(t *testing.T) {
	// Arrange
	client := NewClient(Config{DefaultTTL: time.Minute})
	ctx := context.Background()

	current := time.Now()
	client.now = func() time.Time { return current }

	require.NoError(t, client.Set(ctx, "key", []byte("value"), time.Minute))

	// Act: advance past the TTL
	current = current.Add(2 * time.Minute)
	got, err := client.Get(ctx, "key")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_Delete(t *testing.T) {
	// Arrange
	client := NewClient(Config{})
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
	client := NewClient(Config{})
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

func TestClient_CloseClearsEntries(t *testing.T) {
	// Arrange
	client := NewClient(Config{})
	ctx := context.Background()
	require.NoError(t, client.Set(ctx, "key", []byte("value"), 0))

	// Act
	require.NoError(t, client.Close())
	got, err := client.Get(ctx, "key")

	// Assert
	require.NoError(t, err)
	assert.Nil(t, got)
}
