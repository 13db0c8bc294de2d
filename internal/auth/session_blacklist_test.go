package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewInMemoryBlacklistStore(t *testing.T) {
	store := NewInMemoryBlacklistStore()
	defer store.Close()
	assert.NotNil(t, store)
	assert.NotNil(t, store.blacklist)
}

func TestAddToBlacklist(t *testing.T) {
	store := NewInMemoryBlacklistStore()
	defer store.Close()
	jti := "test-token-id"
	exp := time.Now().Add(time.Hour)

	err := store.AddToBlacklist(context.Background(), jti, exp)
	assert.NoError(t, err)

	store.mu.RLock()
	expTime, exists := store.blacklist[jti]
	store.mu.RUnlock()

	assert.True(t, exists)
	assert.Equal(t, exp, expTime)
}

func TestIsBlacklisted(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBlacklistStore()
	defer store.Close()

	isBlacklisted, err := store.IsBlacklisted(ctx, "non-existent-token")
	assert.NoError(t, err)
	assert.False(t, isBlacklisted)

	require.NoError(t, store.AddToBlacklist(ctx, "blacklisted-token", time.Now().Add(time.Hour)))
	isBlacklisted, err = store.IsBlacklisted(ctx, "blacklisted-token")
	assert.NoError(t, err)
	assert.True(t, isBlacklisted)

	require.NoError(t, store.AddToBlacklist(ctx, "expired-token", time.Now().Add(-time.Minute)))
	isBlacklisted, err = store.IsBlacklisted(ctx, "expired-token")
	assert.NoError(t, err)
	assert.False(t, isBlacklisted, "an expired token needs no revocation")
}

func TestCleanUpExpired(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryBlacklistStore()
	defer store.Close()

	require.NoError(t, store.AddToBlacklist(ctx, "expired-token-1", time.Now().Add(-time.Hour)))
	require.NoError(t, store.AddToBlacklist(ctx, "expired-token-2", time.Now().Add(-time.Minute)))
	require.NoError(t, store.AddToBlacklist(ctx, "valid-token", time.Now().Add(time.Hour)))

	store.CleanUpExpired()

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Len(t, store.blacklist, 1)
	assert.Contains(t, store.blacklist, "valid-token")
}

func TestInMemoryBlacklistStore_CloseTwice(t *testing.T) {
	store := NewInMemoryBlacklistStore()
	assert.NotPanics(t, func() {
		store.Close()
		store.Close()
	})
}
