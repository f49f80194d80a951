package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBlacklist(t *testing.T) {
	mr, rdb := newRedis(t)
	bl := NewTokenBlacklist(rdb)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "token-a", time.Now().Add(time.Hour)))
	revoked, err = bl.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.True(t, revoked)
	assert.True(t, mr.Exists(revokedKey("token-a")))

	// expired tokens need no entry
	require.NoError(t, bl.Revoke(ctx, "token-b", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists(revokedKey("token-b")))

	mr.FastForward(2 * time.Hour)
	revoked, err = bl.IsRevoked(ctx, "token-a")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklistWithoutRedis(t *testing.T) {
	bl := NewTokenBlacklist(nil)
	require.NoError(t, bl.Revoke(context.Background(), "t", time.Now().Add(time.Hour)))
	revoked, err := bl.IsRevoked(context.Background(), "t")
	require.NoError(t, err)
	assert.False(t, revoked)
}
