package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/storefront-go/internal/testutil"
)

func TestTokenStore_SetAndGet(t *testing.T) {
	_, client := testutil.SetupMiniRedis(t)
	store, err := NewTokenStore(TokenStoreOptions{Client: client})
	require.NoError(t, err)
	ctx := context.Background()

	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, store.SetToken(ctx, "bearer-1"))
	tok, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bearer-1", tok)

	// A second write replaces the first: only one token is ever stored.
	require.NoError(t, store.SetToken(ctx, "bearer-2"))
	tok, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bearer-2", tok)
	assert.Equal(t, "storefront:token:default", store.Key())
}

func TestTokenStore_SetEmptyClears(t *testing.T) {
	srv, client := testutil.SetupMiniRedis(t)
	store, err := NewTokenStore(TokenStoreOptions{Client: client, Profile: "cli"})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SetToken(ctx, "abc"))
	assert.True(t, srv.Exists("storefront:token:cli"))

	require.NoError(t, store.SetToken(ctx, ""))
	assert.False(t, srv.Exists("storefront:token:cli"))
}

func TestTokenStore_ClearMissingIsNoop(t *testing.T) {
	_, client := testutil.SetupMiniRedis(t)
	store, err := NewTokenStore(TokenStoreOptions{Client: client})
	require.NoError(t, err)

	require.NoError(t, store.ClearToken(context.Background()))
}

func TestTokenStore_TTL(t *testing.T) {
	srv, client := testutil.SetupMiniRedis(t)
	store, err := NewTokenStore(TokenStoreOptions{Client: client, Prefix: "test:", TTL: time.Minute})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SetToken(ctx, "abc"))
	assert.Equal(t, time.Minute, srv.TTL("test:default"))

	srv.FastForward(2 * time.Minute)

	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}

func TestTokenStore_RedisDown(t *testing.T) {
	srv, client := testutil.SetupMiniRedis(t)
	store, err := NewTokenStore(TokenStoreOptions{Client: client})
	require.NoError(t, err)
	srv.Close()

	_, err = store.Token(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis get token")
}

func TestNewTokenStore_RequiresClient(t *testing.T) {
	_, err := NewTokenStore(TokenStoreOptions{})
	require.Error(t, err)
}

func TestTokenStore_LiveRedis(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	store, err := NewTokenStore(TokenStoreOptions{Client: client, Prefix: "storefront:test:"})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SetToken(ctx, "live"))
	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "live", tok)

	require.NoError(t, store.ClearToken(ctx))
	tok, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)
}
