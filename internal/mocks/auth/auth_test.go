package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore_SetGetClear(t *testing.T) {
	store := NewMemoryTokenStore("")
	ctx := context.Background()

	tok, err := store.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, store.SetToken(ctx, "abc"))
	tok, err = store.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, store.ClearToken(ctx))
	assert.Empty(t, store.Current())
	assert.Equal(t, 2, store.Gets)
	assert.Equal(t, 1, store.Sets)
	assert.Equal(t, 1, store.Clears)
}

func TestMemoryTokenStore_Err(t *testing.T) {
	store := NewMemoryTokenStore("abc")
	store.Err = errors.New("disk full")

	_, err := store.Token(context.Background())
	require.Error(t, err)
	assert.Equal(t, "abc", store.Current())
}
