package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore(t *testing.T) {
	s := NewTokenStore()
	ctx := context.Background()

	require.NoError(t, s.SetToken(ctx, "abc"))
	tok, _ := s.Token(ctx)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.ClearToken(ctx))
	tok, _ = s.Token(ctx)
	assert.Empty(t, tok)
}

func TestTokenStore_Concurrent(t *testing.T) {
	s := NewTokenStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if i%2 == 0 {
				_ = s.SetToken(ctx, "tok")
			} else {
				_, _ = s.Token(ctx)
			}
		}()
	}
	wg.Wait()

	tok, _ := s.Token(ctx)
	assert.Equal(t, "tok", tok)
}
