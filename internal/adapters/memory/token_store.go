// Package memory provides a process-local token store for programs that embed
// the client and do not need the credential to outlive the process.
package memory

import (
	"context"
	"sync"

	"github.com/target/storefront-go/internal/ports"
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore holds the token in memory. It is safe for concurrent use.
type TokenStore struct {
	mu    sync.RWMutex
	token string
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore { return &TokenStore{} }

func (s *TokenStore) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *TokenStore) SetToken(_ context.Context, value string) error {
	s.mu.Lock()
	s.token = value
	s.mu.Unlock()
	return nil
}

func (s *TokenStore) ClearToken(ctx context.Context) error {
	return s.SetToken(ctx, "")
}
