package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"sync"

	"github.com/target/storefront-go/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.TokenStore = (*MemoryTokenStore)(nil)

// MemoryTokenStore is an in-memory token store for unit tests.
// It records how many times each method was called.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string

	// Err, when set, is returned from every method.
	Err error

	Gets   int
	Sets   int
	Clears int
}

// NewMemoryTokenStore creates a store pre-populated with token (may be empty).
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (m *MemoryTokenStore) Token(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.Err != nil {
		return "", m.Err
	}
	return m.token, nil
}

func (m *MemoryTokenStore) SetToken(_ context.Context, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	if m.Err != nil {
		return m.Err
	}
	m.token = value
	return nil
}

func (m *MemoryTokenStore) ClearToken(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Clears++
	if m.Err != nil {
		return m.Err
	}
	m.token = ""
	return nil
}

// Current returns the stored token without counting as a read.
func (m *MemoryTokenStore) Current() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}
