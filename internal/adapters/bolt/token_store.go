// Package bolt provides a BBolt-backed token store: the client-local
// persistent storage used by the CLI between invocations.
package bolt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/target/storefront-go/internal/ports"
	"go.etcd.io/bbolt"
)

var (
	bucketName = []byte("storefront")
	tokenKey   = []byte("token")
)

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStore keeps the bearer token under a single key of a BBolt database.
type TokenStore struct {
	db *bbolt.DB
}

// NewTokenStore returns a TokenStore backed by an open BBolt database.
func NewTokenStore(db *bbolt.DB) *TokenStore {
	return &TokenStore{db: db}
}

// OpenTokenStore opens (creating if needed) a BBolt database at path.
// The file is created with 0600 permissions since it holds a credential.
func OpenTokenStore(path string) (*TokenStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create token dir: %w", err)
		}
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewTokenStore(db), nil
}

// Close closes the underlying BBolt database.
func (s *TokenStore) Close() error {
	return s.db.Close()
}

func (s *TokenStore) Token(_ context.Context) (string, error) {
	var tok string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		// Copy out: the slice is only valid for the life of the transaction.
		tok = string(b.Get(tokenKey))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return tok, nil
}

func (s *TokenStore) SetToken(ctx context.Context, value string) error {
	if value == "" {
		return s.ClearToken(ctx)
	}
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return b.Put(tokenKey, []byte(value))
	})
	if err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

func (s *TokenStore) ClearToken(_ context.Context) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return nil
		}
		return b.Delete(tokenKey)
	})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}
