package redis

// Package redis provides a Redis-backed token store for deployments where
// several client processes share one storefront credential.

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/target/storefront-go/internal/ports"
)

const defaultPrefix = "storefront:token:"

var _ ports.TokenStore = (*TokenStore)(nil)

// TokenStoreOptions configures a TokenStore.
type TokenStoreOptions struct {
	Client redis.UniversalClient
	// Prefix is prepended to Profile to build the key. Defaults to "storefront:token:".
	Prefix string
	// Profile names the credential slot, e.g. "default".
	Profile string
	// TTL bounds how long a token is kept. Zero keeps it until cleared.
	TTL time.Duration
}

// TokenStore keeps exactly one token under a single Redis key.
type TokenStore struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewTokenStore creates a new Redis-based token store.
func NewTokenStore(opts TokenStoreOptions) (*TokenStore, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	profile := strings.TrimSpace(opts.Profile)
	if profile == "" {
		profile = "default"
	}
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	return &TokenStore{
		client: opts.Client,
		key:    prefix + profile,
		ttl:    ttl,
	}, nil
}

// Key returns the Redis key holding the token.
func (s *TokenStore) Key() string { return s.key }

func (s *TokenStore) Token(ctx context.Context) (string, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis get token: %w", err)
	}
	return val, nil
}

func (s *TokenStore) SetToken(ctx context.Context, value string) error {
	if value == "" {
		return s.ClearToken(ctx)
	}
	if err := s.client.Set(ctx, s.key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set token: %w", err)
	}
	return nil
}

func (s *TokenStore) ClearToken(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis delete token: %w", err)
	}
	return nil
}
