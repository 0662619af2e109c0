package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/target/storefront-go/config"
	boltstore "github.com/target/storefront-go/internal/adapters/bolt"
	"github.com/target/storefront-go/internal/adapters/memory"
	redisstore "github.com/target/storefront-go/internal/adapters/redis"
	"github.com/target/storefront-go/internal/ports"
)

// TokenStoreDeps groups dependencies for OpenTokenStore.
type TokenStoreDeps struct {
	Tokens config.TokenStoreConfig
	Redis  config.RedisConfig
	// RedisClient, when set, is used instead of dialing Config.Redis.
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// OpenTokenStore builds the token store selected by TOKEN_STORE. The returned
// close function releases any file handle or connection it opened.
//
//nolint:ireturn // the concrete store depends on configuration.
func OpenTokenStore(ctx context.Context, deps TokenStoreDeps) (ports.TokenStore, func() error, error) {
	noop := func() error { return nil }

	switch deps.Tokens.Mode {
	case config.TokenStoreMemory:
		return memory.NewTokenStore(), noop, nil

	case config.TokenStoreRedis:
		client := deps.RedisClient
		closeFn := noop
		if client == nil {
			var err error
			client, err = ConnectRedis(ctx, RedisOptions{Config: deps.Redis, Logger: deps.Logger})
			if err != nil {
				return nil, nil, fmt.Errorf("connect token redis: %w", err)
			}
			closeFn = client.Close
		}
		store, err := redisstore.NewTokenStore(redisstore.TokenStoreOptions{
			Client:  client,
			Prefix:  deps.Redis.KeyPrefix,
			Profile: deps.Tokens.Profile,
			TTL:     deps.Tokens.TTL,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create redis token store: %w", err)
		}
		return store, closeFn, nil

	case config.TokenStoreFile, "":
		store, err := boltstore.OpenTokenStore(deps.Tokens.File)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("unsupported token store %q", deps.Tokens.Mode)
	}
}
