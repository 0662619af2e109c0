package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TokenStoreMode selects where the bearer token is persisted.
type TokenStoreMode string

const (
	// TokenStoreMemory keeps the token for the life of the process only.
	TokenStoreMemory TokenStoreMode = "memory"
	// TokenStoreFile persists the token in a local bbolt file.
	TokenStoreFile TokenStoreMode = "file"
	// TokenStoreRedis persists the token in Redis, shared between processes.
	TokenStoreRedis TokenStoreMode = "redis"
)

// UnmarshalText implements encoding.TextUnmarshaler for TokenStoreMode.
func (m *TokenStoreMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "memory", "file", "redis":
		*m = TokenStoreMode(v)
		return nil
	default:
		return fmt.Errorf("invalid TokenStoreMode: %q (valid options: memory, file, redis)", v)
	}
}

// TokenStoreConfig groups token persistence configuration.
type TokenStoreConfig struct {
	Mode TokenStoreMode `env:"TOKEN_STORE" envDefault:"file"`

	// File is the bbolt database path (Mode=file). Defaults to
	// $XDG_CONFIG_HOME/storefront/token.db.
	File string `env:"TOKEN_FILE"`

	// Profile namespaces the Redis key so several identities can share one
	// Redis (Mode=redis).
	Profile string `env:"TOKEN_PROFILE" envDefault:"default"`

	// TTL expires the Redis key; zero keeps it until logout (Mode=redis).
	TTL time.Duration `env:"TOKEN_TTL" envDefault:"0s"`
}

// Sanitize applies guardrails to token store configuration values.
func (t *TokenStoreConfig) Sanitize() {
	if t.Mode == "" {
		t.Mode = TokenStoreFile
	}
	t.Profile = strings.TrimSpace(t.Profile)
	if t.Profile == "" {
		t.Profile = "default"
	}
	if t.TTL < 0 {
		t.TTL = 0
	}
	t.File = strings.TrimSpace(t.File)
	if t.File == "" {
		t.File = defaultTokenFile()
	}
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "storefront", "token.db")
}
