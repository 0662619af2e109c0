package config

import "strings"

// RedisConfig contains Redis configuration for the redis token store.
type RedisConfig struct {
	URI                string   `env:"URI"                  envDefault:"localhost:6379"`
	Password           string   `env:"PASSWORD"             envDefault:""`
	DB                 int      `env:"DB"                   envDefault:"0"`
	KeyPrefix          string   `env:"KEY_PREFIX"           envDefault:"storefront:token:"`
	SentinelNodes      []string `env:"SENTINEL_NODES"       envDefault:""`
	SentinelMasterName string   `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string   `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool     `env:"USE_SENTINEL"         envDefault:"false"`
}

// Sanitize applies guardrails to Redis configuration values.
func (r *RedisConfig) Sanitize() {
	r.URI = strings.TrimSpace(r.URI)
	if r.DB < 0 {
		r.DB = 0
	}
	nodes := r.SentinelNodes[:0]
	for _, n := range r.SentinelNodes {
		if n = strings.TrimSpace(n); n != "" {
			nodes = append(nodes, n)
		}
	}
	r.SentinelNodes = nodes
	if len(r.SentinelNodes) == 0 {
		r.UseSentinel = false
	}
}
