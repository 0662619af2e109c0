package config

import (
	"strings"
	"time"
)

const (
	defaultAPITimeout  = 30 * time.Second
	defaultLogCooldown = 10 * time.Second
)

// APIConfig contains storefront backend API configuration.
type APIConfig struct {
	// BaseURL is the API root. A relative path is resolved against Origin.
	BaseURL string `env:"API_BASE_URL" envDefault:"/api"`

	// Origin is the scheme and host a relative BaseURL is resolved against.
	Origin string `env:"API_ORIGIN" envDefault:"http://localhost:3000"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"30s"`

	// UserAgent is sent with every request.
	UserAgent string `env:"API_USER_AGENT" envDefault:"storefront-go"`

	// UnauthorizedLogCooldown is the minimum gap between two 401 warnings
	// for the same endpoint.
	UnauthorizedLogCooldown time.Duration `env:"API_UNAUTHORIZED_LOG_COOLDOWN" envDefault:"10s"`
}

// Sanitize applies guardrails to API configuration values.
func (a *APIConfig) Sanitize() {
	a.BaseURL = strings.TrimSpace(a.BaseURL)
	if a.BaseURL == "" {
		a.BaseURL = "/api"
	}
	a.Origin = strings.TrimRight(strings.TrimSpace(a.Origin), "/")
	a.UserAgent = strings.TrimSpace(a.UserAgent)
	if a.Timeout <= 0 {
		a.Timeout = defaultAPITimeout
	}
	if a.UnauthorizedLogCooldown <= 0 {
		a.UnauthorizedLogCooldown = defaultLogCooldown
	}
}
