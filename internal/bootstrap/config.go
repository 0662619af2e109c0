package bootstrap

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/target/storefront-go/config"
)

// LoggerOptions configures InitLogger.
type LoggerOptions struct {
	// Writer receives log lines. Defaults to stderr so command output on
	// stdout stays machine-readable.
	Writer io.Writer
	Level  slog.Level
	// Text switches to a human-readable handler (dev mode).
	Text bool
}

// InitLogger initializes the structured logger and installs it as the default.
func InitLogger(opts LoggerOptions) *slog.Logger {
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	var handler slog.Handler = slog.NewJSONHandler(w, handlerOpts)
	if opts.Text {
		handler = slog.NewTextHandler(w, handlerOpts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// LoggerOptionsFromConfig derives logger options from the app config.
func LoggerOptionsFromConfig(cfg *config.AppConfig) LoggerOptions {
	return LoggerOptions{Level: cfg.SlogLevel(), Text: cfg.IsDev}
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (config.AppConfig, error) {
	// Load .env file if it exists (development)
	if err := godotenv.Load(); err != nil {
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			return config.AppConfig{}, fmt.Errorf("load .env file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sanitize()
	return cfg, nil
}
