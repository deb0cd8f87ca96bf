package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/kanda-claim/kanda/internal/storage"
)

// Config holds all configuration for the CLI
type Config struct {
	// API Configuration
	API APIConfig

	// Session Configuration
	Session SessionConfig

	// Logging Configuration
	Logging LoggingConfig
}

// APIConfig holds the base URLs of the Kanda backend and web app
type APIConfig struct {
	URL     string // API_URL, base of login/register and every API request
	WebURL  string // WEB_URL, base of web requests and dashboard links
	Timeout time.Duration
}

// SessionConfig holds where the session is persisted
type SessionConfig struct {
	Backend string // file, keyring, memory
	Dir     string // directory of the file backend
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // json, console
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env files (fails silently if files don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// HTTP timeout - default to 30 seconds
	timeout := 30 * time.Second
	if raw := os.Getenv("KANDA_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid KANDA_HTTP_TIMEOUT %q: %w", raw, err)
		}
		timeout = d
	}

	// Session backend - a file under ~/.config/kanda unless overridden
	backend := os.Getenv("KANDA_SESSION_BACKEND")
	if backend == "" {
		backend = storage.BackendFile
	}

	// Logging configuration - quiet by default, the CLI prints its own output
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "warn"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "console"
	}

	cfg := &Config{
		API: APIConfig{
			URL:     strings.TrimSpace(os.Getenv("API_URL")),
			WebURL:  strings.TrimSpace(os.Getenv("WEB_URL")),
			Timeout: timeout,
		},
		Session: SessionConfig{
			Backend: strings.ToLower(backend),
			Dir:     os.Getenv("KANDA_SESSION_DIR"),
		},
		Logging: LoggingConfig{
			Level:  logLevel,
			Format: logFormat,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would only fail later at request time
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"API_URL": c.API.URL, "WEB_URL": c.API.WebURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s must be an http(s) URL, got %q", name, raw)
		}
	}

	switch c.Session.Backend {
	case storage.BackendFile, storage.BackendKeyring, storage.BackendMemory:
	default:
		return fmt.Errorf("invalid KANDA_SESSION_BACKEND '%s', must be one of: file, keyring, memory", c.Session.Backend)
	}

	if c.API.Timeout <= 0 {
		return fmt.Errorf("KANDA_HTTP_TIMEOUT must be positive")
	}
	return nil
}

// RequireAPI reports a helpful error when API_URL is not set
func (c *Config) RequireAPI() error {
	if c.API.URL == "" {
		return fmt.Errorf("API_URL is not set. Add it to .env or export it, e.g. API_URL=https://api.kanda.rw")
	}
	return nil
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying cfg
func NewContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, contextKey{}, cfg)
}

// FromContext returns the config stored by NewContext
func FromContext(ctx context.Context) (*Config, bool) {
	cfg, ok := ctx.Value(contextKey{}).(*Config)
	return cfg, ok && cfg != nil
}
