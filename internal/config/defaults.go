package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	DefaultBaseURL           = "http://localhost:8080/api"
	DefaultUserAgent         = "storefront-client/0.1.0"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultMaxAttempts       = 1
	DefaultInitialBackoff    = 250 * time.Millisecond
	DefaultMaxBackoff        = 5 * time.Second
	DefaultBackoffMultiplier = 2.0
	DefaultPageSize          = 10
	DefaultFetchTimeout      = 15 * time.Second
	DefaultDebounce          = 300 * time.Millisecond
	DefaultRedisAddr         = "localhost:6379"
	DefaultLogLevel          = "info"
)

// EnvPrefix prefixes every environment override, e.g. STOREFRONT_API_BASE_URL.
const EnvPrefix = "STOREFRONT"

// ConfigDir returns the per-user configuration directory
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".storefront"
	}
	return filepath.Join(home, ".storefront")
}

// ConfigFilePath returns the default config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
