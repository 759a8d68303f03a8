// Package config loads the storefront CLI configuration from defaults, a
// YAML file, STOREFRONT_* environment variables and bound flags.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/storefront-client/pkg/client"
	"github.com/Sternrassler/storefront-client/pkg/logging"
)

// Config represents the application configuration
type Config struct {
	API     APIConfig     `mapstructure:"api" yaml:"api"`
	Fetch   FetchConfig   `mapstructure:"fetch" yaml:"fetch"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// APIConfig contains storefront API transport settings
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	UserAgent      string        `mapstructure:"user_agent" yaml:"user_agent"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Retry          RetryConfig   `mapstructure:"retry" yaml:"retry"`
}

// RetryConfig contains transport retry settings. One attempt means no retry.
type RetryConfig struct {
	MaxAttempts    int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff" yaml:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff" yaml:"max_backoff"`
	Multiplier     float64       `mapstructure:"multiplier" yaml:"multiplier"`
}

// FetchConfig contains controller settings
type FetchConfig struct {
	PageSize int           `mapstructure:"page_size" yaml:"page_size"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	Dedup    bool          `mapstructure:"dedup" yaml:"dedup"`
}

// RedisConfig contains response cache settings
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// MetricsConfig contains the metrics listener. Empty disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        DefaultBaseURL,
			UserAgent:      DefaultUserAgent,
			RequestTimeout: DefaultRequestTimeout,
			Retry: RetryConfig{
				MaxAttempts:    DefaultMaxAttempts,
				InitialBackoff: DefaultInitialBackoff,
				MaxBackoff:     DefaultMaxBackoff,
				Multiplier:     DefaultBackoffMultiplier,
			},
		},
		Fetch: FetchConfig{
			PageSize: DefaultPageSize,
			Timeout:  DefaultFetchTimeout,
			Debounce: DefaultDebounce,
		},
		Redis: RedisConfig{
			Addr: DefaultRedisAddr,
		},
		Logging: LoggingConfig{
			Level: DefaultLogLevel,
		},
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL (got %q)", c.API.BaseURL)
	}
	if c.API.UserAgent == "" {
		return fmt.Errorf("api.user_agent is required")
	}
	if c.API.RequestTimeout <= 0 {
		return fmt.Errorf("api.request_timeout must be positive (got %s)", c.API.RequestTimeout)
	}
	if c.API.Retry.MaxAttempts < 1 {
		return fmt.Errorf("api.retry.max_attempts must be >= 1 (got %d)", c.API.Retry.MaxAttempts)
	}
	if c.API.Retry.MaxAttempts > 1 && c.API.Retry.Multiplier < 1 {
		return fmt.Errorf("api.retry.multiplier must be >= 1 (got %g)", c.API.Retry.Multiplier)
	}
	if c.Fetch.PageSize < 1 {
		return fmt.Errorf("fetch.page_size must be >= 1 (got %d)", c.Fetch.PageSize)
	}
	if c.Fetch.Debounce < 0 {
		return fmt.Errorf("fetch.debounce must not be negative (got %s)", c.Fetch.Debounce)
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	return nil
}

// ClientConfig builds the HTTP client configuration. redisClient may be nil.
func (c *Config) ClientConfig(redisClient *redis.Client) client.Config {
	cfg := client.DefaultConfig(c.API.BaseURL, c.API.UserAgent)
	cfg.RequestTimeout = c.API.RequestTimeout
	cfg.Redis = redisClient
	cfg.Retry = client.RetryConfig{
		MaxAttempts:       c.API.Retry.MaxAttempts,
		InitialBackoff:    c.API.Retry.InitialBackoff,
		MaxBackoff:        c.API.Retry.MaxBackoff,
		BackoffMultiplier: c.API.Retry.Multiplier,
	}
	return cfg
}

// RedisOptions returns the Redis connection options, nil when the cache is
// disabled.
func (c *Config) RedisOptions() *redis.Options {
	if !c.Redis.Enabled {
		return nil
	}
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// LoggingSetup returns the logger configuration.
func (c *Config) LoggingSetup() logging.Config {
	level, _ := logging.ParseLevel(c.Logging.Level)
	cfg := logging.DefaultConfig()
	cfg.Level = level
	cfg.Pretty = c.Logging.Pretty
	return cfg
}
