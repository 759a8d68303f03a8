package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/Sternrassler/storefront-client/pkg/logging"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(viper.New(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Retry.MaxAttempts != 1 {
		t.Errorf("MaxAttempts = %d, want 1", cfg.API.Retry.MaxAttempts)
	}
	if cfg.Fetch.PageSize != 10 || cfg.Fetch.Debounce != 300*time.Millisecond || cfg.Fetch.Timeout != 15*time.Second {
		t.Errorf("Fetch = %+v", cfg.Fetch)
	}
	if cfg.Redis.Enabled {
		t.Error("Redis should be disabled by default")
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	content := `
api:
  base_url: https://shop.test/api
  request_timeout: 5s
fetch:
  page_size: 20
  debounce: 150ms
redis:
  enabled: true
  addr: cache:6379
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STOREFRONT_FETCH_PAGE_SIZE", "25")
	t.Setenv("STOREFRONT_API_USER_AGENT", "env-agent/2.0")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://shop.test/api" || cfg.API.RequestTimeout != 5*time.Second {
		t.Errorf("API = %+v", cfg.API)
	}
	if cfg.API.UserAgent != "env-agent/2.0" {
		t.Errorf("UserAgent = %q, want env override", cfg.API.UserAgent)
	}
	if cfg.Fetch.PageSize != 25 {
		t.Errorf("PageSize = %d, want env override 25", cfg.Fetch.PageSize)
	}
	if cfg.Fetch.Debounce != 150*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Fetch.Debounce)
	}
	if opts := cfg.RedisOptions(); opts == nil || opts.Addr != "cache:6379" {
		t.Errorf("RedisOptions() = %+v", opts)
	}
	if cfg.LoggingSetup().Level != logging.LevelDebug {
		t.Errorf("LoggingSetup().Level = %q", cfg.LoggingSetup().Level)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() with a missing explicit file should fail")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.API.BaseURL = "https://shop.test"
	cfg.API.Retry.MaxAttempts = 3
	cfg.Fetch.Dedup = true
	cfg.Metrics.Addr = ":9090"

	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "base_url: https://shop.test") {
		t.Errorf("saved file:\n%s", data)
	}

	loaded, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.API.Retry.MaxAttempts != 3 || !loaded.Fetch.Dedup || loaded.Metrics.Addr != ":9090" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.API.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v", loaded.API.RequestTimeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "api.base_url is required"},
		{"relative base url", func(c *Config) { c.API.BaseURL = "/api" }, "absolute URL"},
		{"empty user agent", func(c *Config) { c.API.UserAgent = "" }, "api.user_agent"},
		{"zero timeout", func(c *Config) { c.API.RequestTimeout = 0 }, "api.request_timeout"},
		{"zero attempts", func(c *Config) { c.API.Retry.MaxAttempts = 0 }, "max_attempts"},
		{"bad multiplier", func(c *Config) { c.API.Retry.MaxAttempts = 3; c.API.Retry.Multiplier = 0.5 }, "multiplier"},
		{"zero page size", func(c *Config) { c.Fetch.PageSize = 0 }, "fetch.page_size"},
		{"negative debounce", func(c *Config) { c.Fetch.Debounce = -time.Second }, "fetch.debounce"},
		{"redis without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }, "redis.addr"},
		{"unknown log level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestClientConfig(t *testing.T) {
	cfg := Default()
	cfg.API.Retry.MaxAttempts = 4

	cc := cfg.ClientConfig(nil)
	if cc.BaseURL != cfg.API.BaseURL || cc.UserAgent != cfg.API.UserAgent {
		t.Errorf("ClientConfig() = %+v", cc)
	}
	if cc.Retry.MaxAttempts != 4 || cc.Retry.BackoffMultiplier != 2.0 {
		t.Errorf("Retry = %+v", cc.Retry)
	}
	if cc.Redis != nil {
		t.Error("Redis should be nil")
	}
	if cfg.RedisOptions() != nil {
		t.Error("RedisOptions() should be nil when disabled")
	}
}

// chdir changes the working directory to dir for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir(%q): %v", dir, err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("Chdir(%q): %v", old, err)
		}
	})
}
