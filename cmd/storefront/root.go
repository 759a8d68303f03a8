package main

import (
	"github.com/spf13/cobra"

	"github.com/Sternrassler/storefront-client/internal/config"
)

func newRootCmd() *cobra.Command {
	a := newApp()

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Browse a storefront catalog from the terminal",
		Long: `storefront loads category product listings page by page, runs debounced
live searches and lists category media against a storefront API.

Configuration is read from ~/.storefront/config.yaml (or --config),
STOREFRONT_* environment variables and flags, in increasing precedence.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml or ~/.storefront/config.yaml)")
	flags.String("base-url", config.DefaultBaseURL, "Storefront API base URL")
	flags.String("user-agent", config.DefaultUserAgent, "User-Agent header")
	flags.Duration("timeout", config.DefaultFetchTimeout, "Per-page request timeout")
	flags.Int("page-size", config.DefaultPageSize, "Products per page")
	flags.Duration("debounce", config.DefaultDebounce, "Live search quiet interval")
	flags.Bool("dedup", false, "Drop items repeated across pages")
	flags.Int("retries", config.DefaultMaxAttempts, "Transport attempts per request (1 = no retry)")
	flags.Bool("redis", false, "Revalidate responses through the Redis cache")
	flags.String("redis-addr", config.DefaultRedisAddr, "Redis address")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flags.Bool("pretty", false, "Human-readable log output")
	flags.String("metrics-addr", "", "Serve Prometheus metrics on this address")

	bind := map[string]string{
		"api.base_url":           "base-url",
		"api.user_agent":         "user-agent",
		"api.retry.max_attempts": "retries",
		"fetch.timeout":          "timeout",
		"fetch.page_size":        "page-size",
		"fetch.debounce":         "debounce",
		"fetch.dedup":            "dedup",
		"redis.enabled":          "redis",
		"redis.addr":             "redis-addr",
		"logging.level":          "log-level",
		"logging.pretty":         "pretty",
		"metrics.addr":           "metrics-addr",
	}
	for key, flag := range bind {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newProductsCmd(a),
		newSearchCmd(a),
		newMediaCmd(a),
		newConfigCmd(a),
	)

	return root
}
