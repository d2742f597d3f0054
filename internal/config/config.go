// Package config loads and validates linkhound configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/linkhound/internal/crawl"
)

// Config captures every knob loaded via Viper. Cobra flags are bound to the
// same keys, so precedence is flag > env > file > default.
type Config struct {
	Seeds     SeedsConfig     `mapstructure:"seeds"`
	Crawl     CrawlConfig     `mapstructure:"crawl"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Output    OutputConfig    `mapstructure:"output"`
	Storage   StorageConfig   `mapstructure:"storage"`
	DB        DBConfig        `mapstructure:"db"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SeedsConfig names where the seed URLs come from.
type SeedsConfig struct {
	// URL is a single seed; it takes precedence over URLFile when set.
	URL string `mapstructure:"url"`
	// URLFile is a newline-delimited seed list; "-" reads stdin.
	URLFile string `mapstructure:"url_file"`
}

// CrawlConfig governs traversal, sampling, and fetch behavior.
type CrawlConfig struct {
	Depth             int    `mapstructure:"depth"`
	Threads           int    `mapstructure:"threads"`
	Percentage        int    `mapstructure:"percentage"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	Exfiltrate        bool   `mapstructure:"exfiltrate"`
	SearchLinks       bool   `mapstructure:"search_links"`
	FollowRedirects   bool   `mapstructure:"follow_redirects"`
	SameHost          bool   `mapstructure:"same_host"`
	Keyword           string `mapstructure:"keyword"`
	UserAgent         string `mapstructure:"user_agent"`
	Resume            bool   `mapstructure:"resume"`
	CheckpointSeconds int    `mapstructure:"checkpoint_seconds"`
	RetryAttempts     int    `mapstructure:"retry_attempts"`
}

// RateLimitConfig paces fetches per domain; rps 0 disables pacing.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// OutputConfig locates the checkpoint, reports, and archived pages.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// StorageConfig selects the page-archive backend.
type StorageConfig struct {
	// Backend is one of local, gcs, noop.
	Backend   string `mapstructure:"backend"`
	GCSBucket string `mapstructure:"gcs_bucket"`
}

// DBConfig controls the optional Postgres run store. An empty DSN disables it.
type DBConfig struct {
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	ConnLifetimeMin int    `mapstructure:"conn_lifetime_minutes"`
}

// PubSubConfig holds the optional completion topic. Empty values disable it.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// ServerConfig controls the optional status HTTP server.
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig selects the zap profile.
type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Init wires defaults, the config search path, and the environment onto v.
// Callers may point v at an explicit file with SetConfigFile before Load.
func Init(v *viper.Viper) {
	v.SetEnvPrefix("LINKHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/linkhound/")
	v.AddConfigPath("$HOME/.linkhound/")
}

// Load reads any config file v can find, unmarshals, and validates. A missing
// file from the search path is fine; a missing explicit file is not.
func Load(v *viper.Viper) (Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("seeds.url_file", "urls.txt")
	v.SetDefault("crawl.depth", crawl.DefaultDepth)
	v.SetDefault("crawl.threads", crawl.DefaultThreads)
	v.SetDefault("crawl.percentage", crawl.DefaultPercentage)
	v.SetDefault("crawl.timeout_seconds", 5)
	v.SetDefault("crawl.exfiltrate", false)
	v.SetDefault("crawl.search_links", true)
	v.SetDefault("crawl.follow_redirects", true)
	v.SetDefault("crawl.same_host", false)
	v.SetDefault("crawl.keyword", "")
	v.SetDefault("crawl.resume", false)
	v.SetDefault("crawl.checkpoint_seconds", 30)
	v.SetDefault("crawl.retry_attempts", 0)
	v.SetDefault("rate_limit.rps", 0.0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("output.dir", crawl.DefaultOutputDir)
	v.SetDefault("storage.backend", "local")
	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits. Every violation is
// a *crawl.ConfigError so the CLI can exit with the config status code.
func (c Config) Validate() error {
	if c.Crawl.Depth < 0 {
		return &crawl.ConfigError{Field: "crawl.depth", Reason: "must be >= 0"}
	}
	if c.Crawl.Threads < 1 {
		return &crawl.ConfigError{Field: "crawl.threads", Reason: "must be >= 1"}
	}
	if c.Crawl.Percentage < 0 || c.Crawl.Percentage > 100 {
		return &crawl.ConfigError{Field: "crawl.percentage", Reason: "must be between 0 and 100"}
	}
	if c.Crawl.TimeoutSeconds <= 0 {
		return &crawl.ConfigError{Field: "crawl.timeout_seconds", Reason: "must be > 0"}
	}
	if c.Crawl.CheckpointSeconds <= 0 {
		return &crawl.ConfigError{Field: "crawl.checkpoint_seconds", Reason: "must be > 0"}
	}
	if c.Crawl.RetryAttempts < 0 {
		return &crawl.ConfigError{Field: "crawl.retry_attempts", Reason: "must be >= 0"}
	}
	if c.RateLimit.RPS < 0 {
		return &crawl.ConfigError{Field: "rate_limit.rps", Reason: "must be >= 0"}
	}
	if c.Output.Dir == "" {
		return &crawl.ConfigError{Field: "output.dir", Reason: "output directory is required"}
	}
	switch c.Storage.Backend {
	case "local", "noop":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return &crawl.ConfigError{Field: "storage.gcs_bucket", Reason: "required when backend is gcs"}
		}
	default:
		return &crawl.ConfigError{Field: "storage.backend", Reason: "must be one of local, gcs, noop"}
	}
	if (c.PubSub.ProjectID == "") != (c.PubSub.TopicID == "") {
		return &crawl.ConfigError{Field: "pubsub", Reason: "project_id and topic_id must be set together"}
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return &crawl.ConfigError{Field: "server.addr", Reason: "required when server is enabled"}
	}
	return nil
}

// FetchTimeout converts the per-fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Crawl.TimeoutSeconds) * time.Second
}

// CheckpointInterval converts the checkpoint cadence into a duration.
func (c Config) CheckpointInterval() time.Duration {
	return time.Duration(c.Crawl.CheckpointSeconds) * time.Second
}

// ConnLifetime converts the pool connection lifetime into a duration.
func (c DBConfig) ConnLifetime() time.Duration {
	return time.Duration(c.ConnLifetimeMin) * time.Minute
}
