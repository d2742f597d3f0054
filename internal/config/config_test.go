package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/linkhound/internal/crawl"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	v := viper.New()
	Init(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Seeds.URLFile != "urls.txt" {
		t.Fatalf("expected default url_file urls.txt, got %q", cfg.Seeds.URLFile)
	}
	if cfg.Crawl.Depth != 3 || cfg.Crawl.Threads != 4 || cfg.Crawl.Percentage != 100 {
		t.Fatalf("unexpected crawl defaults: %+v", cfg.Crawl)
	}
	if !cfg.Crawl.SearchLinks || cfg.Crawl.Resume {
		t.Fatalf("expected search_links on and resume off: %+v", cfg.Crawl)
	}
	if cfg.Output.Dir != "crawler_output" {
		t.Fatalf("expected default output dir crawler_output, got %q", cfg.Output.Dir)
	}
	if cfg.Storage.Backend != "local" {
		t.Fatalf("expected default storage backend local, got %q", cfg.Storage.Backend)
	}
	if got := cfg.FetchTimeout(); got != 5*time.Second {
		t.Fatalf("expected fetch timeout 5s, got %v", got)
	}
	if got := cfg.CheckpointInterval(); got != 30*time.Second {
		t.Fatalf("expected checkpoint interval 30s, got %v", got)
	}
}

func TestLoadWithFileOverrides(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
seeds:
  url: https://example.com
crawl:
  depth: 5
  threads: 8
  percentage: 40
  timeout_seconds: 12
  exfiltrate: true
  keyword: widget
rate_limit:
  rps: 2.5
  burst: 3
output:
  dir: /tmp/hound
storage:
  backend: gcs
  gcs_bucket: pages-bucket
db:
  dsn: postgres://localhost/linkhound
pubsub:
  project_id: proj
  topic_id: crawl-done
server:
  enabled: true
  addr: ":9090"
  api_key: secret
logging:
  level: debug
  development: false
`
	if err := os.WriteFile(path, []byte(configYAML), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	v := viper.New()
	Init(v)
	v.SetConfigFile(path)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Seeds.URL != "https://example.com" {
		t.Fatalf("expected seed URL override, got %q", cfg.Seeds.URL)
	}
	if cfg.Crawl.Depth != 5 || cfg.Crawl.Threads != 8 || cfg.Crawl.Percentage != 40 {
		t.Fatalf("expected crawl overrides to apply: %+v", cfg.Crawl)
	}
	if !cfg.Crawl.Exfiltrate || cfg.Crawl.Keyword != "widget" {
		t.Fatalf("expected exfiltrate and keyword overrides: %+v", cfg.Crawl)
	}
	if cfg.RateLimit.RPS != 2.5 || cfg.RateLimit.Burst != 3 {
		t.Fatalf("expected rate limit overrides: %+v", cfg.RateLimit)
	}
	if cfg.Storage.Backend != "gcs" || cfg.Storage.GCSBucket != "pages-bucket" {
		t.Fatalf("expected gcs storage config: %+v", cfg.Storage)
	}
	if cfg.DB.DSN != "postgres://localhost/linkhound" {
		t.Fatalf("expected db dsn override, got %q", cfg.DB.DSN)
	}
	if cfg.PubSub.ProjectID != "proj" || cfg.PubSub.TopicID != "crawl-done" {
		t.Fatalf("expected pubsub overrides: %+v", cfg.PubSub)
	}
	if !cfg.Server.Enabled || cfg.Server.Addr != ":9090" || cfg.Server.APIKey != "secret" {
		t.Fatalf("expected server overrides: %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Development {
		t.Fatalf("expected logging overrides: %+v", cfg.Logging)
	}
	if got := cfg.FetchTimeout(); got != 12*time.Second {
		t.Fatalf("expected fetch timeout 12s, got %v", got)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("LINKHOUND_CRAWL_DEPTH", "7")
	t.Setenv("LINKHOUND_OUTPUT_DIR", "env_output")

	v := viper.New()
	Init(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Crawl.Depth != 7 {
		t.Fatalf("expected env depth 7, got %d", cfg.Crawl.Depth)
	}
	if cfg.Output.Dir != "env_output" {
		t.Fatalf("expected env output dir, got %q", cfg.Output.Dir)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Parallel()

	v := viper.New()
	Init(v)
	v.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(v); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestConfigValidateErrors(t *testing.T) {
	t.Parallel()

	base := Config{
		Crawl: CrawlConfig{
			Depth:             3,
			Threads:           4,
			Percentage:        100,
			TimeoutSeconds:    5,
			CheckpointSeconds: 30,
		},
		Output:  OutputConfig{Dir: "out"},
		Storage: StorageConfig{Backend: "local"},
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{
			name:   "negative depth",
			mutate: func(c *Config) { c.Crawl.Depth = -1 },
			want:   "crawl.depth",
		},
		{
			name:   "zero threads",
			mutate: func(c *Config) { c.Crawl.Threads = 0 },
			want:   "crawl.threads",
		},
		{
			name:   "percentage out of range",
			mutate: func(c *Config) { c.Crawl.Percentage = 101 },
			want:   "crawl.percentage",
		},
		{
			name:   "zero timeout",
			mutate: func(c *Config) { c.Crawl.TimeoutSeconds = 0 },
			want:   "crawl.timeout_seconds",
		},
		{
			name:   "negative rps",
			mutate: func(c *Config) { c.RateLimit.RPS = -1 },
			want:   "rate_limit.rps",
		},
		{
			name:   "missing output dir",
			mutate: func(c *Config) { c.Output.Dir = "" },
			want:   "output.dir",
		},
		{
			name:   "unknown storage backend",
			mutate: func(c *Config) { c.Storage.Backend = "s3" },
			want:   "storage.backend",
		},
		{
			name:   "gcs missing bucket",
			mutate: func(c *Config) { c.Storage.Backend = "gcs" },
			want:   "storage.gcs_bucket",
		},
		{
			name:   "pubsub half configured",
			mutate: func(c *Config) { c.PubSub.ProjectID = "proj" },
			want:   "pubsub",
		},
		{
			name:   "server enabled without addr",
			mutate: func(c *Config) { c.Server.Enabled = true; c.Server.Addr = "" },
			want:   "server.addr",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
			var cfgErr *crawl.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *crawl.ConfigError, got %T", err)
			}
		})
	}
}
