package crawl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Seeds:           []string{"https://example.com/"},
		Depth:           DefaultDepth,
		Threads:         DefaultThreads,
		Percentage:      DefaultPercentage,
		Timeout:         DefaultTimeout,
		SearchLinks:     true,
		OutputDir:       DefaultOutputDir,
		CheckpointEvery: DefaultCheckpointEvery,
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"no seeds", func(c *Config) { c.Seeds = nil }, "seeds"},
		{"blank seed", func(c *Config) { c.Seeds = []string{""} }, "seeds"},
		{"negative depth", func(c *Config) { c.Depth = -1 }, "depth"},
		{"zero threads", func(c *Config) { c.Threads = 0 }, "threads"},
		{"percentage below range", func(c *Config) { c.Percentage = -1 }, "percentage"},
		{"percentage above range", func(c *Config) { c.Percentage = 101 }, "percentage"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }, "output"},
		{"zero checkpoint interval", func(c *Config) { c.CheckpointEvery = 0 }, "checkpoint_every"},
		{"negative retries", func(c *Config) { c.RetryAttempts = -1 }, "retry_attempts"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			require.Equal(t, tc.field, cfgErr.Field)
		})
	}
}

func TestConfigValidateAllowsEdges(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Depth = 0
	cfg.Percentage = 0
	require.NoError(t, cfg.Validate())

	cfg = validConfig()
	cfg.Percentage = 100
	cfg.Threads = 1
	require.NoError(t, cfg.Validate())
}

func TestFingerprintSeedOrderInsensitive(t *testing.T) {
	t.Parallel()

	a := Config{Seeds: []string{"https://b.example/", "https://a.example/"}, Depth: 2, Percentage: 50}
	b := Config{Seeds: []string{"https://a.example/", "https://b.example/"}, Depth: 2, Percentage: 50}
	require.NoError(t, a.Fingerprint().Matches(b.Fingerprint()))
	require.Equal(t, a.Fingerprint().Canonical(), b.Fingerprint().Canonical())
}

func TestFingerprintMismatches(t *testing.T) {
	t.Parallel()

	base := Config{Seeds: []string{"https://a.example/"}, Depth: 2, Percentage: 100}

	t.Run("depth", func(t *testing.T) {
		other := base
		other.Depth = 3
		err := base.Fingerprint().Matches(other.Fingerprint())
		require.ErrorIs(t, err, ErrIncompatibleSnapshot)
		require.Contains(t, err.Error(), "depth")
	})
	t.Run("percentage", func(t *testing.T) {
		other := base
		other.Percentage = 40
		err := base.Fingerprint().Matches(other.Fingerprint())
		require.ErrorIs(t, err, ErrIncompatibleSnapshot)
	})
	t.Run("seed set", func(t *testing.T) {
		other := base
		other.Seeds = []string{"https://z.example/"}
		err := base.Fingerprint().Matches(other.Fingerprint())
		require.ErrorIs(t, err, ErrIncompatibleSnapshot)
	})
	t.Run("seed count", func(t *testing.T) {
		other := base
		other.Seeds = []string{"https://a.example/", "https://b.example/"}
		err := base.Fingerprint().Matches(other.Fingerprint())
		require.ErrorIs(t, err, ErrIncompatibleSnapshot)
	})
}
