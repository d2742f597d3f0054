package crawl

import (
	"fmt"
	"sort"
	"time"
)

// Defaults mirroring the shipped settings file; flags and config files
// override them.
const (
	DefaultDepth           = 3
	DefaultThreads         = 4
	DefaultPercentage      = 100
	DefaultTimeout         = 5 * time.Second
	DefaultOutputDir       = "crawler_output"
	DefaultCheckpointEvery = 30 * time.Second
)

// Config captures one validated crawl invocation. Behavior elsewhere
// dispatches on these fields, never on ambient flags.
type Config struct {
	// Seeds are normalized URL keys; LoadSeeds builds them from operator
	// input.
	Seeds []string
	// Depth bounds traversal; seeds sit at depth 0.
	Depth int
	// Threads is the fetch worker count, the concurrency ceiling.
	Threads int
	// Percentage of each page's extracted links admitted, 0..100.
	Percentage int
	// Timeout bounds every individual fetch.
	Timeout time.Duration
	// Exfiltrate enables longest-unique-chain tracking.
	Exfiltrate bool
	// SearchLinks toggles link extraction; off means seeds only.
	SearchLinks bool
	// FollowRedirects toggles HTTP redirect following on fetches.
	FollowRedirects bool
	// SameHostOnly restricts admission to hosts present in the seed list.
	SameHostOnly bool
	// Keyword, when set, is searched case-insensitively in every body.
	Keyword string
	// UserAgents rotates round-robin across fetches.
	UserAgents []string
	// OutputDir holds the checkpoint, reports, and archived pages.
	OutputDir string
	// Resume rehydrates state from the last checkpoint before fetching.
	Resume bool
	// CheckpointEvery is the periodic checkpoint interval.
	CheckpointEvery time.Duration
	// RetryAttempts re-fetches failed URLs when > 0. Default 0: failures are
	// recorded, never retried.
	RetryAttempts int
}

// Validate checks every field and returns a *ConfigError on the first
// violation. It runs before any network activity.
func (c Config) Validate() error {
	if len(c.Seeds) == 0 {
		return &ConfigError{Field: "seeds", Reason: "at least one seed URL is required"}
	}
	for _, s := range c.Seeds {
		if s == "" {
			return &ConfigError{Field: "seeds", Reason: "empty seed URL"}
		}
	}
	if c.Depth < 0 {
		return &ConfigError{Field: "depth", Reason: fmt.Sprintf("must be >= 0, got %d", c.Depth)}
	}
	if c.Threads < 1 {
		return &ConfigError{Field: "threads", Reason: fmt.Sprintf("must be >= 1, got %d", c.Threads)}
	}
	if c.Percentage < 0 || c.Percentage > 100 {
		return &ConfigError{Field: "percentage", Reason: fmt.Sprintf("must be between 0 and 100, got %d", c.Percentage)}
	}
	if c.Timeout <= 0 {
		return &ConfigError{Field: "timeout", Reason: "must be positive"}
	}
	if c.OutputDir == "" {
		return &ConfigError{Field: "output", Reason: "output directory is required"}
	}
	if c.CheckpointEvery <= 0 {
		return &ConfigError{Field: "checkpoint_every", Reason: "must be positive"}
	}
	if c.RetryAttempts < 0 {
		return &ConfigError{Field: "retry_attempts", Reason: fmt.Sprintf("must be >= 0, got %d", c.RetryAttempts)}
	}
	return nil
}

// Fingerprint identifies the crawl shape a snapshot belongs to. Two
// invocations are resume-compatible only when seeds, depth, and percentage
// all agree.
type Fingerprint struct {
	Seeds      []string `json:"seeds"`
	Depth      int      `json:"depth"`
	Percentage int      `json:"percentage"`
	Digest     string   `json:"digest,omitempty"`
}

// Fingerprint derives the invocation fingerprint with seeds sorted for
// order-insensitive comparison.
func (c Config) Fingerprint() Fingerprint {
	seeds := append([]string(nil), c.Seeds...)
	sort.Strings(seeds)
	return Fingerprint{Seeds: seeds, Depth: c.Depth, Percentage: c.Percentage}
}

// Canonical renders the fingerprint fields in a stable form for digesting.
func (f Fingerprint) Canonical() []byte {
	out := make([]byte, 0, 64)
	for _, s := range f.Seeds {
		out = append(out, s...)
		out = append(out, '\n')
	}
	out = append(out, fmt.Sprintf("depth=%d\npercentage=%d\n", f.Depth, f.Percentage)...)
	return out
}

// Matches compares semantic fields and wraps ErrIncompatibleSnapshot naming
// the first mismatch, so a refused resume tells the operator what changed.
func (f Fingerprint) Matches(other Fingerprint) error {
	if f.Depth != other.Depth {
		return fmt.Errorf("%w: snapshot depth %d, invocation depth %d", ErrIncompatibleSnapshot, f.Depth, other.Depth)
	}
	if f.Percentage != other.Percentage {
		return fmt.Errorf("%w: snapshot percentage %d, invocation percentage %d",
			ErrIncompatibleSnapshot, f.Percentage, other.Percentage)
	}
	if len(f.Seeds) != len(other.Seeds) {
		return fmt.Errorf("%w: snapshot has %d seeds, invocation has %d", ErrIncompatibleSnapshot, len(f.Seeds), len(other.Seeds))
	}
	for i := range f.Seeds {
		if f.Seeds[i] != other.Seeds[i] {
			return fmt.Errorf("%w: seed %q not in invocation", ErrIncompatibleSnapshot, f.Seeds[i])
		}
	}
	return nil
}
