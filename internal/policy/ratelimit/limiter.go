// Package ratelimit implements a token bucket rate limiter for per-domain
// fetch pacing.
package ratelimit

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"
)

var waitDelaySeconds = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "linkhound_rate_limit_delay_seconds",
		Help:    "Delay introduced by the per-domain rate limiter.",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"domain"},
)

// Limiter manages per-domain rate limits. Each domain gets its own token
// bucket; waiting on one domain never stalls another.
type Limiter struct {
	mu           sync.Mutex
	limiters     map[string]*rate.Limiter
	defaultRate  rate.Limit
	defaultBurst int
}

// Config holds rate limiter configuration.
type Config struct {
	// PerDomainRPS caps request rate per domain; <= 0 disables limiting.
	PerDomainRPS float64
	// Burst is the bucket size, minimum 1.
	Burst int
}

// New creates a new Limiter.
func New(cfg Config) *Limiter {
	r := rate.Limit(cfg.PerDomainRPS)
	if cfg.PerDomainRPS <= 0 {
		r = rate.Inf
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  r,
		defaultBurst: burst,
	}
}

// Wait blocks until a token is available for the URL's domain, respecting the
// context.
func (l *Limiter) Wait(ctx context.Context, rawURL string) error {
	domain := "unknown"
	if u, err := url.Parse(rawURL); err == nil && u.Hostname() != "" {
		domain = u.Hostname()
	}

	l.mu.Lock()
	limiter, exists := l.limiters[domain]
	if !exists {
		limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
		l.limiters[domain] = limiter
	}
	l.mu.Unlock()

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	if delay := time.Since(start); delay > time.Millisecond {
		waitDelaySeconds.WithLabelValues(domain).Observe(delay.Seconds())
	}
	return nil
}
