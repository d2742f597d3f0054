// Package collyfetcher implements crawl.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/linkhound/internal/crawl"
)

// DefaultMaxRedirects bounds a followed redirect chain.
const DefaultMaxRedirects = 5

// Config controls collector behavior shared by every fetch.
type Config struct {
	// UserAgent is the fallback agent when a request does not carry one.
	UserAgent string
	// Timeout is the fallback per-fetch deadline.
	Timeout time.Duration
	// FollowRedirects follows 3xx chains up to MaxRedirects; when false the
	// redirect status itself is returned as the fetch result.
	FollowRedirects bool
	// MaxRedirects caps a followed chain, DefaultMaxRedirects when zero.
	MaxRedirects int
}

// Fetcher executes single-page fetches on clones of one base collector, so
// transport pooling is shared while per-fetch settings stay isolated.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher. Deduplication belongs to the crawl core, so the
// collector allows revisits; robots.txt handling is out of scope here.
func New(cfg Config) *Fetcher {
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
	)
	c.WithTransport(newHTTPTransport())
	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
	}
}

// Fetch executes a single HTTP GET using Colly. Any completed exchange is a
// success carrying its status code; only transport faults, timeouts, and
// cancellation produce a *crawl.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, request crawl.FetchRequest) (crawl.FetchResponse, error) {
	var (
		result   crawl.FetchResponse
		fetchErr error
	)
	start := time.Now()
	collector := f.buildCollector(ctx, request, start, &result, &fetchErr)

	if err := f.runCollector(ctx, collector, request.URL, &fetchErr); err != nil {
		return crawl.FetchResponse{}, err
	}
	return result, nil
}

func (f *Fetcher) buildCollector(
	ctx context.Context,
	request crawl.FetchRequest,
	start time.Time,
	result *crawl.FetchResponse,
	fetchErr *error,
) *colly.Collector {
	collector := f.baseCollector.Clone()
	collector.Context = ctx

	agent := request.UserAgent
	if agent == "" {
		agent = f.cfg.UserAgent
	}
	if agent != "" {
		collector.UserAgent = agent
	}

	timeout := request.Timeout
	if timeout == 0 {
		timeout = f.cfg.Timeout
	}
	if timeout == 0 {
		timeout = crawl.DefaultTimeout
	}
	collector.SetRequestTimeout(timeout)
	collector.SetRedirectHandler(f.redirectHandler())

	collector.OnResponse(func(r *colly.Response) {
		*result = crawl.FetchResponse{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			Body:        append([]byte(nil), r.Body...),
			ContentType: r.Headers.Get("Content-Type"),
			Duration:    time.Since(start),
		}
	})
	collector.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
	return collector
}

// redirectHandler implements the follow-redirects switch on the underlying
// client's redirect hook.
func (f *Fetcher) redirectHandler() func(req *http.Request, via []*http.Request) error {
	maxRedirects := f.cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	follow := f.cfg.FollowRedirects
	return func(_ *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		return nil
	}
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return &crawl.FetchError{URL: url, Err: ctx.Err()}
	case err := <-done:
		if err == nil {
			err = *fetchErr
		}
		if err != nil {
			return classifyFetchErr(url, err)
		}
		return nil
	}
}

// classifyFetchErr separates deadline expiry from other transport failures.
func classifyFetchErr(url string, err error) *crawl.FetchError {
	var netErr net.Error
	timeout := errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout())
	return &crawl.FetchError{URL: url, Timeout: timeout, Err: err}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
