package crawl

import (
	"fmt"
	"net/url"
	"strings"
)

// Normalize standardizes a raw URL into the key used for deduplication.
// It lowercases the scheme and host, removes default ports, strips fragments,
// sorts query parameters, and trims the trailing slash from non-root paths.
// Normalizing an already-normalized key returns the key unchanged.
func Normalize(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty string", ErrInvalidURL)
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidURL, u.Scheme, trimmed)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host in %q", ErrInvalidURL, trimmed)
	}

	// Remove default ports
	if u.Scheme == "http" {
		u.Host = strings.TrimSuffix(u.Host, ":80")
	}
	if u.Scheme == "https" {
		u.Host = strings.TrimSuffix(u.Host, ":443")
	}

	// Remove fragment
	u.Fragment = ""

	// Sort query parameters
	q := u.Query()
	u.RawQuery = q.Encode()

	// An absent path and the bare root are the same page; deeper paths drop
	// the trailing slash.
	switch {
	case u.Path == "":
		u.Path = "/"
	case u.Path != "/":
		u.Path = strings.TrimSuffix(u.Path, "/")
	}

	return u.String(), nil
}

// EnsureScheme prefixes https:// when a seed URL omits its scheme. URLs that
// already carry a scheme pass through untouched so Normalize can judge them.
// Seeds are operator input; extracted links arrive absolute and never pass
// through here.
func EnsureScheme(rawURL string) string {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" || strings.Contains(trimmed, "://") {
		return trimmed
	}
	return "https://" + trimmed
}

// Host extracts the host label from a URL key, empty when unparseable.
func Host(key string) string {
	u, err := url.Parse(key)
	if err != nil {
		return ""
	}
	return u.Host
}
