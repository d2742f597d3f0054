package crawl

import (
	"errors"
	"fmt"
)

// ErrInvalidURL marks a candidate link that cannot be turned into a URL key.
// The link is dropped and the crawl continues.
var ErrInvalidURL = errors.New("invalid url")

// ErrIncompatibleSnapshot signals a resume attempt against a snapshot whose
// seeds, depth, or percentage differ from the current invocation.
var ErrIncompatibleSnapshot = errors.New("incompatible snapshot")

// ConfigError reports an invalid setting or seed source. It is fatal: the
// crawl never starts and no network activity happens.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// FetchError wraps a failed page fetch. Timeout separates deadline expiry
// from other transport failures; either way the URL is recorded as failed and
// not retried.
type FetchError struct {
	URL     string
	Timeout bool
	Err     error
}

func (e *FetchError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("fetch %s: timeout: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StorageError wraps a checkpoint or archive write failure. It is logged and
// the crawl continues without a fresh checkpoint.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a fetch failure caused by the per-fetch
// deadline.
func IsTimeout(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Timeout
}
