// Package httpcache provides HTTP response caching with thundering herd prevention.
package httpcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sfcache"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/localfs"
	"github.com/codeGROOVE-dev/sfcache/pkg/store/null"
	"golang.org/x/time/rate"
)

// UserAgent is the browser User-Agent string used for outbound requests.
const UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:146.0) Gecko/20100101 Firefox/146.0"

// Stats tracks cache hit/miss counts.
type Stats struct {
	Hits   atomic.Int64
	Misses atomic.Int64
}

// Cacher allows external cache implementations for sharing across packages.
type Cacher interface {
	GetSet(ctx context.Context, key string, fetch func(context.Context) ([]byte, error), ttl ...time.Duration) ([]byte, error)
	TTL() time.Duration
}

// Cache wraps sfcache for HTTP response caching.
type Cache struct {
	*sfcache.TieredCache[string, []byte]

	ttl time.Duration
}

// New creates a Cache with disk persistence at ~/.cache/crewlink.
func New(ttl time.Duration) (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	return NewWithPath(ttl, filepath.Join(cacheDir, "crewlink"))
}

// NewNull creates a Cache with no persistence (all gets miss, all sets discard).
func NewNull() *Cache {
	tc, err := sfcache.NewTiered[string, []byte](null.New[string, []byte]())
	if err != nil {
		panic("sfcache.NewTiered with null store: " + err.Error())
	}
	return &Cache{TieredCache: tc, ttl: 0}
}

// NewWithPath creates a Cache with disk persistence at the specified path.
func NewWithPath(ttl time.Duration, cachePath string) (*Cache, error) {
	if err := os.MkdirAll(cachePath, 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	persist, err := localfs.New[string, []byte]("crewlink", cachePath)
	if err != nil {
		return nil, fmt.Errorf("create persistence layer: %w", err)
	}

	tc, err := sfcache.NewTiered[string, []byte](persist, sfcache.TTL(ttl))
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}

	return &Cache{TieredCache: tc, ttl: ttl}, nil
}

// TTL returns the default TTL for cache entries.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// URLToKey converts a URL to a cache key using SHA256 hash.
func URLToKey(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return hex.EncodeToString(hash[:])
}

// HTTPError represents an HTTP error response.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d fetching %s", e.StatusCode, e.URL)
}

// Fetcher issues rate-limited, retried, cached GET requests.
type Fetcher struct {
	cache    Cacher
	logger   *slog.Logger
	limiters sync.Map // host -> *rate.Limiter
	pace     rate.Limit
	stats    Stats
}

// NewFetcher creates a Fetcher. pace is the per-host request rate; cache may
// be nil to disable caching.
func NewFetcher(cache Cacher, pace rate.Limit, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{cache: cache, pace: pace, logger: logger}
}

// CacheStats returns the current hit/miss counts.
func (f *Fetcher) CacheStats() (hits, misses int64) {
	return f.stats.Hits.Load(), f.stats.Misses.Load()
}

// Fetch executes the request with per-host pacing and caching.
// HTTP and network errors are cached too, so a known-bad URL is not
// re-fetched within the TTL.
func (f *Fetcher) Fetch(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	// Include an auth marker in the key when cookies are attached.
	cacheKey := req.URL.String()
	if client.Jar != nil && len(client.Jar.Cookies(req.URL)) > 0 {
		cacheKey += "|auth"
	}

	if f.cache == nil {
		f.stats.Misses.Add(1)
		return f.doFetch(ctx, client, req)
	}

	var wasFetched bool
	data, err := f.cache.GetSet(ctx, URLToKey(cacheKey), func(ctx context.Context) ([]byte, error) {
		wasFetched = true
		f.stats.Misses.Add(1)
		f.logger.Debug("cache miss", "url", req.URL.String())

		body, fetchErr := f.doFetch(ctx, client, req)
		if fetchErr != nil {
			var httpErr *HTTPError
			if errors.As(fetchErr, &httpErr) {
				return fmt.Appendf(nil, "ERROR:%d", httpErr.StatusCode), nil
			}
			return fmt.Appendf(nil, "NETERR:%s", fetchErr.Error()), nil
		}
		return body, nil
	}, f.cache.TTL())

	if !wasFetched {
		f.stats.Hits.Add(1)
		f.logger.Debug("cache hit", "url", req.URL.String())
	}
	if err != nil {
		return nil, err
	}

	s := string(data)
	if errCode, found := strings.CutPrefix(s, "ERROR:"); found {
		code, _ := strconv.Atoi(errCode) //nolint:errcheck // 0 is acceptable default
		return nil, &HTTPError{StatusCode: code, URL: req.URL.String()}
	}
	if errMsg, found := strings.CutPrefix(s, "NETERR:"); found {
		return nil, fmt.Errorf("cached network error: %s", errMsg)
	}

	return data, nil
}

func (f *Fetcher) doFetch(ctx context.Context, client *http.Client, req *http.Request) ([]byte, error) {
	return retry.DoWithData(
		func() ([]byte, error) {
			if err := f.wait(ctx, req.URL); err != nil {
				return nil, err
			}

			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			defer resp.Body.Close() //nolint:errcheck // intentional

			if resp.StatusCode != http.StatusOK {
				return nil, &HTTPError{StatusCode: resp.StatusCode, URL: req.URL.String()}
			}

			return io.ReadAll(resp.Body)
		},
		retry.Context(ctx),
		retry.Attempts(2),                     // single retry
		retry.Delay(200*time.Millisecond),     // delay before retry
		retry.MaxJitter(100*time.Millisecond), // small jitter
		retry.RetryIf(isRetryableError),       // only retry transient errors
		retry.OnRetry(func(n uint, err error) {
			f.logger.Debug("retrying HTTP request", "attempt", n+1, "url", req.URL.String(), "error", err)
		}),
	)
}

// wait blocks until the per-host limiter allows another request.
func (f *Fetcher) wait(ctx context.Context, u *url.URL) error {
	if f.pace <= 0 || u.Host == "" {
		return nil
	}
	limI, _ := f.limiters.LoadOrStore(u.Host, rate.NewLimiter(f.pace, 1))
	lim, ok := limI.(*rate.Limiter)
	if !ok {
		return nil
	}
	return lim.Wait(ctx)
}

// isRetryableError returns true for transient errors that should be retried.
func isRetryableError(err error) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false // 4xx errors (except 429) are permanent
		}
	}
	// Network errors, timeouts, etc. are retryable
	return true
}
