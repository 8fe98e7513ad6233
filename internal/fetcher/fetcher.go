package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/EternisAI/netharvest/internal/retry"
	"github.com/EternisAI/netharvest/internal/store"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 64 << 20
)

// ErrFetch matches every *FetchError.
var ErrFetch = errors.New("remote fetch failed")

var ErrBodyTooLarge = errors.New("response body exceeds size limit")

type Config struct {
	URL           string        `mapstructure:"url"`
	Token         string        `mapstructure:"token"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes"`
}

// FetchError describes why the remote dump could not be retrieved. Callers
// treat it as "continue with local sources only".
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFetch}
	}
	return []error{ErrFetch, e.Err}
}

type Fetcher struct {
	config     Config
	httpClient *http.Client
	cachePath  string
}

// NewFetcher builds a fetcher. When cachePath is non-empty the raw body of
// every successful fetch is written there for auditing.
func NewFetcher(config Config, cachePath string) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = defaultMaxBodyBytes
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 1
	}
	return &Fetcher{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cachePath: cachePath,
	}
}

func (f *Fetcher) Enabled() bool {
	return f.config.URL != ""
}

// Fetch downloads the remote dump and returns it decoded as UTF-8, with
// invalid byte sequences replaced by U+FFFD.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = f.config.RetryAttempts
	if f.config.RetryDelay > 0 {
		retryConfig.InitialDelay = f.config.RetryDelay
	}
	retryConfig.OnRetry = func(attempt int, err error) {
		slog.Warn("Remote fetch failed, retrying", "attempt", attempt, "error", err)
	}

	var body []byte
	err := retry.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = f.fetchOnce(ctx)
		return err
	}, retryConfig)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return "", fe
		}
		return "", &FetchError{URL: f.config.URL, Err: err}
	}

	slog.Info("Downloaded remote dump", "bytes", len(body))
	f.writeCache(body)

	return decodeLossy(body), nil
}

func (f *Fetcher) fetchOnce(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.config.URL, nil)
	if err != nil {
		return nil, &FetchError{URL: f.config.URL, Err: err}
	}
	req.Header.Set("Cookie", "key="+f.config.Token)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, retry.Retryable(&FetchError{URL: f.config.URL, Err: err})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		fe := &FetchError{URL: f.config.URL, StatusCode: resp.StatusCode}
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, retry.Retryable(fe)
		}
		return nil, fe
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes+1))
	if err != nil {
		return nil, retry.Retryable(&FetchError{URL: f.config.URL, Err: fmt.Errorf("failed to read response body: %w", err)})
	}
	if int64(len(body)) > f.config.MaxBodyBytes {
		return nil, &FetchError{URL: f.config.URL, Err: fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, f.config.MaxBodyBytes)}
	}
	return body, nil
}

func (f *Fetcher) writeCache(body []byte) {
	if f.cachePath == "" {
		return
	}
	if err := store.WriteFileAtomic(f.cachePath, body, 0o600); err != nil {
		slog.Warn("Failed to write raw dump cache", "path", f.cachePath, "error", err)
	}
}

func decodeLossy(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	return strings.ToValidUTF8(string(body), string(utf8.RuneError))
}
