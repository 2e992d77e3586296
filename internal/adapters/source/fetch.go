package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/okian/cyclingdb/pkg/logger"
	"github.com/okian/cyclingdb/pkg/metrics"
)

// Fetch defaults.
const (
	defaultFetchTimeout = 30 * time.Second
	defaultMaxBodyBytes = 16 << 20
	userAgent           = "cyclingdb/1.0"
)

// Fetcher retrieves the raw dataset bytes.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// HTTPFetcher downloads the dataset with a bounded timeout, size limit and retries.
type HTTPFetcher struct {
	url      string
	client   *http.Client
	timeout  time.Duration
	maxBytes int64
	retry    RetryConfig
	logger   logger.Logger
}

// FetchOption configures an HTTPFetcher.
type FetchOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) FetchOption {
	return func(f *HTTPFetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(d time.Duration) FetchOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxBodyBytes caps the response size.
func WithMaxBodyBytes(n int64) FetchOption {
	return func(f *HTTPFetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithRetry sets the retry policy.
func WithRetry(c RetryConfig) FetchOption {
	return func(f *HTTPFetcher) {
		f.retry = c
	}
}

// WithFetchLogger sets the logger.
func WithFetchLogger(l logger.Logger) FetchOption {
	return func(f *HTTPFetcher) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewHTTPFetcher returns a fetcher for url.
func NewHTTPFetcher(url string, opts ...FetchOption) *HTTPFetcher {
	f := &HTTPFetcher{
		url:      url,
		client:   &http.Client{},
		timeout:  defaultFetchTimeout,
		maxBytes: defaultMaxBodyBytes,
		retry:    DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs the GET, retrying timeouts, connection failures, 429 and 5xx
// responses with exponential backoff. Every failure is a *Error of KindNetwork.
func (f *HTTPFetcher) Fetch(ctx context.Context) ([]byte, error) {
	log := f.log()
	var lastErr error
	for attempt := 0; attempt <= f.retry.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, networkError("fetch", 0, false, err)
		}

		body, err := f.fetchOnce(ctx)
		if err == nil {
			metrics.RecordFetchAttempt("ok")
			return body, nil
		}
		lastErr = err
		metrics.RecordFetchAttempt("error")

		if !IsRetryable(err) || attempt == f.retry.MaxRetries {
			break
		}

		delay := f.retry.CalculateDelay(attempt)
		log.Warn(ctx, "fetch failed, retrying",
			logger.String("url", f.url),
			logger.Int("attempt", attempt+1),
			logger.Duration("delay", delay),
			logger.Error(err),
		)
		metrics.RecordFetchRetry()

		select {
		case <-ctx.Done():
			return nil, networkError("fetch", 0, false, ctx.Err())
		case <-time.After(delay):
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, networkError("fetch", 0, false, err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, networkError("fetch", 0, isTransient(err), err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10)) //nolint:mnd // drain a little for keep-alive
		return nil, networkError("fetch", resp.StatusCode, retryableStatus(resp.StatusCode),
			fmt.Errorf("unexpected status %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, networkError("fetch", resp.StatusCode, isTransient(err), fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > f.maxBytes {
		return nil, networkError("fetch", resp.StatusCode, false,
			fmt.Errorf("response exceeds %d bytes", f.maxBytes))
	}
	return body, nil
}

// isTransient reports whether a transport error may go away on retry.
// Cancellation by the caller is final; timeouts and connection failures are not.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func (f *HTTPFetcher) log() logger.Logger {
	if f.logger == nil {
		return logger.Named("fetch")
	}
	return f.logger
}
