package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/model"
)

// HTTPFetcher fetches pages with net/http.
type HTTPFetcher struct {
	client         *http.Client
	timeout        time.Duration
	userAgent      string
	acceptLanguage string
	maxBodySize    int64
	maxAttempts    int
	retryDelay     time.Duration
	maxRedirects   int
	logger         *slog.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client. The fetcher works on a copy with
// its own redirect policy and timeout.
func WithHTTPClient(client *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = client
	}
}

// WithTimeout sets the overall timeout of one request attempt.
func WithTimeout(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// WithAcceptLanguage sets the Accept-Language header.
func WithAcceptLanguage(lang string) Option {
	return func(f *HTTPFetcher) {
		f.acceptLanguage = lang
	}
}

// WithMaxBodySize caps the number of body bytes read.
func WithMaxBodySize(size int64) Option {
	return func(f *HTTPFetcher) {
		f.maxBodySize = size
	}
}

// WithMaxAttempts sets the number of attempts, the first one included.
func WithMaxAttempts(n int) Option {
	return func(f *HTTPFetcher) {
		f.maxAttempts = n
	}
}

// WithRetryDelay sets the base delay between attempts. The n-th retry
// waits n times the base delay.
func WithRetryDelay(d time.Duration) Option {
	return func(f *HTTPFetcher) {
		f.retryDelay = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// NewHTTPFetcher creates an HTTPFetcher with browser-like defaults.
func NewHTTPFetcher(opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:         &http.Client{},
		timeout:        config.DefaultTimeout,
		userAgent:      config.DefaultUserAgent,
		acceptLanguage: config.DefaultAcceptLanguage,
		maxBodySize:    config.DefaultMaxBodySize,
		maxAttempts:    3,
		retryDelay:     200 * time.Millisecond,
		maxRedirects:   5,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.maxAttempts < 1 {
		f.maxAttempts = 1
	}

	client := *f.client
	client.Timeout = f.timeout
	client.CheckRedirect = f.checkRedirect
	f.client = &client
	return f
}

// Fetch implements Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string, site config.SiteConfig) (*model.Page, error) {
	if _, err := validateURL(rawURL); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= f.maxAttempts; attempt++ {
		page, err := f.fetchOnce(ctx, rawURL, site)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if attempt == f.maxAttempts || !isTransient(ctx, err) {
			break
		}

		f.logger.Debug("retrying fetch", "url", rawURL, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * f.retryDelay):
		}
	}
	return nil, lastErr
}

func (f *HTTPFetcher) fetchOnce(ctx context.Context, rawURL string, site config.SiteConfig) (*model.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range requestHeaders(f.userAgent, f.acceptLanguage, site) {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := &model.Page{
		URL:           rawURL,
		StatusCode:    resp.StatusCode,
		ContentType:   resp.Header.Get("Content-Type"),
		Raw:           body,
		FetchDuration: time.Since(start),
	}
	page.TruncateRaw()
	page.ComputeHash()

	f.logger.Debug("fetched page",
		"url", rawURL,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", page.FetchDuration,
	)
	return page, nil
}

func (f *HTTPFetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= f.maxRedirects {
		return errors.New("too many redirects")
	}
	if !isHTTPScheme(req.URL) {
		return fmt.Errorf("%w: redirect to %q", ErrUnsupportedScheme, req.URL.Scheme)
	}
	return nil
}

// isTransient reports whether err is worth retrying. Nothing is retried
// once ctx itself is done.
func isTransient(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
