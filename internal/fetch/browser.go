package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/model"
)

// BrowserFetcher renders pages in headless Chrome and returns the DOM
// after scripts have run. Each Fetch starts its own browser process.
type BrowserFetcher struct {
	userAgent      string
	acceptLanguage string
	wait           time.Duration
	timeout        time.Duration
	maxBodySize    int64
	execPath       string
	logger         *slog.Logger
}

// BrowserOption configures a BrowserFetcher.
type BrowserOption func(*BrowserFetcher)

// WithRenderWait sets how long to wait after the body is ready.
func WithRenderWait(d time.Duration) BrowserOption {
	return func(b *BrowserFetcher) {
		b.wait = d
	}
}

// WithBrowserTimeout bounds one page render.
func WithBrowserTimeout(d time.Duration) BrowserOption {
	return func(b *BrowserFetcher) {
		b.timeout = d
	}
}

// WithBrowserUserAgent sets the browser User-Agent.
func WithBrowserUserAgent(ua string) BrowserOption {
	return func(b *BrowserFetcher) {
		b.userAgent = ua
	}
}

// WithBrowserMaxBodySize caps the size of the captured DOM.
func WithBrowserMaxBodySize(size int64) BrowserOption {
	return func(b *BrowserFetcher) {
		b.maxBodySize = size
	}
}

// WithExecPath sets the Chrome executable. By default chromedp searches
// the usual locations.
func WithExecPath(path string) BrowserOption {
	return func(b *BrowserFetcher) {
		b.execPath = path
	}
}

// WithBrowserLogger sets the logger.
func WithBrowserLogger(logger *slog.Logger) BrowserOption {
	return func(b *BrowserFetcher) {
		b.logger = logger
	}
}

// NewBrowserFetcher creates a BrowserFetcher.
func NewBrowserFetcher(opts ...BrowserOption) *BrowserFetcher {
	b := &BrowserFetcher{
		userAgent:      config.DefaultUserAgent,
		acceptLanguage: config.DefaultAcceptLanguage,
		wait:           config.DefaultRenderWait,
		timeout:        config.DefaultTimeout,
		maxBodySize:    config.DefaultMaxBodySize,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// allocatorOptions returns the Chrome flags for one render.
func (b *BrowserFetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Headless,
		chromedp.UserAgent(b.userAgent),
	)
	if b.execPath != "" {
		opts = append(opts, chromedp.ExecPath(b.execPath))
	}
	return opts
}

// Fetch implements Fetcher.
func (b *BrowserFetcher) Fetch(ctx context.Context, rawURL string, site config.SiteConfig) (*model.Page, error) {
	if _, err := validateURL(rawURL); err != nil {
		return nil, err
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, b.allocatorOptions()...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()
	runCtx, cancel := context.WithTimeout(tabCtx, b.timeout)
	defer cancel()

	headers := network.Headers{}
	for k, v := range requestHeaders(b.userAgent, b.acceptLanguage, site) {
		if k == "User-Agent" {
			continue
		}
		headers[k] = v
	}

	tasks := chromedp.Tasks{
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body"),
	}
	if b.wait > 0 {
		tasks = append(tasks, chromedp.Sleep(b.wait))
	}

	var html string
	tasks = append(tasks, chromedp.OuterHTML("html", &html))

	start := time.Now()
	if err := chromedp.Run(runCtx, tasks); err != nil {
		return nil, fmt.Errorf("render %s: %w", rawURL, err)
	}

	raw := []byte(html)
	if int64(len(raw)) > b.maxBodySize {
		raw = raw[:b.maxBodySize]
	}
	page := &model.Page{
		URL:           rawURL,
		StatusCode:    200,
		ContentType:   "text/html",
		Raw:           raw,
		FetchDuration: time.Since(start),
	}
	page.TruncateRaw()
	page.ComputeHash()

	b.logger.Debug("rendered page", "url", rawURL, "bytes", len(raw), "duration", page.FetchDuration)
	return page, nil
}
