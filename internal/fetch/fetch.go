package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/nao1215/reviewscan/internal/config"
	"github.com/nao1215/reviewscan/internal/model"
)

var (
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")

	// ErrUnexpectedStatus is returned for non-2xx responses.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// StatusError describes a non-2xx response.
type StatusError struct {
	StatusCode int
}

// Error implements error.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d", ErrUnexpectedStatus, e.StatusCode)
}

// Is reports whether target is ErrUnexpectedStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrUnexpectedStatus
}

// Transient reports whether retrying the request may succeed.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// Fetcher retrieves a page. site carries the per-site headers and cookie.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, site config.SiteConfig) (*model.Page, error)
}

// IsURL reports whether source is an absolute http or https URL.
func IsURL(source string) bool {
	u, err := url.Parse(strings.TrimSpace(source))
	if err != nil {
		return false
	}
	return isHTTPScheme(u) && u.Host != ""
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func validateURL(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if !isHTTPScheme(u) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return u, nil
}

// requestHeaders returns the headers sent for a site: the defaults,
// then the site headers, then the site cookie.
func requestHeaders(userAgent, acceptLanguage string, site config.SiteConfig) map[string]string {
	h := map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		"Accept-Language": acceptLanguage,
	}
	for k, v := range site.Headers {
		h[k] = v
	}
	if site.Cookie != "" {
		h["Cookie"] = site.Cookie
	}
	return h
}

// Router picks the browser fetcher for sites that need rendering and the
// HTTP fetcher otherwise.
type Router struct {
	HTTP    Fetcher
	Browser Fetcher

	// RenderAll sends every request through Browser.
	RenderAll bool
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, rawURL string, site config.SiteConfig) (*model.Page, error) {
	if r.Browser != nil && (r.RenderAll || site.Render) {
		return r.Browser.Fetch(ctx, rawURL, site)
	}
	return r.HTTP.Fetch(ctx, rawURL, site)
}
