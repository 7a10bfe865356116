// Package fetch retrieves product pages for review extraction.
//
// HTTPFetcher issues a plain GET with browser-like headers and retries
// transient failures (5xx, 429, timeouts) a bounded number of times.
// BrowserFetcher drives headless Chrome through chromedp for sites that
// render their reviews with JavaScript.
//
// Both apply the per-site headers and cookie from the configuration file
// and cap the body at the configured size.
package fetch
