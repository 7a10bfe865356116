// Package log provides the slog setup shared by the CLI and the HTTP server.
//
// The SecureHandler wraps any slog.Handler and rewrites attributes before
// they reach it:
//   - credentials (Cookie, Authorization, tokens) are replaced by MaskValue
//   - review text attributes are clipped to MaxTextLength runes
//
// Review pages are fetched with site cookies taken from the config file,
// and classified review bodies can be long; neither belongs in a log line.
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	logger.Debug("fetching", "url", u, "cookie", site.Cookie) // cookie=***REDACTED***
package log
