// Package log provides the slog loggers used by pydistro.
//
// Loggers write text (or JSON) to the given writer at warn level, or debug
// level in verbose mode. Every record passes through SecureHandler, which
// masks credentials that may appear in configured request headers
// (Authorization, Cookie, API keys) before they reach the output.
//
// # Usage
//
//	logger := log.NewLogger(os.Stderr, verbose)
//	logger.Debug("sending request",
//	    "url", "https://distrowatch.com/",
//	    log.Headers(cfg.Headers),
//	)
package log
