// Package logger provides slog attribute helpers with consistent keys
// for structured logging across the module.
//
// Helpers follow the empty Attr pattern: nil or zero inputs produce an
// empty attribute that slog drops silently, so call sites never need
// nil checks:
//
//	log.Warn("possibly suspicious activity: invalid session cookie",
//		logger.Error(err),
//		logger.CookieName(name),
//	)
package logger
