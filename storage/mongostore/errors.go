package mongostore

import "errors"

// Domain-specific MongoDB errors for consistent error handling across
// the application. Use errors.Is() to check error types.
var (
	ErrFailedToConnect    = errors.New("failed to connect to mongodb")
	ErrEmptyConnectionURL = errors.New("empty mongodb connection URL")
	ErrHealthcheckFailed  = errors.New("mongodb healthcheck failed")
	ErrFailedToEnsureTTL  = errors.New("failed to create ttl index")
)
