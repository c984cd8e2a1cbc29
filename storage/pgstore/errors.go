package pgstore

import "errors"

// Domain-specific PostgreSQL errors for consistent error handling across
// the application. Use errors.Is() to check error types.
var (
	ErrFailedToOpenConnection = errors.New("failed to open postgres connection")
	ErrEmptyConnectionString  = errors.New("empty postgres connection string")
	ErrFailedToParseConfig    = errors.New("failed to parse postgres config")
	ErrHealthcheckFailed      = errors.New("postgres healthcheck failed")
	ErrFailedToMigrate        = errors.New("failed to create sessions table")
)
