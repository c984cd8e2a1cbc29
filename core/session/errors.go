package session

import "errors"

var (
	// ErrIDGeneration is returned when the system random source fails.
	ErrIDGeneration = errors.New("session: failed to generate id")
	// ErrInvalidID is returned by ParseID for malformed wire identifiers.
	// The middleware absorbs it and starts a fresh session; it is never
	// surfaced to application code.
	ErrInvalidID = errors.New("session: invalid id")
	// ErrDuplicateID is returned by Store.Create when the record's ID is
	// already present. The manager retries creation with a freshly
	// generated ID a bounded number of times before giving up.
	ErrDuplicateID = errors.New("session: duplicate id")
	// ErrStoreFailure wraps backend I/O or serialization failures that are
	// fatal for the current request.
	ErrStoreFailure = errors.New("session: store failure")
	// ErrNotInContext is returned when no session was attached to the
	// request context, i.e. the middleware is not installed.
	ErrNotInContext = errors.New("session: not found in context")

	// ErrMissingStore is returned by New when no store is provided.
	ErrMissingStore = errors.New("session: store is required")
	// ErrMissingCookieName is returned by Config.Validate for an empty
	// cookie name.
	ErrMissingCookieName = errors.New("session: cookie name is required")
	// ErrInvalidTTL is returned by Config.Validate for a non-positive TTL.
	ErrInvalidTTL = errors.New("session: ttl must be positive")
	// ErrInvalidSweepInterval is returned by ContinuouslyDeleteExpired for
	// a non-positive interval.
	ErrInvalidSweepInterval = errors.New("session: sweep interval must be positive")
	// ErrInsecureSameSiteNone is returned by Config.Validate when
	// SameSite=None is combined with Secure=false; browsers reject such
	// cookies and the combination defeats the transport protections the
	// session ID relies on.
	ErrInsecureSameSiteNone = errors.New("session: SameSite=None requires Secure")
	// ErrSigningUnavailable is returned by New when signed cookies are
	// requested but the cookie manager has no signing secrets.
	ErrSigningUnavailable = errors.New("session: signed cookies require a cookie manager with secrets")
)
