package session

import (
	"net/http"
	"time"
)

// Config holds middleware engine configuration. All cookie attributes from
// the wire contract are covered except HttpOnly, which is unconditionally
// enabled: session IDs are never exposed to script.
type Config struct {
	// CookieName is the name of the session cookie.
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// TTL is the server-side record lifetime. Every persist pushes the
	// expiry forward by TTL (idle timeout semantics).
	TTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	CookiePath   string `env:"SESSION_COOKIE_PATH" envDefault:"/"`
	CookieDomain string `env:"SESSION_COOKIE_DOMAIN" envDefault:""`

	// CookieSecure restricts the cookie to HTTPS. Leave enabled outside
	// local development.
	CookieSecure bool `env:"SESSION_COOKIE_SECURE" envDefault:"true"`

	CookieSameSite http.SameSite `env:"SESSION_COOKIE_SAME_SITE" envDefault:"2"` // SameSiteLaxMode

	// Persistent emits Max-Age on the cookie so it survives browser
	// restarts. When false the cookie is session-only: the client drops
	// it at browser-session end, while the server-side record still
	// expires after TTL.
	Persistent bool `env:"SESSION_COOKIE_PERSISTENT" envDefault:"true"`

	// SlidingRefresh re-emits the cookie with a fresh Max-Age on requests
	// that read but do not modify the session. No store write occurs.
	SlidingRefresh bool `env:"SESSION_SLIDING_REFRESH" envDefault:"false"`

	// TolerateStoreErrors downgrades load failures to a fresh session
	// instead of failing the request. Persist failures are always fatal.
	TolerateStoreErrors bool `env:"SESSION_TOLERATE_STORE_ERRORS" envDefault:"false"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		CookieName:     "sid",
		TTL:            24 * time.Hour,
		CookiePath:     "/",
		CookieSecure:   true,
		CookieSameSite: http.SameSiteLaxMode,
		Persistent:     true,
	}
}

// Validate checks the configuration for combinations that must fail at
// startup rather than per-request.
func (c Config) Validate() error {
	if c.CookieName == "" {
		return ErrMissingCookieName
	}
	if c.TTL <= 0 {
		return ErrInvalidTTL
	}
	if c.CookieSameSite == http.SameSiteNoneMode && !c.CookieSecure {
		return ErrInsecureSameSiteNone
	}
	return nil
}
