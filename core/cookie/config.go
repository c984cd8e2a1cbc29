package cookie

import "net/http"

// Config holds cookie manager configuration loaded from the environment.
type Config struct {
	// Secrets are the signing secrets, comma-separated, newest first.
	// Leave empty for a manager that only handles plain cookies.
	Secrets []string `env:"COOKIE_SECRETS" envSeparator:","`

	Path     string `env:"COOKIE_PATH" envDefault:"/"`
	Domain   string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
	HTTPOnly bool   `env:"COOKIE_HTTP_ONLY" envDefault:"true"`

	// SameSite uses http.SameSite numeric values: 1=Default, 2=Lax,
	// 3=Strict, 4=None.
	SameSite int `env:"COOKIE_SAME_SITE" envDefault:"2"`
}

// NewFromConfig creates a cookie manager from configuration. A manager
// with signing capability is returned when secrets are configured.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	base := []Option{
		WithPath(cfg.Path),
		WithDomain(cfg.Domain),
		WithSecure(cfg.Secure),
		WithHTTPOnly(cfg.HTTPOnly),
		WithSameSite(http.SameSite(cfg.SameSite)),
	}
	base = append(base, opts...)

	if len(cfg.Secrets) > 0 {
		return NewSigned(cfg.Secrets, base...)
	}
	return New(base...), nil
}
