// Package cookie provides secure HTTP cookie management with optional
// HMAC signing and key rotation support.
package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"
)

// MaxCookieSize is the maximum allowed cookie size in bytes, per RFC 6265.
const MaxCookieSize = 4096

// minSecretLength is the minimum length for signing secrets.
const minSecretLength = 32

// Manager handles cookie operations with optional signing support.
// When created with NewSigned, values written via SetSigned carry an
// HMAC-SHA256 signature; multiple secrets enable zero-downtime key
// rotation, with the first secret used for signing and all secrets
// tried during verification.
type Manager struct {
	secrets  []string
	defaults Options
}

// New creates a cookie manager without signing capability.
// SetSigned and GetSigned return ErrNoSecret on such a manager.
func New(opts ...Option) *Manager {
	return &Manager{
		defaults: applyOptions(defaultOptions(), opts),
	}
}

// NewSigned creates a cookie manager that can sign and verify cookie
// values. The first secret signs new cookies; all secrets are tried
// during verification, oldest last.
func NewSigned(secrets []string, opts ...Option) (*Manager, error) {
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}
	for _, secret := range secrets {
		if len(secret) < minSecretLength {
			return nil, ErrSecretTooShort
		}
	}
	return &Manager{
		secrets:  secrets,
		defaults: applyOptions(defaultOptions(), opts),
	}, nil
}

func defaultOptions() Options {
	return Options{
		Path:     "/",
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// CanSign reports whether the manager holds signing secrets.
func (m *Manager) CanSign() bool {
	return len(m.secrets) > 0
}

// Set writes a plain cookie to the response.
func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) error {
	return m.write(w, name, value, opts)
}

// Get reads a plain cookie value from the request.
func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Delete instructs the client to remove the cookie. The Path and Domain
// attributes must match the ones the cookie was set with, so the same
// options should be passed here.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	options := applyOptions(m.defaults, opts)
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	})
}

// SetSigned writes a cookie whose value is protected by an HMAC-SHA256
// signature. The wire format is base64url(value) + "|" + base64url(mac).
func (m *Manager) SetSigned(w http.ResponseWriter, name, value string, opts ...Option) error {
	if !m.CanSign() {
		return ErrNoSecret
	}
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value))
	mac := sign(encoded, m.secrets[0])
	return m.write(w, name, encoded+"|"+mac, opts)
}

// GetSigned reads a signed cookie and verifies its signature against
// every configured secret. Tampered or malformed values yield
// ErrInvalidSignature or ErrInvalidFormat.
func (m *Manager) GetSigned(r *http.Request, name string) (string, error) {
	if !m.CanSign() {
		return "", ErrNoSecret
	}
	raw, err := m.Get(r, name)
	if err != nil {
		return "", err
	}

	encoded, mac, ok := strings.Cut(raw, "|")
	if !ok {
		return "", ErrInvalidFormat
	}
	if !m.verify(encoded, mac) {
		return "", ErrInvalidSignature
	}

	value, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidFormat
	}
	return string(value), nil
}

func (m *Manager) write(w http.ResponseWriter, name, value string, opts []Option) error {
	options := applyOptions(m.defaults, opts)
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     options.Path,
		Domain:   options.Domain,
		MaxAge:   options.MaxAge,
		Secure:   options.Secure,
		HttpOnly: options.HttpOnly,
		SameSite: options.SameSite,
	}

	if size := len(cookie.String()); size > MaxCookieSize {
		return ErrCookieTooLarge{Name: name, Size: size, Max: MaxCookieSize}
	}

	http.SetCookie(w, cookie)
	return nil
}

func sign(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

func (m *Manager) verify(data, mac string) bool {
	expected, err := base64.RawURLEncoding.DecodeString(mac)
	if err != nil {
		return false
	}
	for _, secret := range m.secrets {
		h := hmac.New(sha256.New, []byte(secret))
		h.Write([]byte(data))
		if hmac.Equal(h.Sum(nil), expected) {
			return true
		}
	}
	return false
}
