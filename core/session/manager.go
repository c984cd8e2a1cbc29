package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/sessionkit/core/cookie"
	"github.com/dmitrymomot/sessionkit/core/logger"
)

// maxCreateAttempts bounds ID regeneration on Create collisions before
// the request is failed.
const maxCreateAttempts = 3

// Manager loads sessions from incoming requests and commits their final
// state to the store and the response. It is safe for concurrent use and
// is typically constructed once at startup and installed via Middleware.
type Manager struct {
	store   Store
	config  Config
	cookies *cookie.Manager
	signed  bool
	logger  *slog.Logger
}

// Option configures the session manager.
type Option func(*Manager)

// WithConfig replaces the default engine configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.config = cfg
	}
}

// WithLogger sets the logger for suspicious-input warnings and store
// failures.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = log
	}
}

// WithCookieManager replaces the default cookie manager. Use a manager
// built with cookie.NewSigned together with WithSignedCookies to protect
// session IDs with an HMAC signature.
func WithCookieManager(cm *cookie.Manager) Option {
	return func(m *Manager) {
		m.cookies = cm
	}
}

// WithSignedCookies enables HMAC signing of the session cookie. The
// configured cookie manager must hold signing secrets; New fails
// otherwise.
func WithSignedCookies() Option {
	return func(m *Manager) {
		m.signed = true
	}
}

// New creates a session manager backed by store. Configuration problems
// are surfaced here, at startup, not per-request.
func New(store Store, opts ...Option) (*Manager, error) {
	if store == nil {
		return nil, ErrMissingStore
	}

	m := &Manager{
		store:  store,
		config: DefaultConfig(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.config.Validate(); err != nil {
		return nil, err
	}
	if m.cookies == nil {
		m.cookies = cookie.New()
	}
	if m.signed && !m.cookies.CanSign() {
		return nil, ErrSigningUnavailable
	}
	return m, nil
}

// load resolves the request to a session. A missing, malformed, tampered
// or unknown cookie yields a fresh session; only store failures are
// errors, and even those downgrade to a fresh session when
// TolerateStoreErrors is set. hadCookie reports whether the request
// carried a session cookie at all, valid or not.
func (m *Manager) load(r *http.Request) (sess *Session, hadCookie bool, err error) {
	raw, cerr := m.readCookie(r)
	if cerr != nil {
		if errors.Is(cerr, cookie.ErrCookieNotFound) {
			sess, err = m.fresh()
			return sess, false, err
		}
		// Tampered signature or mangled value. Log and start over.
		m.logger.WarnContext(r.Context(), "possibly suspicious activity: invalid session cookie",
			logger.Error(cerr), logger.CookieName(m.config.CookieName))
		sess, err = m.fresh()
		return sess, true, err
	}

	id, perr := ParseID(raw)
	if perr != nil {
		m.logger.WarnContext(r.Context(), "possibly suspicious activity: malformed session id",
			logger.Error(perr))
		sess, err = m.fresh()
		return sess, true, err
	}

	rec, lerr := m.store.Load(r.Context(), id)
	if lerr != nil {
		if m.config.TolerateStoreErrors {
			m.logger.ErrorContext(r.Context(), "session load failed, continuing with fresh session",
				logger.Error(lerr))
			sess, err = m.fresh()
			return sess, true, err
		}
		return nil, true, errors.Join(ErrStoreFailure, lerr)
	}
	if rec == nil {
		// Unknown or expired ID. The presented ID is never reused.
		sess, err = m.fresh()
		return sess, true, err
	}

	return newSession(rec, false), true, nil
}

func (m *Manager) fresh() (*Session, error) {
	rec, err := NewRecord(m.config.TTL)
	if err != nil {
		return nil, err
	}
	return newSession(rec, true), nil
}

func (m *Manager) readCookie(r *http.Request) (string, error) {
	if m.signed {
		return m.cookies.GetSigned(r, m.config.CookieName)
	}
	return m.cookies.Get(r, m.config.CookieName)
}

// commit applies the session's end-of-request state to the store and the
// response headers. It must run before any response body bytes are
// written; the middleware's response writer guarantees that.
func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, sess *Session, hadCookie bool) error {
	switch {
	case sess.deleted:
		if !sess.fresh {
			if err := m.store.Delete(ctx, sess.record.ID); err != nil {
				return errors.Join(ErrStoreFailure, err)
			}
		}
		// A removal cookie is pointless when the client holds none.
		if hadCookie || !sess.fresh {
			m.cookies.Delete(w, m.config.CookieName, m.cookieOptions(0)...)
		}
		return nil

	case sess.renewID && !sess.fresh:
		oldID := sess.record.ID
		newID, err := NewID()
		if err != nil {
			return err
		}
		sess.record.ID = newID
		sess.record.ExpiresAt = time.Now().Add(m.config.TTL)
		if err := m.createWithRetry(ctx, sess.record); err != nil {
			return err
		}
		// Delete strictly after Create: the old ID must never alias the
		// record the client is about to be pointed at.
		if err := m.store.Delete(ctx, oldID); err != nil {
			return errors.Join(ErrStoreFailure, err)
		}
		sess.renewID = false
		sess.modified = false
		return m.writeCookie(w, sess)

	case sess.modified:
		sess.record.ExpiresAt = time.Now().Add(m.config.TTL)
		if sess.fresh {
			if err := m.createWithRetry(ctx, sess.record); err != nil {
				return err
			}
			sess.fresh = false
		} else {
			if err := m.store.Save(ctx, sess.record); err != nil {
				return errors.Join(ErrStoreFailure, err)
			}
		}
		sess.modified = false
		sess.renewID = false
		return m.writeCookie(w, sess)

	default:
		// Read-only request. No store write; optionally extend the
		// cookie lifetime on the client so active users stay signed in.
		if m.config.SlidingRefresh && !sess.fresh {
			maxAge := 0
			if m.config.Persistent {
				maxAge = int(m.config.TTL.Seconds())
			}
			return m.setCookie(w, sess, maxAge)
		}
		return nil
	}
}

// createWithRetry persists a new record, regenerating the ID on
// collisions. Collisions on 256-bit random IDs indicate either a broken
// random source or a hostile store, so the retry budget is small.
func (m *Manager) createWithRetry(ctx context.Context, rec *Record) error {
	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		err := m.store.Create(ctx, rec)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateID) {
			return errors.Join(ErrStoreFailure, err)
		}
		m.logger.WarnContext(ctx, "session id collision, regenerating id",
			logger.RetryCount(attempt+1))

		id, idErr := NewID()
		if idErr != nil {
			return idErr
		}
		rec.ID = id
	}
	return fmt.Errorf("%w: id collision persisted after %d attempts", ErrStoreFailure, maxCreateAttempts)
}

func (m *Manager) writeCookie(w http.ResponseWriter, sess *Session) error {
	maxAge := 0
	if m.config.Persistent {
		maxAge = int(time.Until(sess.record.ExpiresAt).Seconds())
	}
	return m.setCookie(w, sess, maxAge)
}

func (m *Manager) setCookie(w http.ResponseWriter, sess *Session, maxAge int) error {
	opts := m.cookieOptions(maxAge)
	if m.signed {
		return m.cookies.SetSigned(w, m.config.CookieName, sess.record.ID.String(), opts...)
	}
	return m.cookies.Set(w, m.config.CookieName, sess.record.ID.String(), opts...)
}

func (m *Manager) cookieOptions(maxAge int) []cookie.Option {
	opts := []cookie.Option{
		cookie.WithPath(m.config.CookiePath),
		cookie.WithHTTPOnly(true),
		cookie.WithSecure(m.config.CookieSecure),
		cookie.WithSameSite(m.config.CookieSameSite),
		cookie.WithMaxAge(maxAge),
	}
	if m.config.CookieDomain != "" {
		opts = append(opts, cookie.WithDomain(m.config.CookieDomain))
	}
	return opts
}
