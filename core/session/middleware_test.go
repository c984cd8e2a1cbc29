package session_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/cookie"
	"github.com/dmitrymomot/sessionkit/core/session"
)

func newTestManager(t *testing.T, opts ...session.Option) (*session.Manager, *session.MemoryStore) {
	t.Helper()

	store := session.NewMemoryStore(session.WithSweepInterval(0))
	manager, err := session.New(store, opts...)
	require.NoError(t, err)
	return manager, store
}

func serve(handler http.Handler, cookies ...*http.Cookie) *http.Response {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Result()
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func TestMiddlewareNewSession(t *testing.T) {
	t.Parallel()

	manager, store := newTestManager(t)

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		assert.True(t, sess.IsFresh())
		sess.Set("user_id", "u_123")
		_, _ = w.Write([]byte("ok"))
	}))

	resp := serve(handler)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Values("Vary"), "Cookie")

	c := sessionCookie(t, resp)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.InDelta(t, 24*60*60, c.MaxAge, 5)

	id, err := session.ParseID(c.Value)
	require.NoError(t, err)

	rec, err := store.Load(t.Context(), id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "u_123", rec.Data["user_id"])
}

func TestMiddlewareRoundTrip(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)

	write := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("user_id", "u_123")
	}))
	read := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		assert.False(t, sess.IsFresh())
		v, ok := sess.GetString("user_id")
		assert.True(t, ok)
		assert.Equal(t, "u_123", v)
	}))

	first := serve(write)
	c := sessionCookie(t, first)

	second := serve(read, c)
	assert.Equal(t, http.StatusOK, second.StatusCode)
}

func TestMiddlewareReadOnlyLeavesNoTrace(t *testing.T) {
	t.Parallel()

	manager, store := newTestManager(t)

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		_, _ = sess.Get("anything")
		_, _ = w.Write([]byte("ok"))
	}))

	resp := serve(handler)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Cookies(), "read-only request must not set a cookie")
	assert.Equal(t, 0, store.Len(), "read-only request must not write to the store")
}

func TestMiddlewareUnknownIDStartsFresh(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)

	unknown, err := session.NewID()
	require.NoError(t, err)

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		assert.True(t, sess.IsFresh())
		sess.Set("k", "v")
	}))

	resp := serve(handler, &http.Cookie{Name: "sid", Value: unknown.String()})
	c := sessionCookie(t, resp)

	// The presented ID is never reused.
	assert.NotEqual(t, unknown.String(), c.Value)
}

func TestMiddlewareMalformedCookieStartsFresh(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		assert.True(t, sess.IsFresh())
		sess.Set("k", "v")
	}))

	resp := serve(handler, &http.Cookie{Name: "sid", Value: "garbage"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	c := sessionCookie(t, resp)
	assert.NotEqual(t, "garbage", c.Value)
}

func TestMiddlewareDestroy(t *testing.T) {
	t.Parallel()

	manager, store := newTestManager(t)

	login := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("user_id", "u_123")
	}))
	logout := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Destroy()
	}))

	first := serve(login)
	c := sessionCookie(t, first)
	id, err := session.ParseID(c.Value)
	require.NoError(t, err)

	second := serve(logout, c)
	removal := sessionCookie(t, second)
	assert.Negative(t, removal.MaxAge, "removal cookie must carry a negative Max-Age")
	assert.Empty(t, removal.Value)

	rec, err := store.Load(t.Context(), id)
	require.NoError(t, err)
	assert.Nil(t, rec, "record must be deleted from the store")
}

func TestMiddlewareDestroyFreshWithoutCookie(t *testing.T) {
	t.Parallel()

	manager, store := newTestManager(t)

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		sess.Set("k", "v")
		sess.Destroy()
	}))

	resp := serve(handler)
	assert.Empty(t, resp.Cookies(), "no client state means no removal cookie")
	assert.Equal(t, 0, store.Len())
}

func TestMiddlewareRenewID(t *testing.T) {
	t.Parallel()

	manager, store := newTestManager(t)

	setup := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("cart", "c_42")
	}))
	login := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		sess.Set("user_id", "u_123")
		sess.RenewID()
	}))

	first := serve(setup)
	oldCookie := sessionCookie(t, first)
	oldID, err := session.ParseID(oldCookie.Value)
	require.NoError(t, err)

	second := serve(login, oldCookie)
	newCookie := sessionCookie(t, second)
	assert.NotEqual(t, oldCookie.Value, newCookie.Value, "rotation must issue a new id")

	// Old record gone, data carried over under the new id.
	gone, err := store.Load(t.Context(), oldID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	newID, err := session.ParseID(newCookie.Value)
	require.NoError(t, err)
	rec, err := store.Load(t.Context(), newID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "c_42", rec.Data["cart"])
	assert.Equal(t, "u_123", rec.Data["user_id"])
}

func TestMiddlewareRenewIDAcrossExpiryBoundary(t *testing.T) {
	t.Parallel()

	cfg := session.DefaultConfig()
	cfg.TTL = 150 * time.Millisecond

	manager, store := newTestManager(t, session.WithConfig(cfg))

	setup := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("user_id", "u_123")
	}))
	// The record is live at load time but expires in the store before
	// the handler asks for rotation.
	rotate := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(250 * time.Millisecond)
		session.MustFromContext(r.Context()).RenewID()
	}))

	first := serve(setup)
	oldCookie := sessionCookie(t, first)

	second := serve(rotate, oldCookie)
	newCookie := sessionCookie(t, second)
	assert.NotEqual(t, oldCookie.Value, newCookie.Value,
		"rotation must issue a new id even when the old record expired mid-request")

	newID, err := session.ParseID(newCookie.Value)
	require.NoError(t, err)
	rec, err := store.Load(t.Context(), newID)
	require.NoError(t, err)
	require.NotNil(t, rec, "rotated record must survive in the store")
	assert.Equal(t, "u_123", rec.Data["user_id"])
	assert.Equal(t, 1, store.Len())
}

func TestMiddlewareSlidingRefresh(t *testing.T) {
	t.Parallel()

	cfg := session.DefaultConfig()
	cfg.SlidingRefresh = true

	manager, store := newTestManager(t, session.WithConfig(cfg))

	write := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("k", "v")
	}))
	read := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = session.MustFromContext(r.Context()).Get("k")
	}))

	first := serve(write)
	c := sessionCookie(t, first)

	second := serve(read, c)
	refreshed := sessionCookie(t, second)
	assert.Equal(t, c.Value, refreshed.Value, "sliding refresh keeps the same id")
	assert.Positive(t, refreshed.MaxAge)
	assert.Equal(t, 1, store.Len(), "sliding refresh must not touch the store")
}

func TestMiddlewareNoSlidingRefreshByDefault(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)

	write := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("k", "v")
	}))
	read := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = session.MustFromContext(r.Context()).Get("k")
	}))

	first := serve(write)
	c := sessionCookie(t, first)

	second := serve(read, c)
	assert.Empty(t, second.Cookies())
}

func TestMiddlewareSessionOnlyCookie(t *testing.T) {
	t.Parallel()

	cfg := session.DefaultConfig()
	cfg.Persistent = false

	manager, _ := newTestManager(t, session.WithConfig(cfg))

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session.MustFromContext(r.Context()).Set("k", "v")
	}))

	resp := serve(handler)
	c := sessionCookie(t, resp)
	assert.Zero(t, c.MaxAge, "session-only cookie must omit Max-Age")
}

func TestMiddlewareSignedCookies(t *testing.T) {
	t.Parallel()

	newSignedManager := func(t *testing.T) (*session.Manager, *session.MemoryStore) {
		t.Helper()
		cm, err := cookie.NewSigned([]string{"0123456789abcdef0123456789abcdef"})
		require.NoError(t, err)
		store := session.NewMemoryStore(session.WithSweepInterval(0))
		manager, err := session.New(store,
			session.WithCookieManager(cm),
			session.WithSignedCookies(),
		)
		require.NoError(t, err)
		return manager, store
	}

	t.Run("roundtrip", func(t *testing.T) {
		t.Parallel()

		manager, _ := newSignedManager(t)

		write := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session.MustFromContext(r.Context()).Set("user_id", "u_123")
		}))
		read := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			v, ok := session.MustFromContext(r.Context()).GetString("user_id")
			assert.True(t, ok)
			assert.Equal(t, "u_123", v)
		}))

		first := serve(write)
		c := sessionCookie(t, first)
		assert.Contains(t, c.Value, "|", "signed cookie carries value and signature")

		second := serve(read, c)
		assert.Equal(t, http.StatusOK, second.StatusCode)
	})

	t.Run("tampered cookie starts fresh", func(t *testing.T) {
		t.Parallel()

		manager, _ := newSignedManager(t)

		write := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session.MustFromContext(r.Context()).Set("user_id", "u_123")
		}))
		read := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := session.MustFromContext(r.Context())
			assert.True(t, sess.IsFresh())
			_, ok := sess.Get("user_id")
			assert.False(t, ok)
		}))

		first := serve(write)
		c := sessionCookie(t, first)

		// Flip a character in the signed payload.
		tampered := *c
		if strings.HasPrefix(tampered.Value, "A") {
			tampered.Value = "B" + tampered.Value[1:]
		} else {
			tampered.Value = "A" + tampered.Value[1:]
		}

		second := serve(read, &tampered)
		assert.Equal(t, http.StatusOK, second.StatusCode)
	})
}

func TestMiddlewareCommitBeforeBody(t *testing.T) {
	t.Parallel()

	manager, _ := newTestManager(t)

	handler := manager.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.MustFromContext(r.Context())
		sess.Set("k", "v")
		// Mutating after the first body write must not lose the cookie
		// for this response's already-committed state.
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("created"))
	}))

	resp := serve(handler)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	sessionCookie(t, resp)
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	t.Parallel()

	_, ok := session.FromContext(t.Context())
	assert.False(t, ok)

	assert.Panics(t, func() {
		session.MustFromContext(t.Context())
	})
}
