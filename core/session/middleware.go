package session

import (
	"net/http"

	"github.com/dmitrymomot/sessionkit/core/logger"
)

// Middleware loads the session for each request, attaches it to the
// request context, and commits its final state before the first response
// body byte is written. Set-Cookie headers are therefore always emitted,
// whether the handler writes a body, only headers, or nothing.
//
// Responses carry "Vary: Cookie" because their content depends on the
// session cookie.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Cookie")

		sess, hadCookie, err := m.load(r)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "failed to load session",
				logger.Error(err), logger.Method(r.Method), logger.Path(r.URL.Path))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		sw := &sessionWriter{
			ResponseWriter: w,
			manager:        m,
			req:            r,
			sess:           sess,
			hadCookie:      hadCookie,
		}

		next.ServeHTTP(sw, r.WithContext(WithSession(r.Context(), sess)))

		// Handlers that never write still need the session committed.
		sw.commit()
	})
}

// sessionWriter defers the commit until the response is about to start,
// so the session cookie can still make it into the headers.
type sessionWriter struct {
	http.ResponseWriter
	manager   *Manager
	req       *http.Request
	sess      *Session
	hadCookie bool

	committed bool
	failed    bool
}

func (sw *sessionWriter) commit() {
	if sw.committed {
		return
	}
	sw.committed = true

	if err := sw.manager.commit(sw.req.Context(), sw.ResponseWriter, sw.sess, sw.hadCookie); err != nil {
		sw.failed = true
		sw.manager.logger.ErrorContext(sw.req.Context(), "failed to commit session",
			logger.Error(err), logger.Method(sw.req.Method), logger.Path(sw.req.URL.Path))
		http.Error(sw.ResponseWriter, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (sw *sessionWriter) WriteHeader(statusCode int) {
	sw.commit()
	if sw.failed {
		return
	}
	sw.ResponseWriter.WriteHeader(statusCode)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.commit()
	if sw.failed {
		// The error response has already been written; swallow the
		// handler's output but report success so it does not retry.
		return len(b), nil
	}
	return sw.ResponseWriter.Write(b)
}

// Unwrap exposes the underlying writer for http.ResponseController.
func (sw *sessionWriter) Unwrap() http.ResponseWriter {
	return sw.ResponseWriter
}
