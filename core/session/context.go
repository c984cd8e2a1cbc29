package session

import "context"

type sessionContextKey struct{}

// WithSession attaches a session handle to the context. The middleware does
// this once per request; applications rarely need it outside tests.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext retrieves the session handle from the context.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	return sess, ok
}

// MustFromContext retrieves the session handle or panics. Use it in
// handlers that are guaranteed to sit behind the middleware.
func MustFromContext(ctx context.Context) *Session {
	sess, ok := FromContext(ctx)
	if !ok {
		panic(ErrNotInContext)
	}
	return sess
}
