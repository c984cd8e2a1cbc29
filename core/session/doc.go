// Package session provides cookie-based HTTP session management with
// pluggable storage backends.
//
// A Manager loads the session for each request from its cookie, hands a
// Session handle to application code via the request context, and commits
// the final state (create, save, rotate or delete) before the response
// starts. Session data lives server-side in a Store; the cookie carries
// only an opaque 256-bit random identifier.
//
// # Basic usage
//
//	store := session.NewMemoryStore()
//	defer store.Close()
//
//	manager, err := session.New(store)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	mux := http.NewServeMux()
//	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
//		sess := session.MustFromContext(r.Context())
//		sess.Set("user_id", "u_123")
//	})
//
//	http.ListenAndServe(":8080", manager.Middleware(mux))
//
// Handlers never talk to the store directly. Mutations are tracked on the
// Session and flushed once per request: nothing is written for read-only
// requests, and a brand-new session that stays empty leaves no trace in
// the store or on the client.
//
// # Security
//
// Session cookies are always HttpOnly, default to Secure and SameSite=Lax,
// and can additionally be HMAC-signed via WithSignedCookies. Call
// Session.RenewID after privilege changes such as login; the record is
// re-created under a fresh ID and the old one is deleted, closing the
// session fixation window.
//
// # Storage
//
// The built-in MemoryStore suits single-process deployments and tests.
// Production deployments use the backends under storage/ (Redis, Postgres,
// MongoDB), all implementing the same Store interface.
package session
