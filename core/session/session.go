package session

import "time"

// Session is the per-request view over a Record handed to application code.
// It performs no I/O itself; the middleware inspects its flags after the
// handler returns and decides whether to create, save, rotate or delete the
// underlying record.
//
// A Session belongs to exactly one request and is not safe for concurrent
// use. Handlers that fan out goroutines must synchronize their own access.
type Session struct {
	record *Record

	// fresh is true until the record has been persisted at least once.
	fresh    bool
	modified bool
	deleted  bool
	renewID  bool
}

func newSession(rec *Record, fresh bool) *Session {
	return &Session{record: rec, fresh: fresh}
}

// ID returns the session identifier. It is stable across ordinary saves and
// suitable for per-client correlation such as CSRF token binding.
func (s *Session) ID() ID {
	return s.record.ID
}

// ExpiresAt returns the record's current expiry.
func (s *Session) ExpiresAt() time.Time {
	return s.record.ExpiresAt
}

// Get retrieves a value from the session data.
func (s *Session) Get(key string) (any, bool) {
	v, ok := s.record.Data[key]
	return v, ok
}

// GetString retrieves a string value. Returns false on absence or type
// mismatch.
func (s *Session) GetString(key string) (string, bool) {
	v, ok := s.Get(key)
	if !ok {
		return "", false
	}
	str, ok := v.(string)
	return str, ok
}

// GetInt retrieves an int value. JSON decoding stores numbers as float64,
// so those are converted.
func (s *Session) GetInt(key string) (int, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

// GetBool retrieves a bool value.
func (s *Session) GetBool(key string) (bool, bool) {
	v, ok := s.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// GetFloat64 retrieves a float64 value.
func (s *Session) GetFloat64(key string) (float64, bool) {
	v, ok := s.Get(key)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// Set stores a value and marks the session as modified.
func (s *Session) Set(key string, value any) {
	s.record.Data[key] = value
	s.modified = true
}

// Remove deletes a key, returning the previous value and whether it was
// present. The session is marked modified only when something was removed.
func (s *Session) Remove(key string) (any, bool) {
	v, ok := s.record.Data[key]
	if ok {
		delete(s.record.Data, key)
		s.modified = true
	}
	return v, ok
}

// Clear removes all data and marks the session as modified.
func (s *Session) Clear() {
	s.record.Data = make(map[string]any)
	s.modified = true
}

// Destroy marks the session for deletion. The middleware deletes the record
// from the store and emits a removal cookie; deletion supersedes any
// pending modifications.
func (s *Session) Destroy() {
	s.deleted = true
}

// RenewID requests ID rotation at commit time: the record is re-created
// under a new ID and the old one is deleted. Call this on privilege
// changes (e.g. after login) to mitigate session fixation. Fresh sessions
// already carry a never-seen ID, so the request is a no-op for them.
func (s *Session) RenewID() {
	s.renewID = true
}

// IsModified reports whether the data has been mutated since load.
func (s *Session) IsModified() bool {
	return s.modified
}

// IsDeleted reports whether Destroy has been called.
func (s *Session) IsDeleted() bool {
	return s.deleted
}

// IsFresh reports whether the record has never been persisted.
func (s *Session) IsFresh() bool {
	return s.fresh
}
