package session

import (
	"maps"
	"time"
)

// Record is the persisted unit of session state. The store never interprets
// Data; it only needs ID for addressing and ExpiresAt for eviction.
//
// Mutation tracking lives on the Session handle, not here: a Record holds
// exactly what is (or will be) in the store.
type Record struct {
	ID        ID             `json:"id"`
	Data      map[string]any `json:"data"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// NewRecord creates an empty record with a freshly generated ID expiring
// after ttl.
func NewRecord(ttl time.Duration) (*Record, error) {
	id, err := NewID()
	if err != nil {
		return nil, err
	}
	return &Record{
		ID:        id,
		Data:      make(map[string]any),
		ExpiresAt: time.Now().Add(ttl),
	}, nil
}

// IsExpired reports whether the record's expiry has passed. Every reader
// must treat an expired record as absent regardless of whether a sweep has
// physically removed it yet.
func (r *Record) IsExpired() bool {
	return time.Now().After(r.ExpiresAt)
}

// Clone returns a copy of the record with its own data map, so callers on
// either side of a store boundary cannot alias each other's state.
func (r *Record) Clone() *Record {
	c := *r
	if r.Data != nil {
		c.Data = make(map[string]any, len(r.Data))
		maps.Copy(c.Data, r.Data)
	}
	return &c
}
