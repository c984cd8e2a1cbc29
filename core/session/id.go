package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// idByteLen is the number of random bytes in a session ID (256 bits).
const idByteLen = 32

// ID is an opaque session identifier: idByteLen cryptographically random
// bytes encoded as a base64 raw-URL string. It is the only value that ever
// crosses the wire in the session cookie.
type ID string

// NewID generates a cryptographically secure session ID.
func NewID() (ID, error) {
	b := make([]byte, idByteLen)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrIDGeneration, err)
	}
	return ID(base64.RawURLEncoding.EncodeToString(b)), nil
}

// ParseID validates a wire-format session ID. It returns ErrInvalidID for
// anything that does not decode to exactly idByteLen bytes, so malformed or
// truncated cookie values never reach the store.
func ParseID(s string) (ID, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(b) != idByteLen {
		return "", ErrInvalidID
	}
	return ID(s), nil
}

// String returns the wire representation of the ID.
func (id ID) String() string {
	return string(id)
}
