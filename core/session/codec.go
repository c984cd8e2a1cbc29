package session

import (
	"encoding/json"
	"fmt"
)

// EncodeRecord serializes a record into the opaque byte envelope stored by
// byte-oriented backends: {id, data, expires_at} as JSON. The encoding
// round-trips strings, numbers, booleans and nested maps/slices; numbers
// come back as float64, which the handle's typed getters accept.
func EncodeRecord(rec *Record) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("session: encode record: %w", err)
	}
	return b, nil
}

// DecodeRecord deserializes an envelope produced by EncodeRecord.
func DecodeRecord(b []byte) (*Record, error) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return nil, fmt.Errorf("session: decode record: %w", err)
	}
	if rec.Data == nil {
		rec.Data = make(map[string]any)
	}
	return &rec, nil
}
