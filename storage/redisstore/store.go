package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/core/session"
)

const defaultKeyPrefix = "session:"

// Store is a Redis-backed session store. Records are stored as JSON
// blobs under prefixed keys with a native Redis TTL, so expiry is
// enforced by the server and no sweep is needed.
type Store struct {
	client    *redis.Client
	keyPrefix string
}

// StoreOption configures the Redis store.
type StoreOption func(*Store)

// WithKeyPrefix overrides the default "session:" key prefix. Useful when
// several applications share one Redis database.
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		s.keyPrefix = prefix
	}
}

// New creates a session store on top of an existing Redis client.
func New(client *redis.Client, opts ...StoreOption) *Store {
	store := &Store{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *Store) key(id session.ID) string {
	return s.keyPrefix + id.String()
}

// Create persists a new record using SET NX, so an existing live key
// yields session.ErrDuplicateID. A record whose expiry has already
// passed cannot carry a Redis TTL; like an expired Save, any resident
// key is removed instead.
func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}

	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return s.client.Del(ctx, s.key(rec.ID)).Err()
	}

	ok, err := s.client.SetNX(ctx, s.key(rec.ID), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return session.ErrDuplicateID
	}
	return nil
}

// Save upserts a record with its remaining TTL. A record that is already
// past its expiry is deleted instead of written.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return s.client.Del(ctx, s.key(rec.ID)).Err()
	}

	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(rec.ID), data, ttl).Err()
}

// Load fetches and decodes the record, returning (nil, nil) when the key
// is absent or the envelope expiry has passed before Redis evicted it.
func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	rec, err := session.DecodeRecord(data)
	if err != nil {
		return nil, err
	}
	if rec.IsExpired() {
		return nil, nil
	}
	return rec, nil
}

// Delete removes the record. Absent keys are a no-op.
func (s *Store) Delete(ctx context.Context, id session.ID) error {
	return s.client.Del(ctx, s.key(id)).Err()
}
