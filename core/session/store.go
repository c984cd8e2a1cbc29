package session

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/core/logger"
)

// Store defines the persistence contract for session records.
// Implementations must be safe for concurrent use and must serialize
// mutating operations on the same ID.
//
// Absence is not an error: Load returns (nil, nil) for missing or expired
// records. Any I/O, connectivity or serialization failure is returned as a
// non-nil error and treated as fatal for the current request by default.
type Store interface {
	// Create persists a brand-new record. It must return ErrDuplicateID
	// when a live record with the same ID already exists, so the caller
	// can regenerate the ID instead of silently taking over another
	// client's session.
	Create(ctx context.Context, rec *Record) error

	// Save upserts a record unconditionally. Concurrent saves for the
	// same ID resolve last-write-wins; there is no version token.
	Save(ctx context.Context, rec *Record) error

	// Load returns the record for id, or (nil, nil) when it is missing
	// or expired. Expired records must never be returned even if a sweep
	// has not reclaimed them yet.
	Load(ctx context.Context, id ID) (*Record, error)

	// Delete removes the record for id. Deleting an absent ID is not an
	// error.
	Delete(ctx context.Context, id ID) error
}

// ExpiredDeleter is implemented by stores that reclaim expired records on
// demand. Stores backed by media with native TTL eviction (Redis, Mongo TTL
// indexes) may omit it or implement it as a no-op.
type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context) error
}

// ContinuouslyDeleteExpired sweeps expired records every interval until ctx
// is cancelled, returning ctx.Err. A non-positive interval yields
// ErrInvalidSweepInterval. Sweep failures are logged and do not stop the
// loop. Run it in its own goroutine, typically for the lifetime of the
// process:
//
//	go session.ContinuouslyDeleteExpired(ctx, store, 5*time.Minute, logger)
func ContinuouslyDeleteExpired(ctx context.Context, store ExpiredDeleter, interval time.Duration, log *slog.Logger) error {
	if interval <= 0 {
		return ErrInvalidSweepInterval
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := store.DeleteExpired(ctx); err != nil {
				log.ErrorContext(ctx, "session: failed to delete expired records", logger.Error(err))
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
