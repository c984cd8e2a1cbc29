package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dmitrymomot/sessionkit/core/session"
)

const defaultTable = "sessions"

// Store is a PostgreSQL-backed session store. Each record is one row
// keyed by the session ID, with the data serialized as a JSON blob and
// the expiry in a dedicated column so reads can filter expired rows and
// DeleteExpired can reclaim them.
type Store struct {
	pool  *pgxpool.Pool
	table pgx.Identifier
}

// StoreOption configures the PostgreSQL store.
type StoreOption func(*Store)

// WithTable overrides the default "sessions" table name. The name is
// quoted as an SQL identifier, never interpolated raw.
func WithTable(name string) StoreOption {
	return func(s *Store) {
		s.table = pgx.Identifier{name}
	}
}

// New creates a session store on top of an existing connection pool.
func New(pool *pgxpool.Pool, opts ...StoreOption) *Store {
	store := &Store{
		pool:  pool,
		table: pgx.Identifier{defaultTable},
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Migrate creates the sessions table and its expiry index if they do not
// exist. Call once at startup.
func (s *Store) Migrate(ctx context.Context) error {
	table := s.table.Sanitize()
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			token TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL
		)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (expires_at)`,
			pgx.Identifier{s.table[0] + "_expires_at_idx"}.Sanitize(), table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return errors.Join(ErrFailedToMigrate, err)
		}
	}
	return nil
}

// Create inserts a new row. ON CONFLICT DO NOTHING turns a primary-key
// clash into zero affected rows, which maps to session.ErrDuplicateID.
func (s *Store) Create(ctx context.Context, rec *session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (token, data, expires_at) VALUES ($1, $2, $3) ON CONFLICT (token) DO NOTHING`,
		s.table.Sanitize())
	tag, err := s.pool.Exec(ctx, query, rec.ID.String(), data, rec.ExpiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Expired rows still occupy their token until reclaimed; take
		// them over instead of reporting a collision.
		taken, err := s.takeOverExpired(ctx, rec, data)
		if err != nil {
			return err
		}
		if !taken {
			return session.ErrDuplicateID
		}
	}
	return nil
}

func (s *Store) takeOverExpired(ctx context.Context, rec *session.Record, data []byte) (bool, error) {
	query := fmt.Sprintf(
		`UPDATE %s SET data = $2, expires_at = $3 WHERE token = $1 AND expires_at <= now()`,
		s.table.Sanitize())
	tag, err := s.pool.Exec(ctx, query, rec.ID.String(), data, rec.ExpiresAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Save upserts the row unconditionally.
func (s *Store) Save(ctx context.Context, rec *session.Record) error {
	data, err := session.EncodeRecord(rec)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (token, data, expires_at) VALUES ($1, $2, $3)
		 ON CONFLICT (token) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`,
		s.table.Sanitize())
	_, err = s.pool.Exec(ctx, query, rec.ID.String(), data, rec.ExpiresAt)
	return err
}

// Load fetches the row, filtering expired rows in the query so a stale
// row that the sweep has not reclaimed is never returned.
func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	query := fmt.Sprintf(
		`SELECT data FROM %s WHERE token = $1 AND expires_at > now()`,
		s.table.Sanitize())

	var data []byte
	err := s.pool.QueryRow(ctx, query, id.String()).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return session.DecodeRecord(data)
}

// Delete removes the row. Absent tokens are a no-op.
func (s *Store) Delete(ctx context.Context, id session.ID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE token = $1`, s.table.Sanitize())
	_, err := s.pool.Exec(ctx, query, id.String())
	return err
}

// DeleteExpired reclaims expired rows. Run it periodically via
// session.ContinuouslyDeleteExpired.
func (s *Store) DeleteExpired(ctx context.Context) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE expires_at <= $1`, s.table.Sanitize())
	_, err := s.pool.Exec(ctx, query, time.Now())
	return err
}
