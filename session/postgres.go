package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"labrat/internal/errors"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	expires_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expires_at_idx ON sessions (expires_at);
`

// PostgresStore persists datasets in a sessions table. Expiry is
// enforced on read; a periodic sweep could be added behind a cron if
// the table grows.
type PostgresStore struct {
	db  *sqlx.DB
	ttl time.Duration
}

// NewPostgresStore ensures the sessions table exists and returns the
// store.
func NewPostgresStore(db *sqlx.DB, ttl time.Duration) (*PostgresStore, error) {
	if _, err := db.Exec(sessionSchema); err != nil {
		return nil, errors.Wrap(err, "ensure sessions schema")
	}
	return &PostgresStore{db: db, ttl: ttl}, nil
}

func (s *PostgresStore) Create(ctx context.Context, ds *Dataset) (string, error) {
	id := uuid.NewString()
	payload, err := json.Marshal(ds)
	if err != nil {
		return "", errors.Wrap(err, "encode session dataset")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, payload, expires_at) VALUES ($1, $2, $3)`,
		id, payload, time.Now().Add(s.ttl))
	if err != nil {
		return "", errors.Wrap(err, "insert session")
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Dataset, error) {
	var payload []byte
	err := s.db.QueryRowxContext(ctx,
		`SELECT payload FROM sessions WHERE id = $1 AND expires_at > NOW()`,
		id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, errors.SessionNotFound(id)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "select session %s", id)
	}
	var ds Dataset
	if err := json.Unmarshal(payload, &ds); err != nil {
		return nil, errors.Wrapf(err, "decode session %s", id)
	}
	return &ds, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, ds *Dataset) error {
	payload, err := json.Marshal(ds)
	if err != nil {
		return errors.Wrap(err, "encode session dataset")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET payload = $2, expires_at = $3 WHERE id = $1 AND expires_at > NOW()`,
		id, payload, time.Now().Add(s.ttl))
	if err != nil {
		return errors.Wrapf(err, "update session %s", id)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.SessionNotFound(id)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return errors.Wrapf(err, "delete session %s", id)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
