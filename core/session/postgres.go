package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps sessions in the "sessions" table created by the migrations.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle. The caller owns db.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	upsertSessionSQL = `
INSERT INTO sessions (service, chat_id, sub_key, payload, updated_at)
VALUES ($1, $2, $3, $4::jsonb, now())
ON CONFLICT (service, chat_id, sub_key)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`
	selectSessionSQL = `SELECT payload FROM sessions WHERE service = $1 AND chat_id = $2 AND sub_key = $3`
	deleteSessionSQL = `DELETE FROM sessions WHERE service = $1 AND chat_id = $2 AND sub_key = $3`
)

// Put upserts the payload for key.
func (s *PostgresStore) Put(ctx context.Context, key Key, data []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertSessionSQL, key.Service, key.ChatID, key.Sub, string(data)); err != nil {
		return fmt.Errorf("session: upsert %s: %w", key, err)
	}
	return nil
}

// Get loads the payload for key.
func (s *PostgresStore) Get(ctx context.Context, key Key) ([]byte, bool, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, selectSessionSQL, key.Service, key.ChatID, key.Sub)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("session: select %s: %w", key, err)
	}
	return payload, true, nil
}

// Clear deletes the payload for key.
func (s *PostgresStore) Clear(ctx context.Context, key Key) error {
	if _, err := s.db.ExecContext(ctx, deleteSessionSQL, key.Service, key.ChatID, key.Sub); err != nil {
		return fmt.Errorf("session: delete %s: %w", key, err)
	}
	return nil
}

// Close is a no-op; the database handle belongs to the bootstrap pipeline.
func (s *PostgresStore) Close() error { return nil }
