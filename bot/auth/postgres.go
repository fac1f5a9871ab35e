package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps users in the "users" table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Level(ctx context.Context, userID int64) (Level, error) {
	var lvl int
	err := s.db.GetContext(ctx, &lvl, `SELECT auth_level FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return None, nil
	}
	if err != nil {
		return None, fmt.Errorf("auth: select level: %w", err)
	}
	return Level(lvl), nil
}

func (s *PostgresStore) SetLevel(ctx context.Context, userID int64, name string, level Level) error {
	const q = `
INSERT INTO users (id, username, auth_level, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (id) DO UPDATE
SET username = COALESCE(NULLIF(EXCLUDED.username, ''), users.username),
    auth_level = EXCLUDED.auth_level,
    updated_at = now()`
	if _, err := s.db.ExecContext(ctx, q, userID, name, int(level)); err != nil {
		return fmt.Errorf("auth: upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) Users(ctx context.Context, minLevel Level) ([]Account, error) {
	var users []Account
	err := s.db.SelectContext(ctx, &users,
		`SELECT id, username, auth_level FROM users WHERE auth_level >= $1 ORDER BY id`, int(minLevel))
	if err != nil {
		return nil, fmt.Errorf("auth: list users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) Remove(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("auth: delete user: %w", err)
	}
	return nil
}
