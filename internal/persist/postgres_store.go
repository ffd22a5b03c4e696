package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const snapshotSchema = `
CREATE TABLE IF NOT EXISTS room_snapshots (
	key      TEXT PRIMARY KEY,
	body     BYTEA NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps one row per blob in room_snapshots.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to dsn and makes sure the table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, snapshotSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Save(ctx context.Context, key string, data []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}
	const q = `
INSERT INTO room_snapshots (key, body, saved_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET body = EXCLUDED.body, saved_at = EXCLUDED.saved_at`
	if _, err := s.pool.Exec(ctx, q, key, data); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT body FROM room_snapshots WHERE key = $1`, key).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", key, err)
	}
	return data, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
