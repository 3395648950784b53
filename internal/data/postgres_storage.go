package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	apperrors "github.com/idnremote/idnremote-go/internal/errors"
)

// PostgresStorage implements ports.Storage on the kv_store table.
type PostgresStorage struct {
	DB        *sql.DB
	keyPrefix string
}

// NewPostgresStorage creates a PostgresStorage. keyPrefix namespaces all keys (may be empty).
func NewPostgresStorage(db *sql.DB, keyPrefix string) *PostgresStorage {
	return &PostgresStorage{DB: db, keyPrefix: keyPrefix}
}

// Get returns nil, nil when key is absent.
func (s *PostgresStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	var value []byte
	err := s.withConn(ctx, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, s.keyPrefix+key).Scan(&value)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.MapStorageError(fmt.Errorf("kv get: %w", err))
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Set upserts value under key.
func (s *PostgresStorage) Set(ctx context.Context, key string, value []byte) error {
	if key == "" {
		return ErrEmptyKey
	}
	if value == nil {
		value = []byte{}
	}

	err := s.withConn(ctx, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `
			INSERT INTO kv_store (key, value, updated_at)
			VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
			s.keyPrefix+key, value)
		return err
	})
	if err != nil {
		return apperrors.MapStorageError(fmt.Errorf("kv set: %w", err))
	}
	return nil
}

// Remove deletes key; a missing key is not an error.
func (s *PostgresStorage) Remove(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	err := s.withConn(ctx, func(conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, s.keyPrefix+key)
		return err
	})
	if err != nil {
		return apperrors.MapStorageError(fmt.Errorf("kv remove: %w", err))
	}
	return nil
}

// withConn runs fn on a native pgx connection borrowed from the pool. Errors from fn
// come back unwrapped so pgx.ErrNoRows stays matchable.
func (s *PostgresStorage) withConn(ctx context.Context, fn func(*pgx.Conn) error) error {
	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get conn from pool: %w", err)
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(dc any) error {
		std, ok := dc.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("kv_store needs the pgx driver, got %T", dc)
		}
		return fn(std.Conn())
	})
}

// Health pings the database.
func (s *PostgresStorage) Health(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}
