// Package migrate applies the embedded postgres schema used by the kv_store backend.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// lockKey serializes concurrent runners (several app replicas starting at once).
const lockKey int64 = 0x69646e72

// Migration is one embedded SQL file.
type Migration struct {
	Version string
	SQL     string
}

// Options configures Apply.
type Options struct {
	Logger *slog.Logger
}

// List returns the embedded migrations ordered by version.
func List() ([]Migration, error) {
	return listFrom(migrationsFS)
}

func listFrom(fsys fs.FS) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}
	out := make([]Migration, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}
		body, readErr := fs.ReadFile(fsys, "migrations/"+e.Name())
		if readErr != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), readErr)
		}
		out = append(out, Migration{Version: strings.TrimSuffix(e.Name(), ".sql"), SQL: string(body)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Run applies pending migrations with the default logger.
func Run(ctx context.Context, db *sql.DB) error {
	_, err := Apply(ctx, db, Options{})
	return err
}

// Apply runs every pending migration, each in its own transaction, and returns the
// versions it applied. Calling it again is a no-op.
func Apply(ctx context.Context, db *sql.DB, opts Options) ([]string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "migrations")

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations table: %w", err)
	}

	all, err := List()
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, m := range all {
		ran, applyErr := applyOne(ctx, db, m, logger)
		if applyErr != nil {
			return applied, applyErr
		}
		if ran {
			applied = append(applied, m.Version)
		}
	}
	return applied, nil
}

// Pending reports the embedded versions not yet recorded in schema_migrations.
func Pending(ctx context.Context, db *sql.DB) ([]string, error) {
	all, err := List()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, m := range all {
		var exists bool
		err := db.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&exists)
		if err != nil {
			// No bookkeeping table yet means nothing has run.
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UndefinedTable {
				return versions(all), nil
			}
			return nil, fmt.Errorf("check migration %s: %w", m.Version, err)
		}
		if !exists {
			out = append(out, m.Version)
		}
	}
	return out, nil
}

func versions(ms []Migration) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Version
	}
	return out
}

func applyOne(ctx context.Context, db *sql.DB, m Migration, logger *slog.Logger) (bool, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			logger.ErrorContext(ctx, "rollback failed", "error", rbErr, "version", m.Version)
		}
	}()

	if _, lockErr := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, lockKey); lockErr != nil {
		return false, fmt.Errorf("lock migrations: %w", lockErr)
	}

	var exists bool
	if scanErr := tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, m.Version).Scan(&exists); scanErr != nil {
		return false, fmt.Errorf("check migration %s: %w", m.Version, scanErr)
	}
	if exists {
		return false, nil
	}

	logger.InfoContext(ctx, "applying migration", "version", m.Version)
	if _, execErr := tx.ExecContext(ctx, m.SQL); execErr != nil {
		return false, fmt.Errorf("exec migration %s: %w", m.Version, execErr)
	}
	if _, insErr := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version) VALUES ($1)`, m.Version); insErr != nil {
		return false, fmt.Errorf("record migration %s: %w", m.Version, insErr)
	}
	if commitErr := tx.Commit(); commitErr != nil {
		return false, fmt.Errorf("commit migration %s: %w", m.Version, commitErr)
	}
	return true, nil
}
