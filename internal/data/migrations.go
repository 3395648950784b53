package data

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/idnremote/idnremote-go/internal/migrate"
)

// RunMigrations creates the kv_store schema and returns the versions it applied.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) ([]string, error) {
	return migrate.Apply(ctx, db, migrate.Options{Logger: logger})
}
