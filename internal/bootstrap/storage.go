package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/idnremote/idnremote-go/config"
	"github.com/idnremote/idnremote-go/internal/data"
	"github.com/idnremote/idnremote-go/internal/ports"
)

// StorageDeps contains what BuildStorage needs to open the configured backend.
type StorageDeps struct {
	Config *config.AppConfig
	Logger *slog.Logger
}

// Infrastructure is the opened key-value backend plus the connections behind it.
// DB and Redis are nil unless the matching backend was selected.
type Infrastructure struct {
	Storage ports.Storage
	DB      *sql.DB
	Redis   redis.UniversalClient
}

// Close releases any connections opened by BuildStorage.
func (i *Infrastructure) Close() error {
	if i == nil {
		return nil
	}
	var errs []error
	if i.Redis != nil {
		if err := i.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if i.DB != nil {
		if err := i.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// BuildStorage opens the backend chosen by STORAGE_BACKEND. Postgres migrations run
// here when enabled so the kv_store table exists before first use.
func BuildStorage(ctx context.Context, deps StorageDeps) (*Infrastructure, error) {
	if deps.Config == nil {
		return nil, errors.New("storage config is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config
	dbCfg := DatabaseConfig{DBConfig: cfg.Postgres, RedisConfig: cfg.Redis, Logger: logger}

	switch cfg.Storage.Backend {
	case config.StorageRedis:
		client, err := ConnectRedis(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return &Infrastructure{
			Storage: data.NewRedisStorage(client, cfg.Storage.KeyPrefix),
			Redis:   client,
		}, nil

	case config.StoragePostgres:
		db, err := ConnectDB(dbCfg)
		if err != nil {
			return nil, fmt.Errorf("connect db: %w", err)
		}
		if cfg.Postgres.RunMigrationsOnStart {
			if err = RunMigrations(ctx, db, logger); err != nil {
				return nil, errors.Join(err, db.Close())
			}
		} else {
			logger.InfoContext(ctx, "skipping database migrations on startup", "reason", "disabled via config")
		}
		return &Infrastructure{
			Storage: data.NewPostgresStorage(db, cfg.Storage.KeyPrefix),
			DB:      db,
		}, nil

	case config.StorageFile:
		store, err := data.NewFileStorage(cfg.Storage.FilePath)
		if err != nil {
			return nil, fmt.Errorf("open file storage: %w", err)
		}
		logger.DebugContext(ctx, "file storage opened", "path", store.Path())
		return &Infrastructure{Storage: store}, nil

	case config.StorageMemory, "":
		return &Infrastructure{Storage: data.NewMemoryStorage()}, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
