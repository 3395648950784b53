package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/idnremote/idnremote-go/config"
	"github.com/idnremote/idnremote-go/internal/adapters/backend"
	"github.com/idnremote/idnremote-go/internal/bootstrap"
)

// connections holds whatever a command opened; Close releases all of it.
type connections struct {
	infra    *bootstrap.Infrastructure
	services *bootstrap.ServiceContainer
	backend  *backend.Client
}

func (r *connections) Close() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.services.Close(), r.infra.Close())
}

const sessionStoreFile = "store.json"

func openStorage(cmdCtx *commandContext, cfg *config.AppConfig) (*bootstrap.Infrastructure, error) {
	infra, err := bootstrap.BuildStorage(cmdCtx.Ctx, bootstrap.StorageDeps{Config: cfg, Logger: cmdCtx.Logger})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return infra, nil
}

// openListings wires only the cached backend client; listing commands never touch the
// identity provider.
func openListings(cmdCtx *commandContext) (*connections, error) {
	infra, err := openStorage(cmdCtx, &cmdCtx.Config)
	if err != nil {
		return nil, err
	}
	client, err := bootstrap.NewBackendClient(&bootstrap.ServiceDeps{
		Config:  &cmdCtx.Config,
		Storage: infra.Storage,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return nil, errors.Join(err, infra.Close())
	}
	return &connections{infra: infra, backend: client}, nil
}

// sessionConfig moves session commands off the in-process store. login, callback and
// whoami run as separate processes and must share the pending login and the session.
func sessionConfig(cfg config.AppConfig) (config.AppConfig, error) {
	if cfg.Storage.Backend != config.StorageMemory && cfg.Storage.Backend != "" {
		return cfg, nil
	}
	cfg.Storage.Backend = config.StorageFile
	if cfg.Storage.FilePath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return cfg, fmt.Errorf("locate session store: %w", err)
		}
		cfg.Storage.FilePath = filepath.Join(dir, "idnremote", sessionStoreFile)
	}
	return cfg, nil
}

// openSession wires the full service container. The session is not restored yet.
func openSession(cmdCtx *commandContext) (*connections, error) {
	cfg, err := sessionConfig(cmdCtx.Config)
	if err != nil {
		return nil, err
	}
	infra, err := openStorage(cmdCtx, &cfg)
	if err != nil {
		return nil, err
	}
	services, err := bootstrap.NewServices(cmdCtx.Ctx, &bootstrap.ServiceDeps{
		Config:  &cfg,
		Storage: infra.Storage,
		Logger:  cmdCtx.Logger,
	})
	if err != nil {
		return nil, errors.Join(err, infra.Close())
	}
	return &connections{infra: infra, services: services, backend: services.Backend}, nil
}

func closeConnections(cmdCtx *commandContext, conns *connections) {
	if err := conns.Close(); err != nil {
		cmdCtx.Logger.Warn("close failed", "error", err)
	}
}
