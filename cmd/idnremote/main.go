package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/idnremote/idnremote-go/config"
	"github.com/idnremote/idnremote-go/internal/bootstrap"
)

func main() {
	ctx := context.Background()
	logger := bootstrap.InitLogger(bootstrap.LoggerConfig{Level: slog.LevelInfo})
	if err := run(ctx, logger); err != nil {
		logger.ErrorContext(ctx, "fatal error", "error", err)
		os.Exit(1) //nolint:forbidigo // Main entrypoint should exit with non-zero status on fatal errors.
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return err
	}

	// Re-create the logger now that the level and format are known.
	logger = bootstrap.InitLogger(bootstrap.LoggerConfig{Level: cfg.SlogLevel(), Text: cfg.IsDev})
	logStartupInfo(ctx, logger, &cfg)

	infra, err := bootstrap.BuildStorage(ctx, bootstrap.StorageDeps{Config: &cfg, Logger: logger})
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer func() {
		if cerr := infra.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close storage failed", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(ctx, &bootstrap.ServiceDeps{
		Config:  &cfg,
		Storage: infra.Storage,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("init services: %w", err)
	}
	defer func() {
		if cerr := services.Close(); cerr != nil {
			logger.ErrorContext(ctx, "close services failed", "error", cerr)
		}
	}()

	return bootstrap.RunServicesWithShutdown(ctx, &bootstrap.ServiceOrchestrationConfig{
		Config:   &cfg,
		Services: services,
		Logger:   logger,
	})
}

func logStartupInfo(ctx context.Context, logger *slog.Logger, cfg *config.AppConfig) {
	logger.InfoContext(ctx, "starting idnremote companion server",
		"api_base_url", cfg.API.BaseURL,
		"cache_ttl", cfg.API.CacheTTL,
		"storage_backend", cfg.Storage.Backend,
		"auth_mode", cfg.Auth.Mode,
		"http_addr", cfg.HTTP.Addr,
		"metrics_enabled", cfg.Observability.Metrics.IsEnabled(),
		"dev", cfg.IsDev)
}
