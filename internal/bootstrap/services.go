package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/idnremote/idnremote-go/config"
	"github.com/idnremote/idnremote-go/internal/adapters/backend"
	"github.com/idnremote/idnremote-go/internal/clock"
	"github.com/idnremote/idnremote-go/internal/core"
	"github.com/idnremote/idnremote-go/internal/observability/metrics"
	"github.com/idnremote/idnremote-go/internal/observability/statsd"
	"github.com/idnremote/idnremote-go/internal/ports"
	"github.com/idnremote/idnremote-go/internal/service"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Cache     *core.ExpiringCache
	Backend   *backend.Client
	Provider  ports.IdentityProvider
	Session   *service.SessionStore
	Navigator *service.Navigator

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// Close releases the metrics socket.
func (s *ServiceContainer) Close() error {
	if s == nil {
		return nil
	}
	return s.Observability.MetricsSink.Close()
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config  *config.AppConfig
	Storage ports.Storage
	Clock   clock.Clock
	// HTTPClient is used for identity provider calls. Backend calls use their own client
	// so API_TIMEOUT applies only to them.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewServices wires the cache, backend client, identity provider, session store and
// navigator. Nothing is fetched here; call Session.Init to restore the signed-in user.
func NewServices(ctx context.Context, deps *ServiceDeps) (*ServiceContainer, error) {
	if deps == nil || deps.Config == nil {
		return nil, errors.New("service deps and config are required")
	}
	if deps.Storage == nil {
		return nil, errors.New("storage is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}

	obs := buildObservability(cfg.Observability, logger)

	client, cache, err := buildBackend(deps, clk, obs, logger)
	if err != nil {
		return nil, errors.Join(err, obs.MetricsSink.Close())
	}

	provider, err := BuildIdentityProvider(ctx, AuthConfig{
		Auth:       cfg.Auth,
		IsDev:      cfg.IsDev,
		Storage:    deps.Storage,
		HTTPClient: deps.HTTPClient,
		Clock:      clk,
		Logger:     logger,
	})
	if err != nil {
		return nil, errors.Join(err, obs.MetricsSink.Close())
	}

	session := service.NewSessionStore(service.SessionStoreOptions{
		Provider: provider,
		Profiles: client,
		Logger:   logger,
	})

	return &ServiceContainer{
		Cache:         cache,
		Backend:       client,
		Provider:      provider,
		Session:       session,
		Navigator:     service.NewNavigator(service.NavigatorOptions{Session: session, Logger: logger}),
		Observability: obs,
	}, nil
}

// NewBackendClient builds only the cached backend client, for callers that never sign in.
func NewBackendClient(deps *ServiceDeps) (*backend.Client, error) {
	if deps == nil || deps.Config == nil || deps.Storage == nil {
		return nil, errors.New("service deps, config and storage are required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := deps.Clock
	if clk == nil {
		clk = clock.Real{}
	}
	client, _, err := buildBackend(deps, clk, ObservabilityContainer{}, logger)
	return client, err
}

func buildBackend(
	deps *ServiceDeps,
	clk clock.Clock,
	obs ObservabilityContainer,
	logger *slog.Logger,
) (*backend.Client, *core.ExpiringCache, error) {
	api := deps.Config.API
	cacheOpts := core.ExpiringCacheOptions{Storage: deps.Storage, Clock: clk, Logger: logger}
	backendOpts := backend.Options{
		BaseURL:    api.BaseURL,
		HTTPClient: &http.Client{Timeout: api.Timeout},
		CacheTTL:   api.CacheTTL,
		Logger:     logger,
	}
	if obs.MetricsSink.Enabled() {
		cacheOpts.Recorder = metrics.CacheRecorder{Sink: obs.MetricsSink}
		backendOpts.Recorder = metrics.RequestRecorder{Sink: obs.MetricsSink}
	}
	cache := core.NewExpiringCache(cacheOpts)
	backendOpts.Cache = cache

	client, err := backend.NewClient(backendOpts)
	if err != nil {
		return nil, nil, fmt.Errorf("backend client: %w", err)
	}
	return client, cache, nil
}

func buildObservability(cfg config.ObservabilityConfig, logger *slog.Logger) ObservabilityContainer {
	obsLogger := logger.With("component", "observability")
	out := ObservabilityContainer{MetricsConfig: cfg.Metrics}

	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled:    true,
			Address:    cfg.Metrics.StatsdAddress,
			Prefix:     cfg.Metrics.Prefix,
			Logger:     obsLogger,
			GlobalTags: cfg.Metrics.Tags,
		})
		if err != nil {
			// Metrics are optional; keep serving without them.
			obsLogger.Error("failed to initialise statsd client", "error", err)
		} else {
			out.MetricsSink = client
		}
	}
	return out
}

// ServiceOrchestrationConfig contains what RunServicesWithShutdown needs.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown restores the session, serves HTTP and blocks until SIGINT/SIGTERM
// or a server failure, then shuts down gracefully.
func RunServicesWithShutdown(ctx context.Context, cfg *ServiceOrchestrationConfig) error {
	if cfg == nil || cfg.Config == nil || cfg.Services == nil {
		return errors.New("service orchestration config is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	svcCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Loading is set before the listener opens; guarded requests wait for the restore.
	waitInit := cfg.Services.Session.Start(svcCtx)
	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		st := waitInit()
		logger.InfoContext(svcCtx, "session restored", "phase", st.Phase())
	}()

	errCh := make(chan error, 1)
	server := StartHTTPServer(&HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
		ErrCh:    errCh,
	})

	return waitForShutdown(shutdownConfig{
		ctx:        ctx,
		cancel:     cancel,
		errCh:      errCh,
		httpServer: server,
		timeout:    cfg.Config.HTTP.ShutdownTimeout,
		initDone:   initDone,
		logger:     logger,
	})
}

type shutdownConfig struct {
	ctx        context.Context
	cancel     context.CancelFunc
	errCh      <-chan error
	httpServer *http.Server
	timeout    time.Duration
	initDone   <-chan struct{}
	logger     *slog.Logger
}

// waitForShutdown blocks until a signal or a service error.
func waitForShutdown(cfg shutdownConfig) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		cfg.logger.Info("shutting down services...")
		cfg.cancel()
		return gracefulStop(cfg)
	case <-cfg.ctx.Done():
		cfg.logger.Info("shutting down services...", "reason", context.Cause(cfg.ctx))
		cfg.cancel()
		return gracefulStop(cfg)
	case err := <-cfg.errCh:
		cfg.logger.Error("service error", "error", err)
		cfg.cancel()
		if stopErr := gracefulStop(cfg); stopErr != nil {
			cfg.logger.Error("graceful stop failed", "error", stopErr)
		}
		return err
	}
}

// gracefulStop stops the HTTP server and waits for the in-flight session restore.
func gracefulStop(cfg shutdownConfig) error {
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(cfg.ctx), cfg.timeout)
	defer cancel()

	if err := ShutdownHTTPServer(ShutdownConfig{
		Context: shutdownCtx,
		Server:  cfg.httpServer,
		Logger:  cfg.logger,
	}); err != nil {
		return err
	}

	waitForService(shutdownCtx, cfg.initDone, "session init", cfg.logger)
	return nil
}

// waitForService waits for a background task to finish or ctx to expire.
func waitForService(ctx context.Context, done <-chan struct{}, name string, logger *slog.Logger) {
	if done == nil {
		return
	}
	select {
	case <-done:
		logger.Info("service stopped", "service", name)
	case <-ctx.Done():
		logger.Warn("service did not stop in time", "service", name)
	}
}
