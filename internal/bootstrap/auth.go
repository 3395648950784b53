package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/idnremote/idnremote-go/config"
	"github.com/idnremote/idnremote-go/internal/adapters/devauth"
	"github.com/idnremote/idnremote-go/internal/adapters/oidc"
	"github.com/idnremote/idnremote-go/internal/clock"
	"github.com/idnremote/idnremote-go/internal/domain/navigation"
	"github.com/idnremote/idnremote-go/internal/ports"
)

// AuthConfig contains configuration for the identity provider.
type AuthConfig struct {
	Auth       config.AuthConfig
	IsDev      bool
	Storage    ports.Storage
	HTTPClient *http.Client
	Clock      clock.Clock
	Logger     *slog.Logger
}

// BuildIdentityProvider creates the identity provider for the configured auth mode.
// Mock mode is refused outside development.
//
//nolint:ireturn // callers only need the provider boundary; the concrete type depends on AUTH_MODE.
func BuildIdentityProvider(ctx context.Context, cfg AuthConfig) (ports.IdentityProvider, error) {
	if cfg.Storage == nil {
		return nil, errors.New("identity provider requires storage")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		if !cfg.IsDev {
			return nil, errors.New("AUTH_MODE=mock is only allowed in development (set DEV=true)")
		}
		return buildDevAuthProvider(cfg, logger)

	case config.AuthModeOAuth, "":
		return buildOAuthProvider(ctx, cfg, logger)

	default:
		return nil, fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
}

func buildDevAuthProvider(cfg AuthConfig, logger *slog.Logger) (*devauth.Provider, error) {
	dev := cfg.Auth.DevAuth
	prov, err := devauth.NewProvider(devauth.Config{
		UserID:          dev.UserID,
		Email:           dev.Email,
		FullName:        dev.FullName,
		Nickname:        dev.Nickname,
		Phone:           dev.Phone,
		CallbackPath:    navigation.AuthCallbackPath,
		SessionDuration: dev.SessionDuration,
		Storage:         cfg.Storage,
		Clock:           cfg.Clock,
	})
	if err != nil {
		return nil, fmt.Errorf("dev auth provider: %w", err)
	}
	logger.Warn("mock authentication enabled", "user_id", dev.UserID, "email", dev.Email)
	return prov, nil
}

func buildOAuthProvider(ctx context.Context, cfg AuthConfig, logger *slog.Logger) (*oidc.Provider, error) {
	oauth := cfg.Auth.OAuth
	if oauth.DiscoveryURL == "" || oauth.ClientID == "" {
		logger.Error("AuthModeOAuth selected but required config missing",
			"discovery_url_empty", oauth.DiscoveryURL == "",
			"client_id_empty", oauth.ClientID == "",
		)
		return nil, errors.New("oauth mode requires OAUTH_DISCOVERY_URL and OAUTH_CLIENT_ID")
	}

	prov, err := oidc.NewProvider(ctx, oidc.ProviderConfig{
		ClientID:     oauth.ClientID,
		ClientSecret: oauth.ClientSecret,
		RedirectURL:  oauth.RedirectURL,
		Scope:        oauth.Scope,
		DiscoveryURL: oauth.DiscoveryURL,
		HTTPClient:   cfg.HTTPClient,
		Storage:      cfg.Storage,
		SessionKey:   cfg.Auth.SessionKey,
		Claims:       claimMapping(cfg.Auth.Claims),
		Clock:        cfg.Clock,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("oidc provider: %w", err)
	}
	return prov, nil
}

func claimMapping(c config.ClaimsConfig) oidc.ClaimMapping {
	return oidc.ClaimMapping{
		ID:        c.ID,
		Email:     c.Email,
		Phone:     c.Phone,
		FullName:  c.FullName,
		Name:      c.Name,
		AvatarURL: c.AvatarURL,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
