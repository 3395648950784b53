// Package devauth provides a simple, config-driven IdentityProvider for local development.
package devauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/idnremote/idnremote-go/internal/adapters/authstate"
	"github.com/idnremote/idnremote-go/internal/clock"
	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	apperrors "github.com/idnremote/idnremote-go/internal/errors"
	"github.com/idnremote/idnremote-go/internal/ports"
)

const (
	sessionKey     = "devauth_session"
	stateKeyPrefix = "devauth_state_"
	stateTTL       = 10 * time.Minute
)

var _ ports.IdentityProvider = (*Provider)(nil)

// Config controls the dev auth provider behavior.
// UserID and Email are required; the rest are optional.
type Config struct {
	UserID          string
	Email           string
	FullName        string
	Nickname        string
	Phone           string
	CallbackPath    string        // default /auth/callback
	SessionDuration time.Duration // default 8h when zero
	Storage         ports.Storage
	Clock           clock.Clock
}

// Provider implements ports.IdentityProvider for local development.
// It short-circuits the OAuth flow by redirecting back to our own callback
// with a locally generated state. Completing the redirect issues the configured identity.
type Provider struct {
	user            domainauth.ProviderUser
	callbackPath    string
	sessionDuration time.Duration
	storage         ports.Storage
	states          *authstate.Ledger
	clock           clock.Clock
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.UserID == "" {
		return nil, errors.New("dev auth: UserID is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.Storage == nil {
		return nil, errors.New("dev auth: Storage is required")
	}
	p := &Provider{
		callbackPath:    cfg.CallbackPath,
		sessionDuration: cfg.SessionDuration,
		storage:         cfg.Storage,
		clock:           cfg.Clock,
	}
	if p.callbackPath == "" {
		p.callbackPath = "/auth/callback"
	}
	if p.sessionDuration == 0 {
		p.sessionDuration = 8 * time.Hour
	}
	if p.clock == nil {
		p.clock = clock.Real{}
	}
	p.states = authstate.New(p.storage, stateKeyPrefix, stateTTL, p.clock)
	p.user = domainauth.ProviderUser{
		ID:        cfg.UserID,
		Email:     cfg.Email,
		Phone:     cfg.Phone,
		CreatedAt: p.clock.Now().UTC().Format(time.RFC3339),
		Metadata:  domainauth.UserMetadata{FullName: cfg.FullName, Name: cfg.Nickname},
	}
	return p, nil
}

// BeginOAuthRedirect returns a local callback URL carrying a fresh state.
func (p *Provider) BeginOAuthRedirect(ctx context.Context, _ ports.BeginInput) (ports.BeginResult, error) {
	state, err := randomString(24)
	if err != nil {
		return ports.BeginResult{}, apperrors.Provider(err, "generate state")
	}
	if err := p.states.Put(ctx, state, []byte("1")); err != nil {
		return ports.BeginResult{}, apperrors.Provider(err, "persist state")
	}
	q := url.Values{"code": {"dev"}, "state": {state}}
	return ports.BeginResult{URL: p.callbackPath + "?" + q.Encode(), State: state}, nil
}

// CompleteRedirect accepts any code for a state it issued and stores the dev session.
func (p *Provider) CompleteRedirect(ctx context.Context, in ports.ExchangeInput) error {
	if in.Code == "" {
		return apperrors.ValidationField("code", "authorization code is required")
	}
	switch _, err := p.states.Take(ctx, in.State); {
	case errors.Is(err, authstate.ErrUnknownState):
		return apperrors.Provider(err, "no pending login for state")
	case errors.Is(err, authstate.ErrExpired):
		return apperrors.Provider(err, "pending login expired")
	case err != nil:
		return apperrors.Provider(err, "read state")
	}

	token, err := randomString(32)
	if err != nil {
		return apperrors.Provider(err, "generate token")
	}
	expiresAt := p.clock.Now().Add(p.sessionDuration).Unix()
	session := domainauth.ProviderSession{
		AccessToken:  "dev-" + token,
		RefreshToken: "dev-refresh",
		ExpiresIn:    int64(p.sessionDuration.Seconds()),
		ExpiresAt:    &expiresAt,
		TokenType:    "bearer",
		User:         p.user,
	}
	body, err := json.Marshal(session)
	if err != nil {
		return apperrors.Provider(err, "encode session")
	}
	if err := p.storage.Set(ctx, sessionKey, body); err != nil {
		return apperrors.Provider(err, "persist session")
	}
	return nil
}

// GetCurrentSession returns the dev session, extending it when it has lapsed.
func (p *Provider) GetCurrentSession(ctx context.Context) (*domainauth.ProviderSession, error) {
	raw, err := p.storage.Get(ctx, sessionKey)
	if err != nil {
		return nil, apperrors.Provider(err, "read session")
	}
	if raw == nil {
		return nil, nil
	}
	var s domainauth.ProviderSession
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, apperrors.Provider(err, "decode session")
	}
	// Refresh expiry for convenience rather than signing the developer out.
	if s.ExpiresAt != nil && *s.ExpiresAt <= p.clock.Now().Unix() {
		next := p.clock.Now().Add(p.sessionDuration).Unix()
		s.ExpiresAt = &next
		if body, err := json.Marshal(s); err == nil {
			_ = p.storage.Set(ctx, sessionKey, body)
		}
	}
	return &s, nil
}

// SignOut removes the dev session.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.storage.Remove(ctx, sessionKey); err != nil {
		return apperrors.Provider(err, "clear session")
	}
	return nil
}

func randomString(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	b := make([]byte, (n*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b)[:n], nil
}
