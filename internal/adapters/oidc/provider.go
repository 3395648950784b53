// Package oidc implements the identity provider boundary on top of an OpenID Connect issuer.
// The provider session lives in a ports.Storage so it survives restarts like a browser session would.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/idnremote/idnremote-go/internal/adapters/authstate"
	"github.com/idnremote/idnremote-go/internal/clock"
	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	apperrors "github.com/idnremote/idnremote-go/internal/errors"
	"github.com/idnremote/idnremote-go/internal/ports"
)

const (
	// DefaultSessionKey is the storage key holding the provider session.
	DefaultSessionKey = "auth_session"
	pendingKeyPrefix  = "auth_pending_"
	pendingTTL        = 10 * time.Minute
	// refreshLeeway renews tokens slightly before they lapse.
	refreshLeeway = 30 * time.Second
)

var _ ports.IdentityProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scope        string
	DiscoveryURL string
	HTTPClient   *http.Client // Optional, defaults to a 30s-timeout client

	Storage    ports.Storage
	SessionKey string
	Claims     ClaimMapping
	Clock      clock.Clock
	Logger     *slog.Logger
}

// Provider signs users in with the authorization code flow plus PKCE.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client
	storage    ports.Storage
	pending    *authstate.Ledger
	sessionKey string
	mapper     *claimMapper
	clock      clock.Clock
	logger     *slog.Logger

	oidcProvider *gooidc.Provider
	verifier     *gooidc.IDTokenVerifier
}

// pendingLogin is what Begin remembers until the callback arrives.
type pendingLogin struct {
	Verifier    string    `json:"verifier"`
	Nonce       string    `json:"nonce"`
	RedirectURL string    `json:"redirect_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewProvider performs discovery and returns a ready Provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if config.RedirectURL == "" {
		return nil, errors.New("redirect URL is required")
	}
	if config.DiscoveryURL == "" {
		return nil, errors.New("discovery URL is required")
	}
	if config.Storage == nil {
		return nil, errors.New("storage is required")
	}

	mapper, err := newClaimMapper(config.Claims)
	if err != nil {
		return nil, err
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{
		httpClient: httpClient,
		storage:    config.Storage,
		sessionKey: config.SessionKey,
		mapper:     mapper,
		clock:      config.Clock,
		logger:     config.Logger,
	}
	if p.sessionKey == "" {
		p.sessionKey = DefaultSessionKey
	}
	if p.clock == nil {
		p.clock = clock.Real{}
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", "oidc_provider")
	p.pending = authstate.New(p.storage, pendingKeyPrefix, pendingTTL, p.clock)

	issuer := strings.TrimSuffix(config.DiscoveryURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(p.clientContext(ctx), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	scopes := strings.Fields(config.Scope)
	if len(scopes) == 0 {
		scopes = []string{gooidc.ScopeOpenID, "profile", "email"}
	}
	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RedirectURL:  config.RedirectURL,
		Scopes:       scopes,
		Endpoint:     op.Endpoint(),
	}
	return p, nil
}

// BeginOAuthRedirect records a PKCE verifier and nonce under a fresh state and returns the authorize URL.
func (p *Provider) BeginOAuthRedirect(ctx context.Context, in ports.BeginInput) (ports.BeginResult, error) {
	nonce, err := generateRandomString(32)
	if err != nil {
		return ports.BeginResult{}, apperrors.Provider(err, "generate nonce")
	}
	state := uuid.NewString()
	pending := pendingLogin{
		Verifier:    oauth2.GenerateVerifier(),
		Nonce:       nonce,
		RedirectURL: in.RedirectURL,
		CreatedAt:   p.clock.Now(),
	}
	raw, err := json.Marshal(pending)
	if err != nil {
		return ports.BeginResult{}, apperrors.Provider(err, "encode pending login")
	}
	if err := p.pending.Put(ctx, state, raw); err != nil {
		return ports.BeginResult{}, apperrors.Provider(err, "persist pending login")
	}

	opts := []oauth2.AuthCodeOption{
		oauth2.S256ChallengeOption(pending.Verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	}
	if in.RedirectURL != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", in.RedirectURL))
	}
	return ports.BeginResult{URL: p.config.AuthCodeURL(state, opts...), State: state}, nil
}

// CompleteRedirect redeems the callback code and persists the provider session.
func (p *Provider) CompleteRedirect(ctx context.Context, in ports.ExchangeInput) error {
	if in.Code == "" {
		return apperrors.ValidationField("code", "authorization code is required")
	}
	if in.State == "" {
		return apperrors.ValidationField("state", "state is required")
	}

	pending, err := p.takePending(ctx, in.State)
	if err != nil {
		return err
	}

	opts := []oauth2.AuthCodeOption{oauth2.VerifierOption(pending.Verifier)}
	if pending.RedirectURL != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", pending.RedirectURL))
	}
	ctx = p.clientContext(ctx)
	token, err := p.config.Exchange(ctx, in.Code, opts...)
	if err != nil {
		return apperrors.Provider(err, "exchange code for token")
	}

	claims, err := p.verifiedClaims(ctx, token, pending.Nonce)
	if err != nil {
		return err
	}
	user := p.mapper.Map(claims)
	if user.ID == "" || user.Email == "" {
		if extra, uiErr := p.userInfoClaims(ctx, token); uiErr != nil {
			p.logger.WarnContext(ctx, "userinfo lookup failed", "error", uiErr)
		} else {
			user = p.mapper.Map(mergeClaims(claims, extra))
		}
	}
	if user.ID == "" {
		return apperrors.Provider(errors.New("no subject claim"), "identify user")
	}

	session := p.sessionFromToken(token, user)
	if err := p.saveSession(ctx, session); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "provider session established", "user_id", user.ID)
	return nil
}

// GetCurrentSession returns the stored session, refreshing it when its access token has lapsed.
func (p *Provider) GetCurrentSession(ctx context.Context) (*domainauth.ProviderSession, error) {
	raw, err := p.storage.Get(ctx, p.sessionKey)
	if err != nil {
		return nil, apperrors.Provider(err, "read session")
	}
	if raw == nil {
		return nil, nil
	}
	var session domainauth.ProviderSession
	if err := json.Unmarshal(raw, &session); err != nil {
		p.logger.WarnContext(ctx, "discarding undecodable session", "error", err)
		_ = p.storage.Remove(ctx, p.sessionKey)
		return nil, nil
	}

	if !p.expired(session) {
		return &session, nil
	}
	if session.RefreshToken == "" {
		_ = p.storage.Remove(ctx, p.sessionKey)
		return nil, nil
	}

	refreshed, err := p.refresh(ctx, session)
	if err != nil {
		_ = p.storage.Remove(ctx, p.sessionKey)
		return nil, err
	}
	return refreshed, nil
}

// SignOut forgets the stored session. Signing out twice is not an error.
func (p *Provider) SignOut(ctx context.Context) error {
	if err := p.storage.Remove(ctx, p.sessionKey); err != nil {
		return apperrors.Provider(err, "clear session")
	}
	return nil
}

func (p *Provider) takePending(ctx context.Context, state string) (pendingLogin, error) {
	raw, err := p.pending.Take(ctx, state)
	switch {
	case errors.Is(err, authstate.ErrUnknownState):
		return pendingLogin{}, apperrors.Provider(err, "no pending login for state")
	case errors.Is(err, authstate.ErrExpired):
		return pendingLogin{}, apperrors.Provider(err, "pending login expired")
	case err != nil:
		return pendingLogin{}, apperrors.Provider(err, "read pending login")
	}

	var pending pendingLogin
	if err := json.Unmarshal(raw, &pending); err != nil {
		return pendingLogin{}, apperrors.Provider(err, "decode pending login")
	}
	return pending, nil
}

func (p *Provider) verifiedClaims(ctx context.Context, token *oauth2.Token, nonce string) (map[string]any, error) {
	rawID, err := getIDTokenFromToken(token)
	if err != nil {
		return nil, apperrors.Provider(err, "read id_token")
	}
	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, apperrors.Provider(err, "verify id_token")
	}
	if idTok.Nonce != nonce {
		return nil, apperrors.Provider(errors.New("invalid nonce"), "verify id_token")
	}
	claims := map[string]any{}
	if err := idTok.Claims(&claims); err != nil {
		return nil, apperrors.Provider(err, "parse id_token claims")
	}
	return claims, nil
}

func (p *Provider) userInfoClaims(ctx context.Context, token *oauth2.Token) (map[string]any, error) {
	ui, err := p.oidcProvider.UserInfo(ctx, oauth2.StaticTokenSource(token))
	if err != nil {
		return nil, fmt.Errorf("fetch user info: %w", err)
	}
	claims := map[string]any{}
	if err := ui.Claims(&claims); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}
	return claims, nil
}

func (p *Provider) refresh(ctx context.Context, session domainauth.ProviderSession) (*domainauth.ProviderSession, error) {
	stale := &oauth2.Token{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		TokenType:    session.TokenType,
		Expiry:       time.Unix(1, 0),
	}
	token, err := p.config.TokenSource(p.clientContext(ctx), stale).Token()
	if err != nil {
		return nil, apperrors.Provider(err, "refresh session")
	}

	next := p.sessionFromToken(token, session.User)
	if next.RefreshToken == "" {
		next.RefreshToken = session.RefreshToken
	}
	if err := p.saveSession(ctx, next); err != nil {
		return nil, err
	}
	p.logger.DebugContext(ctx, "provider session refreshed", "user_id", session.User.ID)
	return &next, nil
}

func (p *Provider) sessionFromToken(token *oauth2.Token, user domainauth.ProviderUser) domainauth.ProviderSession {
	s := domainauth.ProviderSession{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresIn:    token.ExpiresIn,
		TokenType:    token.Type(),
		User:         user,
	}
	if !token.Expiry.IsZero() {
		at := token.Expiry.Unix()
		s.ExpiresAt = &at
		if s.ExpiresIn == 0 {
			s.ExpiresIn = int64(token.Expiry.Sub(p.clock.Now()).Seconds())
		}
	}
	return s
}

func (p *Provider) expired(s domainauth.ProviderSession) bool {
	if s.ExpiresAt == nil {
		return false
	}
	return *s.ExpiresAt <= p.clock.Now().Add(refreshLeeway).Unix()
}

func (p *Provider) saveSession(ctx context.Context, s domainauth.ProviderSession) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return apperrors.Provider(err, "encode session")
	}
	if err := p.storage.Set(ctx, p.sessionKey, raw); err != nil {
		return apperrors.Provider(err, "persist session")
	}
	return nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// generateRandomString generates a cryptographically secure URL-safe random string of exact length.
func generateRandomString(length int) (string, error) {
	if length <= 0 {
		return "", nil
	}
	b := make([]byte, (length*3+3)/4+1)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b)[:length], nil
}

// getIDTokenFromToken extracts the id_token from oauth2.Token.
func getIDTokenFromToken(tok *oauth2.Token) (string, error) {
	if tok == nil {
		return "", errors.New("nil token")
	}
	s, ok := tok.Extra("id_token").(string)
	if !ok || s == "" {
		return "", errors.New("missing id_token in token response")
	}
	return s, nil
}
