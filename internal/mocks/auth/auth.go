// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.
package auth

import (
	"context"
	"fmt"
	"sync"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/ports"
)

// Ensure compile-time conformance to ports.
var _ ports.IdentityProvider = (*FakeIdentityProvider)(nil)

// FakeIdentityProvider simulates an identity provider holding at most one session.
// Any Func field overrides the built-in behavior for that method.
type FakeIdentityProvider struct {
	BeginFunc      func(ctx context.Context, in ports.BeginInput) (ports.BeginResult, error)
	CompleteFunc   func(ctx context.Context, in ports.ExchangeInput) error
	GetSessionFunc func(ctx context.Context) (*domainauth.ProviderSession, error)
	SignOutFunc    func(ctx context.Context) error

	// AuthURL is returned by BeginOAuthRedirect.
	AuthURL string
	// Issued is the session installed by CompleteRedirect.
	Issued domainauth.ProviderSession

	mu        sync.Mutex
	current   *domainauth.ProviderSession
	callCount int
	signOuts  int
}

// NewFakeIdentityProvider creates a FakeIdentityProvider with a deterministic issued session.
func NewFakeIdentityProvider() *FakeIdentityProvider {
	return &FakeIdentityProvider{
		AuthURL: "https://mock-idp/authorize",
		Issued: domainauth.ProviderSession{
			AccessToken:  "mock-access-token",
			RefreshToken: "mock-refresh-token",
			ExpiresIn:    3600,
			TokenType:    "bearer",
			User: domainauth.ProviderUser{
				ID:        "mock-user-1",
				Email:     "mock.user@example.com",
				CreatedAt: "2024-01-01T12:00:00Z",
				Metadata:  domainauth.UserMetadata{FullName: "Mock User", Name: "mock"},
			},
		},
	}
}

// SetSession installs s as the current session (nil signs out).
func (f *FakeIdentityProvider) SetSession(s *domainauth.ProviderSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s == nil {
		f.current = nil
		return
	}
	cp := *s
	f.current = &cp
}

// SignOutCount reports how many times SignOut succeeded.
func (f *FakeIdentityProvider) SignOutCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signOuts
}

func (f *FakeIdentityProvider) BeginOAuthRedirect(ctx context.Context, in ports.BeginInput) (ports.BeginResult, error) {
	if f.BeginFunc != nil {
		return f.BeginFunc(ctx, in)
	}
	f.mu.Lock()
	f.callCount++
	n := f.callCount
	f.mu.Unlock()

	state := fmt.Sprintf("state-%d", n)
	return ports.BeginResult{
		URL:   fmt.Sprintf("%s?state=%s&redirect_uri=%s", f.AuthURL, state, in.RedirectURL),
		State: state,
	}, nil
}

func (f *FakeIdentityProvider) CompleteRedirect(ctx context.Context, in ports.ExchangeInput) error {
	if f.CompleteFunc != nil {
		return f.CompleteFunc(ctx, in)
	}
	if in.Code == "" {
		return fmt.Errorf("authorization code is required")
	}
	f.SetSession(&f.Issued)
	return nil
}

func (f *FakeIdentityProvider) GetCurrentSession(ctx context.Context) (*domainauth.ProviderSession, error) {
	if f.GetSessionFunc != nil {
		return f.GetSessionFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current == nil {
		return nil, nil
	}
	cp := *f.current
	return &cp, nil
}

func (f *FakeIdentityProvider) SignOut(ctx context.Context) error {
	if f.SignOutFunc != nil {
		return f.SignOutFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current = nil
	f.signOuts++
	return nil
}
