package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/ports"
)

func TestFakeIdentityProvider_Begin_Defaults(t *testing.T) {
	provider := NewFakeIdentityProvider()
	ctx := context.Background()

	in := ports.BeginInput{Provider: "google", RedirectURL: "http://localhost:8080/auth/callback"}
	res, err := provider.BeginOAuthRedirect(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "state-1", res.State)
	assert.Contains(t, res.URL, "https://mock-idp/authorize?state=state-1")

	res2, err := provider.BeginOAuthRedirect(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "state-2", res2.State)
}

func TestFakeIdentityProvider_SessionLifecycle(t *testing.T) {
	provider := NewFakeIdentityProvider()
	ctx := context.Background()

	sess, err := provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)

	require.Error(t, provider.CompleteRedirect(ctx, ports.ExchangeInput{}))
	require.NoError(t, provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "c", State: "s"}))

	sess, err = provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess)
	assert.Equal(t, "mock-access-token", sess.AccessToken)

	sess.AccessToken = "mutated"
	again, err := provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, "mock-access-token", again.AccessToken)

	require.NoError(t, provider.SignOut(ctx))
	assert.Equal(t, 1, provider.SignOutCount())
	sess, err = provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestFakeIdentityProvider_FuncOverrides(t *testing.T) {
	boom := errors.New("provider down")
	provider := &FakeIdentityProvider{
		GetSessionFunc: func(context.Context) (*domainauth.ProviderSession, error) { return nil, boom },
		SignOutFunc:    func(context.Context) error { return boom },
	}
	ctx := context.Background()

	_, err := provider.GetCurrentSession(ctx)
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, provider.SignOut(ctx), boom)
	assert.Equal(t, 0, provider.SignOutCount())
}
