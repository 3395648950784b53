package oidc

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	jose "github.com/go-jose/go-jose/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/idnremote/idnremote-go/internal/clock"
	"github.com/idnremote/idnremote-go/internal/data"
	apperrors "github.com/idnremote/idnremote-go/internal/errors"
	"github.com/idnremote/idnremote-go/internal/ports"
)

const testClientID = "test-client"

// fakeIssuer is a minimal OpenID provider: discovery, JWKS, token and userinfo.
type fakeIssuer struct {
	t      *testing.T
	server *httptest.Server
	key    *rsa.PrivateKey

	mu           sync.Mutex
	challenge    string
	nonce        string
	omitEmail    bool
	refreshCalls int
}

func newFakeIssuer(t *testing.T) *fakeIssuer {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	fi := &fakeIssuer{t: t, key: key}

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"issuer":                                fi.server.URL,
			"authorization_endpoint":                fi.server.URL + "/authorize",
			"token_endpoint":                        fi.server.URL + "/token",
			"userinfo_endpoint":                     fi.server.URL + "/userinfo",
			"jwks_uri":                              fi.server.URL + "/jwks",
			"id_token_signing_alg_values_supported": []string{"RS256"},
		})
	})
	mux.HandleFunc("/jwks", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, jose.JSONWebKeySet{Keys: []jose.JSONWebKey{{
			Key: &key.PublicKey, KeyID: "test-key", Algorithm: string(jose.RS256), Use: "sig",
		}}})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{"sub": "user-1", "email": "ani@example.com", "phone_number": "+62811"})
	})
	mux.HandleFunc("/token", fi.token)
	fi.server = httptest.NewServer(mux)
	t.Cleanup(fi.server.Close)
	return fi
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (fi *fakeIssuer) token(w http.ResponseWriter, r *http.Request) {
	require.NoError(fi.t, r.ParseForm())
	fi.mu.Lock()
	defer fi.mu.Unlock()

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		sum := sha256.Sum256([]byte(r.PostForm.Get("code_verifier")))
		if r.PostForm.Get("code") != "good-code" || base64.RawURLEncoding.EncodeToString(sum[:]) != fi.challenge {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"error": "invalid_grant"})
			return
		}
		claims := map[string]any{
			"iss":        fi.server.URL,
			"sub":        "user-1",
			"aud":        testClientID,
			"iat":        time.Now().Unix(),
			"exp":        time.Now().Add(time.Hour).Unix(),
			"nonce":      fi.nonce,
			"name":       "Ani Lestari",
			"nickname":   "ani",
			"picture":    "https://img/ani.png",
			"updated_at": 1704110400,
		}
		if !fi.omitEmail {
			claims["email"] = "ani@example.com"
		}
		writeJSON(w, map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"id_token":      fi.sign(claims),
		})
	case "refresh_token":
		fi.refreshCalls++
		if r.PostForm.Get("refresh_token") != "refresh-1" {
			w.WriteHeader(http.StatusBadRequest)
			writeJSON(w, map[string]string{"error": "invalid_grant"})
			return
		}
		writeJSON(w, map[string]any{"access_token": "access-2", "token_type": "Bearer", "expires_in": 3600})
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (fi *fakeIssuer) sign(claims map[string]any) string {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.RS256, Key: fi.key},
		(&jose.SignerOptions{}).WithType("JWT").WithHeader("kid", "test-key"),
	)
	require.NoError(fi.t, err)
	payload, err := json.Marshal(claims)
	require.NoError(fi.t, err)
	obj, err := signer.Sign(payload)
	require.NoError(fi.t, err)
	raw, err := obj.CompactSerialize()
	require.NoError(fi.t, err)
	return raw
}

// authorize mimics the user approving consent: it records the PKCE challenge and nonce.
func (fi *fakeIssuer) authorize(t *testing.T, authURL string) url.Values {
	t.Helper()
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	fi.mu.Lock()
	fi.challenge = q.Get("code_challenge")
	fi.nonce = q.Get("nonce")
	fi.mu.Unlock()
	return q
}

func (fi *fakeIssuer) set(fn func(fi *fakeIssuer)) {
	fi.mu.Lock()
	fn(fi)
	fi.mu.Unlock()
}

func (fi *fakeIssuer) refreshCount() int {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	return fi.refreshCalls
}

type providerFixture struct {
	provider *Provider
	issuer   *fakeIssuer
	storage  *data.MemoryStorage
	clock    *clock.Fixed
}

func newProviderFixture(t *testing.T) providerFixture {
	t.Helper()
	fi := newFakeIssuer(t)
	st := data.NewMemoryStorage()
	clk := clock.NewFixed(time.Now())
	p, err := NewProvider(context.Background(), ProviderConfig{
		ClientID:     testClientID,
		ClientSecret: "test-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		DiscoveryURL: fi.server.URL + "/.well-known/openid-configuration",
		Storage:      st,
		Clock:        clk,
	})
	require.NoError(t, err)
	return providerFixture{provider: p, issuer: fi, storage: st, clock: clk}
}

func (f providerFixture) signIn(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	res, err := f.provider.BeginOAuthRedirect(ctx, ports.BeginInput{Provider: "google"})
	require.NoError(t, err)
	f.issuer.authorize(t, res.URL)
	require.NoError(t, f.provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "good-code", State: res.State}))
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	st := data.NewMemoryStorage()
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{
			name:   "missing client ID",
			config: ProviderConfig{RedirectURL: "http://localhost/cb", DiscoveryURL: "http://example.com", Storage: st},
			errMsg: "client ID is required",
		},
		{
			name:   "missing redirect URL",
			config: ProviderConfig{ClientID: "client", DiscoveryURL: "http://example.com", Storage: st},
			errMsg: "redirect URL is required",
		},
		{
			name:   "missing discovery URL",
			config: ProviderConfig{ClientID: "client", RedirectURL: "http://localhost/cb", Storage: st},
			errMsg: "discovery URL is required",
		},
		{
			name:   "missing storage",
			config: ProviderConfig{ClientID: "client", RedirectURL: "http://localhost/cb", DiscoveryURL: "http://example.com"},
			errMsg: "storage is required",
		},
		{
			name: "bad claim expression",
			config: ProviderConfig{
				ClientID: "client", RedirectURL: "http://localhost/cb", DiscoveryURL: "http://example.com", Storage: st,
				Claims: ClaimMapping{Email: "email[["},
			},
			errMsg: "claim mapping email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProvider_BeginOAuthRedirect(t *testing.T) {
	f := newProviderFixture(t)

	res, err := f.provider.BeginOAuthRedirect(context.Background(), ports.BeginInput{Provider: "google"})
	require.NoError(t, err)

	q := f.issuer.authorize(t, res.URL)
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, res.State, q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Len(t, q.Get("nonce"), 32)
	assert.Equal(t, "http://localhost:8080/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, 1, f.storage.Len(), "pending login is persisted")
}

func TestProvider_BeginOAuthRedirect_OverridesRedirect(t *testing.T) {
	f := newProviderFixture(t)

	res, err := f.provider.BeginOAuthRedirect(context.Background(), ports.BeginInput{RedirectURL: "http://app/return"})
	require.NoError(t, err)

	q := f.issuer.authorize(t, res.URL)
	assert.Equal(t, "http://app/return", q.Get("redirect_uri"))
}

func TestProvider_FullSignInFlow(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	f.signIn(t)

	s, err := f.provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "access-1", s.AccessToken)
	assert.Equal(t, "refresh-1", s.RefreshToken)
	assert.Equal(t, int64(3600), s.ExpiresIn)
	require.NotNil(t, s.ExpiresAt)
	assert.Equal(t, "user-1", s.User.ID)
	assert.Equal(t, "ani@example.com", s.User.Email)
	assert.Equal(t, "Ani Lestari", s.User.Metadata.FullName)
	assert.Equal(t, "ani", s.User.Metadata.Name)
	assert.Equal(t, "https://img/ani.png", s.User.Metadata.AvatarURL)
	assert.Equal(t, "2024-01-01T12:00:00Z", s.User.UpdatedAt)

	local := s.ToSession()
	assert.Equal(t, "Ani Lestari", local.User.Fullname)
}

func TestProvider_CompleteRedirect_FillsFromUserInfo(t *testing.T) {
	f := newProviderFixture(t)
	f.issuer.set(func(fi *fakeIssuer) { fi.omitEmail = true })

	f.signIn(t)

	s, err := f.provider.GetCurrentSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "ani@example.com", s.User.Email)
	assert.Equal(t, "+62811", s.User.Phone)
}

func TestProvider_CompleteRedirect_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing code", func(t *testing.T) {
		f := newProviderFixture(t)
		err := f.provider.CompleteRedirect(ctx, ports.ExchangeInput{State: "s"})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("unknown state", func(t *testing.T) {
		f := newProviderFixture(t)
		err := f.provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "good-code", State: "nope"})
		assert.True(t, apperrors.IsProvider(err))
	})

	t.Run("state is single use", func(t *testing.T) {
		f := newProviderFixture(t)
		res, err := f.provider.BeginOAuthRedirect(ctx, ports.BeginInput{})
		require.NoError(t, err)
		f.issuer.authorize(t, res.URL)
		require.NoError(t, f.provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "good-code", State: res.State}))

		err = f.provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "good-code", State: res.State})
		assert.True(t, apperrors.IsProvider(err))
	})

	t.Run("expired state", func(t *testing.T) {
		f := newProviderFixture(t)
		res, err := f.provider.BeginOAuthRedirect(ctx, ports.BeginInput{})
		require.NoError(t, err)
		f.issuer.authorize(t, res.URL)
		f.clock.Add(pendingTTL + time.Second)

		err = f.provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "good-code", State: res.State})
		assert.True(t, apperrors.IsProvider(err))
	})

	t.Run("rejected code", func(t *testing.T) {
		f := newProviderFixture(t)
		res, err := f.provider.BeginOAuthRedirect(ctx, ports.BeginInput{})
		require.NoError(t, err)
		f.issuer.authorize(t, res.URL)

		err = f.provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "bad-code", State: res.State})
		require.Error(t, err)
		assert.True(t, apperrors.IsProvider(err))
		assert.Contains(t, err.Error(), "exchange code for token")
	})

	t.Run("nonce mismatch", func(t *testing.T) {
		f := newProviderFixture(t)
		res, err := f.provider.BeginOAuthRedirect(ctx, ports.BeginInput{})
		require.NoError(t, err)
		f.issuer.authorize(t, res.URL)
		f.issuer.set(func(fi *fakeIssuer) { fi.nonce = "forged" })

		err = f.provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "good-code", State: res.State})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid nonce")

		s, getErr := f.provider.GetCurrentSession(ctx)
		require.NoError(t, getErr)
		assert.Nil(t, s)
	})
}

func TestProvider_AbandonedLoginsAreReclaimed(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	for range 1000 {
		_, err := f.provider.BeginOAuthRedirect(ctx, ports.BeginInput{})
		require.NoError(t, err)
	}
	// Each pending record plus the index entry.
	assert.Equal(t, 1001, f.storage.Len())

	f.clock.Add(24 * time.Hour)
	f.signIn(t)

	assert.Equal(t, 1, f.storage.Len(), "only the session should remain")
	raw, err := f.storage.Get(ctx, DefaultSessionKey)
	require.NoError(t, err)
	assert.NotNil(t, raw)
}

func TestProvider_CompleteRedirect_LeavesNoPendingRecords(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()

	res, err := f.provider.BeginOAuthRedirect(ctx, ports.BeginInput{})
	require.NoError(t, err)
	f.clock.Add(pendingTTL + time.Second)

	err = f.provider.CompleteRedirect(ctx, ports.ExchangeInput{Code: "good-code", State: res.State})
	assert.True(t, apperrors.IsProvider(err))
	assert.Equal(t, 0, f.storage.Len())
}

func TestProvider_GetCurrentSession_RefreshesExpiredToken(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()
	f.signIn(t)

	f.clock.Add(2 * time.Hour)

	s, err := f.provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "access-2", s.AccessToken)
	assert.Equal(t, "refresh-1", s.RefreshToken, "refresh token is carried over")
	assert.Equal(t, "user-1", s.User.ID)
	assert.Equal(t, 1, f.issuer.refreshCount())
}

func TestProvider_GetCurrentSession_FailedRefreshSignsOut(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()
	f.signIn(t)

	raw, err := f.storage.Get(ctx, DefaultSessionKey)
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(raw, &stored))
	stored["refresh_token"] = "revoked"
	raw, err = json.Marshal(stored)
	require.NoError(t, err)
	require.NoError(t, f.storage.Set(ctx, DefaultSessionKey, raw))

	f.clock.Add(2 * time.Hour)

	s, err := f.provider.GetCurrentSession(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsProvider(err))
	assert.Nil(t, s)

	s, err = f.provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestProvider_SignOut(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()
	f.signIn(t)

	require.NoError(t, f.provider.SignOut(ctx))
	require.NoError(t, f.provider.SignOut(ctx))

	s, err := f.provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestProvider_GetCurrentSession_DiscardsCorruptSession(t *testing.T) {
	f := newProviderFixture(t)
	ctx := context.Background()
	require.NoError(t, f.storage.Set(ctx, DefaultSessionKey, []byte("{")))

	s, err := f.provider.GetCurrentSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Equal(t, 0, f.storage.Len())
}

func TestGetIDTokenFromToken(t *testing.T) {
	tok := (&oauth2.Token{}).WithExtra(map[string]any{"id_token": "abc.def.ghi"})
	idTok, err := getIDTokenFromToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", idTok)

	_, err = getIDTokenFromToken((&oauth2.Token{}).WithExtra(map[string]any{"not_id": "x"}))
	assert.ErrorContains(t, err, "missing id_token")

	_, err = getIDTokenFromToken(nil)
	assert.ErrorContains(t, err, "nil token")
}

func TestGenerateRandomString(t *testing.T) {
	a, err := generateRandomString(16)
	require.NoError(t, err)
	assert.Len(t, a, 16)

	b, err := generateRandomString(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
