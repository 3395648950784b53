package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/domain/model"
	apperrors "github.com/idnremote/idnremote-go/internal/errors"
	"github.com/idnremote/idnremote-go/internal/mocks"
	authmocks "github.com/idnremote/idnremote-go/internal/mocks/auth"
	"github.com/idnremote/idnremote-go/internal/ports"
)

// stubProfiles is a test helper for controlling profile reads and writes.
type stubProfiles struct {
	getFunc  func(context.Context, string) (*model.User, error)
	saveFunc func(context.Context, string, model.SaveProfileInput) error
}

func (s *stubProfiles) GetUserProfile(ctx context.Context, token string) (*model.User, error) {
	if s.getFunc != nil {
		return s.getFunc(ctx, token)
	}
	return nil, nil
}

func (s *stubProfiles) SaveUserProfile(ctx context.Context, token string, in model.SaveProfileInput) error {
	if s.saveFunc != nil {
		return s.saveFunc(ctx, token, in)
	}
	return nil
}

func completeUser() *model.User {
	return &model.User{
		ID: "mock-user-1", Email: "mock.user@example.com", Fullname: "Mock User",
		Nickname: "mock", WhatsappNumber: "+62811", PreferencesTags: []string{"go"},
	}
}

func signedInProvider() *authmocks.FakeIdentityProvider {
	p := authmocks.NewFakeIdentityProvider()
	p.SetSession(&p.Issued)
	return p
}

func TestSessionStore_InitialState(t *testing.T) {
	s := NewSessionStore(SessionStoreOptions{Provider: authmocks.NewFakeIdentityProvider(), Profiles: &stubProfiles{}})

	snap := s.Snapshot()
	assert.Equal(t, domainauth.PhaseUninitialized, snap.Phase())
	assert.False(t, snap.Loading)
	assert.NoError(t, s.WaitSettled(context.Background()), "nothing to wait for before Init")
}

func TestSessionStore_Init(t *testing.T) {
	tests := []struct {
		name      string
		provider  func() ports.IdentityProvider
		profile   func(context.Context, string) (*model.User, error)
		wantPhase domainauth.Phase
		check     func(t *testing.T, snap domainauth.ProcessState)
	}{
		{
			name:      "no provider session",
			provider:  func() ports.IdentityProvider { return authmocks.NewFakeIdentityProvider() },
			wantPhase: domainauth.PhaseAnonymous,
			check: func(t *testing.T, snap domainauth.ProcessState) {
				assert.False(t, domainauth.IsLoggedIn(snap))
				assert.Empty(t, domainauth.AccessToken(snap))
			},
		},
		{
			name:     "session and profile",
			provider: func() ports.IdentityProvider { return signedInProvider() },
			profile: func(_ context.Context, token string) (*model.User, error) {
				if token != "mock-access-token" {
					return nil, errors.New("wrong token")
				}
				return completeUser(), nil
			},
			wantPhase: domainauth.PhaseAuthenticated,
			check: func(t *testing.T, snap domainauth.ProcessState) {
				assert.Equal(t, "mock-access-token", domainauth.AccessToken(snap))
				assert.False(t, domainauth.NeedsProfileCompletion(snap))
			},
		},
		{
			name:      "session without backend profile",
			provider:  func() ports.IdentityProvider { return signedInProvider() },
			profile:   func(context.Context, string) (*model.User, error) { return nil, nil },
			wantPhase: domainauth.PhaseDegraded,
			check: func(t *testing.T, snap domainauth.ProcessState) {
				assert.Nil(t, snap.User)
				assert.True(t, domainauth.IsLoggedIn(snap))
				cur := domainauth.CurrentUser(snap)
				require.NotNil(t, cur)
				assert.Equal(t, "mock-user-1", cur.ID)
				assert.Equal(t, "Mock User", cur.Fullname)
				assert.Empty(t, cur.PreferencesTags)
				assert.Empty(t, cur.CurrentJob)
				assert.True(t, domainauth.NeedsProfileCompletion(snap), "fallback has no whatsapp number")
			},
		},
		{
			name:     "profile transport failure degrades",
			provider: func() ports.IdentityProvider { return signedInProvider() },
			profile: func(context.Context, string) (*model.User, error) {
				return nil, apperrors.Transport(503)
			},
			wantPhase: domainauth.PhaseDegraded,
		},
		{
			name:     "profile envelope failure degrades",
			provider: func() ports.IdentityProvider { return signedInProvider() },
			profile: func(context.Context, string) (*model.User, error) {
				return nil, apperrors.Envelope("token rejected")
			},
			wantPhase: domainauth.PhaseDegraded,
		},
		{
			name:     "unexpected profile failure discards session",
			provider: func() ports.IdentityProvider { return signedInProvider() },
			profile: func(context.Context, string) (*model.User, error) {
				return nil, errors.New("boom")
			},
			wantPhase: domainauth.PhaseAnonymous,
			check: func(t *testing.T, snap domainauth.ProcessState) {
				assert.Nil(t, snap.Session)
			},
		},
		{
			name: "provider failure",
			provider: func() ports.IdentityProvider {
				p := authmocks.NewFakeIdentityProvider()
				p.GetSessionFunc = func(context.Context) (*domainauth.ProviderSession, error) {
					return nil, apperrors.Provider(errors.New("refresh denied"), "read session")
				}
				return p
			},
			wantPhase: domainauth.PhaseAnonymous,
		},
		{
			name:     "panic during init",
			provider: func() ports.IdentityProvider { return signedInProvider() },
			profile: func(context.Context, string) (*model.User, error) {
				panic("nil map write")
			},
			wantPhase: domainauth.PhaseAnonymous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSessionStore(SessionStoreOptions{
				Provider: tt.provider(),
				Profiles: &stubProfiles{getFunc: tt.profile},
			})

			snap := s.Init(context.Background())

			assert.False(t, snap.Loading, "loading is always restored")
			assert.True(t, snap.Initialized)
			assert.Equal(t, tt.wantPhase, snap.Phase())
			assert.Equal(t, snap, s.Snapshot())
			if tt.check != nil {
				tt.check(t, snap)
			}
		})
	}
}

func TestSessionStore_InitWithGomock(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockIdentityProvider(ctrl)
	profiles := mocks.NewMockProfileClient(ctrl)
	s := NewSessionStore(SessionStoreOptions{Provider: provider, Profiles: profiles})

	ps := &domainauth.ProviderSession{AccessToken: "tok", User: domainauth.ProviderUser{ID: "u1"}}
	provider.EXPECT().GetCurrentSession(gomock.Any()).Return(ps, nil)
	profiles.EXPECT().GetUserProfile(gomock.Any(), "tok").Return(&model.User{ID: "u1", Nickname: "n"}, nil)

	snap := s.Init(context.Background())
	require.NotNil(t, snap.User)
	assert.Equal(t, "n", snap.User.Nickname)
}

func TestSessionStore_LoadingVisibleDuringInit(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	s := NewSessionStore(SessionStoreOptions{
		Provider: signedInProvider(),
		Profiles: &stubProfiles{getFunc: func(context.Context, string) (*model.User, error) {
			close(entered)
			<-release
			return completeUser(), nil
		}},
	})

	done := make(chan struct{})
	go func() {
		s.Init(context.Background())
		close(done)
	}()
	<-entered

	assert.True(t, s.Snapshot().Loading)
	assert.Equal(t, domainauth.PhaseLoading, s.Snapshot().Phase())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.WaitSettled(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, s.WaitSettled(context.Background()))
	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, domainauth.PhaseAuthenticated, snap.Phase(), "waiters observe the settled result")
	<-done
}

func TestSessionStore_StartMarksLoadingBeforeReturning(t *testing.T) {
	release := make(chan struct{})
	s := NewSessionStore(SessionStoreOptions{
		Provider: signedInProvider(),
		Profiles: &stubProfiles{getFunc: func(context.Context, string) (*model.User, error) {
			<-release
			return completeUser(), nil
		}},
	})

	wait := s.Start(context.Background())

	// No synchronization with the background restore: Loading must already be visible.
	snap := s.Snapshot()
	assert.True(t, snap.Loading)
	assert.Equal(t, domainauth.PhaseLoading, snap.Phase())
	assert.False(t, domainauth.Derive(snap).IsLoggedIn)

	waited := make(chan error, 1)
	go func() { waited <- s.WaitSettled(context.Background()) }()

	close(release)
	st := wait()
	assert.Equal(t, domainauth.PhaseAuthenticated, st.Phase())
	assert.Equal(t, st, wait(), "wait is idempotent")
	require.NoError(t, <-waited)
	assert.False(t, s.Snapshot().Loading)
}

func TestSessionStore_StaleInitCannotOverwriteLogout(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	provider := signedInProvider()
	s := NewSessionStore(SessionStoreOptions{
		Provider: provider,
		Profiles: &stubProfiles{getFunc: func(context.Context, string) (*model.User, error) {
			close(entered)
			<-release
			return completeUser(), nil
		}},
	})

	done := make(chan domainauth.ProcessState, 1)
	go func() { done <- s.Init(context.Background()) }()
	<-entered

	require.NoError(t, s.Logout(context.Background()))
	close(release)
	snap := <-done

	assert.Nil(t, snap.Session)
	assert.Nil(t, snap.User)
	assert.False(t, snap.Loading)
	assert.Equal(t, domainauth.PhaseAnonymous, snap.Phase())
	assert.NoError(t, s.WaitSettled(context.Background()))
}

func TestSessionStore_NewerInitWins(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	s := NewSessionStore(SessionStoreOptions{
		Provider: signedInProvider(),
		Profiles: &stubProfiles{getFunc: func(context.Context, string) (*model.User, error) {
			if calls.Add(1) == 1 {
				close(entered)
				<-release
				return &model.User{ID: "stale"}, nil
			}
			return &model.User{ID: "fresh"}, nil
		}},
	})

	first := make(chan struct{})
	go func() {
		s.Init(context.Background())
		close(first)
	}()
	<-entered

	snap := s.Init(context.Background())
	assert.Equal(t, "fresh", snap.User.ID)
	assert.False(t, snap.Loading)

	close(release)
	<-first
	assert.Equal(t, "fresh", s.Snapshot().User.ID)
	assert.False(t, s.Snapshot().Loading)
}

func TestSessionStore_ManyWaitersReleasedTogether(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	provider := authmocks.NewFakeIdentityProvider()
	provider.GetSessionFunc = func(context.Context) (*domainauth.ProviderSession, error) {
		close(entered)
		<-release
		return nil, nil
	}
	s := NewSessionStore(SessionStoreOptions{Provider: provider, Profiles: &stubProfiles{}})

	go s.Init(context.Background())
	<-entered

	var wg sync.WaitGroup
	facts := make([]domainauth.Facts, 4)
	for i := range facts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.WaitSettled(context.Background())
			facts[i] = s.Facts()
		}(i)
	}
	close(release)
	wg.Wait()

	for _, f := range facts {
		assert.Equal(t, domainauth.Facts{Loading: false, IsLoggedIn: false, NeedsProfileCompletion: true}, f)
	}
}

func TestSessionStore_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("failure leaves state untouched", func(t *testing.T) {
		provider := signedInProvider()
		s := NewSessionStore(SessionStoreOptions{
			Provider: provider,
			Profiles: &stubProfiles{getFunc: func(context.Context, string) (*model.User, error) { return completeUser(), nil }},
		})
		before := s.Init(ctx)
		provider.SignOutFunc = func(context.Context) error {
			return apperrors.Provider(errors.New("network"), "sign out")
		}

		err := s.Logout(ctx)

		require.Error(t, err)
		assert.True(t, apperrors.IsProvider(err))
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("success clears user and session", func(t *testing.T) {
		provider := signedInProvider()
		s := NewSessionStore(SessionStoreOptions{
			Provider: provider,
			Profiles: &stubProfiles{getFunc: func(context.Context, string) (*model.User, error) { return completeUser(), nil }},
		})
		s.Init(ctx)

		require.NoError(t, s.Logout(ctx))

		snap := s.Snapshot()
		assert.Nil(t, snap.User)
		assert.Nil(t, snap.Session)
		assert.Equal(t, 1, provider.SignOutCount())
	})
}

func TestSessionStore_Login(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockIdentityProvider(ctrl)
	s := NewSessionStore(SessionStoreOptions{Provider: provider, Profiles: &stubProfiles{}})

	provider.EXPECT().
		BeginOAuthRedirect(gomock.Any(), ports.BeginInput{Provider: "google", RedirectURL: "http://app/auth/callback"}).
		Return(ports.BeginResult{URL: "https://idp/authorize", State: "s1"}, nil)

	res, err := s.Login(ctx, "http://app/auth/callback")
	require.NoError(t, err)
	assert.Equal(t, "https://idp/authorize", res.URL)
	assert.Equal(t, domainauth.PhaseUninitialized, s.Snapshot().Phase(), "login does not mutate state")

	provider.EXPECT().BeginOAuthRedirect(gomock.Any(), gomock.Any()).
		Return(ports.BeginResult{}, apperrors.Provider(errors.New("down"), "begin"))

	_, err = s.Login(ctx, "")
	require.Error(t, err)
	assert.True(t, apperrors.IsProvider(err))
	assert.Equal(t, domainauth.PhaseUninitialized, s.Snapshot().Phase())
}

func TestSessionStore_CompleteLogin(t *testing.T) {
	ctx := context.Background()
	provider := authmocks.NewFakeIdentityProvider()
	s := NewSessionStore(SessionStoreOptions{Provider: provider, Profiles: &stubProfiles{}})

	_, err := s.CompleteLogin(ctx, ports.ExchangeInput{State: "x"})
	require.Error(t, err)
	assert.Equal(t, domainauth.PhaseUninitialized, s.Snapshot().Phase())

	snap, err := s.CompleteLogin(ctx, ports.ExchangeInput{Code: "c", State: "x"})
	require.NoError(t, err)
	assert.Equal(t, domainauth.PhaseDegraded, snap.Phase())
	assert.Equal(t, "mock-access-token", domainauth.AccessToken(snap))
}

func TestSessionStore_CompleteUserProfile(t *testing.T) {
	ctx := context.Background()
	valid := model.SaveProfileInput{Fullname: " Ani ", Nickname: "ani", WhatsappNumber: "+62811", CurrentJob: "Engineer"}

	t.Run("requires a session", func(t *testing.T) {
		s := NewSessionStore(SessionStoreOptions{Provider: authmocks.NewFakeIdentityProvider(), Profiles: &stubProfiles{}})
		s.Init(ctx)

		_, err := s.CompleteUserProfile(ctx, valid)
		assert.ErrorIs(t, err, ErrNotSignedIn)
		assert.True(t, IsSessionError(err))
	})

	t.Run("validates input", func(t *testing.T) {
		s := NewSessionStore(SessionStoreOptions{Provider: signedInProvider(), Profiles: &stubProfiles{}})
		s.Init(ctx)

		_, err := s.CompleteUserProfile(ctx, model.SaveProfileInput{Fullname: "A"})
		require.Error(t, err)
		assert.Equal(t, "nickname", apperrors.GetField(err))
	})

	t.Run("save failure keeps previous user", func(t *testing.T) {
		s := NewSessionStore(SessionStoreOptions{
			Provider: signedInProvider(),
			Profiles: &stubProfiles{saveFunc: func(context.Context, string, model.SaveProfileInput) error {
				return apperrors.Envelope("nickname taken")
			}},
		})
		before := s.Init(ctx)

		_, err := s.CompleteUserProfile(ctx, valid)
		require.Error(t, err)
		assert.True(t, apperrors.IsEnvelope(err))
		assert.Equal(t, before, s.Snapshot())
	})

	t.Run("success replaces local user", func(t *testing.T) {
		var saved model.SaveProfileInput
		var token string
		s := NewSessionStore(SessionStoreOptions{
			Provider: signedInProvider(),
			Profiles: &stubProfiles{saveFunc: func(_ context.Context, tok string, in model.SaveProfileInput) error {
				token, saved = tok, in
				return nil
			}},
		})
		s.Init(ctx)

		u, err := s.CompleteUserProfile(ctx, valid)
		require.NoError(t, err)

		assert.Equal(t, "mock-access-token", token)
		assert.Equal(t, "Ani", saved.Fullname)
		assert.Equal(t, "mock-user-1", u.ID, "identity comes from the current user")
		assert.Equal(t, "Engineer", u.CurrentJob)
		snap := s.Snapshot()
		assert.Equal(t, domainauth.PhaseAuthenticated, snap.Phase())
		assert.False(t, domainauth.NeedsProfileCompletion(snap))
	})
}

func TestSessionStore_SnapshotIsACopy(t *testing.T) {
	s := NewSessionStore(SessionStoreOptions{
		Provider: signedInProvider(),
		Profiles: &stubProfiles{getFunc: func(context.Context, string) (*model.User, error) { return completeUser(), nil }},
	})
	snap := s.Init(context.Background())

	snap.User.Fullname = "changed"
	snap.User.PreferencesTags[0] = "changed"
	snap.Session.AccessToken = "changed"

	fresh := s.Snapshot()
	assert.Equal(t, "Mock User", fresh.User.Fullname)
	assert.Equal(t, []string{"go"}, fresh.User.PreferencesTags)
	assert.Equal(t, "mock-access-token", fresh.Session.AccessToken)
}

func TestSessionStore_UpdateUserData(t *testing.T) {
	s := NewSessionStore(SessionStoreOptions{Provider: signedInProvider(), Profiles: &stubProfiles{}})
	s.Init(context.Background())

	s.UpdateUserData(*completeUser())

	assert.Equal(t, domainauth.PhaseAuthenticated, s.Snapshot().Phase())
}
