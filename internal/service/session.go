package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/domain/model"
	apperrors "github.com/idnremote/idnremote-go/internal/errors"
	"github.com/idnremote/idnremote-go/internal/ports"
)

// DefaultLoginProvider is the social login requested when Login is given none.
const DefaultLoginProvider = "google"

// ErrNotSignedIn is returned by profile writes when there is no access token.
var ErrNotSignedIn = apperrors.Unauthenticated("sign in to update your profile")

// SessionStoreOptions groups dependencies for SessionStore.
type SessionStoreOptions struct {
	Provider ports.IdentityProvider
	Profiles ports.ProfileClient
	Logger   *slog.Logger
}

// SessionStore owns the signed-in user and provider session for one client.
//
// It is safe for concurrent use. Every Init, and every Logout that succeeds, takes a new
// generation; an Init only writes its result if no newer generation began meanwhile, so a
// slow Init can never resurrect a session that was signed out after it started.
type SessionStore struct {
	provider ports.IdentityProvider
	profiles ports.ProfileClient
	logger   *slog.Logger

	mu    sync.Mutex
	state domainauth.ProcessState
	gen   uint64
	// loadingGen is the newest Init; only it may clear Loading and close settled.
	loadingGen uint64
	// settled is open while Loading is true and closed exactly once when it clears.
	settled chan struct{}
}

// NewSessionStore constructs a SessionStore in the uninitialized state.
func NewSessionStore(opts SessionStoreOptions) *SessionStore {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{
		provider: opts.Provider,
		profiles: opts.Profiles,
		logger:   logger.With("component", "session_store"),
	}
}

// Snapshot returns a copy of the current state. Derived facts are computed from it with the
// pure functions in domain/auth.
func (s *SessionStore) Snapshot() domainauth.ProcessState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

// Facts is shorthand for domainauth.Derive(s.Snapshot()).
func (s *SessionStore) Facts() domainauth.Facts {
	return domainauth.Derive(s.Snapshot())
}

// WaitSettled blocks until no Init is in flight or ctx is done.
func (s *SessionStore) WaitSettled(ctx context.Context) error {
	s.mu.Lock()
	ch := s.settled
	s.mu.Unlock()
	if ch == nil {
		return nil
	}
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Init reconciles the provider session with the backend profile.
//
// It never fails. No provider session, a provider error or any unexpected failure leave the
// store anonymous. A session whose profile cannot be loaded leaves it degraded: the session
// is kept and the user falls back to the provider's embedded record. Loading is cleared on
// every path.
func (s *SessionStore) Init(ctx context.Context) domainauth.ProcessState {
	g := s.beginLoading()
	res := s.resolve(ctx)
	s.finish(g, res)
	return s.Snapshot()
}

// Start marks the store loading before it returns and restores the session in the
// background. Servers call it ahead of accepting requests so a guarded request arriving
// first waits on WaitSettled instead of seeing an unsettled anonymous store. The returned
// func blocks until that restore finishes and reports the resulting state.
func (s *SessionStore) Start(ctx context.Context) (wait func() domainauth.ProcessState) {
	g := s.beginLoading()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.finish(g, s.resolve(ctx))
	}()
	return sync.OnceValue(func() domainauth.ProcessState {
		<-done
		return s.Snapshot()
	})
}

// Login starts the OAuth redirect. It does not touch the session; the session appears once
// CompleteLogin (or a later Init) runs.
func (s *SessionStore) Login(ctx context.Context, redirectURL string) (ports.BeginResult, error) {
	res, err := s.provider.BeginOAuthRedirect(ctx, ports.BeginInput{
		Provider:    DefaultLoginProvider,
		RedirectURL: redirectURL,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "login redirect failed", "error", err)
		return ports.BeginResult{}, fmt.Errorf("begin login: %w", err)
	}
	return res, nil
}

// CompleteLogin finishes the redirect and re-runs Init, as a page load after the callback would.
func (s *SessionStore) CompleteLogin(ctx context.Context, in ports.ExchangeInput) (domainauth.ProcessState, error) {
	if err := s.provider.CompleteRedirect(ctx, in); err != nil {
		s.logger.WarnContext(ctx, "login callback failed", "error", err)
		return s.Snapshot(), fmt.Errorf("complete login: %w", err)
	}
	return s.Init(ctx), nil
}

// Logout signs out with the provider. On success user and session are cleared and any Init
// still in flight is superseded; on failure nothing changes.
func (s *SessionStore) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		s.logger.WarnContext(ctx, "logout failed", "error", err)
		return fmt.Errorf("logout: %w", err)
	}
	s.mu.Lock()
	s.gen++
	s.state.User = nil
	s.state.Session = nil
	s.state.Initialized = true
	s.mu.Unlock()
	return nil
}

// UpdateUserData replaces the local user record.
func (s *SessionStore) UpdateUserData(u model.User) {
	s.mu.Lock()
	s.state.User = cloneUser(&u)
	s.mu.Unlock()
}

// CompleteUserProfile saves the profile for the signed-in user and, on success, makes the
// saved values the local user record.
func (s *SessionStore) CompleteUserProfile(ctx context.Context, in model.SaveProfileInput) (model.User, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return model.User{}, err
	}

	snap := s.Snapshot()
	token := domainauth.AccessToken(snap)
	if token == "" {
		return model.User{}, ErrNotSignedIn
	}
	if err := s.profiles.SaveUserProfile(ctx, token, in); err != nil {
		s.logger.WarnContext(ctx, "profile save failed", "error", err)
		return model.User{}, fmt.Errorf("complete profile: %w", err)
	}

	var base model.User
	if cur := domainauth.CurrentUser(snap); cur != nil {
		base = *cur
	}
	updated := in.ApplyTo(base)
	s.UpdateUserData(updated)
	return updated, nil
}

type initResult struct {
	session *model.Session
	user    *model.User
}

func (s *SessionStore) beginLoading() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.loadingGen = s.gen
	s.state.Loading = true
	if s.settled == nil {
		s.settled = make(chan struct{})
	}
	return s.gen
}

// finish applies res if generation g is still current and clears Loading if g is the newest Init.
func (s *SessionStore) finish(g uint64, res initResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g == s.gen {
		s.state.Session = res.session
		s.state.User = res.user
		s.state.Initialized = true
	} else {
		s.logger.Debug("discarding superseded init result", "generation", g, "current", s.gen)
	}
	if g == s.loadingGen {
		s.state.Loading = false
		if s.settled != nil {
			close(s.settled)
			s.settled = nil
		}
	}
}

func (s *SessionStore) resolve(ctx context.Context) (res initResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "session init panicked", "panic", r)
			res = initResult{}
		}
	}()

	ps, err := s.provider.GetCurrentSession(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "provider session unavailable", "error", err)
		return initResult{}
	}
	if ps == nil {
		return initResult{}
	}
	session := ps.ToSession()

	user, err := s.profiles.GetUserProfile(ctx, session.AccessToken)
	switch {
	case err == nil && user == nil:
		s.logger.InfoContext(ctx, "no backend profile yet", "user_id", session.User.ID)
	case err == nil:
	case apperrors.IsBackend(err):
		s.logger.WarnContext(ctx, "profile fetch failed, keeping provider identity", "error", err)
		user = nil
	default:
		s.logger.WarnContext(ctx, "session init failed", "error", err)
		return initResult{}
	}
	return initResult{session: &session, user: user}
}

func cloneState(st domainauth.ProcessState) domainauth.ProcessState {
	out := st
	out.User = cloneUser(st.User)
	if st.Session != nil {
		sess := *st.Session
		sess.User = *cloneUser(&st.Session.User)
		if st.Session.ExpiresAt != nil {
			at := *st.Session.ExpiresAt
			sess.ExpiresAt = &at
		}
		out.Session = &sess
	}
	return out
}

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.PreferencesTags != nil {
		c.PreferencesTags = append([]string{}, u.PreferencesTags...)
	}
	return &c
}

// IsSessionError reports whether err came from the identity provider or a missing session,
// the failures the HTTP layer answers with a sign-in prompt.
func IsSessionError(err error) bool {
	return apperrors.IsProvider(err) || errors.Is(err, ErrNotSignedIn) || apperrors.IsUnauthenticated(err)
}
