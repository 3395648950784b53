// Package auth contains the session state snapshot and the facts derived from it.
// It is pure and free of framework/adapter concerns.
package auth

import "github.com/idnremote/idnremote-go/internal/domain/model"

// Phase names where the session lifecycle currently is.
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseLoading       Phase = "loading"
	PhaseAuthenticated Phase = "authenticated"
	// PhaseDegraded means a provider session exists but no backend profile was loaded.
	PhaseDegraded  Phase = "degraded"
	PhaseAnonymous Phase = "anonymous"
)

// ProcessState is an immutable snapshot of the session store.
// Initialized distinguishes a store that never ran Init from one that settled anonymous.
type ProcessState struct {
	User        *model.User
	Session     *model.Session
	Loading     bool
	Initialized bool
}

// Phase classifies the snapshot.
func (s ProcessState) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseLoading
	case s.Session != nil && s.User != nil:
		return PhaseAuthenticated
	case s.Session != nil:
		return PhaseDegraded
	case !s.Initialized:
		return PhaseUninitialized
	default:
		return PhaseAnonymous
	}
}

// CurrentUser returns the backend profile, falling back to the provider's embedded user.
func CurrentUser(s ProcessState) *model.User {
	if s.User != nil {
		return s.User
	}
	if s.Session != nil {
		u := s.Session.User
		return &u
	}
	return nil
}

// IsLoggedIn reports whether any user identity is available.
func IsLoggedIn(s ProcessState) bool {
	return CurrentUser(s) != nil
}

// NeedsProfileCompletion reports whether the current user lacks a required profile field.
// With no user at all it returns true.
func NeedsProfileCompletion(s ProcessState) bool {
	return !CurrentUser(s).IsProfileComplete()
}

// AccessToken returns the session bearer token, or "" when signed out.
func AccessToken(s ProcessState) string {
	if s.Session == nil {
		return ""
	}
	return s.Session.AccessToken
}

// Facts is the set of derived values a navigation guard consumes.
type Facts struct {
	Loading                bool
	IsLoggedIn             bool
	NeedsProfileCompletion bool
}

// Derive computes Facts from a snapshot.
func Derive(s ProcessState) Facts {
	return Facts{
		Loading:                s.Loading,
		IsLoggedIn:             IsLoggedIn(s),
		NeedsProfileCompletion: NeedsProfileCompletion(s),
	}
}
