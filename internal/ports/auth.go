// Package ports defines interfaces (hexagonal ports) for the client core's collaborators.
// Implementations live in internal/adapters and internal/data; orchestration in internal/service.
package ports

import (
	"context"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/domain/model"
)

// BeginInput carries inputs for initiating an OAuth redirect.
type BeginInput struct {
	// Provider names the upstream social login (e.g. "google"). Adapters may ignore it.
	Provider    string
	RedirectURL string
}

// BeginResult is where the user agent should be sent to continue sign-in.
type BeginResult struct {
	URL   string
	State string
}

// ExchangeInput groups parameters for completing the redirect.
type ExchangeInput struct {
	Code  string
	State string
}

// IdentityProvider is the third-party identity service boundary.
type IdentityProvider interface {
	// BeginOAuthRedirect starts the login flow and returns the provider URL.
	BeginOAuthRedirect(ctx context.Context, in BeginInput) (BeginResult, error)

	// CompleteRedirect exchanges the callback code and persists the resulting provider session.
	CompleteRedirect(ctx context.Context, in ExchangeInput) error

	// GetCurrentSession returns the persisted provider session, or nil when signed out.
	GetCurrentSession(ctx context.Context) (*domainauth.ProviderSession, error)

	// SignOut discards the provider session.
	SignOut(ctx context.Context) error
}

// ProfileClient reads and writes the signed-in user's backend profile.
type ProfileClient interface {
	// GetUserProfile returns nil, nil when the backend has no profile for the token yet.
	GetUserProfile(ctx context.Context, accessToken string) (*model.User, error)
	SaveUserProfile(ctx context.Context, accessToken string, in model.SaveProfileInput) error
}

// ListingClient reads public listing data.
type ListingClient interface {
	ListJobs(ctx context.Context, q model.JobQuery) ([]model.Job, error)
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListTags(ctx context.Context) ([]model.Tag, error)
}
