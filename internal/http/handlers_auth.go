package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/domain/model"
	"github.com/idnremote/idnremote-go/internal/domain/navigation"
	apperrors "github.com/idnremote/idnremote-go/internal/errors"
	"github.com/idnremote/idnremote-go/internal/observability/notify"
	"github.com/idnremote/idnremote-go/internal/ports"
	"github.com/idnremote/idnremote-go/internal/service"
)

// SessionService is the part of service.SessionStore the HTTP layer drives.
type SessionService interface {
	service.SessionView
	Snapshot() domainauth.ProcessState
	Login(ctx context.Context, redirectURL string) (ports.BeginResult, error)
	CompleteLogin(ctx context.Context, in ports.ExchangeInput) (domainauth.ProcessState, error)
	Logout(ctx context.Context) error
	CompleteUserProfile(ctx context.Context, in model.SaveProfileInput) (model.User, error)
}

var _ SessionService = (*service.SessionStore)(nil)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Session SessionService
	// BaseURL is the public origin the provider redirects back to.
	BaseURL string
	Logger  *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// Login handles the login initiation endpoint.
// GET /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	res, err := h.Session.Login(r.Context(), h.callbackURL())
	if err != nil {
		WriteActionError(w, "Sign-in failed", err)
		return
	}
	http.Redirect(w, r, res.URL, http.StatusFound)
}

// Callback handles the OAuth callback endpoint.
// GET /auth/callback?code=<code>&state=<state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if providerErr := q.Get("error"); providerErr != "" {
		msg := q.Get("error_description")
		if msg == "" {
			msg = providerErr
		}
		WriteActionError(w, "Sign-in cancelled", apperrors.Validation(msg))
		return
	}

	state, err := h.Session.CompleteLogin(r.Context(), ports.ExchangeInput{
		Code:  q.Get("code"),
		State: q.Get("state"),
	})
	if err != nil {
		h.logger().WarnContext(r.Context(), "login callback failed", "error", err)
		WriteActionError(w, "Sign-in failed", err)
		return
	}

	target := navigation.HomePath
	if domainauth.IsLoggedIn(state) && domainauth.NeedsProfileCompletion(state) {
		target = navigation.CompleteProfilePath
	}
	http.Redirect(w, r, target, http.StatusFound)
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Session.Logout(r.Context()); err != nil {
		WriteActionError(w, "Sign-out failed", err)
		return
	}

	if wantsJSON(r) {
		t := notify.Success("Signed out", "You have been signed out.")
		WriteJSON(w, http.StatusOK, map[string]any{
			"status":      "success",
			"redirect_to": navigation.HomePath,
			"toast":       t,
		})
		return
	}
	http.Redirect(w, r, navigation.HomePath, http.StatusSeeOther)
}

// Status returns the current session phase and user.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	snap := h.Session.Snapshot()
	WriteJSON(w, http.StatusOK, map[string]any{
		"phase":                    snap.Phase(),
		"authenticated":            domainauth.IsLoggedIn(snap),
		"needs_profile_completion": domainauth.NeedsProfileCompletion(snap),
		"user":                     domainauth.CurrentUser(snap),
	})
}

// callbackURL is where the provider should send the browser back to, or "" to use the
// provider's configured redirect.
func (h *AuthHandlers) callbackURL() string {
	base := strings.TrimRight(h.BaseURL, "/")
	if base == "" {
		return ""
	}
	u, err := url.Parse(base + navigation.AuthCallbackPath)
	if err != nil || !u.IsAbs() {
		h.logger().Warn("ignoring invalid base URL for auth callback", "base_url", h.BaseURL)
		return ""
	}
	return u.String()
}

// wantsJSON reports whether the client asked for a JSON body instead of a redirect.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
}
