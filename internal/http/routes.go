package httpx

import (
	"log/slog"
	"net/http"

	"github.com/idnremote/idnremote-go/internal/clock"
	"github.com/idnremote/idnremote-go/internal/ports"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Listings ports.ListingClient
	Session  SessionService
	// BaseURL is the public origin of this server, used for the OAuth callback.
	BaseURL string
	Clock   clock.Clock
	Logger  *slog.Logger // optional
}

// NewRouter creates the companion server's handler. Page routes run behind RouteGuard;
// auth endpoints and health checks do not. Logging and Recover are applied by the caller.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "http")

	mux := http.NewServeMux()
	pages := &PageHandlers{
		Listings: services.Listings,
		Session:  services.Session,
		Clock:    services.Clock,
		Logger:   logger,
	}
	authHandlers := &AuthHandlers{Session: services.Session, BaseURL: services.BaseURL, Logger: logger}
	guard := RouteGuard(services.Session, logger)

	registerPageRoutes(mux, pages, guard)
	registerAuthRoutes(mux, authHandlers, guard)
	health := healthHandler(services.Session)
	mux.Handle("GET /healthz", health)
	mux.Handle("HEAD /healthz", health)

	return RequestID()(mux)
}

func registerPageRoutes(mux *http.ServeMux, h *PageHandlers, guard func(http.Handler) http.Handler) {
	mux.Handle("GET /{$}", guard(http.HandlerFunc(h.Home)))
	mux.Handle("GET /faq", guard(http.HandlerFunc(h.FAQ)))
	mux.Handle("GET /jobs/{id}", guard(http.HandlerFunc(h.JobDetail)))
	mux.Handle("GET /profile", guard(http.HandlerFunc(h.Profile)))
	mux.Handle("GET /complete-profile", guard(http.HandlerFunc(h.CompleteProfileForm)))
	mux.Handle("POST /complete-profile", guard(http.HandlerFunc(h.CompleteProfile)))
	mux.Handle("GET /", guard(http.HandlerFunc(h.NotFound)))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, guard func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /auth/login", h.Login)
	// The callback route renders while auth loads, so the guard never blocks it.
	mux.Handle("GET /auth/callback", guard(http.HandlerFunc(h.Callback)))
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}
