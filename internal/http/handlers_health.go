package httpx

import (
	"net/http"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
)

// healthHandler returns 200 with the session phase for readiness/liveness checks.
// It never waits on the session.
func healthHandler(session SessionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			return
		}
		phase := domainauth.PhaseUninitialized
		if session != nil {
			phase = session.Snapshot().Phase()
		}
		WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "session": phase})
	}
}
