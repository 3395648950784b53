package httpx

import (
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/idnremote/idnremote-go/internal/clock"
	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/domain/model"
	"github.com/idnremote/idnremote-go/internal/domain/navigation"
	"github.com/idnremote/idnremote-go/internal/observability/notify"
	"github.com/idnremote/idnremote-go/internal/ports"
	"github.com/idnremote/idnremote-go/internal/util"
)

// PageHandlers serves the JSON view models for each page. Every handler runs behind
// RouteGuard, so the resolved route is always in the request context.
type PageHandlers struct {
	Listings ports.ListingClient
	Session  SessionService
	Clock    clock.Clock
	Logger   *slog.Logger
}

func (h *PageHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *PageHandlers) clock() clock.Clock {
	if h.Clock == nil {
		return clock.Real{}
	}
	return h.Clock
}

// JobView is a listing entry with its relative posting time.
type JobView struct {
	model.Job
	Posted string `json:"posted"`
}

// pageView holds what every page response carries.
type pageView struct {
	Route navigation.RouteName `json:"route"`
	Title string               `json:"title"`
	Path  string               `json:"path"`
}

func pageFor(r *http.Request) pageView {
	m, ok := MatchFromContext(r.Context())
	if !ok {
		m = navigation.Resolve(r.URL.RequestURI())
	}
	return pageView{Route: m.Route.Name, Title: m.Title(), Path: m.Path}
}

func (h *PageHandlers) jobViews(jobs []model.Job) []JobView {
	now := h.clock().Now()
	out := make([]JobView, 0, len(jobs))
	for _, j := range jobs {
		posted := j.CreatedAt
		if posted == 0 {
			posted = j.UpdatedAt
		}
		out = append(out, JobView{Job: j, Posted: util.HumanizeTime(posted, now)})
	}
	return out
}

// Home lists jobs and tags. The two reads run concurrently.
// GET /?query=<q>.
func (h *PageHandlers) Home(w http.ResponseWriter, r *http.Request) {
	q := model.JobQuery{Query: r.URL.Query().Get("query")}

	var (
		jobs []model.Job
		tags []model.Tag
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		jobs, err = h.Listings.ListJobs(ctx, q)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = h.Listings.ListTags(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		h.logger().WarnContext(r.Context(), "home listing failed", "query", q.Query, "error", err)
		WriteActionError(w, "Could not load jobs", err)
		return
	}

	WriteJSON(w, http.StatusOK, struct {
		pageView
		Query string      `json:"query"`
		Jobs  []JobView   `json:"jobs"`
		Tags  []model.Tag `json:"tags"`
	}{pageFor(r), q.Query, h.jobViews(jobs), nonNil(tags)})
}

// JobDetail shows one vacancy.
// GET /jobs/{id}.
func (h *PageHandlers) JobDetail(w http.ResponseWriter, r *http.Request) {
	job, err := h.Listings.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		WriteActionError(w, "Could not load job", err)
		return
	}
	WriteJSON(w, http.StatusOK, struct {
		pageView
		Job JobView `json:"job"`
	}{pageFor(r), h.jobViews([]model.Job{*job})[0]})
}

// FAQ is static.
// GET /faq.
func (h *PageHandlers) FAQ(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, pageFor(r))
}

// Profile shows the signed-in user.
// GET /profile.
func (h *PageHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	snap := h.Session.Snapshot()
	WriteJSON(w, http.StatusOK, struct {
		pageView
		Phase domainauth.Phase `json:"phase"`
		User  *model.User      `json:"user"`
	}{pageFor(r), snap.Phase(), domainauth.CurrentUser(snap)})
}

// CompleteProfileForm returns the current user and the selectable tags.
// GET /complete-profile.
func (h *PageHandlers) CompleteProfileForm(w http.ResponseWriter, r *http.Request) {
	tags, err := h.Listings.ListTags(r.Context())
	if err != nil {
		WriteActionError(w, "Could not load tags", err)
		return
	}
	snap := h.Session.Snapshot()
	WriteJSON(w, http.StatusOK, struct {
		pageView
		User *model.User `json:"user"`
		Tags []model.Tag `json:"tags"`
	}{pageFor(r), domainauth.CurrentUser(snap), nonNil(tags)})
}

// CompleteProfile saves the completion form.
// POST /complete-profile.
func (h *PageHandlers) CompleteProfile(w http.ResponseWriter, r *http.Request) {
	var in model.SaveProfileInput
	if !DecodeJSON(w, r, &in) {
		return
	}
	user, err := h.Session.CompleteUserProfile(r.Context(), in)
	if err != nil {
		WriteActionError(w, "Profile not saved", err)
		return
	}
	WriteJSON(w, http.StatusOK, struct {
		User  model.User   `json:"user"`
		Toast notify.Toast `json:"toast"`
	}{user, notify.Success("Profile saved", "Your profile is complete.")})
}

// NotFound answers every path no page matches.
func (h *PageHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusNotFound, pageFor(r))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
