// Package navigation holds the client's route table and the pure guard decision over it.
package navigation

import (
	"net/url"
	"path"
	"strings"
)

// RouteName identifies a route independent of its path.
type RouteName string

const (
	RouteHome            RouteName = "Home"
	RouteFAQ             RouteName = "FAQ"
	RouteJobDetail       RouteName = "JobDetail"
	RouteAuthCallback    RouteName = "AuthCallback"
	RouteCompleteProfile RouteName = "CompleteProfile"
	RouteProfile         RouteName = "Profile"
	RouteNotFound        RouteName = "NotFound"
)

const (
	HomePath            = "/"
	FAQPath             = "/faq"
	AuthCallbackPath    = "/auth/callback"
	CompleteProfilePath = "/complete-profile"
	ProfilePath         = "/profile"
	jobDetailPrefix     = "/jobs/"
)

// DefaultTitle is used by routes that do not set their own.
const DefaultTitle = "Remote Jobs for Indonesian Talents"

// Meta is the per-route metadata the guard consults.
type Meta struct {
	RequiresAuth bool
	// RenderWhenAuthLoading lets a protected route render before the session settles.
	RenderWhenAuthLoading bool
	Title                 string
}

// Route is one entry of the route table.
type Route struct {
	Name    RouteName
	Pattern string
	Meta    Meta
}

// Match is a path resolved against the route table.
type Match struct {
	Route  Route
	Path   string
	Query  url.Values
	Params map[string]string
}

// Title returns the document title for the matched route.
func (m Match) Title() string {
	if m.Route.Meta.Title != "" {
		return m.Route.Meta.Title
	}
	return DefaultTitle
}

var routes = []Route{
	{Name: RouteHome, Pattern: HomePath, Meta: Meta{Title: DefaultTitle}},
	{Name: RouteFAQ, Pattern: FAQPath, Meta: Meta{Title: "Frequently Asked Questions | IDNRemote.com"}},
	{Name: RouteJobDetail, Pattern: jobDetailPrefix + "{id}", Meta: Meta{Title: "Job Detail | IDNRemote.com"}},
	{Name: RouteAuthCallback, Pattern: AuthCallbackPath, Meta: Meta{RequiresAuth: true, RenderWhenAuthLoading: true}},
	{Name: RouteCompleteProfile, Pattern: CompleteProfilePath, Meta: Meta{RequiresAuth: true, Title: "Complete Your Profile | IDNRemote.com"}},
	{Name: RouteProfile, Pattern: ProfilePath, Meta: Meta{RequiresAuth: true, Title: "Profile | IDNRemote.com"}},
}

var notFound = Route{Name: RouteNotFound, Pattern: "/*"}

// Routes returns a copy of the route table, fallback excluded.
func Routes() []Route {
	return append([]Route(nil), routes...)
}

// Lookup returns the route registered under name.
func Lookup(name RouteName) (Route, bool) {
	if name == RouteNotFound {
		return notFound, true
	}
	for _, r := range routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Resolve matches a raw path (optionally with a query string) to a route.
// Unknown paths resolve to the NotFound fallback.
func Resolve(raw string) Match {
	p, rawQuery, _ := strings.Cut(raw, "?")
	query, _ := url.ParseQuery(rawQuery)
	p = cleanPath(p)

	m := Match{Path: p, Query: query}
	if strings.HasPrefix(p, jobDetailPrefix) {
		id := strings.TrimPrefix(p, jobDetailPrefix)
		if id != "" && !strings.Contains(id, "/") {
			if unescaped, err := url.PathUnescape(id); err == nil {
				id = unescaped
			}
			r, _ := Lookup(RouteJobDetail)
			m.Route = r
			m.Params = map[string]string{"id": id}
			return m
		}
	}
	for _, r := range routes {
		if r.Pattern == p {
			m.Route = r
			return m
		}
	}
	m.Route = notFound
	return m
}

func cleanPath(p string) string {
	if p == "" {
		return HomePath
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}
