package navigation

import domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"

// Action is the outcome of a guard evaluation.
type Action string

const (
	ActionAllow    Action = "allow"
	ActionRedirect Action = "redirect"
	// ActionWait means the session is still loading and the guard must wait for it to settle.
	ActionWait Action = "wait"
)

// Decision is what the guard concluded for one transition.
type Decision struct {
	Action Action
	Target string
	Reason string
}

// Allowed reports whether the transition may proceed to its destination.
func (d Decision) Allowed() bool { return d.Action == ActionAllow }

// Decide runs the guard steps against a fixed set of facts.
//
// Order: protected routes that render while loading pass; protected routes wait while the
// session loads; signed-out visitors go home; signed-in users with an incomplete profile go to
// profile completion unless already headed there or to the callback; everything else passes.
func Decide(to Route, f domainauth.Facts) Decision {
	meta := to.Meta
	if meta.RequiresAuth && meta.RenderWhenAuthLoading {
		return Decision{Action: ActionAllow, Reason: "renders while auth loads"}
	}
	if meta.RequiresAuth && f.Loading {
		return Decision{Action: ActionWait, Reason: "session loading"}
	}
	if meta.RequiresAuth && !f.IsLoggedIn {
		return Decision{Action: ActionRedirect, Target: HomePath, Reason: "not signed in"}
	}
	if f.IsLoggedIn && f.NeedsProfileCompletion && meta.RequiresAuth &&
		to.Name != RouteCompleteProfile && to.Name != RouteAuthCallback {
		return Decision{Action: ActionRedirect, Target: CompleteProfilePath, Reason: "profile incomplete"}
	}
	return Decision{Action: ActionAllow}
}
