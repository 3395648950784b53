package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/domain/navigation"
)

// maxRedirects bounds guard redirect chains; the route table needs at most one hop.
const maxRedirects = 5

var (
	// ErrNavigationSuperseded is returned when a newer navigation started before this one finished.
	ErrNavigationSuperseded = errors.New("navigation superseded")
	// ErrRedirectLoop is returned when guard redirects do not converge.
	ErrRedirectLoop = errors.New("navigation redirect loop")
)

// SessionView is the read side of SessionStore the guard needs.
type SessionView interface {
	Facts() domainauth.Facts
	WaitSettled(ctx context.Context) error
}

// NavigationResult is where a navigation ended up.
type NavigationResult struct {
	Match navigation.Match
	Title string
	// Redirects lists the paths the guard turned away from, in order.
	Redirects []string
}

// Guard evaluates one transition, waiting for the session to settle when the route needs it.
// The only blocking point is the wait; it ends when Init settles or ctx is done.
func Guard(ctx context.Context, to navigation.Route, session SessionView) (navigation.Decision, error) {
	d := navigation.Decide(to, session.Facts())
	if d.Action != navigation.ActionWait {
		return d, nil
	}
	if err := session.WaitSettled(ctx); err != nil {
		return navigation.Decision{}, err
	}
	d = navigation.Decide(to, session.Facts())
	if d.Action == navigation.ActionWait {
		// A new Init began after we woke; its outcome is not ours to wait for.
		return Guard(ctx, to, session)
	}
	return d, nil
}

// NavigatorOptions groups dependencies for Navigator.
type NavigatorOptions struct {
	Session SessionView
	Logger  *slog.Logger
}

// Navigator runs guarded transitions for a single client. Starting a navigation cancels the
// one still in progress, so two quick navigations can never both commit.
type Navigator struct {
	session SessionView
	logger  *slog.Logger

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelCauseFunc
}

// NewNavigator constructs a Navigator.
func NewNavigator(opts NavigatorOptions) *Navigator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Navigator{session: opts.Session, logger: logger.With("component", "navigator")}
}

// Navigate resolves path, runs the guard and follows its redirects.
func (n *Navigator) Navigate(ctx context.Context, path string) (NavigationResult, error) {
	navCtx, id := n.begin(ctx)
	defer n.end(id)

	var redirects []string
	for hops := 0; ; hops++ {
		m := navigation.Resolve(path)
		d, err := Guard(navCtx, m.Route, n.session)
		if err != nil {
			return NavigationResult{}, n.cause(navCtx, err)
		}
		if superseded(navCtx) {
			return NavigationResult{}, ErrNavigationSuperseded
		}
		if d.Allowed() {
			return NavigationResult{Match: m, Title: m.Title(), Redirects: redirects}, nil
		}
		if hops >= maxRedirects {
			return NavigationResult{}, fmt.Errorf("%w: %v", ErrRedirectLoop, append(redirects, path))
		}
		n.logger.DebugContext(ctx, "navigation redirected", "from", m.Path, "to", d.Target, "reason", d.Reason)
		redirects = append(redirects, m.Path)
		path = d.Target
	}
}

func (n *Navigator) begin(ctx context.Context) (context.Context, uint64) {
	navCtx, cancel := context.WithCancelCause(ctx)
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.cancel != nil {
		n.cancel(ErrNavigationSuperseded)
	}
	n.seq++
	n.cancel = cancel
	return navCtx, n.seq
}

func (n *Navigator) end(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.seq == id && n.cancel != nil {
		n.cancel(nil)
		n.cancel = nil
	}
}

func (n *Navigator) cause(ctx context.Context, err error) error {
	if superseded(ctx) {
		return ErrNavigationSuperseded
	}
	return err
}

func superseded(ctx context.Context) bool {
	return errors.Is(context.Cause(ctx), ErrNavigationSuperseded)
}
