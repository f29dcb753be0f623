// Package guard decides which route may be rendered based on the presence of
// a session token.
package guard

import (
	"context"

	"github.com/Goofygiraffe06/janseva/internal/logging"
	"github.com/Goofygiraffe06/janseva/internal/session"
)

type Route string

const (
	// RouteEntry is where the auth flow starts.
	RouteEntry Route = "/"
	// RouteHome is the protected citizen dashboard.
	RouteHome Route = "/home"
)

// Navigator moves the user to another route.
type Navigator interface {
	Navigate(to Route)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to Route)

func (f NavigatorFunc) Navigate(to Route) { f(to) }

type Guard struct {
	session   *session.Session
	protected map[Route]bool
}

// New guards the given routes, or RouteHome when none are given.
func New(s *session.Session, protected ...Route) *Guard {
	if len(protected) == 0 {
		protected = []Route{RouteHome}
	}
	g := &Guard{session: s, protected: make(map[Route]bool, len(protected))}
	for _, r := range protected {
		g.protected[r] = true
	}
	return g
}

// Resolve returns the route to render for a request to to. Protected routes
// resolve to RouteEntry when no token is stored.
func (g *Guard) Resolve(ctx context.Context, to Route) Route {
	if !g.protected[to] {
		return to
	}
	if g.session.Authenticated(ctx) {
		return to
	}
	logging.DebugLog("Guard: no session token, redirecting %s -> %s", to, RouteEntry)
	return RouteEntry
}

// Enter resolves to and navigates there.
func (g *Guard) Enter(ctx context.Context, to Route, nav Navigator) Route {
	dest := g.Resolve(ctx, to)
	nav.Navigate(dest)
	return dest
}

// Logout removes the token and sends the user back to the entry route.
func (g *Guard) Logout(ctx context.Context, nav Navigator) error {
	if err := g.session.SignOut(ctx); err != nil {
		return err
	}
	nav.Navigate(RouteEntry)
	return nil
}
