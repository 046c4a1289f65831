// Package guard decides whether a client view may render for a session state.
// The server gate is the security boundary; these checks only keep the UI
// from showing pages the user cannot use.
package guard

import (
	"strings"

	"github.com/geocoder89/guruhub/internal/client/session"
)

type Kind int

const (
	Render Kind = iota
	Wait
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Render:
		return "render"
	case Wait:
		return "wait"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is what a view should do. To is set only for Redirect.
type Decision struct {
	Kind Kind
	To   session.View
}

type Guard func(session.State) Decision

func redirectToLogin() Decision {
	return Decision{Kind: Redirect, To: session.ViewLogin}
}

// Admin renders only for an authenticated admin.
func Admin(s session.State) Decision {
	switch {
	case s.Loading:
		return Decision{Kind: Wait}
	case s.IsAdmin():
		return Decision{Kind: Render}
	default:
		return redirectToLogin()
	}
}

// User renders for any authenticated session.
func User(s session.State) Decision {
	switch {
	case s.Loading:
		return Decision{Kind: Wait}
	case s.Authenticated():
		return Decision{Kind: Render}
	default:
		return redirectToLogin()
	}
}

func Public(session.State) Decision {
	return Decision{Kind: Render}
}

// Routes maps protected client paths to their guard. Anything not listed is public.
var Routes = map[string]Guard{
	"/admin":            Admin,
	"/admin/categories": Admin,
	"/admin/gurus":      Admin,
	"/user-dashboard":   User,
}

func Resolve(path string, s session.State) Decision {
	path = normalize(path)

	if g, ok := Routes[path]; ok {
		return g(s)
	}

	return Public(s)
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}
