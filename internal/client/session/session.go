// Package session holds the client's view of who is signed in.
//
// A Client starts in PhaseBootstrapping, resolves to PhaseAuthenticated or
// PhaseAnonymous once Bootstrap has replayed the stored token, and from then
// on only moves through Login and Logout. Every transition publishes a new
// immutable State to subscribers.
package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/geocoder89/guruhub/internal/client/api"
	"github.com/geocoder89/guruhub/internal/client/tokenstore"
	"github.com/geocoder89/guruhub/internal/domain/user"
)

var ErrSessionNotReady = errors.New("session is still bootstrapping")

type Phase int

const (
	PhaseBootstrapping Phase = iota
	PhaseAuthenticated
	PhaseAnonymous
)

func (p Phase) String() string {
	switch p {
	case PhaseBootstrapping:
		return "bootstrapping"
	case PhaseAuthenticated:
		return "authenticated"
	case PhaseAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// View is a navigation target the UI should move to.
type View string

const (
	ViewLogin     View = "/login"
	ViewAdminHome View = "/admin"
	ViewUserHome  View = "/user-dashboard"
)

const (
	msgRegistered     = "Registration successful! Please log in."
	msgLoginFailed    = "Login failed"
	msgRegisterFailed = "Registration failed"
)

// State is a snapshot of the session. Profile is meaningful only when Phase
// is PhaseAuthenticated; while Loading is true nothing about the user is
// decided yet.
type State struct {
	Phase   Phase
	Loading bool
	Profile user.Profile
}

func (s State) Authenticated() bool {
	return s.Phase == PhaseAuthenticated
}

func (s State) IsAdmin() bool {
	return s.Authenticated() && s.Profile.Role == user.RoleAdmin
}

// Result is the outcome of a session operation. Navigate is empty when the
// operation does not move the UI.
type Result struct {
	OK       bool
	Message  string
	Navigate View
}

// API is the slice of the server the session talks to.
type API interface {
	Register(ctx context.Context, in api.RegisterRequest) (user.Profile, error)
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	Profile(ctx context.Context, token string) (user.Profile, error)
	NewRequest(ctx context.Context, method, path string, body any) (*http.Request, error)
	Do(req *http.Request, token string, out any) error
}

type Client struct {
	api    API
	tokens tokenstore.Store
	log    *slog.Logger

	bootOnce sync.Once

	mu     sync.Mutex
	state  State
	token  string
	nextID int
	subs   map[int]func(State)
}

func New(apiClient API, tokens tokenstore.Store, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		api:    apiClient,
		tokens: tokens,
		log:    log,
		state:  State{Phase: PhaseBootstrapping, Loading: true},
		subs:   make(map[int]func(State)),
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Subscribe registers fn to receive every state published after the call.
func (c *Client) Subscribe(fn func(State)) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// Bootstrap replays the stored token against the server. Only the first call
// does any work; later calls return immediately.
func (c *Client) Bootstrap(ctx context.Context) {
	c.bootOnce.Do(func() {
		c.bootstrap(ctx)
	})
}

func (c *Client) bootstrap(ctx context.Context) {
	token, err := c.tokens.Load(ctx)
	if err != nil {
		c.log.WarnContext(ctx, "token store unreadable", "err", err)
	}

	if token == "" {
		c.transition(State{Phase: PhaseAnonymous}, "")
		return
	}

	profile, err := c.api.Profile(ctx, token)
	if err == nil {
		c.transition(State{Phase: PhaseAuthenticated, Profile: profile}, token)
		return
	}

	if api.StatusOf(err) == http.StatusUnauthorized {
		c.log.InfoContext(ctx, "stored token rejected, clearing")
		if clearErr := c.tokens.Clear(ctx); clearErr != nil {
			c.log.WarnContext(ctx, "failed to clear token", "err", clearErr)
		}
	} else {
		// Not proven invalid; keep it for the next start.
		c.log.WarnContext(ctx, "session rehydration failed", "err", err)
	}

	c.transition(State{Phase: PhaseAnonymous}, "")
}

func (c *Client) Login(ctx context.Context, email, password string) Result {
	res, err := c.api.Login(ctx, email, password)
	if err != nil {
		c.log.InfoContext(ctx, "login failed", "err", err)
		return Result{Message: messageOr(err, msgLoginFailed)}
	}

	if err := c.tokens.Save(ctx, res.Token); err != nil {
		c.log.WarnContext(ctx, "failed to persist token", "err", err)
	}

	profile := res.Profile()
	c.transition(State{Phase: PhaseAuthenticated, Profile: profile}, res.Token)

	landing := ViewUserHome
	if profile.Role == user.RoleAdmin {
		landing = ViewAdminHome
	}

	return Result{OK: true, Navigate: landing}
}

// Register creates an account without signing in.
func (c *Client) Register(ctx context.Context, name, email, password, role string) Result {
	_, err := c.api.Register(ctx, api.RegisterRequest{
		Name:     name,
		Email:    email,
		Password: password,
		Role:     role,
	})
	if err != nil {
		return Result{Message: messageOr(err, msgRegisterFailed)}
	}

	return Result{OK: true, Message: msgRegistered, Navigate: ViewLogin}
}

func (c *Client) Logout(ctx context.Context) Result {
	if err := c.tokens.Clear(ctx); err != nil {
		c.log.WarnContext(ctx, "failed to clear token", "err", err)
	}

	c.transition(State{Phase: PhaseAnonymous}, "")

	return Result{OK: true, Navigate: ViewLogin}
}

// AuthorizedRequest sends a request carrying the session token. It refuses to
// run before Bootstrap has resolved the session.
func (c *Client) AuthorizedRequest(ctx context.Context, method, path string, body, out any) error {
	c.mu.Lock()
	phase, token := c.state.Phase, c.token
	c.mu.Unlock()

	if phase == PhaseBootstrapping {
		return ErrSessionNotReady
	}

	req, err := c.api.NewRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	return c.api.Do(req, token, out)
}

func (c *Client) transition(next State, token string) {
	c.mu.Lock()
	c.state = next
	c.token = token

	subs := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}

func messageOr(err error, fallback string) string {
	if msg := api.MessageOf(err); msg != "" {
		return msg
	}
	return fallback
}
