//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Authorization code login flow. Loads the authorize page in a
// surface, watches navigation for the redirect and exchanges the code.
//

package login

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/cloudmanic/spotify-auth-kit/dispatch"
	"github.com/cloudmanic/spotify-auth-kit/spoterr"
	"github.com/cloudmanic/spotify-auth-kit/spotify"
)

// ErrInProgress is returned by Show while a login is already running.
var ErrInProgress = errors.New("login: already in progress")

// Controller drives one surface through the login flow.
type Controller struct {
	auth       spotify.Authenticator
	surface    Surface
	observer   Observer
	dispatcher dispatch.Dispatcher
	scopes     []string
	force      bool
	newState   func() string

	mu         sync.Mutex
	state      State
	status     Status
	oauthState string
	generation int
	cancel     context.CancelFunc
	token      *spotify.Token
	err        error
}

// Option configures a Controller.
type Option func(*Controller)

// WithScopes sets the scopes to request. The manager's defaults apply when empty.
func WithScopes(scopes ...string) Option {
	return func(c *Controller) {
		c.scopes = scopes
	}
}

// WithForceReauth always shows the consent dialog.
func WithForceReauth() Option {
	return func(c *Controller) {
		c.force = true
	}
}

// WithDispatcher sets where observer callbacks run. Defaults to inline.
func WithDispatcher(d dispatch.Dispatcher) Option {
	return func(c *Controller) {
		c.dispatcher = d
	}
}

// WithStateGenerator replaces the random oauth state, for tests.
func WithStateGenerator(fn func() string) Option {
	return func(c *Controller) {
		c.newState = fn
	}
}

// NewController returns an idle controller.
func NewController(auth spotify.Authenticator, surface Surface, observer Observer, opts ...Option) *Controller {
	if observer == nil {
		observer = Hooks{}
	}
	c := &Controller{
		auth:       auth,
		surface:    surface,
		observer:   observer,
		dispatcher: dispatch.Inline{},
		newState:   uuid.NewString,
		state:      StateIdle,
		status:     StatusDefault,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the current status colour.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Token returns the token of a successful login.
func (c *Controller) Token() *spotify.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// Err returns the error of a failed login.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// notify queues observer callbacks built while holding the lock.
type notify []func()

func (n notify) send(d dispatch.Dispatcher) {
	for _, fn := range n {
		d.Dispatch(fn)
	}
}

// setStatusLocked records a status change.
func (c *Controller) setStatusLocked(s Status, n *notify) {
	if c.status == s {
		return
	}
	c.status = s
	*n = append(*n, func() { c.observer.DidChangeStatus(c, s) })
}

// failLocked moves to failed and reports err.
func (c *Controller) failLocked(err error, status Status, n *notify) {
	c.state = StateFailed
	c.err = err
	c.setStatusLocked(status, n)
	*n = append(*n, func() { c.observer.DidFail(c, err) })
}

// Show builds the authorization URL and loads it in the surface.
func (c *Controller) Show(ctx context.Context) error {
	var n notify
	defer func() { n.send(c.dispatcher) }()

	c.mu.Lock()
	if c.state == StateShowing || c.state == StateExchanging {
		c.mu.Unlock()
		return ErrInProgress
	}

	c.generation++
	c.token = nil
	c.err = nil
	c.oauthState = c.newState()

	authURL, err := c.auth.AuthorizationURL(c.scopes, c.oauthState, c.force)
	if err != nil {
		c.failLocked(err, StatusError, &n)
		c.mu.Unlock()
		return err
	}

	c.state = StateShowing
	c.setStatusLocked(StatusPending, &n)
	c.mu.Unlock()

	c.surface.SetNavigationHandler(c.HandleNavigation)
	if err := c.surface.Load(ctx, authURL); err != nil {
		c.mu.Lock()
		c.failLocked(spoterr.Transport("failed to load authorization page", err), StatusError, &n)
		c.mu.Unlock()
		return err
	}

	log.Info("[Login] Authorization page loaded")
	n = append(n, func() { c.observer.DidShow(c) })
	return nil
}

// Hide stops the surface, abandons any exchange in flight and closes.
func (c *Controller) Hide() {
	var n notify
	defer func() { n.send(c.dispatcher) }()

	c.mu.Lock()
	if c.state == StateIdle || c.state == StateClosed {
		c.mu.Unlock()
		return
	}
	c.state = StateClosed
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.surface.StopLoading()
	log.Info("[Login] Closed")
	n = append(n, func() { c.observer.DidClose(c) })
}

// HandleNavigation reacts to a surface navigation event. Surfaces call it
// through the handler installed by Show.
func (c *Controller) HandleNavigation(ev NavigationEvent) {
	var n notify
	defer func() { n.send(c.dispatcher) }()

	log.Debugf("[Login] Navigation %s %s", ev.Kind, ev.URL)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateShowing {
		return
	}

	switch ev.Kind {
	case NavigationFailed:
		err := ev.Err
		if err == nil {
			err = errors.New("navigation failed")
		}
		c.failLocked(spoterr.Transport("authorization page failed to load", err), StatusError, &n)
	case NavigationFinished:
		c.inspectLocked(&n)
	}
}

// inspectLocked looks at the surface's current URL for the redirect parameters.
func (c *Controller) inspectLocked(n *notify) {
	u := c.surface.CurrentURL()
	if u == nil {
		c.failLocked(spoterr.Protocol("No valid address"), StatusWarning, n)
		return
	}

	q := u.Query()
	if e := q.Get("error"); e != "" {
		c.failLocked(spoterr.API(0, e, q.Get("error_description")), StatusError, n)
		return
	}

	code := q.Get("code")
	if code == "" {
		if c.isRedirectTarget(u) {
			c.failLocked(spoterr.Protocol("No valid access code"), StatusWarning, n)
		}
		return
	}

	if q.Get("state") != c.oauthState {
		c.failLocked(spoterr.Protocol("state mismatch"), StatusWarning, n)
		return
	}

	c.state = StateExchanging
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.exchange(ctx, c.generation, code)
}

// isRedirectTarget reports whether u is the configured redirect URI.
func (c *Controller) isRedirectTarget(u *url.URL) bool {
	target, err := url.Parse(c.auth.RedirectURI())
	if err != nil || target.Host == "" {
		return false
	}
	return strings.EqualFold(u.Scheme, target.Scheme) &&
		strings.EqualFold(u.Host, target.Host) &&
		strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(target.Path, "/")
}

// exchange trades the code off the UI context and delivers the result on it.
func (c *Controller) exchange(ctx context.Context, generation int, code string) {
	token, err := c.auth.ExchangeCode(ctx, code)
	c.dispatcher.Dispatch(func() {
		c.finishExchange(generation, token, err)
	})
}

// finishExchange applies an exchange result unless the flow moved on.
func (c *Controller) finishExchange(generation int, token *spotify.Token, err error) {
	var n notify

	c.mu.Lock()
	if c.generation != generation || c.state != StateExchanging {
		c.mu.Unlock()
		log.Debug("[Login] Dropping exchange result for closed login")
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err != nil {
		log.WithError(err).Warn("[Login] Code exchange failed")
		c.failLocked(err, StatusError, &n)
		c.mu.Unlock()
		n.send(c.dispatcher)
		return
	}

	c.state = StateSucceeded
	c.token = token
	c.setStatusLocked(StatusSuccess, &n)
	n = append(n, func() { c.observer.DidLogin(c, token) })
	c.mu.Unlock()

	log.Info("[Login] Logged in")
	n.send(c.dispatcher)
	c.Hide()
}
