//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Unit tests for the login flow controller.
//

package login

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
	"github.com/cloudmanic/spotify-auth-kit/spotify"
)

const testRedirect = "https://example.com/callback"

// MockAuthenticator is a mock implementation of spotify.Authenticator for testing.
type MockAuthenticator struct {
	// AuthorizationURL mock
	AuthorizationURLFunc func(scopes []string, state string, forceReauth bool) (string, error)

	// ExchangeCode mock
	ExchangeCodeFunc func(ctx context.Context, code string) (*spotify.Token, error)

	Redirect string
}

// AuthorizationURL implements the mock.
func (m *MockAuthenticator) AuthorizationURL(scopes []string, state string, forceReauth bool) (string, error) {
	if m.AuthorizationURLFunc != nil {
		return m.AuthorizationURLFunc(scopes, state, forceReauth)
	}
	return "https://accounts.example.com/authorize?state=" + state, nil
}

// ExchangeCode implements the mock.
func (m *MockAuthenticator) ExchangeCode(ctx context.Context, code string) (*spotify.Token, error) {
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, code)
	}
	return &spotify.Token{AccessToken: "T", Kind: spotify.KindAuthorizationCode}, nil
}

// RedirectURI implements the mock.
func (m *MockAuthenticator) RedirectURI() string {
	if m.Redirect == "" {
		return testRedirect
	}
	return m.Redirect
}

// MockSurface is a surface whose current URL is set by the test.
type MockSurface struct {
	mu      sync.Mutex
	loaded  []string
	current *url.URL
	stopped int
	handler func(NavigationEvent)
	LoadErr error
}

// Load implements Surface.
func (s *MockSurface) Load(ctx context.Context, u string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return s.LoadErr
	}
	s.loaded = append(s.loaded, u)
	s.current, _ = url.Parse(u)
	return nil
}

// CurrentURL implements Surface.
func (s *MockSurface) CurrentURL() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// StopLoading implements Surface.
func (s *MockSurface) StopLoading() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped++
}

// SetNavigationHandler implements Surface.
func (s *MockSurface) SetNavigationHandler(fn func(NavigationEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// navigate moves the surface to raw and reports the page finished.
func (s *MockSurface) navigate(raw string) {
	u, _ := url.Parse(raw)
	s.mu.Lock()
	if raw == "" {
		u = nil
	}
	s.current = u
	fn := s.handler
	s.mu.Unlock()
	fn(NavigationEvent{Kind: NavigationFinished, URL: raw})
}

// recorder collects observer callbacks.
type recorder struct {
	mu       sync.Mutex
	events   []string
	statuses []Status
	token    *spotify.Token
	err      error
	closed   chan struct{}
	failed   chan struct{}
}

func newRecorder() *recorder {
	return &recorder{closed: make(chan struct{}, 1), failed: make(chan struct{}, 1)}
}

func (r *recorder) hooks() Hooks {
	return Hooks{
		OnShow: func(c *Controller) { r.add("show") },
		OnClose: func(c *Controller) {
			r.add("close")
			r.closed <- struct{}{}
		},
		OnLogin: func(c *Controller, token *spotify.Token) {
			r.mu.Lock()
			r.token = token
			r.mu.Unlock()
			r.add("login")
		},
		OnFail: func(c *Controller, err error) {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			r.add("fail")
			r.failed <- struct{}{}
		},
		OnStatus: func(c *Controller, s Status) {
			r.mu.Lock()
			r.statuses = append(r.statuses, s)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// wait blocks on ch or fails the test.
func wait(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
	}
}

// newTestController builds a controller with a fixed oauth state.
func newTestController(auth *MockAuthenticator, surface Surface, rec *recorder) *Controller {
	return NewController(auth, surface, rec.hooks(),
		WithScopes("user-read-email"),
		WithStateGenerator(func() string { return "st" }))
}

// TestShow_Success tests that the authorize page is loaded with the state.
func TestShow_Success(t *testing.T) {
	var gotScopes []string
	auth := &MockAuthenticator{
		AuthorizationURLFunc: func(scopes []string, state string, force bool) (string, error) {
			gotScopes = scopes
			assert.Equal(t, "st", state)
			assert.False(t, force)
			return "https://accounts.example.com/authorize?state=" + state, nil
		},
	}
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(auth, surface, rec)

	require.NoError(t, c.Show(context.Background()))
	assert.Equal(t, StateShowing, c.State())
	assert.Equal(t, StatusPending, c.Status())
	assert.Equal(t, []string{"user-read-email"}, gotScopes)
	assert.Equal(t, []string{"https://accounts.example.com/authorize?state=st"}, surface.loaded)
	assert.Equal(t, []string{"show"}, rec.snapshot())

	assert.ErrorIs(t, c.Show(context.Background()), ErrInProgress)
}

// TestShow_MissingConfiguration tests that an unbuildable URL fails immediately.
func TestShow_MissingConfiguration(t *testing.T) {
	auth := &MockAuthenticator{
		AuthorizationURLFunc: func([]string, string, bool) (string, error) {
			return "", spoterr.Configuration("spotify client id not set")
		},
	}
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(auth, surface, rec)

	err := c.Show(context.Background())
	assert.True(t, spoterr.Is(err, spoterr.KindConfiguration))
	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, StatusError, c.Status())
	assert.Empty(t, surface.loaded)
	assert.Equal(t, []string{"fail"}, rec.snapshot())
}

// TestShow_LoadError tests a surface that cannot load the page.
func TestShow_LoadError(t *testing.T) {
	surface := &MockSurface{LoadErr: errors.New("offline")}
	rec := newRecorder()
	c := newTestController(&MockAuthenticator{}, surface, rec)

	require.Error(t, c.Show(context.Background()))
	assert.Equal(t, StateFailed, c.State())
	assert.True(t, spoterr.Is(c.Err(), spoterr.KindTransport))
}

// TestNavigation_Success tests the redirect carrying a code.
func TestNavigation_Success(t *testing.T) {
	var gotCode string
	auth := &MockAuthenticator{
		ExchangeCodeFunc: func(ctx context.Context, code string) (*spotify.Token, error) {
			gotCode = code
			return &spotify.Token{AccessToken: "T", Kind: spotify.KindAuthorizationCode}, nil
		},
	}
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(auth, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.navigate("https://accounts.example.com/login?continue=1")
	assert.Equal(t, StateShowing, c.State())

	surface.navigate(testRedirect + "?state=st&code=XYZ123")
	wait(t, rec.closed)

	assert.Equal(t, "XYZ123", gotCode)
	assert.Equal(t, StateClosed, c.State())
	assert.Equal(t, StatusSuccess, c.Status())
	assert.Equal(t, "T", c.Token().AccessToken)
	assert.Equal(t, []string{"show", "login", "close"}, rec.snapshot())
	assert.Equal(t, []Status{StatusPending, StatusSuccess}, rec.statuses)
	assert.Equal(t, 1, surface.stopped)
}

// TestNavigation_CodeBeforeState tests that the code is found by name, not position.
func TestNavigation_CodeBeforeState(t *testing.T) {
	var gotCode string
	auth := &MockAuthenticator{
		ExchangeCodeFunc: func(ctx context.Context, code string) (*spotify.Token, error) {
			gotCode = code
			return &spotify.Token{AccessToken: "T"}, nil
		},
	}
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(auth, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.navigate(testRedirect + "?code=abc&state=st")
	wait(t, rec.closed)
	assert.Equal(t, "abc", gotCode)
}

// TestNavigation_RedirectWithoutCode tests the redirect target missing a code.
func TestNavigation_RedirectWithoutCode(t *testing.T) {
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(&MockAuthenticator{}, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.navigate(testRedirect + "/?state=st")

	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, StatusWarning, c.Status())
	assert.True(t, spoterr.Is(c.Err(), spoterr.KindProtocol))
}

// TestNavigation_NoAddress tests a finished navigation with no URL.
func TestNavigation_NoAddress(t *testing.T) {
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(&MockAuthenticator{}, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.navigate("")
	assert.Equal(t, StatusWarning, c.Status())
	assert.Contains(t, c.Err().Error(), "No valid address")
}

// TestNavigation_Denied tests the error pair sent when the user denies access.
func TestNavigation_Denied(t *testing.T) {
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(&MockAuthenticator{}, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.navigate(testRedirect + "?error=access_denied&error_description=User+denied&state=st")

	var serr *spoterr.Error
	require.ErrorAs(t, c.Err(), &serr)
	assert.Equal(t, spoterr.KindAPI, serr.Kind)
	assert.Equal(t, "access_denied", serr.Message)
	assert.Equal(t, "User denied", serr.Description)
	assert.Equal(t, StatusError, c.Status())
}

// TestNavigation_StateMismatch tests a redirect with a foreign state.
func TestNavigation_StateMismatch(t *testing.T) {
	called := false
	auth := &MockAuthenticator{
		ExchangeCodeFunc: func(ctx context.Context, code string) (*spotify.Token, error) {
			called = true
			return nil, nil
		},
	}
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(auth, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.navigate(testRedirect + "?code=abc&state=other")
	assert.Equal(t, StateFailed, c.State())
	assert.True(t, spoterr.Is(c.Err(), spoterr.KindProtocol))
	assert.False(t, called)
}

// TestNavigation_Failed tests that a surface error fails the flow.
func TestNavigation_Failed(t *testing.T) {
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(&MockAuthenticator{}, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.handler(NavigationEvent{Kind: NavigationFailed, Err: errors.New("dns")})
	assert.Equal(t, StateFailed, c.State())
	assert.True(t, spoterr.Is(c.Err(), spoterr.KindTransport))

	surface.navigate(testRedirect + "?code=abc&state=st")
	assert.Equal(t, StateFailed, c.State())
}

// TestNavigation_ExchangeError tests a failing code exchange.
func TestNavigation_ExchangeError(t *testing.T) {
	auth := &MockAuthenticator{
		ExchangeCodeFunc: func(ctx context.Context, code string) (*spotify.Token, error) {
			return nil, spoterr.API(400, "invalid_grant", "Invalid authorization code")
		},
	}
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(auth, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.navigate(testRedirect + "?code=bad&state=st")
	wait(t, rec.failed)

	assert.Equal(t, StateFailed, c.State())
	assert.Equal(t, StatusError, c.Status())
	assert.True(t, spoterr.Is(c.Err(), spoterr.KindAPI))
	assert.Equal(t, 0, surface.stopped)
}

// TestHide_CancelsExchange tests that closing drops a late exchange result.
func TestHide_CancelsExchange(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})
	auth := &MockAuthenticator{
		ExchangeCodeFunc: func(ctx context.Context, code string) (*spotify.Token, error) {
			close(started)
			<-ctx.Done()
			defer close(finished)
			return nil, ctx.Err()
		},
	}
	surface := &MockSurface{}
	rec := newRecorder()
	c := newTestController(auth, surface, rec)
	require.NoError(t, c.Show(context.Background()))

	surface.navigate(testRedirect + "?code=abc&state=st")
	wait(t, started)
	assert.Equal(t, StateExchanging, c.State())

	c.Hide()
	wait(t, finished)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, StateClosed, c.State())
	assert.Nil(t, c.Err())
	assert.Equal(t, []string{"show", "close"}, rec.snapshot())
	assert.Equal(t, 1, surface.stopped)

	c.Hide()
	assert.Equal(t, 1, surface.stopped)
}

// TestStatusStrings tests status names and colours.
func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "warning", StatusWarning.String())
	assert.Equal(t, "#1DB954", StatusSuccess.Hex())
	assert.Equal(t, "#FFFFFF", Status(42).Hex())
	assert.NotNil(t, StatusError.Color())
	assert.Equal(t, "exchanging", StateExchanging.String())
}
