//
// Date: 2025-12-18
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: The web surface the login flow drives, and the callbacks it reports.
//

package login

import (
	"context"
	"net/url"

	"github.com/cloudmanic/spotify-auth-kit/spotify"
)

// NavigationKind is a page load lifecycle step.
type NavigationKind int

const (
	NavigationStarted NavigationKind = iota
	NavigationCommitted
	NavigationFinished
	NavigationFailed
)

// String returns the name of the kind.
func (k NavigationKind) String() string {
	switch k {
	case NavigationStarted:
		return "started"
	case NavigationCommitted:
		return "committed"
	case NavigationFinished:
		return "finished"
	case NavigationFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// NavigationEvent is reported by a Surface. Err is set for NavigationFailed.
type NavigationEvent struct {
	Kind NavigationKind
	URL  string
	Err  error
}

// Surface renders the authorization pages. An embedded web view, a browser
// plus loopback server, or a test fake all fit.
type Surface interface {
	Load(ctx context.Context, u string) error
	CurrentURL() *url.URL
	StopLoading()
	SetNavigationHandler(fn func(NavigationEvent))
}

// Observer receives the outcome of a login.
type Observer interface {
	DidShow(c *Controller)
	DidClose(c *Controller)
	DidLogin(c *Controller, token *spotify.Token)
	DidFail(c *Controller, err error)
	DidChangeStatus(c *Controller, status Status)
}

// Hooks implements Observer with optional functions.
type Hooks struct {
	OnShow   func(c *Controller)
	OnClose  func(c *Controller)
	OnLogin  func(c *Controller, token *spotify.Token)
	OnFail   func(c *Controller, err error)
	OnStatus func(c *Controller, status Status)
}

// DidShow implements Observer.
func (h Hooks) DidShow(c *Controller) {
	if h.OnShow != nil {
		h.OnShow(c)
	}
}

// DidClose implements Observer.
func (h Hooks) DidClose(c *Controller) {
	if h.OnClose != nil {
		h.OnClose(c)
	}
}

// DidLogin implements Observer.
func (h Hooks) DidLogin(c *Controller, token *spotify.Token) {
	if h.OnLogin != nil {
		h.OnLogin(c, token)
	}
}

// DidFail implements Observer.
func (h Hooks) DidFail(c *Controller, err error) {
	if h.OnFail != nil {
		h.OnFail(c, err)
	}
}

// DidChangeStatus implements Observer.
func (h Hooks) DidChangeStatus(c *Controller, status Status) {
	if h.OnStatus != nil {
		h.OnStatus(c, status)
	}
}
