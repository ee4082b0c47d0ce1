//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Type definitions and interfaces for the Spotify packages.
//

package spotify

import (
	"context"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
)

// Client defines the interface for Web API metadata operations.
// This allows for mocking in tests.
type Client interface {
	CurrentUser(ctx context.Context, profile *catalog.Profile) error
	Track(ctx context.Context, id string) (*catalog.Track, error)
	Album(ctx context.Context, id string) (*catalog.Album, error)
	AlbumTracks(ctx context.Context, album *catalog.Album) error
	Artist(ctx context.Context, id string) (*catalog.Artist, error)
	RefreshArtist(ctx context.Context, artist *catalog.Artist) error
}

// Authenticator is the part of Manager the login flow needs.
type Authenticator interface {
	AuthorizationURL(scopes []string, state string, forceReauth bool) (string, error)
	ExchangeCode(ctx context.Context, code string) (*Token, error)
	RedirectURI() string
}

var (
	_ Client        = (*APIClient)(nil)
	_ Authenticator = (*Manager)(nil)
)
