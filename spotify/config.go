//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: OAuth client configuration, endpoints and scopes.
//

package spotify

import (
	"strings"

	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
)

const (
	DefaultRedirectURI = "http://127.0.0.1:8080/callback"
	DefaultTokenKey    = "spotify.token"
	DefaultAPIBaseURL  = "https://api.spotify.com/v1/"
)

// DefaultScopes are requested when the caller asks for none.
var DefaultScopes = []string{
	spotifyauth.ScopeStreaming,
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopeUserReadPrivate,
}

// AvailableScopes lists every scope the authorization server accepts.
var AvailableScopes = []string{
	spotifyauth.ScopeImageUpload,
	spotifyauth.ScopeUserReadPlaybackState,
	spotifyauth.ScopeUserModifyPlaybackState,
	spotifyauth.ScopeUserReadCurrentlyPlaying,
	spotifyauth.ScopeStreaming,
	"app-remote-control",
	spotifyauth.ScopeUserReadEmail,
	spotifyauth.ScopeUserReadPrivate,
	spotifyauth.ScopePlaylistReadCollaborative,
	spotifyauth.ScopePlaylistModifyPublic,
	spotifyauth.ScopePlaylistReadPrivate,
	spotifyauth.ScopePlaylistModifyPrivate,
	spotifyauth.ScopeUserLibraryModify,
	spotifyauth.ScopeUserLibraryRead,
	spotifyauth.ScopeUserTopRead,
	"user-read-playback-position",
	spotifyauth.ScopeUserReadRecentlyPlayed,
	spotifyauth.ScopeUserFollowRead,
	spotifyauth.ScopeUserFollowModify,
}

// Config holds the client credentials. Build one at startup and pass it to NewManager.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// TokenKey is the storage key the token is persisted under.
	TokenKey string

	// AuthURL and TokenURL override the vendor endpoints, mostly for tests.
	AuthURL  string
	TokenURL string
}

// withDefaults fills unset endpoints and keys.
func (c Config) withDefaults() Config {
	if c.TokenKey == "" {
		c.TokenKey = DefaultTokenKey
	}
	if c.AuthURL == "" {
		c.AuthURL = spotifyauth.AuthURL
	}
	if c.TokenURL == "" {
		c.TokenURL = spotifyauth.TokenURL
	}
	return c
}

// validate checks the fields every flow needs. The secret is only needed
// by token exchanges, not by authorization URLs.
func (c Config) validate(needSecret, needRedirect bool) error {
	var missing []string
	if c.ClientID == "" {
		missing = append(missing, "client id")
	}
	if needSecret && c.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if needRedirect && c.RedirectURI == "" {
		missing = append(missing, "redirect uri")
	}
	if len(missing) > 0 {
		return spoterr.Configuration("spotify " + strings.Join(missing, ", ") + " not set")
	}
	return nil
}
