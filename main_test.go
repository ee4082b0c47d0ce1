//
// Date: 2025-12-09
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Unit tests for the command line application.
//

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
	"github.com/cloudmanic/spotify-auth-kit/config"
	"github.com/cloudmanic/spotify-auth-kit/media"
	"github.com/cloudmanic/spotify-auth-kit/spoterr"
	"github.com/cloudmanic/spotify-auth-kit/spotify"
	"github.com/cloudmanic/spotify-auth-kit/storage"
)

const testAccessToken = "secret-api-token"

// MockSpotifyClient is a mock implementation of the spotify.Client interface for testing.
type MockSpotifyClient struct {
	// CurrentUser mock
	CurrentUserFunc func(ctx context.Context, profile *catalog.Profile) error

	// Track mock
	TrackFunc func(ctx context.Context, id string) (*catalog.Track, error)

	// Album mock
	AlbumFunc func(ctx context.Context, id string) (*catalog.Album, error)

	// AlbumTracks mock
	AlbumTracksFunc func(ctx context.Context, album *catalog.Album) error

	// Artist mock
	ArtistFunc func(ctx context.Context, id string) (*catalog.Artist, error)

	// RefreshArtist mock
	RefreshArtistFunc func(ctx context.Context, artist *catalog.Artist) error
}

// CurrentUser fills the profile.
func (m *MockSpotifyClient) CurrentUser(ctx context.Context, profile *catalog.Profile) error {
	if m.CurrentUserFunc != nil {
		return m.CurrentUserFunc(ctx, profile)
	}
	return profile.Update(ctx, []byte(`{"id":"testuser123","display_name":"Test User","followers":{"total":1200}}`))
}

// Track returns a track.
func (m *MockSpotifyClient) Track(ctx context.Context, id string) (*catalog.Track, error) {
	if m.TrackFunc != nil {
		return m.TrackFunc(ctx, id)
	}
	return &catalog.Track{ID: id, Name: "Test Track", Popularity: catalog.UnknownPopularity}, nil
}

// Album returns an album.
func (m *MockSpotifyClient) Album(ctx context.Context, id string) (*catalog.Album, error) {
	if m.AlbumFunc != nil {
		return m.AlbumFunc(ctx, id)
	}
	return &catalog.Album{ID: id, Name: "Test Album", URI: "spotify:album:" + id}, nil
}

// AlbumTracks fills the album's tracks.
func (m *MockSpotifyClient) AlbumTracks(ctx context.Context, album *catalog.Album) error {
	if m.AlbumTracksFunc != nil {
		return m.AlbumTracksFunc(ctx, album)
	}
	album.Tracks = []*catalog.Track{{ID: "t1", Name: "One"}, {ID: "t2", Name: "Two"}}
	return nil
}

// Artist returns an artist.
func (m *MockSpotifyClient) Artist(ctx context.Context, id string) (*catalog.Artist, error) {
	if m.ArtistFunc != nil {
		return m.ArtistFunc(ctx, id)
	}
	return catalog.NewArtist(id, "Test Artist", "spotify:artist:"+id), nil
}

// RefreshArtist updates the artist.
func (m *MockSpotifyClient) RefreshArtist(ctx context.Context, artist *catalog.Artist) error {
	if m.RefreshArtistFunc != nil {
		return m.RefreshArtistFunc(ctx, artist)
	}
	return nil
}

// MockAuthenticator is a mock implementation of the spotify.Authenticator interface for testing.
type MockAuthenticator struct {
	mu    sync.Mutex
	codes []string

	// ExchangeCode mock
	ExchangeCodeFunc func(ctx context.Context, code string) (*spotify.Token, error)
}

// AuthorizationURL returns a fake authorize URL carrying state.
func (m *MockAuthenticator) AuthorizationURL(scopes []string, state string, forceReauth bool) (string, error) {
	return "https://accounts.example.com/authorize?state=" + url.QueryEscape(state), nil
}

// ExchangeCode records the code.
func (m *MockAuthenticator) ExchangeCode(ctx context.Context, code string) (*spotify.Token, error) {
	m.mu.Lock()
	m.codes = append(m.codes, code)
	m.mu.Unlock()
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, code)
	}
	return &spotify.Token{AccessToken: "T"}, nil
}

// RedirectURI returns the callback address.
func (m *MockAuthenticator) RedirectURI() string {
	return "http://127.0.0.1:8080/callback"
}

// newTestServer returns an API server over mock and a memory store.
func newTestServer(auth spotify.Authenticator, mock spotify.Client) (*apiServer, storage.Store) {
	store := storage.NewMemoryStore()
	client := func(ctx context.Context) (spotify.Client, error) {
		if mock == nil {
			return nil, storage.ErrNotFound
		}
		return mock, nil
	}
	return newAPIServer(auth, client, store, testAccessToken), store
}

// get performs a GET against handler.
func get(handler http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

// decode reads an APIResponse.
func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp
}

// TestExtractID tests the extractID function.
func TestExtractID(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		input    string
		expected string
	}{
		{
			name:     "full URL with query params",
			kind:     "track",
			input:    "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=abc123",
			expected: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "full URL without query params",
			kind:     "album",
			input:    "https://open.spotify.com/album/1DFixLWuPkv3KT3TnV35m3",
			expected: "1DFixLWuPkv3KT3TnV35m3",
		},
		{
			name:     "spotify URI",
			kind:     "artist",
			input:    "spotify:artist:0OdUWJ0sBjDrqHygGUXeCF",
			expected: "0OdUWJ0sBjDrqHygGUXeCF",
		},
		{
			name:     "just an ID",
			kind:     "track",
			input:    " 4uLU6hMCjMI75M1A2tKUQC ",
			expected: "4uLU6hMCjMI75M1A2tKUQC",
		},
		{
			name:     "URL of another kind is left alone",
			kind:     "track",
			input:    "https://open.spotify.com/album/abc",
			expected: "https://open.spotify.com/album/abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractID(tt.kind, tt.input)
			if result != tt.expected {
				t.Errorf("extractID(%q, %q) = %q, want %q", tt.kind, tt.input, result, tt.expected)
			}
		})
	}
}

// TestAPIServer_Unauthorized tests requests without the access token.
func TestAPIServer_Unauthorized(t *testing.T) {
	s, _ := newTestServer(&MockAuthenticator{}, &MockSpotifyClient{})
	handler := s.routes()

	for _, target := range []string{"/auth", "/api/v1/me", "/api/v1/tracks/abc?token=wrong"} {
		rec := get(handler, target)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401, got %d", target, rec.Code)
		}
	}
}

// TestAPIServer_Root tests the root path.
func TestAPIServer_Root(t *testing.T) {
	s, _ := newTestServer(&MockAuthenticator{}, nil)
	rec := get(s.routes(), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "spotify auth kit" {
		t.Errorf("unexpected body: %q", rec.Body.String())
	}
}

// TestAPIServer_Track tests the track lookup.
func TestAPIServer_Track(t *testing.T) {
	var gotID string
	mock := &MockSpotifyClient{
		TrackFunc: func(ctx context.Context, id string) (*catalog.Track, error) {
			gotID = id
			return &catalog.Track{ID: id, Name: "Song", PreviewURL: "https://p.scdn.co/mp3-preview/x"}, nil
		},
	}
	s, _ := newTestServer(&MockAuthenticator{}, mock)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tracks/abc123", nil)
	req.Header.Set("Authorization", "Bearer "+testAccessToken)
	rec := httptest.NewRecorder()
	s.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != "abc123" {
		t.Errorf("expected id abc123, got %s", gotID)
	}

	resp := decode(t, rec)
	data, _ := resp.Data.(map[string]interface{})
	if !resp.Success || data["name"] != "Song" || data["preview_url"] != "https://p.scdn.co/mp3-preview/x" {
		t.Errorf("unexpected response: %+v", resp)
	}
}

// TestAPIServer_Me tests that the profile is returned and stored.
func TestAPIServer_Me(t *testing.T) {
	s, store := newTestServer(&MockAuthenticator{}, &MockSpotifyClient{})

	rec := get(s.routes(), "/api/v1/me?token="+testAccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	profile, err := catalog.LoadProfile(context.Background(), store, profileKey)
	if err != nil {
		t.Fatalf("profile not stored: %v", err)
	}
	if profile.DisplayName != "Test User" || profile.Followers != 1200 {
		t.Errorf("unexpected stored profile: %+v", profile)
	}
}

// TestAPIServer_Album tests that album lookups include every track.
func TestAPIServer_Album(t *testing.T) {
	s, _ := newTestServer(&MockAuthenticator{}, &MockSpotifyClient{})

	rec := get(s.routes(), "/api/v1/albums/al1?token="+testAccessToken)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	resp := decode(t, rec)
	data, _ := resp.Data.(map[string]interface{})
	tracks, _ := data["tracks"].([]interface{})
	if len(tracks) != 2 {
		t.Errorf("expected 2 tracks, got %d", len(tracks))
	}
}

// TestAPIServer_Errors tests status codes for failed lookups.
func TestAPIServer_Errors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"vendor not found", spoterr.API(404, "non existing id", ""), http.StatusNotFound},
		{"vendor without status", spoterr.API(0, "invalid_grant", ""), http.StatusInternalServerError},
		{"transport", spoterr.Transport("request failed", errors.New("dial tcp")), http.StatusBadGateway},
		{"expired token", spotify.ErrTokenExpired, http.StatusUnauthorized},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockSpotifyClient{
				ArtistFunc: func(ctx context.Context, id string) (*catalog.Artist, error) {
					return nil, tt.err
				},
			}
			s, _ := newTestServer(&MockAuthenticator{}, mock)

			rec := get(s.routes(), "/api/v1/artists/x?token="+testAccessToken)
			if rec.Code != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, rec.Code)
			}
			if resp := decode(t, rec); resp.Success || resp.Error == "" {
				t.Errorf("expected an error response, got %+v", resp)
			}
		})
	}
}

// TestAPIServer_NotLoggedIn tests lookups before any token is stored.
func TestAPIServer_NotLoggedIn(t *testing.T) {
	s, _ := newTestServer(&MockAuthenticator{}, nil)

	rec := get(s.routes(), "/api/v1/me?token="+testAccessToken)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

// TestAPIServer_AuthFlow tests the redirect and callback.
func TestAPIServer_AuthFlow(t *testing.T) {
	auth := &MockAuthenticator{}
	s, _ := newTestServer(auth, nil)
	handler := s.routes()

	rec := get(handler, "/auth?token="+testAccessToken)
	if rec.Code != http.StatusTemporaryRedirect {
		t.Fatalf("expected 307, got %d", rec.Code)
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil {
		t.Fatalf("bad redirect: %v", err)
	}
	state := loc.Query().Get("state")
	if state == "" {
		t.Fatal("redirect carries no state")
	}

	rec = get(handler, "/callback?code=XYZ123&state="+url.QueryEscape(state))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(auth.codes) != 1 || auth.codes[0] != "XYZ123" {
		t.Errorf("expected code XYZ123 to be exchanged, got %v", auth.codes)
	}

	rec = get(handler, "/callback?code=XYZ123&state="+url.QueryEscape(state))
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected a reused state to be rejected, got %d", rec.Code)
	}
}

// TestAPIServer_CallbackErrors tests callbacks that cannot be exchanged.
func TestAPIServer_CallbackErrors(t *testing.T) {
	auth := &MockAuthenticator{}
	s, _ := newTestServer(auth, nil)
	handler := s.routes()

	start := time.Now()
	s.now = func() time.Time { return start }

	s.states["denied"] = start.Add(stateTTL)
	if rec := get(handler, "/callback?error=access_denied&state=denied"); rec.Code != http.StatusForbidden {
		t.Errorf("denied: expected 403, got %d", rec.Code)
	}

	s.states["nocode"] = start.Add(stateTTL)
	if rec := get(handler, "/callback?state=nocode"); rec.Code != http.StatusBadRequest {
		t.Errorf("no code: expected 400, got %d", rec.Code)
	}

	if rec := get(handler, "/callback?code=abc&state=unknown"); rec.Code != http.StatusForbidden {
		t.Errorf("unknown state: expected 403, got %d", rec.Code)
	}

	s.states["old"] = start.Add(time.Minute)
	s.now = func() time.Time { return start.Add(2 * time.Minute) }
	if rec := get(handler, "/callback?code=abc&state=old"); rec.Code != http.StatusForbidden {
		t.Errorf("expired state: expected 403, got %d", rec.Code)
	}

	if len(auth.codes) != 0 {
		t.Errorf("expected no exchanges, got %v", auth.codes)
	}
}

// TestOpenStore tests store selection.
func TestOpenStore(t *testing.T) {
	for _, driver := range []string{config.DriverMemory, config.DriverFile, config.DriverBolt} {
		t.Run(driver, func(t *testing.T) {
			var cfg config.Config
			cfg.Store.Driver = driver
			cfg.Store.Path = filepath.Join(t.TempDir(), "store")

			store, closer, err := openStore(cfg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if closer != nil {
				defer closer.Close()
			}

			ctx := context.Background()
			if err := store.Save(ctx, "k", []byte("v")); err != nil {
				t.Fatalf("save failed: %v", err)
			}
			blob, err := store.Load(ctx, "k")
			if err != nil || string(blob) != "v" {
				t.Errorf("expected v, got %q (%v)", blob, err)
			}
		})
	}
}

// TestSetupLogging tests log level parsing.
func TestSetupLogging(t *testing.T) {
	if err := setupLogging("debug", ""); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := setupLogging("loud", ""); err == nil {
		t.Error("expected error for unknown level")
	}
	if err := setupLogging("info", filepath.Join(t.TempDir(), "app.log")); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	setupLogging("info", "")
}

// TestPrintTracks tests the track table.
func TestPrintTracks(t *testing.T) {
	var buf bytes.Buffer
	tracks := []*catalog.Track{
		{ID: "t1", Name: "Has Preview", PreviewURL: "https://p.scdn.co/x", DurationMS: 125000, Popularity: 50},
		{ID: "t2", Name: "Locked", Popularity: catalog.UnknownPopularity},
	}
	printTracks(&buf, "Tracks", tracks)

	out := buf.String()
	for _, want := range []string{"Has Preview", "Locked", "2:05", "premium only", "Total tracks: 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

// TestPrintToken tests that secrets are masked.
func TestPrintToken(t *testing.T) {
	var buf bytes.Buffer
	printToken(&buf, &spotify.Token{
		AccessToken: "BQDlongaccesstokenvalue1234",
		Kind:        spotify.KindAuthorizationCode,
		ExpiryDate:  time.Now().Add(time.Hour),
	})

	out := buf.String()
	if strings.Contains(out, "BQDlongaccesstokenvalue1234") {
		t.Error("access token printed in full")
	}
	if !strings.Contains(out, "authorization_code") {
		t.Errorf("expected token type in output:\n%s", out)
	}
}

// MockOutput is a sound device that finishes each clip right away.
type MockOutput struct {
	mu     sync.Mutex
	played []media.Source

	// Play mock
	PlayFunc func(src media.Source) error
}

// Play records src and reports the clip finished.
func (m *MockOutput) Play(src media.Source, onDone func(error)) error {
	if m.PlayFunc != nil {
		if err := m.PlayFunc(src); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.played = append(m.played, src)
	m.mu.Unlock()
	go func() {
		time.Sleep(10 * time.Millisecond)
		onDone(nil)
	}()
	return nil
}

func (m *MockOutput) Pause()                  {}
func (m *MockOutput) Resume()                 {}
func (m *MockOutput) Stop()                   {}
func (m *MockOutput) Position() time.Duration { return 0 }
func (m *MockOutput) Duration() time.Duration { return 30 * time.Second }

// TestPlayTrack_Library tests playing a local file to the end.
func TestPlayTrack_Library(t *testing.T) {
	var buf bytes.Buffer
	out := &MockOutput{}
	track := catalog.NewLibraryTrack("", "Local Song", "/music/local.mp3", 0)

	if err := playTrack(context.Background(), &buf, track, out, media.NewCache()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.played) != 1 || out.played[0].Path != "/music/local.mp3" {
		t.Errorf("unexpected played sources: %+v", out.played)
	}
	if !strings.Contains(buf.String(), "Playing Local Song") {
		t.Errorf("expected playing message:\n%s", buf.String())
	}
}

// TestPlayTrack_PremiumRequired tests a track without a preview.
func TestPlayTrack_PremiumRequired(t *testing.T) {
	var buf bytes.Buffer
	out := &MockOutput{}
	track := &catalog.Track{ID: "t1", Name: "Locked"}

	err := playTrack(context.Background(), &buf, track, out, media.NewCache())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if len(out.played) != 0 {
		t.Errorf("expected nothing played, got %+v", out.played)
	}
	if !strings.Contains(buf.String(), "Preview unavailable") {
		t.Errorf("expected unavailable message:\n%s", buf.String())
	}
}
