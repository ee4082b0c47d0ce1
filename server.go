//
// Date: 2025-12-09
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: HTTP API server and request handlers.
//

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
	"github.com/cloudmanic/spotify-auth-kit/spoterr"
	"github.com/cloudmanic/spotify-auth-kit/spotify"
	"github.com/cloudmanic/spotify-auth-kit/storage"
)

// stateTTL is how long an /auth redirect may take to come back.
const stateTTL = 10 * time.Minute

// apiServer serves login and catalog lookups over HTTP.
type apiServer struct {
	auth        spotify.Authenticator
	client      clientFunc
	store       storage.Store
	accessToken string
	now         func() time.Time

	mu     sync.Mutex
	states map[string]time.Time
}

// newServeCmd starts the HTTP API server.
func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve login and catalog lookups over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.HTTP.AccessToken == "" {
				return errors.New("API_ACCESS_TOKEN is required to serve")
			}

			s := newAPIServer(a.manager, a.apiClient, a.store, a.cfg.HTTP.AccessToken)
			srv := &http.Server{
				Addr:              ":" + a.cfg.HTTP.Port,
				Handler:           s.routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			fmt.Fprintf(a.out, "Starting API server on port %s...\n", a.cfg.HTTP.Port)
			fmt.Fprintln(a.out, "Endpoints:")
			fmt.Fprintln(a.out, "  GET /auth?token=<token>")
			fmt.Fprintln(a.out, "  GET /api/v1/me")
			fmt.Fprintln(a.out, "  GET /api/v1/tracks/<id>")
			fmt.Fprintln(a.out, "  GET /api/v1/albums/<id>")
			fmt.Fprintln(a.out, "  GET /api/v1/artists/<id>")

			go func() {
				<-cmd.Context().Done()
				srv.Close()
			}()

			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("failed to start API server: %w", err)
			}
			return nil
		},
	}
}

// newAPIServer returns a server guarded by accessToken.
func newAPIServer(auth spotify.Authenticator, client clientFunc, store storage.Store, accessToken string) *apiServer {
	return &apiServer{
		auth:        auth,
		client:      client,
		store:       store,
		accessToken: accessToken,
		now:         time.Now,
		states:      map[string]time.Time{},
	}
}

// routes builds the router.
func (s *apiServer) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRootRequest).Methods(http.MethodGet)
	r.Handle("/auth", s.requireToken(http.HandlerFunc(s.handleAuthRequest))).Methods(http.MethodGet)
	r.HandleFunc("/callback", s.handleAuthCallback).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(s.requireToken)
	api.HandleFunc("/me", s.handleMeRequest).Methods(http.MethodGet)
	api.HandleFunc("/tracks/{id}", s.handleTrackRequest).Methods(http.MethodGet)
	api.HandleFunc("/albums/{id}", s.handleAlbumRequest).Methods(http.MethodGet)
	api.HandleFunc("/artists/{id}", s.handleArtistRequest).Methods(http.MethodGet)
	return r
}

// writeJSON writes resp with status.
func writeJSON(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.WithError(err).Warn("Failed to write API response")
	}
}

// writeError maps err onto a status code.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var serr *spoterr.Error
	switch {
	case errors.As(err, &serr) && serr.Kind == spoterr.KindAPI && serr.Code >= 400 && serr.Code < 600:
		status = serr.Code
	case spoterr.Is(err, spoterr.KindTransport):
		status = http.StatusBadGateway
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, spotify.ErrTokenExpired):
		status = http.StatusUnauthorized
	}
	writeJSON(w, status, APIResponse{Success: false, Error: err.Error()})
}

// requireToken rejects requests without the API access token.
func (s *apiServer) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}

		if token != s.accessToken {
			writeJSON(w, http.StatusUnauthorized, APIResponse{
				Success: false,
				Error:   "Invalid or missing access token",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleRootRequest handles requests to the root path with a simple message.
func (s *apiServer) handleRootRequest(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "spotify auth kit")
}

// handleAuthRequest redirects the user to Spotify's authorization page.
func (s *apiServer) handleAuthRequest(w http.ResponseWriter, r *http.Request) {
	force := strings.ToLower(r.URL.Query().Get("force")) == "true"
	state := uuid.NewString()

	url, err := s.auth.AuthorizationURL(nil, state, force)
	if err != nil {
		writeError(w, err)
		return
	}

	s.mu.Lock()
	s.states[state] = s.now().Add(stateTTL)
	s.mu.Unlock()

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// takeState consumes a pending state, reporting whether it was valid.
func (s *apiServer) takeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, exp := range s.states {
		if now.After(exp) {
			delete(s.states, k)
		}
	}

	if _, ok := s.states[state]; !ok {
		return false
	}
	delete(s.states, state)
	return true
}

// handleAuthCallback handles the OAuth callback from Spotify after user authorization.
func (s *apiServer) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if !s.takeState(q.Get("state")) {
		http.Error(w, "State mismatch", http.StatusForbidden)
		return
	}
	if e := q.Get("error"); e != "" {
		http.Error(w, "Authorization failed: "+e, http.StatusForbidden)
		return
	}

	code := q.Get("code")
	if code == "" {
		http.Error(w, "No valid access code", http.StatusBadRequest)
		return
	}

	if _, err := s.auth.ExchangeCode(r.Context(), code); err != nil {
		http.Error(w, "Failed to get token: "+err.Error(), http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprint(w, "Authentication successful! You can close this window.")
}

// handleMeRequest returns the logged in user's profile.
func (s *apiServer) handleMeRequest(w http.ResponseWriter, r *http.Request) {
	client, err := s.client(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	profile := &catalog.Profile{CacheKey: profileKey, Store: s.store}
	if err := client.CurrentUser(r.Context(), profile); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: profile})
}

// handleTrackRequest returns a track.
func (s *apiServer) handleTrackRequest(w http.ResponseWriter, r *http.Request) {
	client, err := s.client(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	track, err := client.Track(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: track})
}

// handleAlbumRequest returns an album with every track.
func (s *apiServer) handleAlbumRequest(w http.ResponseWriter, r *http.Request) {
	client, err := s.client(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	album, err := client.Album(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := client.AlbumTracks(r.Context(), album); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: album})
}

// handleArtistRequest returns an artist.
func (s *apiServer) handleArtistRequest(w http.ResponseWriter, r *http.Request) {
	client, err := s.client(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	artist, err := client.Artist(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: artist})
}
