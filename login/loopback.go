//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Surface for terminals. Prints the authorization URL for a
// browser and serves the redirect URI on a loopback HTTP server.
//

package login

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// loggingResponseWriter wraps http.ResponseWriter to capture the status code.
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

// WriteHeader captures the status code before writing it.
func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware wraps an http.Handler and logs each request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(lrw, r)

		log.Infof("[Login:HTTP] %s %s %d %s", r.Method, r.URL.Path, lrw.statusCode, time.Since(start))
	})
}

// LoopbackSurface implements Surface with a local callback server.
type LoopbackSurface struct {
	redirect *url.URL
	out      io.Writer

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
	current  *url.URL
	handler  func(NavigationEvent)
}

// NewLoopbackSurface serves redirectURI, which must be an http URL with a
// host and port this machine can listen on. out receives the URL to visit.
func NewLoopbackSurface(redirectURI string, out io.Writer) (*LoopbackSurface, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect uri: %w", err)
	}
	if u.Scheme != "http" || u.Host == "" {
		return nil, fmt.Errorf("redirect uri %q is not a loopback http url", redirectURI)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return &LoopbackSurface{redirect: u, out: out}, nil
}

// SetNavigationHandler implements Surface.
func (s *LoopbackSurface) SetNavigationHandler(fn func(NavigationEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = fn
}

// emit sends ev to the handler outside the lock.
func (s *LoopbackSurface) emit(ev NavigationEvent) {
	s.mu.Lock()
	fn := s.handler
	s.mu.Unlock()
	if fn != nil {
		fn(ev)
	}
}

// Load starts the callback server and prints authURL for the user.
func (s *LoopbackSurface) Load(ctx context.Context, authURL string) error {
	u, err := url.Parse(authURL)
	if err != nil {
		return fmt.Errorf("failed to parse authorization url: %w", err)
	}

	if err := s.listen(); err != nil {
		return err
	}

	s.mu.Lock()
	s.current = u
	s.mu.Unlock()

	s.emit(NavigationEvent{Kind: NavigationStarted, URL: authURL})

	fmt.Fprintln(s.out, "Please visit this URL to authenticate:")
	fmt.Fprintln(s.out, authURL)

	s.emit(NavigationEvent{Kind: NavigationCommitted, URL: authURL})
	return nil
}

// listen starts the server once.
func (s *LoopbackSurface) listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.redirect.Host)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.redirect.Host, err)
	}

	r := mux.NewRouter()
	r.HandleFunc(s.redirect.Path, s.handleCallback).Methods(http.MethodGet)
	r.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugf("[Login:HTTP] Got request for: %s", r.URL.String())
		http.NotFound(w, r)
	})
	r.Use(loggingMiddleware)

	s.listener = ln
	s.server = &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("[Login:HTTP] Callback server stopped")
			s.emit(NavigationEvent{Kind: NavigationFailed, Err: err})
		}
	}(s.server)

	log.Infof("[Login:HTTP] Listening on %s", ln.Addr())
	return nil
}

// handleCallback records the redirect as the current page and reports it finished.
func (s *LoopbackSurface) handleCallback(w http.ResponseWriter, r *http.Request) {
	current := *s.redirect
	current.RawQuery = r.URL.RawQuery

	s.mu.Lock()
	s.current = &current
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain")
	q := r.URL.Query()
	switch {
	case q.Get("error") != "":
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprintf(w, "Authorization failed: %s", q.Get("error"))
	case q.Get("code") == "":
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, "No valid access code")
	default:
		fmt.Fprint(w, "Authentication received! You can close this window.")
	}

	s.emit(NavigationEvent{Kind: NavigationFinished, URL: current.String()})
}

// CurrentURL implements Surface.
func (s *LoopbackSurface) CurrentURL() *url.URL {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// Addr returns the address the server listens on, or "" before Load.
func (s *LoopbackSurface) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// StopLoading shuts the callback server down.
func (s *LoopbackSurface) StopLoading() {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	if srv == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("[Login:HTTP] Callback server shutdown failed")
	}
}
