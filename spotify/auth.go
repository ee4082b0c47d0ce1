//
// Date: 2025-12-15
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: OAuth manager. Builds authorization URLs, runs the code,
// refresh and client credentials grants, and persists the resulting token.
//

package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
	"github.com/cloudmanic/spotify-auth-kit/storage"
)

// DefaultTimeout bounds every token endpoint call.
const DefaultTimeout = 30 * time.Second

// ErrTokenExpired is returned by ValidToken when the stored token is expired
// and no grant can renew it without the user.
var ErrTokenExpired = errors.New("spotify: token expired and cannot be refreshed")

// Manager runs the token lifecycle for one client configuration.
type Manager struct {
	cfg        Config
	store      storage.Store
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithHTTPClient sets the client used for token endpoint calls.
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		m.httpClient = c
	}
}

// WithClock sets the time source used to stamp expiry dates.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager returns a manager that persists tokens to store. A nil store
// keeps tokens in memory.
func NewManager(cfg Config, store storage.Store, opts ...Option) *Manager {
	if store == nil {
		store = storage.NewMemoryStore()
	}
	m := &Manager{
		cfg:        cfg.withDefaults(),
		store:      store,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// RedirectURI returns the configured redirect target.
func (m *Manager) RedirectURI() string {
	return m.cfg.RedirectURI
}

// oauthConfig builds the three-legged oauth2 configuration.
func (m *Manager) oauthConfig(scopes []string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		RedirectURL:  m.cfg.RedirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   m.cfg.AuthURL,
			TokenURL:  m.cfg.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// httpContext attaches the manager's HTTP client for oauth2 to use.
func (m *Manager) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)
}

// AuthorizationURL builds the URL the user visits to grant access. With no
// scopes the default set is requested. forceReauth asks the server to show
// the consent dialog even if the user approved before.
func (m *Manager) AuthorizationURL(scopes []string, state string, forceReauth bool) (string, error) {
	if err := m.cfg.validate(false, true); err != nil {
		return "", err
	}
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	var opts []oauth2.AuthCodeOption
	if forceReauth {
		opts = append(opts, oauth2.SetAuthURLParam("show_dialog", "true"))
	}

	// url.Values encodes spaces as "+"; the authorize endpoint wants %20.
	// A literal "+" in any value is already escaped as %2B.
	raw := m.oauthConfig(scopes).AuthCodeURL(state, opts...)
	return strings.ReplaceAll(raw, "+", "%20"), nil
}

// ExchangeCode trades an authorization code for a token and persists it.
func (m *Manager) ExchangeCode(ctx context.Context, code string) (*Token, error) {
	if err := m.cfg.validate(true, true); err != nil {
		return nil, err
	}
	if code == "" {
		return nil, spoterr.Protocol("authorization code is empty")
	}

	log.Info("[Auth] Exchanging authorization code for token")
	tok, err := m.oauthConfig(nil).Exchange(m.httpContext(ctx), code)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return m.finish(ctx, tok, KindAuthorizationCode)
}

// RefreshToken trades a refresh token for a new access token and persists
// it. The old refresh token is kept when the response omits one.
func (m *Manager) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	if err := m.cfg.validate(true, false); err != nil {
		return nil, err
	}
	if refreshToken == "" {
		return nil, spoterr.Protocol("refresh token is empty")
	}

	log.Info("[Auth] Refreshing access token")
	src := m.oauthConfig(nil).TokenSource(m.httpContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return m.finish(ctx, tok, KindRefresh)
}

// ClientCredentialsToken fetches an app-only token with no user context.
func (m *Manager) ClientCredentialsToken(ctx context.Context) (*Token, error) {
	if err := m.cfg.validate(true, false); err != nil {
		return nil, err
	}

	log.Info("[Auth] Requesting client credentials token")
	cc := &clientcredentials.Config{
		ClientID:     m.cfg.ClientID,
		ClientSecret: m.cfg.ClientSecret,
		TokenURL:     m.cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tok, err := cc.Token(m.httpContext(ctx))
	if err != nil {
		return nil, classifyTokenError(err)
	}
	return m.finish(ctx, tok, KindClientCredentials)
}

// finish converts and persists a token. A failed save is logged, not returned.
func (m *Manager) finish(ctx context.Context, tok *oauth2.Token, grant TokenKind) (*Token, error) {
	token, err := tokenFromOAuth2(tok, grant, m.now())
	if err != nil {
		return nil, err
	}

	if err := m.SaveToken(ctx, token); err != nil {
		log.WithError(err).Warn("[Auth] Failed to save token")
	}

	log.WithFields(log.Fields{
		"kind":    token.Kind,
		"expires": token.ExpiryDate.Format(time.RFC3339),
	}).Info("[Auth] Token issued")
	return token, nil
}

// SaveToken persists token under the configured key.
func (m *Manager) SaveToken(ctx context.Context, token *Token) error {
	blob, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := m.store.Save(ctx, m.cfg.TokenKey, blob); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken restores the persisted token.
func (m *Manager) LoadToken(ctx context.Context) (*Token, error) {
	blob, err := m.store.Load(ctx, m.cfg.TokenKey)
	if err != nil {
		return nil, err
	}
	var token Token
	if err := json.Unmarshal(blob, &token); err != nil {
		return nil, spoterr.Decode("invalid stored token", err)
	}
	return &token, nil
}

// ValidToken returns the stored token, renewing it first when it is expired
// or about to expire.
func (m *Manager) ValidToken(ctx context.Context) (*Token, error) {
	token, err := m.LoadToken(ctx)
	if err != nil {
		return nil, err
	}
	if !token.Expired(m.now()) {
		return token, nil
	}

	switch {
	case token.RefreshToken != "":
		return m.RefreshToken(ctx, token.RefreshToken)
	case token.Kind == KindClientCredentials:
		return m.ClientCredentialsToken(ctx)
	}
	return nil, ErrTokenExpired
}

// Logout forgets the stored token.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Delete(ctx, m.cfg.TokenKey); err != nil {
		return fmt.Errorf("failed to remove token: %w", err)
	}
	log.Info("[Auth] Token removed")
	return nil
}

// TokenSource returns an oauth2 token source backed by ValidToken, so API
// clients pick up refreshed tokens.
func (m *Manager) TokenSource(ctx context.Context) oauth2.TokenSource {
	return oauth2.ReuseTokenSource(nil, &managerSource{ctx: ctx, m: m})
}

type managerSource struct {
	ctx context.Context
	m   *Manager
}

// Token implements oauth2.TokenSource.
func (s *managerSource) Token() (*oauth2.Token, error) {
	token, err := s.m.ValidToken(s.ctx)
	if err != nil {
		return nil, err
	}
	return token.OAuth2(), nil
}

// classifyTokenError maps an oauth2 failure onto an error kind.
func classifyTokenError(err error) error {
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		status := 0
		if rerr.Response != nil {
			status = rerr.Response.StatusCode
		}
		if rerr.ErrorCode != "" {
			return spoterr.API(status, rerr.ErrorCode, rerr.ErrorDescription)
		}
		return vendorError(status, rerr.Body)
	}

	var uerr *url.Error
	if errors.As(err, &uerr) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return spoterr.Transport("token request failed", err)
	}
	return spoterr.Decode("invalid token response", err)
}
