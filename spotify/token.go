//
// Date: 2025-12-16
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Access token model returned by every grant.
//

package spotify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
)

// TokenKind is the grant a token came from.
type TokenKind string

const (
	KindDefault           TokenKind = "default"
	KindClientCredentials TokenKind = "client_credentials"
	KindAccess            TokenKind = "access_token"
	KindAuthorizationCode TokenKind = "authorization_code"
	KindRefresh           TokenKind = "refresh_token"
)

// expiryLeeway refreshes tokens slightly before they expire.
const expiryLeeway = time.Minute

// ParseTokenKind maps a token_type value to a kind. "Bearer" (what the live
// endpoint sends) and an absent value take the kind of the grant used.
func ParseTokenKind(raw string, grant TokenKind) (TokenKind, error) {
	switch k := TokenKind(raw); k {
	case KindDefault, KindClientCredentials, KindAccess, KindAuthorizationCode, KindRefresh:
		return k, nil
	}
	if raw == "" || strings.EqualFold(raw, "bearer") {
		return grant, nil
	}
	return "", spoterr.Decode(fmt.Sprintf("unknown token type %q", raw), nil)
}

// UnmarshalText rejects unknown kinds when a stored token is read back.
func (k *TokenKind) UnmarshalText(text []byte) error {
	parsed, err := ParseTokenKind(string(text), KindDefault)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Token is an access token plus the data needed to refresh it.
type Token struct {
	AccessToken  string    `json:"access_token"`
	Kind         TokenKind `json:"token_type"`
	Scope        string    `json:"scope"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiryDate   time.Time `json:"expiry_date"`
	RefreshToken string    `json:"refresh_token,omitempty"`
}

// ParseToken decodes a raw token endpoint response.
func ParseToken(data []byte, grant TokenKind, now time.Time) (*Token, error) {
	var raw struct {
		AccessToken  string      `json:"access_token"`
		TokenType    string      `json:"token_type"`
		Scope        string      `json:"scope"`
		ExpiresIn    json.Number `json:"expires_in"`
		RefreshToken string      `json:"refresh_token"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, spoterr.Decode("invalid token json", err)
	}
	if raw.AccessToken == "" {
		return nil, spoterr.Decode("token response has no access_token", nil)
	}

	kind, err := ParseTokenKind(raw.TokenType, grant)
	if err != nil {
		return nil, err
	}

	seconds, _ := raw.ExpiresIn.Int64()
	t := &Token{
		AccessToken:  raw.AccessToken,
		Kind:         kind,
		Scope:        raw.Scope,
		RefreshToken: raw.RefreshToken,
	}
	t.setExpiry(seconds, now)
	return t, nil
}

// tokenFromOAuth2 converts an oauth2 token, reading the vendor fields from
// the raw response.
func tokenFromOAuth2(tok *oauth2.Token, grant TokenKind, now time.Time) (*Token, error) {
	kind, err := ParseTokenKind(tok.TokenType, grant)
	if err != nil {
		return nil, err
	}

	t := &Token{
		AccessToken:  tok.AccessToken,
		Kind:         kind,
		RefreshToken: tok.RefreshToken,
	}
	if scope, ok := tok.Extra("scope").(string); ok {
		t.Scope = scope
	}
	t.setExpiry(extraInt64(tok, "expires_in"), now)
	return t, nil
}

// extraInt64 reads a numeric member of the raw token response.
func extraInt64(tok *oauth2.Token, key string) int64 {
	switch v := tok.Extra(key).(type) {
	case float64:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// setExpiry records the lifetime and the absolute expiry.
func (t *Token) setExpiry(seconds int64, now time.Time) {
	t.ExpiresIn = seconds
	t.ExpiryDate = now.Add(time.Duration(seconds) * time.Second)
}

// Expired reports whether the token is expired or about to be at now.
func (t *Token) Expired(now time.Time) bool {
	return t.AccessToken == "" || !now.Add(expiryLeeway).Before(t.ExpiryDate)
}

// OAuth2 converts the token for use with an oauth2 transport.
func (t *Token) OAuth2() *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		TokenType:    "Bearer",
		RefreshToken: t.RefreshToken,
		Expiry:       t.ExpiryDate,
	}
}
