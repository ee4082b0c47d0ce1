//
// Date: 2025-12-09
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Commands for the OAuth token lifecycle.
//

package main

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
	"github.com/cloudmanic/spotify-auth-kit/dispatch"
	"github.com/cloudmanic/spotify-auth-kit/login"
	"github.com/cloudmanic/spotify-auth-kit/spotify"
	"github.com/cloudmanic/spotify-auth-kit/storage"
)

// loginResult is the outcome of one login flow.
type loginResult struct {
	token *spotify.Token
	err   error
}

// newLoginCmd runs the authorization code flow through a local callback server.
func newLoginCmd(a *app) *cobra.Command {
	var scopes []string
	var force bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in through the browser and store the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			token, err := authenticate(ctx, a, scopes, force)
			if err != nil {
				return err
			}
			printToken(a.out, token)

			client, err := a.apiClient(ctx)
			if err != nil {
				return err
			}
			profile := &catalog.Profile{CacheKey: profileKey, Store: a.store}
			if err := client.CurrentUser(ctx, profile); err != nil {
				log.WithError(err).Warn("Logged in but failed to fetch profile")
				return nil
			}
			fmt.Fprintf(a.out, "Authenticated as: %s\n", profile.DisplayName)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "scopes to request (default streaming,user-read-email,playlist-read-private,user-read-private)")
	cmd.Flags().BoolVar(&force, "force", false, "always show the consent dialog")
	return cmd
}

// authenticate shows the authorization page and waits for the redirect.
func authenticate(ctx context.Context, a *app, scopes []string, force bool) (*spotify.Token, error) {
	surface, err := login.NewLoopbackSurface(a.manager.RedirectURI(), a.out)
	if err != nil {
		return nil, err
	}

	loop := dispatch.NewLoop()
	defer loop.Close()

	done := make(chan loginResult, 1)
	report := func(r loginResult) {
		select {
		case done <- r:
		default:
		}
	}

	opts := []login.Option{login.WithScopes(scopes...), login.WithDispatcher(loop)}
	if force {
		opts = append(opts, login.WithForceReauth())
	}

	c := login.NewController(a.manager, surface, login.Hooks{
		OnStatus: func(c *login.Controller, s login.Status) {
			s.Color().Fprintf(a.out, "Login %s\n", s)
		},
		OnLogin: func(c *login.Controller, token *spotify.Token) {
			report(loginResult{token: token})
		},
		OnFail: func(c *login.Controller, err error) {
			report(loginResult{err: err})
		},
	}, opts...)

	if err := c.Show(ctx); err != nil {
		return nil, err
	}
	defer c.Hide()

	select {
	case r := <-done:
		return r.token, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// newRefreshCmd trades the stored refresh token for a new access token.
func newRefreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			current, err := a.manager.LoadToken(ctx)
			if err != nil {
				return fmt.Errorf("no stored token, run login first: %w", err)
			}
			if current.RefreshToken == "" {
				return errors.New("stored token has no refresh token")
			}

			token, err := a.manager.RefreshToken(ctx, current.RefreshToken)
			if err != nil {
				return err
			}
			printToken(a.out, token)
			return nil
		},
	}
}

// newClientTokenCmd gets an app only token with the client credentials grant.
func newClientTokenCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "client-token",
		Short: "Get a token without a user, for catalog lookups",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := a.manager.ClientCredentialsToken(cmd.Context())
			if err != nil {
				return err
			}
			printToken(a.out, token)
			return nil
		},
	}
}

// newLogoutCmd removes the stored token and profile.
func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored token and profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if err := a.manager.Logout(ctx); err != nil {
				return err
			}
			if err := a.store.Delete(ctx, profileKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
				log.WithError(err).Warn("Failed to remove stored profile")
			}
			fmt.Fprintln(a.out, "Logged out.")
			return nil
		},
	}
}
