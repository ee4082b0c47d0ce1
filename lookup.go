//
// Date: 2025-12-09
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Catalog lookup commands and id parsing.
//

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
)

// extractID returns the id from an open.spotify.com URL or a spotify: URI
// of the given kind, or the input as-is if it's already just an ID.
func extractID(kind, input string) string {
	input = strings.TrimSpace(input)

	// A full URL like https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC?si=xxx
	if marker := "spotify.com/" + kind + "/"; strings.Contains(input, marker) {
		parts := strings.SplitN(input, marker, 2)
		id := strings.Split(parts[1], "?")[0]
		return strings.TrimSuffix(id, "/")
	}

	// A URI like spotify:track:4uLU6hMCjMI75M1A2tKUQC
	if prefix := "spotify:" + kind + ":"; strings.HasPrefix(input, prefix) {
		return strings.TrimPrefix(input, prefix)
	}

	return input
}

// newMeCmd shows the logged in user.
func newMeCmd(a *app) *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the logged in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if cached {
				profile, err := catalog.LoadProfile(ctx, a.store, profileKey)
				if err != nil {
					return fmt.Errorf("no stored profile: %w", err)
				}
				printProfile(a.out, profile)
				return nil
			}

			client, err := a.apiClient(ctx)
			if err != nil {
				return err
			}
			profile := &catalog.Profile{CacheKey: profileKey, Store: a.store}
			if err := client.CurrentUser(ctx, profile); err != nil {
				return fmt.Errorf("failed to get user info: %w", err)
			}
			printProfile(a.out, profile)
			return nil
		},
	}

	cmd.Flags().BoolVar(&cached, "cached", false, "show the stored profile without calling the API")
	return cmd
}

// newTrackCmd shows one track.
func newTrackCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "track <id|url|uri>",
		Short: "Show a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.apiClient(ctx)
			if err != nil {
				return err
			}

			track, err := client.Track(ctx, extractID("track", args[0]))
			if err != nil {
				return fmt.Errorf("failed to get track: %w", err)
			}
			printTracks(a.out, "Track", []*catalog.Track{track})
			return nil
		},
	}
}

// newAlbumCmd shows an album with every track.
func newAlbumCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "album <id|url|uri>",
		Short: "Show an album and its tracks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.apiClient(ctx)
			if err != nil {
				return err
			}

			album, err := client.Album(ctx, extractID("album", args[0]))
			if err != nil {
				return fmt.Errorf("failed to get album: %w", err)
			}
			if err := client.AlbumTracks(ctx, album); err != nil {
				return fmt.Errorf("failed to get album tracks: %w", err)
			}
			printAlbum(a.out, album)
			return nil
		},
	}
}

// newArtistCmd shows an artist.
func newArtistCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "artist <id|url|uri>",
		Short: "Show an artist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			client, err := a.apiClient(ctx)
			if err != nil {
				return err
			}

			artist, err := client.Artist(ctx, extractID("artist", args[0]))
			if err != nil {
				return fmt.Errorf("failed to get artist: %w", err)
			}
			printArtist(a.out, artist)
			return nil
		},
	}
}
