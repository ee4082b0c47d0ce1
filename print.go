//
// Date: 2025-12-09
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Table output for tokens, profiles and catalog items.
//

package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
	"github.com/cloudmanic/spotify-auth-kit/media"
	"github.com/cloudmanic/spotify-auth-kit/spotify"
)

// newTable returns a rounded table writing to out.
func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}

// heading prints a section title.
func heading(out io.Writer, title string) {
	fmt.Fprintln(out)
	color.New(color.FgCyan).Fprintln(out, "🎵 "+title)
	fmt.Fprintln(out)
}

// mask shortens a secret for display.
func mask(secret string) string {
	if len(secret) <= 12 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:6] + "…" + secret[len(secret)-4:]
}

// printToken displays a token with its expiry.
func printToken(out io.Writer, token *spotify.Token) {
	heading(out, "Spotify Token")

	expires := humanize.Time(token.ExpiryDate)
	if token.Expired(time.Now()) {
		expires = color.RedString("expired %s", expires)
	} else {
		expires = color.GreenString("● %s", expires)
	}

	t := newTable(out)
	t.AppendRows([]table.Row{
		{"Type", token.Kind},
		{"Access token", color.HiBlackString(mask(token.AccessToken))},
		{"Refresh token", color.HiBlackString(mask(token.RefreshToken))},
		{"Scope", token.Scope},
		{"Expires", expires},
	})
	t.Render()
}

// printProfile displays the current user.
func printProfile(out io.Writer, p *catalog.Profile) {
	heading(out, "Spotify Profile")

	t := newTable(out)
	t.AppendRows([]table.Row{
		{"Name", color.New(color.Bold).Sprint(p.DisplayName)},
		{"Email", p.Email},
		{"Country", p.Country},
		{"Product", p.Product},
		{"Followers", humanize.Comma(int64(p.Followers))},
		{"User ID", color.HiBlackString(p.ID)},
	})
	t.Render()
}

// printTracks displays tracks with their preview availability.
func printTracks(out io.Writer, title string, tracks []*catalog.Track) {
	heading(out, title)

	t := newTable(out)
	t.AppendHeader(table.Row{"#", "Name", "Artists", "Length", "Popularity", "Preview", "Track ID"})

	for i, track := range tracks {
		preview := color.YellowString("premium only")
		if track.PreviewURL != "" {
			preview = color.GreenString("● Yes")
		}

		popularity := "-"
		if track.Popularity != catalog.UnknownPopularity {
			popularity = fmt.Sprint(track.Popularity)
		}

		t.AppendRow(table.Row{
			i + 1,
			color.New(color.Bold).Sprint(track.Name),
			strings.Join(track.ArtistNames(), ", "),
			media.DurationDescription(track.Duration()),
			popularity,
			preview,
			color.HiBlackString(track.ID),
		})
	}
	t.Render()

	fmt.Fprintln(out)
	color.New(color.FgGreen, color.Bold).Fprintf(out, "Total tracks: %d\n", len(tracks))
}

// printAlbum displays an album and its tracks.
func printAlbum(out io.Writer, album *catalog.Album) {
	heading(out, "Album")

	t := newTable(out)
	t.AppendRows([]table.Row{
		{"Name", color.New(color.Bold).Sprint(album.Name)},
		{"Type", album.AlbumType},
		{"Markets", len(album.AvailableMarkets)},
		{"Cover", album.LargeImageURL()},
		{"Album ID", color.HiBlackString(album.ID)},
	})
	t.Render()

	printTracks(out, "Tracks on "+album.Name, album.Tracks)
}

// printArtist displays an artist.
func printArtist(out io.Writer, artist *catalog.Artist) {
	heading(out, "Artist")

	t := newTable(out)
	t.AppendRows([]table.Row{
		{"Name", color.New(color.Bold).Sprint(artist.Name)},
		{"Genres", strings.Join(artist.Genres, ", ")},
		{"Popularity", artist.Popularity},
		{"Image", artist.LargeImageURL()},
		{"Artist ID", color.HiBlackString(artist.ID)},
	})
	t.Render()
}
