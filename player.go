//
// Date: 2025-12-10
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Preview playback on the local sound device.
//

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/cloudmanic/spotify-auth-kit/audio"
	"github.com/cloudmanic/spotify-auth-kit/catalog"
	"github.com/cloudmanic/spotify-auth-kit/dispatch"
	"github.com/cloudmanic/spotify-auth-kit/media"
)

// newPlayCmd plays a track preview, or a local file with --file.
func newPlayCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "play [<id|url|uri>]",
		Short: "Play a track's 30 second preview",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var track *catalog.Track
			switch {
			case file != "":
				track = catalog.NewLibraryTrack("", strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)), file, 0)
			case len(args) == 1:
				client, err := a.apiClient(ctx)
				if err != nil {
					return err
				}
				track, err = client.Track(ctx, extractID("track", args[0]))
				if err != nil {
					return fmt.Errorf("failed to get track: %w", err)
				}
			default:
				return fmt.Errorf("a track id or --file is required")
			}

			return playTrack(ctx, a.out, track, audio.New(), media.NewCache(media.WithHTTPClient(&http.Client{Timeout: a.cfg.Timeout()})))
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "play a local mp3, flac or wav file instead")
	return cmd
}

// playTrack plays track to the end, printing status and progress.
func playTrack(ctx context.Context, out io.Writer, track *catalog.Track, output media.Output, cache *media.Cache) error {
	loop := dispatch.NewLoop()
	defer loop.Close()

	stopped := make(chan struct{})
	started := false

	p := media.NewPlayer(output, cache, media.PlayerHooks{
		OnStatus: func(p *media.Player, s media.Status, t *catalog.Track) {
			switch s {
			case media.StatusCaching:
				color.New(color.FgCyan).Fprintf(out, "Downloading preview for %s...\n", t.Name)
			case media.StatusPlaying:
				started = true
				if t.HasSoundData() {
					fmt.Fprintf(out, "Cached %s\n", humanize.Bytes(uint64(len(t.SoundData()))))
				}
				color.New(color.FgGreen, color.Bold).Fprintf(out, "▶ Playing %s (%s)\n", t.Name, p.DurationDescription())
			case media.StatusStopped:
				if !started {
					color.New(color.FgRed).Fprintf(out, "Preview unavailable for %s\n", t.Name)
				}
				fmt.Fprintln(out)
				close(stopped)
			}
		},
		OnPlayback: func(p *media.Player, pb media.Playback) {
			fmt.Fprintf(out, "\r%s / %s  %3.0f%%", media.DurationDescription(pb.Position),
				media.DurationDescription(pb.Duration), pb.Progress*100)
		},
	}, media.WithPlayerDispatcher(loop))

	p.SetTrack(track)
	if err := p.Play(ctx); err != nil {
		return err
	}

	select {
	case <-stopped:
	case <-ctx.Done():
		log.Info("Stopping playback")
		loop.Dispatch(p.Stop)
		<-stopped
	}

	if !started {
		return fmt.Errorf("unable to play %s", track.Name)
	}
	return nil
}
