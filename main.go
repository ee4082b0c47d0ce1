//
// Date: 2025-12-08
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Command line client for the Spotify Web API. Logs in with the
// authorization code flow, keeps the token fresh, looks up catalog metadata
// and plays 30 second previews.
//

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/cloudmanic/spotify-auth-kit/config"
)

// main is the entry point for the application.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Every subcommand gets a ready app.
func newRootCmd() *cobra.Command {
	var envFile string
	a := &app{out: os.Stdout}

	root := &cobra.Command{
		Use:           "spotify-auth",
		Short:         "Spotify login, token and preview player",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if envFile != "" {
				files = append(files, envFile)
			}
			cfg, err := config.Load(files...)
			if err != nil {
				return err
			}
			if err := setupLogging(cfg.Log.Level, cfg.Log.File); err != nil {
				return err
			}
			a.out = cmd.OutOrStdout()
			return a.open(cfg)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env", "", "env file to load instead of .env")

	root.AddCommand(
		newLoginCmd(a),
		newRefreshCmd(a),
		newClientTokenCmd(a),
		newLogoutCmd(a),
		newMeCmd(a),
		newTrackCmd(a),
		newAlbumCmd(a),
		newArtistCmd(a),
		newPlayCmd(a),
		newServeCmd(a),
	)
	return root
}

// setupLogging sets the log level and, when file is set, also writes to a
// rotating log file.
func setupLogging(level, file string) error {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if file == "" {
		log.SetOutput(os.Stderr)
		return nil
	}

	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   file,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}))
	return nil
}
