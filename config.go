//
// Date: 2025-12-09
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Wires the store, OAuth manager and Web API client from configuration.
//

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/cloudmanic/spotify-auth-kit/config"
	"github.com/cloudmanic/spotify-auth-kit/spotify"
	"github.com/cloudmanic/spotify-auth-kit/storage"
)

const (
	profileKey = "spotify.profile.me"
	apiBurst   = 5
)

// app holds what the commands share.
type app struct {
	cfg     config.Config
	out     io.Writer
	store   storage.Store
	manager *spotify.Manager
	closer  io.Closer

	mu     sync.Mutex
	client spotify.Client
}

// open builds the store and manager.
func (a *app) open(cfg config.Config) error {
	store, closer, err := openStore(cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.store = store
	a.closer = closer
	a.manager = spotify.NewManager(cfg.SpotifyConfig(), store,
		spotify.WithHTTPClient(&http.Client{Timeout: cfg.Timeout()}))
	return nil
}

// close releases the store.
func (a *app) close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// apiClient returns the Web API client, built on first use from the stored token.
func (a *app) apiClient(ctx context.Context) (spotify.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}

	if _, err := a.manager.ValidToken(ctx); err != nil {
		return nil, fmt.Errorf("no usable token, run login first: %w", err)
	}

	a.client = spotify.NewAPIClient(a.manager.TokenSource(context.WithoutCancel(ctx)),
		spotify.WithTimeout(a.cfg.Timeout()),
		spotify.WithRateLimit(a.cfg.HTTP.APIRatePerSecond, apiBurst))
	return a.client, nil
}

// openStore returns the store selected by STORE_DRIVER and, when it holds
// resources, something to close.
func openStore(cfg config.Config) (storage.Store, io.Closer, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return storage.NewMemoryStore(), nil, nil

	case config.DriverFile:
		s, err := storage.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil

	case config.DriverRedis:
		s, err := storage.NewRedisStore(storage.RedisOptions{
			Addr:     cfg.Store.RedisAddr,
			Password: cfg.Store.RedisPassword,
			DB:       cfg.Store.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil

	default:
		s, err := storage.NewBoltStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, err
		}
		log.Debugf("Using bolt store at %s", cfg.Store.Path)
		return s, s, nil
	}
}
