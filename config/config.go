//
// Date: 2025-12-22
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Environment configuration. A .env file is loaded first when present.
//

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	log "github.com/sirupsen/logrus"

	"github.com/cloudmanic/spotify-auth-kit/spotify"
)

// Store drivers.
const (
	DriverBolt   = "bolt"
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config is everything read from the environment.
type Config struct {
	Spotify struct {
		ClientID     string `envconfig:"SPOTIFY_CLIENT_ID"`
		ClientSecret string `envconfig:"SPOTIFY_CLIENT_SECRET"`
		RedirectURI  string `envconfig:"SPOTIFY_REDIRECT_URI" default:"http://127.0.0.1:8080/callback"`
		TokenKey     string `envconfig:"SPOTIFY_TOKEN_KEY" default:"spotify.token"`
	}

	Store struct {
		Driver        string `envconfig:"STORE_DRIVER" default:"bolt"`
		Path          string `envconfig:"STORE_PATH" default:".spotify_auth.db"`
		RedisAddr     string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
		RedisPassword string `envconfig:"REDIS_PASSWORD"`
		RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	}

	Log struct {
		Level string `envconfig:"LOG_LEVEL" default:"info"`
		File  string `envconfig:"LOG_FILE"`
	}

	HTTP struct {
		TimeoutSeconds   int     `envconfig:"HTTP_TIMEOUT_SECONDS" default:"30"`
		APIRatePerSecond float64 `envconfig:"API_RATE_PER_SECOND" default:"10"`
		Port             string  `envconfig:"PORT" default:"8080"`
		AccessToken      string  `envconfig:"API_ACCESS_TOKEN"`
	}
}

// Load reads files (default .env) into the environment and then fills a Config.
// Missing env files are not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Debugf("No env file loaded: %v", err)
	}

	cfg := Config{}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validate checks values envconfig cannot.
func (c *Config) validate() error {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	switch c.Store.Driver {
	case DriverBolt, DriverFile, DriverRedis, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be positive, got %d", c.HTTP.TimeoutSeconds)
	}
	if c.HTTP.APIRatePerSecond <= 0 {
		return fmt.Errorf("API_RATE_PER_SECOND must be positive, got %v", c.HTTP.APIRatePerSecond)
	}
	return nil
}

// Timeout returns the HTTP timeout.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// SpotifyConfig returns the OAuth manager settings.
func (c Config) SpotifyConfig() spotify.Config {
	return spotify.Config{
		ClientID:     c.Spotify.ClientID,
		ClientSecret: c.Spotify.ClientSecret,
		RedirectURI:  c.Spotify.RedirectURI,
		TokenKey:     c.Spotify.TokenKey,
	}
}
