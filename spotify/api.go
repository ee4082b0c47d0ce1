//
// Date: 2025-12-17
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Web API client for profile, track, album and artist metadata.
//

package spotify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
	"github.com/cloudmanic/spotify-auth-kit/spoterr"
)

const albumTracksPageSize = 50

// APIClient calls the Web API with a bearer token.
type APIClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// APIOption configures an APIClient.
type APIOption func(*apiOptions)

type apiOptions struct {
	baseURL string
	timeout time.Duration
	base    http.RoundTripper
	limit   rate.Limit
	burst   int
}

// WithBaseURL points the client at another API root.
func WithBaseURL(u string) APIOption {
	return func(o *apiOptions) {
		o.baseURL = u
	}
}

// WithTimeout sets the per request timeout.
func WithTimeout(d time.Duration) APIOption {
	return func(o *apiOptions) {
		o.timeout = d
	}
}

// WithTransport sets the round tripper under the bearer transport.
func WithTransport(rt http.RoundTripper) APIOption {
	return func(o *apiOptions) {
		o.base = rt
	}
}

// WithRateLimit paces requests to perSecond with the given burst.
func WithRateLimit(perSecond float64, burst int) APIOption {
	return func(o *apiOptions) {
		o.limit = rate.Limit(perSecond)
		o.burst = burst
	}
}

// NewAPIClient returns a client that authorizes every request with a token
// from src. Use Manager.TokenSource for automatic refresh, or
// oauth2.StaticTokenSource(token.OAuth2()) for a fixed token.
func NewAPIClient(src oauth2.TokenSource, opts ...APIOption) *APIClient {
	o := apiOptions{
		baseURL: DefaultAPIBaseURL,
		timeout: DefaultTimeout,
		base:    http.DefaultTransport,
		limit:   rate.Limit(10),
		burst:   5,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !strings.HasSuffix(o.baseURL, "/") {
		o.baseURL += "/"
	}

	return &APIClient{
		baseURL: o.baseURL,
		http: &http.Client{
			Timeout:   o.timeout,
			Transport: &oauth2.Transport{Source: src, Base: o.base},
		},
		limiter: rate.NewLimiter(o.limit, o.burst),
	}
}

// get fetches path relative to the API root and returns the body of a 2xx response.
func (c *APIClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, spoterr.Transport("rate limiter wait failed", err)
	}

	u := c.baseURL + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		var serr *spoterr.Error
		if errors.As(err, &serr) {
			return nil, serr
		}
		return nil, spoterr.Transport("GET "+path+" failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, spoterr.Transport("failed to read response", err)
	}

	log.Debugf("[API] GET %s %d %s", path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, vendorError(resp.StatusCode, body)
	}
	return body, nil
}

// CurrentUser fetches /me into profile.
func (c *APIClient) CurrentUser(ctx context.Context, profile *catalog.Profile) error {
	body, err := c.get(ctx, "me", nil)
	if err != nil {
		return err
	}
	return profile.Update(ctx, body)
}

// Track fetches a track by id.
func (c *APIClient) Track(ctx context.Context, id string) (*catalog.Track, error) {
	body, err := c.get(ctx, "tracks/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return catalog.ParseTrack(body)
}

// Album fetches an album by id, including its first page of tracks.
func (c *APIClient) Album(ctx context.Context, id string) (*catalog.Album, error) {
	body, err := c.get(ctx, "albums/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return catalog.ParseAlbum(body)
}

// AlbumTracks replaces album.Tracks with every track of the album, following pages.
func (c *APIClient) AlbumTracks(ctx context.Context, album *catalog.Album) error {
	tracks := []*catalog.Track{}
	offset := 0

	for {
		query := url.Values{
			"limit":  {strconv.Itoa(albumTracksPageSize)},
			"offset": {strconv.Itoa(offset)},
		}
		body, err := c.get(ctx, "albums/"+url.PathEscape(album.ID)+"/tracks", query)
		if err != nil {
			return err
		}

		page, err := catalog.ParseTracks(body)
		if err != nil {
			return err
		}
		tracks = append(tracks, page...)

		if len(page) < albumTracksPageSize || gjson.GetBytes(body, "next").Type != gjson.String {
			break
		}
		offset += albumTracksPageSize
	}

	album.Tracks = tracks
	return nil
}

// Artist fetches an artist by id.
func (c *APIClient) Artist(ctx context.Context, id string) (*catalog.Artist, error) {
	body, err := c.get(ctx, "artists/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return catalog.ParseArtist(body)
}

// RefreshArtist re-fetches artist and updates it in place.
func (c *APIClient) RefreshArtist(ctx context.Context, artist *catalog.Artist) error {
	body, err := c.get(ctx, "artists/"+url.PathEscape(artist.ID), nil)
	if err != nil {
		return err
	}
	return artist.Update(body)
}
