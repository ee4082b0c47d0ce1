//
// Date: 2025-12-21
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Downloads and caches preview clips on tracks. Concurrent
// requests for the same track share one download.
//

package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/cloudmanic/spotify-auth-kit/catalog"
	"github.com/cloudmanic/spotify-auth-kit/dispatch"
	"github.com/cloudmanic/spotify-auth-kit/spoterr"
)

const (
	// AlternateUserAgent is sent on the retry when the first download fails.
	AlternateUserAgent = "iTunes/12.10.5 (Macintosh; OS X 10.15.4) AppleWebKit/609.1.20.111.8"

	// minBodySize is the largest body still treated as empty.
	minBodySize = 2

	// DefaultTimeout bounds a single preview download.
	DefaultTimeout = 30 * time.Second
)

// CacheObserver is told how a cache request ends.
type CacheObserver interface {
	DidBeginCaching(track *catalog.Track)
	DidFinishCaching(track *catalog.Track)
	DidFailCaching(track *catalog.Track, err error)
}

// CacheHooks implements CacheObserver with optional functions.
type CacheHooks struct {
	OnBegin  func(track *catalog.Track)
	OnFinish func(track *catalog.Track)
	OnFail   func(track *catalog.Track, err error)
}

// DidBeginCaching implements CacheObserver.
func (h CacheHooks) DidBeginCaching(track *catalog.Track) {
	if h.OnBegin != nil {
		h.OnBegin(track)
	}
}

// DidFinishCaching implements CacheObserver.
func (h CacheHooks) DidFinishCaching(track *catalog.Track) {
	if h.OnFinish != nil {
		h.OnFinish(track)
	}
}

// DidFailCaching implements CacheObserver.
func (h CacheHooks) DidFailCaching(track *catalog.Track, err error) {
	if h.OnFail != nil {
		h.OnFail(track, err)
	}
}

// Cache fetches preview bytes onto tracks.
type Cache struct {
	http       *http.Client
	dispatcher dispatch.Dispatcher
	userAgent  string
}

// downloads coalesces preview requests across every Cache, keyed by
// preview URL. A track flagged as caching joins the flight already running
// for its URL.
var downloads singleflight.Group

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithHTTPClient sets the client used for downloads.
func WithHTTPClient(c *http.Client) CacheOption {
	return func(cache *Cache) {
		cache.http = c
	}
}

// WithDispatcher sets where observer callbacks run. Defaults to inline.
func WithDispatcher(d dispatch.Dispatcher) CacheOption {
	return func(cache *Cache) {
		cache.dispatcher = d
	}
}

// WithUserAgent sends ua on the first attempt. A cache with a user agent
// does not retry.
func WithUserAgent(ua string) CacheOption {
	return func(cache *Cache) {
		cache.userAgent = ua
	}
}

// NewCache returns a cache with a 30 second download timeout.
func NewCache(opts ...CacheOption) *Cache {
	c := &Cache{
		http:       &http.Client{Timeout: DefaultTimeout},
		dispatcher: dispatch.Inline{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheSound loads the track's preview bytes and reports the outcome to
// observer. A request for a track already downloading joins that download,
// whichever Cache started it, and every joined observer gets the same
// outcome. The joined download keeps the first caller's context and settings.
func (c *Cache) CacheSound(ctx context.Context, track *catalog.Track, observer CacheObserver) {
	if observer == nil {
		observer = CacheHooks{}
	}

	if track.HasSoundData() || track.SoundSource == catalog.SourceLibrary {
		c.dispatcher.Dispatch(func() { observer.DidFinishCaching(track) })
		return
	}

	if track.SetCachingSoundData(true) {
		log.Debugf("[Media] Joining download in flight for track %q", track.Name)
	}
	c.dispatcher.Dispatch(func() { observer.DidBeginCaching(track) })

	if track.PreviewURL == "" {
		log.Warnf("[Media] No preview url for track %q", track.Name)
		track.SetCachingSoundData(false)
		err := spoterr.PremiumRequired()
		c.dispatcher.Dispatch(func() { observer.DidFailCaching(track, err) })
		return
	}

	previewURL := track.PreviewURL
	ch := downloads.DoChan(previewURL, func() (interface{}, error) {
		return c.download(ctx, previewURL)
	})

	go func() {
		res := <-ch
		if res.Err != nil {
			log.WithError(res.Err).Warnf("[Media] Failed to cache track %q", track.Name)
			track.SetCachingSoundData(false)
			c.dispatcher.Dispatch(func() { observer.DidFailCaching(track, res.Err) })
			return
		}

		data := res.Val.([]byte)
		track.SetSoundData(data)
		track.SetCachingSoundData(false)
		c.dispatcher.Dispatch(func() { observer.DidFinishCaching(track) })
	}()
}

// download fetches url, retrying once with AlternateUserAgent when no
// user agent was configured.
func (c *Cache) download(ctx context.Context, url string) ([]byte, error) {
	data, err := c.fetch(ctx, url, c.userAgent)
	if err == nil {
		return data, nil
	}
	if c.userAgent != "" {
		return nil, err
	}

	log.WithError(err).Info("[Media] Retrying preview download with alternate user agent")
	return c.fetch(ctx, url, AlternateUserAgent)
}

// fetch makes one GET and checks the body size.
func (c *Cache) fetch(ctx context.Context, url, userAgent string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, spoterr.Content("invalid preview url", err)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, spoterr.Transport("preview download failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, spoterr.Transport("failed to read preview body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, spoterr.Content("unable to download track", fmt.Errorf("unexpected status %d", resp.StatusCode))
	}
	if len(data) <= minBodySize {
		return nil, spoterr.Content("unable to download track", fmt.Errorf("body of %d bytes", len(data)))
	}

	log.Debugf("[Media] Downloaded %s preview", humanize.Bytes(uint64(len(data))))
	return data, nil
}
