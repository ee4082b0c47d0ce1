//
// Date: 2025-12-21
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Track model with transient preview audio state.
//

package catalog

import (
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/gjson"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
)

// UnknownPopularity is used when a track payload has no popularity.
const UnknownPopularity = -1

// SoundSource says where a track's audio comes from.
type SoundSource int

const (
	// SourcePreview plays the vendor hosted preview clip.
	SourcePreview SoundSource = iota
	// SourceLibrary plays a local file referenced by AssetPath.
	SourceLibrary
)

// String returns the name of the source.
func (s SoundSource) String() string {
	switch s {
	case SourcePreview:
		return "preview"
	case SourceLibrary:
		return "library"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Track is a single recording. Sound bytes and the caching flag are
// transient and never serialized.
type Track struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Popularity  int       `json:"popularity"`
	PreviewURL  string    `json:"preview_url"`
	DurationMS  int       `json:"duration_ms"`
	TrackNumber int       `json:"track_number"`
	DiscNumber  int       `json:"disc_number"`
	URI         string    `json:"uri"`
	Type        string    `json:"type"`
	Album       *Album    `json:"album"`
	Artists     []*Artist `json:"artists"`

	SoundSource SoundSource `json:"-"`
	AssetPath   string      `json:"-"`

	mu        sync.Mutex
	soundData []byte
	caching   bool
}

// ParseTrack decodes a track object.
func ParseTrack(data []byte) (*Track, error) {
	r, err := parseObject(data, "track")
	if err != nil {
		return nil, err
	}
	return trackFrom(r)
}

// ParseTracks decodes a track list, either a paging object or a bare array.
func ParseTracks(data []byte) ([]*Track, error) {
	if !gjson.ValidBytes(data) {
		return nil, spoterr.Decode("invalid track list json", nil)
	}
	return tracksFrom(gjson.ParseBytes(data))
}

// tracksFrom decodes tracks from an array or from the items of a paging
// object, never nil.
func tracksFrom(r gjson.Result) ([]*Track, error) {
	if r.IsObject() {
		r = r.Get("items")
	}
	tracks := []*Track{}
	for _, item := range objects(r) {
		t, err := trackFrom(item)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// NewLibraryTrack builds a track that plays a local file.
func NewLibraryTrack(id, name, assetPath string, duration time.Duration) *Track {
	return &Track{
		ID:          id,
		Name:        name,
		Popularity:  UnknownPopularity,
		DurationMS:  int(duration / time.Millisecond),
		Artists:     []*Artist{},
		SoundSource: SourceLibrary,
		AssetPath:   assetPath,
	}
}

// trackFrom decodes a track. Only a malformed nested album fails it.
func trackFrom(r gjson.Result) (*Track, error) {
	t := &Track{
		ID:          stringOr(r, "id", ""),
		Name:        stringOr(r, "name", ""),
		Popularity:  intOr(r, "popularity", UnknownPopularity),
		PreviewURL:  stringOr(r, "preview_url", ""),
		DurationMS:  intOr(r, "duration_ms", 0),
		TrackNumber: intOr(r, "track_number", 0),
		DiscNumber:  intOr(r, "disc_number", 0),
		URI:         stringOr(r, "uri", ""),
		Type:        stringOr(r, "type", ""),
		Artists:     []*Artist{},
	}

	if album := r.Get("album"); album.IsObject() {
		a, err := albumFrom(album)
		if err != nil {
			return nil, fmt.Errorf("failed to decode album of track %q: %w", t.ID, err)
		}
		t.Album = a
	}

	for _, item := range objects(r.Get("artists")) {
		t.Artists = append(t.Artists, artistFrom(item))
	}

	return t, nil
}

// Duration returns the full track length.
func (t *Track) Duration() time.Duration {
	return time.Duration(t.DurationMS) * time.Millisecond
}

// SoundData returns the cached audio bytes, if any.
func (t *Track) SoundData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.soundData
}

// SetSoundData stores downloaded audio bytes.
func (t *Track) SetSoundData(data []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.soundData = data
}

// ClearSoundData drops the cached audio bytes.
func (t *Track) ClearSoundData() {
	t.SetSoundData(nil)
}

// HasSoundData reports whether audio bytes are cached.
func (t *Track) HasSoundData() bool {
	return len(t.SoundData()) > 0
}

// IsCachingSoundData reports whether a download is in flight.
func (t *Track) IsCachingSoundData() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.caching
}

// SetCachingSoundData sets the in-flight flag and returns its previous value.
func (t *Track) SetCachingSoundData(caching bool) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev := t.caching
	t.caching = caching
	return prev
}

// ArtistNames returns the names of the credited artists.
func (t *Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}
