//
// Date: 2025-12-21
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Album model. Id and uri are required.
//

package catalog

import (
	"github.com/tidwall/gjson"

	"github.com/cloudmanic/spotify-auth-kit/spoterr"
)

// Album owns its images and tracks. The owning artist is referenced by id.
type Album struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	URI              string   `json:"uri"`
	Type             string   `json:"type"`
	AlbumType        string   `json:"album_type"`
	Images           []Image  `json:"images"`
	Tracks           []*Track `json:"tracks"`
	AvailableMarkets []string `json:"available_markets"`
	ArtistID         string   `json:"artist_id,omitempty"`
}

// ParseAlbum decodes an album object.
func ParseAlbum(data []byte) (*Album, error) {
	r, err := parseObject(data, "album")
	if err != nil {
		return nil, err
	}
	return albumFrom(r)
}

// albumFrom decodes an album. A missing or non-string id or uri is an error.
func albumFrom(r gjson.Result) (*Album, error) {
	id := r.Get("id")
	if id.Type != gjson.String {
		return nil, spoterr.Decode("album id is missing", nil)
	}
	uri := r.Get("uri")
	if uri.Type != gjson.String {
		return nil, spoterr.Decode("album uri is missing", nil)
	}

	a := &Album{
		ID:               id.Str,
		Name:             stringOr(r, "name", ""),
		URI:              uri.Str,
		Type:             stringOr(r, "type", ""),
		AlbumType:        stringOr(r, "album_type", ""),
		Images:           imagesFrom(r.Get("images")),
		Tracks:           []*Track{},
		AvailableMarkets: stringList(r, "available_markets"),
		ArtistID:         stringOr(r, "artist_id", ""),
	}

	tracks, err := tracksFrom(r.Get("tracks"))
	if err != nil {
		return nil, err
	}
	a.Tracks = tracks

	return a, nil
}

// SetArtist records the owning artist.
func (a *Album) SetArtist(artist *Artist) {
	if artist == nil {
		a.ArtistID = ""
		return
	}
	a.ArtistID = artist.ID
}

// Artist looks up the owning artist in an index built by the caller.
func (a *Album) Artist(index map[string]*Artist) *Artist {
	if a.ArtistID == "" {
		return nil
	}
	return index[a.ArtistID]
}

// ThumbImageURL returns the smallest image URL.
func (a *Album) ThumbImageURL() string {
	return thumb(a.Images)
}

// LargeImageURL returns the largest image URL.
func (a *Album) LargeImageURL() string {
	return large(a.Images)
}
