//
// Date: 2025-12-21
// Author: Spicer Matthews <spicer@cloudmanic.com>
// Copyright (c) 2025 Cloudmanic Labs, LLC. All rights reserved.
//
// Description: Artist model and in-place refresh.
//

package catalog

import "github.com/tidwall/gjson"

// DefaultArtistType is used when a payload has no type.
const DefaultArtistType = "artist"

// Artist is a performer credited on tracks and albums.
type Artist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	URI        string   `json:"uri"`
	Type       string   `json:"type"`
	Popularity int      `json:"popularity"`
	Genres     []string `json:"genres"`
	Images     []Image  `json:"images"`
}

// NewArtist builds an artist by hand, for example from a local library item.
func NewArtist(id, name, uri string) *Artist {
	return &Artist{
		ID:     id,
		Name:   name,
		URI:    uri,
		Type:   DefaultArtistType,
		Genres: []string{},
		Images: []Image{},
	}
}

// ParseArtist decodes an artist object.
func ParseArtist(data []byte) (*Artist, error) {
	r, err := parseObject(data, "artist")
	if err != nil {
		return nil, err
	}
	return artistFrom(r), nil
}

// artistFrom decodes an artist, defaulting every field.
func artistFrom(r gjson.Result) *Artist {
	a := &Artist{}
	a.apply(r)
	return a
}

// apply overwrites every field from r.
func (a *Artist) apply(r gjson.Result) {
	a.ID = stringOr(r, "id", "")
	a.Name = stringOr(r, "name", "")
	a.URI = stringOr(r, "uri", "")
	a.Type = stringOr(r, "type", DefaultArtistType)
	a.Popularity = intOr(r, "popularity", 0)
	a.Genres = stringList(r, "genres")
	a.Images = imagesFrom(r.Get("images"))
}

// Update refreshes the artist in place. Payloads carrying an error member
// leave the artist untouched.
func (a *Artist) Update(data []byte) error {
	r, err := parseObject(data, "artist")
	if err != nil {
		return err
	}
	if r.Get("error").Exists() {
		return nil
	}
	a.apply(r)
	return nil
}

// ThumbImageURL returns the smallest image URL.
func (a *Artist) ThumbImageURL() string {
	return thumb(a.Images)
}

// LargeImageURL returns the largest image URL.
func (a *Artist) LargeImageURL() string {
	return large(a.Images)
}
